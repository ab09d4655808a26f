package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/food-delivery/internal/pkg/interceptors"
	"github.com/jcmexdev/food-delivery/internal/pkg/metrics"
)

// NewRouter mounts every page. m may be nil, which disables /metrics.
func NewRouter(h *Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(interceptors.AttachRequestMetadata)
	r.Use(middleware.Logger)
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}
	r.Handle("/static/*", staticHandler())

	r.Get("/", h.Index)
	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/select-location", h.SelectLocation)
	r.Post("/select-location", h.SelectLocation)
	r.Get("/restaurants", h.Restaurants)
	r.Get("/restaurant/{id}", h.RestaurantMenu)
	r.Get("/cart", h.Cart)
	r.Get("/order", h.OrderForm)
	r.Post("/order", h.CreateOrder)
	r.Get("/orders", h.Orders)
	r.Get("/order/{id}", h.OrderDetails)
	r.Get("/logout", h.Logout)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/login", h.AdminLoginForm)
		r.Post("/login", h.AdminLogin)
		r.Get("/dashboard", h.AdminDashboard)
		r.Post("/order/{id}/status", h.AdminUpdateStatus)
		r.Get("/logout", h.Logout)
	})

	r.Get("/restaurant/login", h.RestaurantLoginForm)
	r.Post("/restaurant/login", h.RestaurantLogin)
	r.Get("/restaurant/register", h.RestaurantRegisterForm)
	r.Post("/restaurant/register", h.RestaurantRegister)
	r.Get("/restaurant/dashboard", h.RestaurantDashboard)
	r.Get("/restaurant/menu", h.ManageMenu)
	r.Post("/restaurant/menu", h.ManageMenu)
	r.Post("/restaurant/order/{id}/status", h.RestaurantUpdateStatus)
	r.Get("/restaurant/logout", h.Logout)

	return otelhttp.NewHandler(r, "frontend-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/food-delivery/internal/order-service/infra/httpx/middlewares"
	"github.com/jcmexdev/food-delivery/internal/pkg/interceptors"
	"github.com/jcmexdev/food-delivery/internal/pkg/metrics"
)

// NewRouter mounts the orders API. m may be nil, which disables /metrics.
func NewRouter(handler *Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(interceptors.AttachRequestMetadata)
	r.Use(middlewares.CORS())
	r.Use(middleware.Logger)
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(middlewares.RecoverJSON)

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/health", handler.Health)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", handler.CreateOrder)
		r.Get("/", handler.ListOrders)
		r.Get("/{id}", handler.GetOrder)
		r.Put("/{id}", handler.UpdateOrder)
		r.Get("/{id}/history", handler.History)
	})

	r.Get("/admin/orders", handler.AdminListOrders)
	r.Put("/admin/orders/{id}/status", handler.AdminUpdateStatus)

	r.Get("/restaurant/{restaurantID}/orders", handler.RestaurantListOrders)
	r.Put("/restaurant/orders/{id}/status", handler.RestaurantUpdateStatus)

	return otelhttp.NewHandler(r, "orders-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

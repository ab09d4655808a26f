// Package httpx serves the food delivery web front end.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/food-delivery/internal/frontend/core/domain/entity"
	"github.com/jcmexdev/food-delivery/internal/frontend/core/ports"
	"github.com/jcmexdev/food-delivery/internal/frontend/infra/gateway"
	"github.com/jcmexdev/food-delivery/internal/frontend/session"
	"github.com/jcmexdev/food-delivery/internal/order-service/domain"
)

// Statuses offered in the admin and restaurant dashboards.
var Statuses = dashboardStatuses()

func dashboardStatuses() []string {
	known := domain.KnownStatuses()
	out := make([]string, 0, len(known))
	for _, st := range known {
		out = append(out, string(st))
	}
	return out
}

// view is the data every page template receives. Pages use the fields they
// need.
type view struct {
	Session session.Data
	Error   string

	Locations   []entity.Location
	Restaurants []entity.Restaurant
	Restaurant  *entity.Restaurant
	Menu        []entity.MenuItem
	Orders      []entity.Order
	Order       *entity.Order
	Statuses    []string
}

type Handler struct {
	gateway   ports.Gateway
	sessions  *session.Manager
	pages     *renderer
	publicURL string
}

func NewHandler(gw ports.Gateway, sessions *session.Manager, publicURL string) (*Handler, error) {
	r, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &Handler{gateway: gw, sessions: sessions, pages: r, publicURL: publicURL}, nil
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Load(r)
	switch {
	case s.Data.UserID != "":
		redirect(w, r, "/select-location")
	case s.Data.AdminID != "":
		redirect(w, r, "/admin/dashboard")
	default:
		h.pages.render(w, r, http.StatusOK, "home", view{Session: s.Data})
	}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "Frontend Healthy"})
}

// --- customers ---

func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "register", view{})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	req := entity.UserRegistration{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Name:     r.PostFormValue("name"),
		Phone:    r.PostFormValue("phone"),
	}
	res, err := h.gateway.RegisterUser(r.Context(), req)
	if err != nil {
		h.pages.render(w, r, http.StatusOK, "register", view{Error: formError(err)})
		return
	}

	s := h.sessions.Load(r)
	h.sessions.Renew(r.Context(), s)
	s.Data.UserID = res.UserID.String()
	s.Data.Email = req.Email
	s.Data.Name = req.Name
	h.saveAndRedirect(w, r, s, "/select-location")
}

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "login", view{})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	creds := credentials(r)
	res, err := h.gateway.LoginUser(r.Context(), creds)
	if err != nil {
		h.pages.render(w, r, http.StatusOK, "login", view{Error: formError(err)})
		return
	}

	s := h.sessions.Load(r)
	h.sessions.Renew(r.Context(), s)
	s.Data.UserID = res.UserID.String()
	s.Data.Email = creds.Email
	s.Data.Name = res.Name
	if s.Data.Name == "" {
		s.Data.Name = "User"
	}
	h.saveAndRedirect(w, r, s, "/select-location")
}

func (h *Handler) SelectLocation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodPost {
		if loc := strings.TrimSpace(r.PostFormValue("location")); loc != "" {
			s.Data.Location = loc
			h.saveAndRedirect(w, r, s, "/restaurants")
			return
		}
	}

	locations, err := h.gateway.Locations(r.Context())
	logReadError(r.Context(), "locations", err)
	h.pages.render(w, r, http.StatusOK, "select_location", view{Session: s.Data, Locations: locations})
}

func (h *Handler) Restaurants(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	restaurants, err := h.gateway.Restaurants(r.Context(), s.Data.Location)
	logReadError(r.Context(), "restaurants", err)
	h.pages.render(w, r, http.StatusOK, "restaurants", view{Session: s.Data, Restaurants: restaurants})
}

// RestaurantMenu shows one restaurant's menu. Restaurant and menu are
// fetched concurrently; either may come back empty.
func (h *Handler) RestaurantMenu(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var (
		menu       []entity.MenuItem
		restaurant *entity.Restaurant
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		m, err := h.gateway.Menu(ctx, id)
		logReadError(ctx, "menu", err)
		menu = m
		return nil
	})
	g.Go(func() error {
		rest, err := h.gateway.Restaurant(ctx, id)
		logReadError(ctx, "restaurant", err)
		restaurant = rest
		return nil
	})
	_ = g.Wait()

	if restaurant == nil {
		restaurant = &entity.Restaurant{RestaurantID: entity.ID(id)}
	}
	h.pages.render(w, r, http.StatusOK, "menu", view{Session: s.Data, Restaurant: restaurant, Menu: menu})
}

func (h *Handler) Cart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	h.pages.render(w, r, http.StatusOK, "cart", view{Session: s.Data})
}

func (h *Handler) OrderForm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	h.pages.render(w, r, http.StatusOK, "order", view{Session: s.Data})
}

// CreateOrder submits the cart posted by the cart page.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	fail := func(msg string) {
		h.pages.render(w, r, http.StatusOK, "order", view{Session: s.Data, Error: msg})
	}

	var items []entity.CartItem
	if raw := r.PostFormValue("items"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			fail("Invalid cart data format")
			return
		}
	}
	var total float64
	if raw := strings.TrimSpace(r.PostFormValue("total")); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fail("Error: invalid total " + strconv.Quote(raw))
			return
		}
		total = t
	}
	if len(items) == 0 || total <= 0 {
		fail("Cart is empty or invalid")
		return
	}

	order, err := h.gateway.CreateOrder(r.Context(), entity.CreateOrder{
		UserID:       s.Data.UserID,
		RestaurantID: r.PostFormValue("restaurant_id"),
		Items:        items,
		Total:        total,
	})
	if err != nil {
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) {
			fail(apiErr.Message)
		} else {
			slog.ErrorContext(r.Context(), "create order request failed", "error", err)
			fail("Server error: " + err.Error())
		}
		return
	}
	slog.InfoContext(r.Context(), "order placed", "order_id", order.OrderID, "user_id", s.Data.UserID)
	redirect(w, r, "/order/"+order.OrderID)
}

func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	orders, err := h.gateway.UserOrders(r.Context(), s.Data.UserID)
	logReadError(r.Context(), "user orders", err)
	h.pages.render(w, r, http.StatusOK, "orders", view{Session: s.Data, Orders: orders})
}

func (h *Handler) OrderDetails(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	order, err := h.gateway.Order(r.Context(), chi.URLParam(r, "id"))
	logReadError(r.Context(), "order", err)
	h.pages.render(w, r, http.StatusOK, "order_details", view{Session: s.Data, Order: order})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(r.Context(), w, h.sessions.Load(r))
	redirect(w, r, "/")
}

// --- admins ---

func (h *Handler) AdminLoginForm(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "admin_login", view{})
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	res, err := h.gateway.AdminLogin(r.Context(), credentials(r))
	if err != nil {
		h.pages.render(w, r, http.StatusOK, "admin_login", view{Error: formError(err)})
		return
	}
	s := h.sessions.Load(r)
	h.sessions.Renew(r.Context(), s)
	s.Data.AdminID = res.AdminID.String()
	s.Data.AdminName = res.Name
	s.Data.IsAdmin = true
	h.saveAndRedirect(w, r, s, "/admin/dashboard")
}

func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	orders, err := h.gateway.AdminOrders(r.Context())
	logReadError(r.Context(), "admin orders", err)
	h.pages.render(w, r, http.StatusOK, "admin_dashboard", view{Session: s.Data, Orders: orders, Statuses: Statuses})
}

// AdminUpdateStatus always returns to the dashboard; failures are logged.
func (h *Handler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := h.gateway.AdminUpdateStatus(r.Context(), id, r.PostFormValue("status")); err != nil {
		slog.WarnContext(r.Context(), "admin status update failed", "order_id", id, "error", err)
	}
	redirect(w, r, "/admin/dashboard")
}

// --- restaurant managers ---

func (h *Handler) RestaurantLoginForm(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "restaurant_login", view{})
}

func (h *Handler) RestaurantLogin(w http.ResponseWriter, r *http.Request) {
	creds := credentials(r)
	res, err := h.gateway.RestaurantLogin(r.Context(), creds)
	if err != nil {
		h.pages.render(w, r, http.StatusOK, "restaurant_login", view{Error: formError(err)})
		return
	}
	s := h.sessions.Load(r)
	h.sessions.Renew(r.Context(), s)
	s.Data.RestaurantID = res.RestaurantID.String()
	s.Data.RestaurantName = res.RestaurantName
	s.Data.RestaurantEmail = creds.Email
	s.Data.IsRestaurant = true
	h.saveAndRedirect(w, r, s, "/restaurant/dashboard")
}

func (h *Handler) RestaurantRegisterForm(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "restaurant_register", view{})
}

func (h *Handler) RestaurantRegister(w http.ResponseWriter, r *http.Request) {
	req := entity.RestaurantRegistration{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Cuisine:  r.PostFormValue("cuisine"),
		Address:  r.PostFormValue("address"),
		Location: r.PostFormValue("location"),
		Phone:    r.PostFormValue("phone"),
	}
	res, err := h.gateway.RegisterRestaurant(r.Context(), req)
	if err != nil {
		h.pages.render(w, r, http.StatusOK, "restaurant_register", view{Error: formError(err)})
		return
	}
	s := h.sessions.Load(r)
	h.sessions.Renew(r.Context(), s)
	s.Data.RestaurantID = res.RestaurantID.String()
	s.Data.RestaurantName = req.Name
	s.Data.RestaurantEmail = req.Email
	s.Data.IsRestaurant = true
	h.saveAndRedirect(w, r, s, "/restaurant/dashboard")
}

func (h *Handler) RestaurantDashboard(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireRestaurant(w, r)
	if !ok {
		return
	}
	orders, err := h.gateway.RestaurantOrders(r.Context(), s.Data.RestaurantID)
	logReadError(r.Context(), "restaurant orders", err)
	h.pages.render(w, r, http.StatusOK, "restaurant_dashboard", view{Session: s.Data, Orders: orders, Statuses: Statuses})
}

// ManageMenu lists the restaurant's menu and handles the add and delete
// forms.
func (h *Handler) ManageMenu(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireRestaurant(w, r)
	if !ok {
		return
	}

	var formErr string
	if r.Method == http.MethodPost {
		var err error
		switch r.PostFormValue("action") {
		case "add":
			err = h.addMenuItem(r, s.Data.RestaurantID)
		case "delete":
			err = h.gateway.DeleteMenuItem(r.Context(), r.PostFormValue("item_id"))
		default:
			err = &gateway.APIError{Message: "Unknown action"}
		}
		if err == nil {
			redirect(w, r, "/restaurant/menu")
			return
		}
		formErr = formError(err)
	}

	menu, err := h.gateway.RestaurantMenu(r.Context(), s.Data.RestaurantID)
	logReadError(r.Context(), "restaurant menu", err)
	h.pages.render(w, r, http.StatusOK, "restaurant_menu", view{Session: s.Data, Menu: menu, Error: formErr})
}

func (h *Handler) addMenuItem(r *http.Request, restaurantID string) error {
	price := 0.0
	if raw := strings.TrimSpace(r.PostFormValue("price")); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return errors.New("invalid price " + strconv.Quote(raw))
		}
		price = p
	}
	return h.gateway.AddMenuItem(r.Context(), entity.NewMenuItem{
		RestaurantID: restaurantID,
		ItemName:     r.PostFormValue("item_name"),
		Price:        price,
		Description:  r.PostFormValue("description"),
		ImageURL:     h.publicURL + "/static/images/food.svg",
	})
}

// RestaurantUpdateStatus always returns to the dashboard; failures are
// logged.
func (h *Handler) RestaurantUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireRestaurant(w, r); !ok {
		return
	}
	id := chi.URLParam(r, "id")
	_, err := h.gateway.RestaurantUpdateStatus(r.Context(), id, r.PostFormValue("action"), r.PostFormValue("status"))
	if err != nil {
		slog.WarnContext(r.Context(), "restaurant status update failed", "order_id", id, "error", err)
	}
	redirect(w, r, "/restaurant/dashboard")
}

// --- helpers ---

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	return h.require(w, r, "/login", func(d session.Data) bool { return d.UserID != "" })
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	return h.require(w, r, "/admin/login", func(d session.Data) bool { return d.AdminID != "" })
}

func (h *Handler) requireRestaurant(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	return h.require(w, r, "/restaurant/login", func(d session.Data) bool { return d.RestaurantID != "" })
}

func (h *Handler) require(w http.ResponseWriter, r *http.Request, login string, ok func(session.Data) bool) (*session.Session, bool) {
	s := h.sessions.Load(r)
	if !ok(s.Data) {
		redirect(w, r, login)
		return nil, false
	}
	return s, true
}

func (h *Handler) saveAndRedirect(w http.ResponseWriter, r *http.Request, s *session.Session, to string) {
	if err := h.sessions.Save(r.Context(), w, s); err != nil {
		slog.ErrorContext(r.Context(), "failed to save session", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	redirect(w, r, to)
}

func credentials(r *http.Request) entity.Credentials {
	return entity.Credentials{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
}

// formError is the message shown above a form: the gateway's own error text,
// or "Error: ..." when the gateway could not be reached.
func formError(err error) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "Error: " + err.Error()
}

func logReadError(ctx context.Context, what string, err error) {
	if err != nil {
		slog.WarnContext(ctx, "gateway read failed, rendering empty", "resource", what, "error", err)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusFound)
}

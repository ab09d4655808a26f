package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/food-delivery/internal/coordinator/sagalog"
	"github.com/jcmexdev/food-delivery/internal/order-service/domain"
)

// OrderService is the set of use cases the HTTP API exposes.
type OrderService interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error)
	ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error)
	AdminUpdateStatus(ctx context.Context, id, status string) (*domain.Order, error)
	ListAllOrders(ctx context.Context) ([]domain.Order, error)
	ListRestaurantOrders(ctx context.Context, restaurantID string) ([]domain.Order, error)
	RestaurantUpdateStatus(ctx context.Context, id, action, status string) (*domain.Order, error)
	History(ctx context.Context, id string) ([]sagalog.SagaLog, error)
}

// Handler serves the orders REST API.
type Handler struct {
	orders OrderService
	now    func() time.Time
}

func NewHandler(orders OrderService) *Handler {
	return &Handler{orders: orders, now: time.Now}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "Orders Service Healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// CreateOrder persists a new pending order built from the JSON body.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	items := make([]domain.RequestedItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.RequestedItem{
			ItemID:   it.ItemID,
			ItemName: it.ItemName,
			Quantity: it.Quantity,
		})
	}

	order, err := h.orders.CreateOrder(r.Context(), domain.CreateOrderRequest{
		UserID:       req.UserID,
		RestaurantID: req.RestaurantID,
		Items:        items,
		Total:        req.Total,
	})
	if err != nil {
		h.fail(w, r, "create order", err)
		return
	}
	writeJSON(w, http.StatusCreated, mapOrderToResponse(order))
}

// ListOrders returns the orders of the user_id query parameter.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListUserOrders(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		slog.ErrorContext(r.Context(), "list user orders failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, OrdersResponse{
			Orders: []OrderResponse{},
			Error:  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, OrdersResponse{Orders: mapOrders(orders)})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

// UpdateOrder sets the status without notifying anyone.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	order, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.fail(w, r, "update order", err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := h.orders.History(r.Context(), id)
	if err != nil {
		h.fail(w, r, "order history", err)
		return
	}
	resp := HistoryResponse{OrderID: id, History: make([]HistoryEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.History = append(resp.History, HistoryEntryResponse{
			SagaID:    e.SagaID,
			Status:    string(e.Status),
			Step:      e.CurrentStep,
			Payload:   e.Payload,
			Errors:    e.Errors(),
			TraceID:   e.TraceID,
			SpanID:    e.SpanID,
			UpdatedAt: e.UpdatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAllOrders(r.Context())
	if err != nil {
		h.fail(w, r, "list all orders", err)
		return
	}
	writeJSON(w, http.StatusOK, OrdersResponse{Orders: mapOrders(orders)})
}

func (h *Handler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	order, err := h.orders.AdminUpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.fail(w, r, "admin update status", err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

func (h *Handler) RestaurantListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListRestaurantOrders(r.Context(), chi.URLParam(r, "restaurantID"))
	if err != nil {
		h.fail(w, r, "list restaurant orders", err)
		return
	}
	writeJSON(w, http.StatusOK, OrdersResponse{Orders: mapOrders(orders)})
}

func (h *Handler) RestaurantUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req RestaurantStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	order, err := h.orders.RestaurantUpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Action, req.Status)
	if err != nil {
		h.fail(w, r, "restaurant update status", err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

func (h *Handler) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Endpoint not found")
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// fail maps use-case errors onto status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, domain.ErrInvalidOrder), errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeBody writes 400 "No data provided" for an empty or malformed body.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		writeError(w, http.StatusBadRequest, "No data provided")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return false
	}
	return true
}

func mapOrders(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, mapOrderToResponse(&orders[i]))
	}
	return out
}

func mapOrderToResponse(o *domain.Order) OrderResponse {
	resp := OrderResponse{
		OrderID:        o.ID,
		UserID:         o.UserID,
		RestaurantID:   o.RestaurantID,
		RestaurantName: o.RestaurantName,
		Items:          make([]OrderItemResponse, 0, len(o.Items)),
		Total:          o.Total,
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ItemID:   it.ItemID,
			ItemName: it.ItemName,
			Quantity: it.Quantity,
			ImageURL: it.ImageURL,
		})
	}
	if o.UpdatedAt != nil {
		s := o.UpdatedAt.UTC().Format(time.RFC3339Nano)
		resp.UpdatedAt = &s
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

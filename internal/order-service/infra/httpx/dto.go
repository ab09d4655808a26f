package httpx

type CreateOrderRequest struct {
	UserID       string               `json:"user_id"`
	RestaurantID string               `json:"restaurant_id"`
	Items        []CreateOrderItemDTO `json:"items"`
	Total        float64              `json:"total"`
}

type CreateOrderItemDTO struct {
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type RestaurantStatusRequest struct {
	Status string `json:"status"`
	Action string `json:"action"`
}

type OrderResponse struct {
	OrderID        string              `json:"order_id"`
	UserID         string              `json:"user_id"`
	RestaurantID   string              `json:"restaurant_id"`
	RestaurantName string              `json:"restaurant_name"`
	Items          []OrderItemResponse `json:"items"`
	Total          float64             `json:"total"`
	Status         string              `json:"status"`
	CreatedAt      string              `json:"created_at"`
	// UpdatedAt is null until the first status change.
	UpdatedAt *string `json:"updated_at"`
}

type OrderItemResponse struct {
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
	ImageURL string `json:"image_url"`
}

type OrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
	Error  string          `json:"error,omitempty"`
}

type HistoryEntryResponse struct {
	SagaID    string   `json:"saga_id"`
	Status    string   `json:"status"`
	Step      string   `json:"step,omitempty"`
	Payload   string   `json:"payload,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	TraceID   string   `json:"trace_id,omitempty"`
	SpanID    string   `json:"span_id,omitempty"`
	UpdatedAt string   `json:"updated_at"`
}

type HistoryResponse struct {
	OrderID string                 `json:"order_id"`
	History []HistoryEntryResponse `json:"history"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

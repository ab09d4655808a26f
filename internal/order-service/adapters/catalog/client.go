// Package catalog talks to the restaurant catalog service ("node server"),
// which owns restaurants and menus and receives order status notifications.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/food-delivery/internal/order-service/domain"
	"github.com/jcmexdev/food-delivery/internal/order-service/ports"
	"github.com/jcmexdev/food-delivery/internal/pkg/interceptors"
	"github.com/jcmexdev/food-delivery/internal/pkg/metrics"
)

type restaurantDTO struct {
	RestaurantID string `json:"restaurant_id"`
	Name         string `json:"name"`
}

type menuItemDTO struct {
	ItemID      string  `json:"item_id"`
	ItemName    string  `json:"item_name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
}

type menuDTO struct {
	Menu []menuItemDTO `json:"menu"`
}

type notificationDTO struct {
	OrderID   string  `json:"order_id"`
	Status    string  `json:"status"`
	UpdatedAt *string `json:"updated_at,omitempty"`
	Message   string  `json:"message"`
}

// StatusError is returned for any non-200 answer.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog: %s: unexpected status %d", e.Op, e.Code)
}

type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	metrics *metrics.Metrics
}

var (
	_ ports.Catalog        = (*Client)(nil)
	_ ports.StatusNotifier = (*Client)(nil)
)

// NewClient returns a client for baseURL. Every call is bounded by timeout;
// m may be nil.
func NewClient(baseURL string, timeout time.Duration, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Transport: otelhttp.NewTransport(&interceptors.Transport{Base: http.DefaultTransport}),
		},
		timeout: timeout,
		metrics: m,
	}
}

func (c *Client) GetRestaurant(ctx context.Context, restaurantID string) (*domain.Restaurant, error) {
	var dto restaurantDTO
	if err := c.getJSON(ctx, "get_restaurant", "/restaurants/"+url.PathEscape(restaurantID), &dto); err != nil {
		return nil, err
	}
	id := dto.RestaurantID
	if id == "" {
		id = restaurantID
	}
	return &domain.Restaurant{ID: id, Name: dto.Name}, nil
}

func (c *Client) GetMenu(ctx context.Context, restaurantID string) ([]domain.MenuItem, error) {
	var dto menuDTO
	if err := c.getJSON(ctx, "get_menu", "/restaurants/"+url.PathEscape(restaurantID)+"/menu", &dto); err != nil {
		return nil, err
	}
	menu := make([]domain.MenuItem, len(dto.Menu))
	for i, m := range dto.Menu {
		menu[i] = domain.MenuItem(m)
	}
	return menu, nil
}

// NotifyStatusChange posts to /notifications/order-status-update.
func (c *Client) NotifyStatusChange(ctx context.Context, n domain.StatusNotification) (err error) {
	const op = "notify_status"
	defer c.observe(op, time.Now(), &err)

	body := notificationDTO{
		OrderID: n.OrderID,
		Status:  string(n.Status),
		Message: n.Message,
	}
	if n.UpdatedAt != nil {
		ts := n.UpdatedAt.UTC().Format(time.RFC3339Nano)
		body.UpdatedAt = &ts
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("catalog: encode notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notifications/order-status-update", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: %s: %w", op, err)
	}
	defer drain(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Op: op, Code: resp.StatusCode}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) (err error) {
	defer c.observe(op, time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: %s: %w", op, err)
	}
	defer drain(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Op: op, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog: %s: decode: %w", op, err)
	}
	return nil
}

func (c *Client) observe(op string, start time.Time, err *error) {
	if c.metrics != nil {
		c.metrics.ObserveUpstream("catalog", op, start, *err)
	}
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}

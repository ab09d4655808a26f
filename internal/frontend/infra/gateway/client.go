// Package gateway is the HTTP client of the API gateway the front end and
// ordersctl talk to.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/food-delivery/internal/frontend/core/domain/entity"
	"github.com/jcmexdev/food-delivery/internal/frontend/core/ports"
	"github.com/jcmexdev/food-delivery/internal/pkg/interceptors"
	"github.com/jcmexdev/food-delivery/internal/pkg/metrics"
)

const (
	defaultTimeout  = 5 * time.Second
	registerTimeout = 15 * time.Second
	orderTimeout    = 10 * time.Second
)

// APIError is a non-success response. Message is the body's "error" field,
// or a per-call fallback when the body has none.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// IsNotFound reports whether err is a 404 from the gateway.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
}

var _ ports.Gateway = (*Client)(nil)

// NewClient talks to baseURL (for example http://localhost:3000/api). m may
// be nil.
func NewClient(baseURL string, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Transport: otelhttp.NewTransport(&interceptors.Transport{Base: http.DefaultTransport}),
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		metrics: m,
	}
}

type call struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     any
	timeout  time.Duration
	want     int
	fallback string
}

func (c *Client) RegisterUser(ctx context.Context, req entity.UserRegistration) (*entity.AuthResult, error) {
	var out entity.AuthResult
	err := c.do(ctx, call{
		op: "register", method: http.MethodPost, path: "/auth/register", body: req,
		timeout: registerTimeout, want: http.StatusCreated, fallback: "Registration failed",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LoginUser(ctx context.Context, creds entity.Credentials) (*entity.AuthResult, error) {
	return c.login(ctx, "login", "/auth/login", creds)
}

func (c *Client) AdminLogin(ctx context.Context, creds entity.Credentials) (*entity.AuthResult, error) {
	return c.login(ctx, "admin_login", "/admin/login", creds)
}

func (c *Client) RestaurantLogin(ctx context.Context, creds entity.Credentials) (*entity.AuthResult, error) {
	return c.login(ctx, "restaurant_login", "/restaurant/login", creds)
}

func (c *Client) login(ctx context.Context, op, path string, creds entity.Credentials) (*entity.AuthResult, error) {
	var out entity.AuthResult
	err := c.do(ctx, call{
		op: op, method: http.MethodPost, path: path, body: creds,
		want: http.StatusOK, fallback: "Login failed",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Locations(ctx context.Context) ([]entity.Location, error) {
	var out struct {
		Locations []entity.Location `json:"locations"`
	}
	if err := c.get(ctx, "locations", "/locations", nil, &out); err != nil {
		return nil, err
	}
	return out.Locations, nil
}

func (c *Client) Restaurants(ctx context.Context, location string) ([]entity.Restaurant, error) {
	var q url.Values
	if location != "" {
		q = url.Values{"location": {location}}
	}
	var out struct {
		Restaurants []entity.Restaurant `json:"restaurants"`
	}
	if err := c.get(ctx, "restaurants", "/restaurants", q, &out); err != nil {
		return nil, err
	}
	return out.Restaurants, nil
}

func (c *Client) Restaurant(ctx context.Context, id string) (*entity.Restaurant, error) {
	var out entity.Restaurant
	if err := c.get(ctx, "restaurant", "/restaurants/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Menu(ctx context.Context, restaurantID string) ([]entity.MenuItem, error) {
	return c.menu(ctx, "menu", "/restaurants/"+url.PathEscape(restaurantID)+"/menu")
}

func (c *Client) RestaurantMenu(ctx context.Context, restaurantID string) ([]entity.MenuItem, error) {
	return c.menu(ctx, "restaurant_menu", "/restaurant/"+url.PathEscape(restaurantID)+"/menu")
}

func (c *Client) menu(ctx context.Context, op, path string) ([]entity.MenuItem, error) {
	var out struct {
		Menu []entity.MenuItem `json:"menu"`
	}
	if err := c.get(ctx, op, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Menu, nil
}

func (c *Client) CreateOrder(ctx context.Context, req entity.CreateOrder) (*entity.Order, error) {
	var out entity.Order
	err := c.do(ctx, call{
		op: "create_order", method: http.MethodPost, path: "/orders", body: req,
		timeout: orderTimeout, want: http.StatusCreated, fallback: "Order creation failed",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UserOrders(ctx context.Context, userID string) ([]entity.Order, error) {
	return c.orders(ctx, "user_orders", "/orders", url.Values{"user_id": {userID}})
}

func (c *Client) AdminOrders(ctx context.Context) ([]entity.Order, error) {
	return c.orders(ctx, "admin_orders", "/admin/orders", nil)
}

func (c *Client) RestaurantOrders(ctx context.Context, restaurantID string) ([]entity.Order, error) {
	return c.orders(ctx, "restaurant_orders", "/restaurant/"+url.PathEscape(restaurantID)+"/orders", nil)
}

func (c *Client) orders(ctx context.Context, op, path string, q url.Values) ([]entity.Order, error) {
	var out struct {
		Orders []entity.Order `json:"orders"`
	}
	if err := c.get(ctx, op, path, q, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) Order(ctx context.Context, id string) (*entity.Order, error) {
	var out entity.Order
	if err := c.get(ctx, "order", "/orders/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) OrderHistory(ctx context.Context, id string) ([]entity.HistoryEntry, error) {
	var out struct {
		History []entity.HistoryEntry `json:"history"`
	}
	if err := c.get(ctx, "order_history", "/orders/"+url.PathEscape(id)+"/history", nil, &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

func (c *Client) AdminUpdateStatus(ctx context.Context, orderID, status string) (*entity.Order, error) {
	var out entity.Order
	err := c.do(ctx, call{
		op: "admin_update_status", method: http.MethodPut,
		path: "/admin/orders/" + url.PathEscape(orderID) + "/status",
		body: map[string]string{"status": status},
		want: http.StatusOK, fallback: "Failed to update order status",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RestaurantUpdateStatus(ctx context.Context, orderID, action, status string) (*entity.Order, error) {
	var out entity.Order
	err := c.do(ctx, call{
		op: "restaurant_update_status", method: http.MethodPut,
		path: "/restaurant/orders/" + url.PathEscape(orderID) + "/status",
		body: map[string]string{"status": status, "action": action},
		want: http.StatusOK, fallback: "Failed to update order status",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RegisterRestaurant(ctx context.Context, req entity.RestaurantRegistration) (*entity.AuthResult, error) {
	var out entity.AuthResult
	err := c.do(ctx, call{
		op: "restaurant_register", method: http.MethodPost, path: "/restaurant/register", body: req,
		want: http.StatusCreated, fallback: "Registration failed",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddMenuItem(ctx context.Context, item entity.NewMenuItem) error {
	return c.do(ctx, call{
		op: "add_menu_item", method: http.MethodPost, path: "/restaurant/menu/add", body: item,
		want: http.StatusCreated, fallback: "Failed to add item",
	}, nil)
}

func (c *Client) DeleteMenuItem(ctx context.Context, itemID string) error {
	return c.do(ctx, call{
		op: "delete_menu_item", method: http.MethodDelete, path: "/restaurant/menu/" + url.PathEscape(itemID),
		want: http.StatusOK, fallback: "Failed to delete item",
	}, nil)
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) error {
	return c.do(ctx, call{
		op: op, method: http.MethodGet, path: path, query: q,
		want: http.StatusOK, fallback: "Request failed",
	}, out)
}

func (c *Client) do(ctx context.Context, cl call, out any) (err error) {
	if c.metrics != nil {
		defer func(start time.Time) { c.metrics.ObserveUpstream("gateway", cl.op, start, err) }(time.Now())
	}

	timeout := cl.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		raw, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("gateway %s: encode request: %w", cl.op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return fmt.Errorf("gateway %s: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s: %w", cl.op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("gateway %s: read response: %w", cl.op, err)
	}

	if resp.StatusCode != cl.want {
		return &APIError{Op: cl.op, Status: resp.StatusCode, Message: errorMessage(raw, cl.fallback)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("gateway %s: decode response: %w", cl.op, err)
	}
	return nil
}

func errorMessage(body []byte, fallback string) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return fallback
}

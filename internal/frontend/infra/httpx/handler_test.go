package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/food-delivery/internal/frontend/core/domain/entity"
	"github.com/jcmexdev/food-delivery/internal/frontend/infra/gateway"
	"github.com/jcmexdev/food-delivery/internal/frontend/session"
)

// stubGateway records the calls that change state and serves canned reads.
type stubGateway struct {
	mu sync.Mutex

	loginErr     error
	createdOrder entity.CreateOrder
	createErr    error
	adminStatus  []string
	restStatus   []string
	addedItems   []entity.NewMenuItem
	deletedItems []string
	readErr      error
}

func (s *stubGateway) RegisterUser(_ context.Context, req entity.UserRegistration) (*entity.AuthResult, error) {
	if req.Email == "taken@example.com" {
		return nil, &gateway.APIError{Status: http.StatusConflict, Message: "Email already registered"}
	}
	return &entity.AuthResult{UserID: "u-1"}, nil
}

func (s *stubGateway) LoginUser(context.Context, entity.Credentials) (*entity.AuthResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &entity.AuthResult{UserID: "u-1"}, nil
}

func (s *stubGateway) Locations(context.Context) ([]entity.Location, error) {
	return []entity.Location{"Downtown", "Harbor"}, s.err()
}

func (s *stubGateway) Restaurants(_ context.Context, location string) ([]entity.Restaurant, error) {
	if err := s.err(); err != nil {
		return nil, err
	}
	return []entity.Restaurant{{RestaurantID: "r-1", Name: "Luigi's in " + location}}, nil
}

func (s *stubGateway) Restaurant(context.Context, string) (*entity.Restaurant, error) {
	if err := s.err(); err != nil {
		return nil, err
	}
	return &entity.Restaurant{RestaurantID: "r-1", Name: "Luigi's"}, nil
}

func (s *stubGateway) Menu(context.Context, string) ([]entity.MenuItem, error) {
	return []entity.MenuItem{{ItemID: "i-1", ItemName: "Margherita", Price: 9.5}}, nil
}

func (s *stubGateway) CreateOrder(_ context.Context, req entity.CreateOrder) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createdOrder = req
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &entity.Order{OrderID: "o-1", Status: "pending"}, nil
}

func (s *stubGateway) UserOrders(context.Context, string) ([]entity.Order, error) {
	if err := s.err(); err != nil {
		return nil, err
	}
	return []entity.Order{{OrderID: "o-1", RestaurantName: "Luigi's", Total: 19, Status: "OUT_FOR_DELIVERY"}}, nil
}

func (s *stubGateway) Order(_ context.Context, id string) (*entity.Order, error) {
	if id != "o-1" {
		return nil, &gateway.APIError{Status: http.StatusNotFound, Message: "Order not found"}
	}
	return &entity.Order{OrderID: "o-1", RestaurantName: "Luigi's", Status: "pending",
		Items: []entity.OrderItem{{ItemName: "Margherita", Quantity: 2}}}, nil
}

func (s *stubGateway) OrderHistory(context.Context, string) ([]entity.HistoryEntry, error) {
	return nil, nil
}

func (s *stubGateway) AdminLogin(context.Context, entity.Credentials) (*entity.AuthResult, error) {
	return &entity.AuthResult{AdminID: "a-1", Name: "Root"}, nil
}

func (s *stubGateway) AdminOrders(context.Context) ([]entity.Order, error) {
	return []entity.Order{{OrderID: "o-1", Status: "pending"}}, nil
}

func (s *stubGateway) AdminUpdateStatus(_ context.Context, id, status string) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminStatus = append(s.adminStatus, id+"="+status)
	return nil, errors.New("gateway down")
}

func (s *stubGateway) RestaurantLogin(context.Context, entity.Credentials) (*entity.AuthResult, error) {
	return &entity.AuthResult{RestaurantID: "r-1", RestaurantName: "Luigi's"}, nil
}

func (s *stubGateway) RegisterRestaurant(context.Context, entity.RestaurantRegistration) (*entity.AuthResult, error) {
	return &entity.AuthResult{RestaurantID: "r-2"}, nil
}

func (s *stubGateway) RestaurantOrders(context.Context, string) ([]entity.Order, error) {
	return []entity.Order{{OrderID: "o-1", Status: "pending"}}, nil
}

func (s *stubGateway) RestaurantMenu(context.Context, string) ([]entity.MenuItem, error) {
	return []entity.MenuItem{{ItemID: "i-1", ItemName: "Margherita", Price: 9.5}}, nil
}

func (s *stubGateway) AddMenuItem(_ context.Context, item entity.NewMenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addedItems = append(s.addedItems, item)
	return nil
}

func (s *stubGateway) DeleteMenuItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletedItems = append(s.deletedItems, id)
	return &gateway.APIError{Status: http.StatusNotFound, Message: "Menu item not found"}
}

func (s *stubGateway) RestaurantUpdateStatus(_ context.Context, id, action, status string) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restStatus = append(s.restStatus, id+":"+action+":"+status)
	return &entity.Order{OrderID: id}, nil
}

func (s *stubGateway) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readErr
}

// with runs fn under the stub's lock; tests use it to set up failures and to
// inspect recorded calls.
func (s *stubGateway) with(fn func(*stubGateway)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, gw *stubGateway) *browser {
	t.Helper()
	sessions := session.NewManager(session.NewMemoryStore(), "test-secret", time.Hour, false)
	h, err := NewHandler(gw, sessions, "http://frontend.test")
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(h, nil))
	t.Cleanup(srv.Close)

	return &browser{t: t, base: srv.URL, client: newClient(t)}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (b *browser) get(path string) (int, string, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	return read(b.t, resp)
}

func (b *browser) post(path string, form url.Values) (int, string, string) {
	b.t.Helper()
	resp, err := b.client.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	return read(b.t, resp)
}

func read(t *testing.T, resp *http.Response) (int, string, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

func (b *browser) sessionCookie() *http.Cookie {
	b.t.Helper()
	u, err := url.Parse(b.base)
	require.NoError(b.t, err)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func (b *browser) loginUser() {
	b.t.Helper()
	code, loc, _ := b.post("/login", url.Values{"email": {"ana@example.com"}, "password": {"pw"}})
	require.Equal(b.t, http.StatusFound, code)
	require.Equal(b.t, "/select-location", loc)
}

func TestHomeAndHealth(t *testing.T) {
	b := newBrowser(t, &stubGateway{})

	code, _, body := b.get("/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Hungry?")

	code, _, body = b.get("/health")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"Frontend Healthy"}`, body)

	code, _, body = b.get("/static/images/food.svg")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<svg")
}

func TestProtectedPagesRedirect(t *testing.T) {
	b := newBrowser(t, &stubGateway{})

	for path, want := range map[string]string{
		"/restaurants":          "/login",
		"/cart":                 "/login",
		"/orders":               "/login",
		"/admin/dashboard":      "/admin/login",
		"/restaurant/dashboard": "/restaurant/login",
		"/restaurant/menu":      "/restaurant/login",
	} {
		code, loc, _ := b.get(path)
		assert.Equal(t, http.StatusFound, code, path)
		assert.Equal(t, want, loc, path)
	}
}

func TestRegister(t *testing.T) {
	b := newBrowser(t, &stubGateway{})

	code, _, body := b.post("/register", url.Values{"email": {"taken@example.com"}})
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Email already registered")

	code, loc, _ := b.post("/register", url.Values{"email": {"new@example.com"}, "name": {"Ana"}})
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/select-location", loc)

	_, loc, _ = b.get("/")
	assert.Equal(t, "/select-location", loc)
}

func TestLoginIssuesNewSessionID(t *testing.T) {
	gw := &stubGateway{}
	sessions := session.NewManager(session.NewMemoryStore(), "test-secret", time.Hour, false)
	h, err := NewHandler(gw, sessions, "http://frontend.test")
	require.NoError(t, err)
	srv := httptest.NewServer(NewRouter(h, nil))
	t.Cleanup(srv.Close)

	// first browser signs in and hands its cookie to a second one
	first := &browser{t: t, base: srv.URL, client: newClient(t)}
	code, _, _ := first.post("/restaurant/login", url.Values{"email": {"chef@example.com"}})
	require.Equal(t, http.StatusFound, code)
	planted := first.sessionCookie()
	require.NotNil(t, planted)

	second := &browser{t: t, base: srv.URL, client: newClient(t)}
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	second.client.Jar.SetCookies(u, []*http.Cookie{{Name: planted.Name, Value: planted.Value, Path: "/"}})
	second.loginUser()

	renewed := second.sessionCookie()
	require.NotNil(t, renewed)
	assert.NotEqual(t, planted.Value, renewed.Value)

	_, loc, _ := second.get("/orders")
	assert.Empty(t, loc)

	// the old cookie no longer resolves to any session
	_, loc, _ = first.get("/orders")
	assert.Equal(t, "/login", loc)
	_, loc, _ = first.get("/restaurant/dashboard")
	assert.Equal(t, "/restaurant/login", loc)
}

func TestAuthHandlersRenewSession(t *testing.T) {
	for _, tc := range []struct {
		path string
		form url.Values
	}{
		{"/login", url.Values{"email": {"ana@example.com"}}},
		{"/register", url.Values{"email": {"new@example.com"}, "name": {"Ana"}}},
		{"/admin/login", url.Values{"email": {"root@example.com"}}},
		{"/restaurant/login", url.Values{"email": {"chef@example.com"}}},
		{"/restaurant/register", url.Values{"name": {"Luigi's"}, "email": {"chef@example.com"}}},
	} {
		t.Run(tc.path, func(t *testing.T) {
			b := newBrowser(t, &stubGateway{})
			b.loginUser()
			before := b.sessionCookie()
			require.NotNil(t, before)

			code, _, _ := b.post(tc.path, tc.form)
			require.Equal(t, http.StatusFound, code)
			after := b.sessionCookie()
			require.NotNil(t, after)
			assert.NotEqual(t, before.Value, after.Value)
		})
	}
}

func TestLogin_GatewayUnreachable(t *testing.T) {
	b := newBrowser(t, &stubGateway{loginErr: errors.New("dial tcp: connection refused")})

	code, _, body := b.post("/login", url.Values{"email": {"a@example.com"}})
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Error: dial tcp: connection refused")
}

func TestBrowseFlow(t *testing.T) {
	b := newBrowser(t, &stubGateway{})
	b.loginUser()

	_, _, body := b.get("/select-location")
	assert.Contains(t, body, "Harbor")

	code, loc, _ := b.post("/select-location", url.Values{"location": {"Harbor"}})
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/restaurants", loc)

	_, _, body = b.get("/restaurants")
	assert.Contains(t, body, "Luigi&#39;s in Harbor")

	_, _, body = b.get("/restaurant/r-1")
	assert.Contains(t, body, "Margherita")
	assert.Contains(t, body, "9.50")

	_, _, body = b.get("/orders")
	assert.Contains(t, body, "status-out-for-delivery")

	_, _, body = b.get("/order/o-1")
	assert.Contains(t, body, "2 × Margherita")

	_, _, body = b.get("/order/missing")
	assert.Contains(t, body, "Order not found")
}

func TestGatewayReadFailureRendersEmpty(t *testing.T) {
	gw := &stubGateway{}
	b := newBrowser(t, gw)
	b.loginUser()
	gw.with(func(g *stubGateway) { g.readErr = errors.New("timeout") })

	code, _, body := b.get("/restaurants")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "No restaurants deliver here yet.")

	_, _, body = b.get("/restaurant/r-1")
	assert.Contains(t, body, "Margherita")
}

func TestCreateOrder(t *testing.T) {
	gw := &stubGateway{}
	b := newBrowser(t, gw)
	b.loginUser()

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"empty cart", url.Values{"items": {"[]"}, "total": {"10"}}, "Cart is empty or invalid"},
		{"zero total", url.Values{"items": {`[{"item_id":"i-1"}]`}, "total": {"0"}}, "Cart is empty or invalid"},
		{"bad json", url.Values{"items": {"{oops"}, "total": {"10"}}, "Invalid cart data format"},
		{"bad total", url.Values{"items": {`[{"item_id":"i-1"}]`}, "total": {"ten"}}, "Error: invalid total"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, body := b.post("/order", tt.form)
			assert.Equal(t, http.StatusOK, code)
			assert.Contains(t, body, tt.want)
		})
	}

	code, loc, _ := b.post("/order", url.Values{
		"items":         {`[{"item_id":"i-1","item_name":"Margherita","quantity":2,"price":9.5}]`},
		"total":         {"19.00"},
		"restaurant_id": {"r-1"},
	})
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/order/o-1", loc)
	gw.with(func(g *stubGateway) {
		assert.Equal(t, "u-1", g.createdOrder.UserID)
		assert.Equal(t, "r-1", g.createdOrder.RestaurantID)
		assert.Equal(t, 19.0, g.createdOrder.Total)
		require.Len(t, g.createdOrder.Items, 1)
		assert.Equal(t, 2, g.createdOrder.Items[0].Quantity)
		g.createErr = &gateway.APIError{Status: http.StatusBadRequest, Message: "user_id is required"}
	})
	_, _, body := b.post("/order", url.Values{"items": {`[{"item_id":"i-1"}]`}, "total": {"5"}})
	assert.Contains(t, body, "user_id is required")

	gw.with(func(g *stubGateway) { g.createErr = errors.New("context deadline exceeded") })
	_, _, body = b.post("/order", url.Values{"items": {`[{"item_id":"i-1"}]`}, "total": {"5"}})
	assert.Contains(t, body, "Server error: context deadline exceeded")
}

func TestLogoutClearsSession(t *testing.T) {
	b := newBrowser(t, &stubGateway{})
	b.loginUser()

	code, loc, _ := b.get("/logout")
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/", loc)

	_, loc, _ = b.get("/orders")
	assert.Equal(t, "/login", loc)
}

func TestAdminFlow(t *testing.T) {
	gw := &stubGateway{}
	b := newBrowser(t, gw)

	code, loc, _ := b.post("/admin/login", url.Values{"email": {"root@example.com"}})
	require.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/admin/dashboard", loc)

	_, loc, _ = b.get("/")
	assert.Equal(t, "/admin/dashboard", loc)

	_, _, body := b.get("/admin/dashboard")
	assert.Contains(t, body, "OUT_FOR_DELIVERY")
	assert.Contains(t, body, "/admin/order/o-1/status")
	for _, st := range []string{"pending", "PREPARING", "READY", "OUT_FOR_DELIVERY", "DELIVERED", "REJECTED", "CANCELLED"} {
		assert.Contains(t, body, `<option value="`+st+`"`, st)
	}

	code, loc, _ = b.post("/admin/order/o-1/status", url.Values{"status": {"READY"}})
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/admin/dashboard", loc)
	gw.with(func(g *stubGateway) {
		assert.Equal(t, []string{"o-1=READY"}, g.adminStatus)
	})
}

func TestRestaurantFlow(t *testing.T) {
	gw := &stubGateway{}
	b := newBrowser(t, gw)

	code, loc, _ := b.post("/restaurant/login", url.Values{"email": {"luigi@example.com"}})
	require.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/restaurant/dashboard", loc)

	_, _, body := b.get("/restaurant/dashboard")
	assert.Contains(t, body, "Luigi&#39;s: incoming orders")
	assert.Contains(t, body, `value="accept"`)
	assert.Contains(t, body, `<option value="REJECTED"`)

	code, loc, _ = b.post("/restaurant/order/o-1/status", url.Values{"action": {"accept"}})
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/restaurant/dashboard", loc)
	gw.with(func(g *stubGateway) {
		assert.Equal(t, []string{"o-1:accept:"}, g.restStatus)
	})

	code, loc, _ = b.post("/restaurant/menu", url.Values{
		"action": {"add"}, "item_name": {"Calzone"}, "price": {"11.25"},
	})
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/restaurant/menu", loc)
	gw.with(func(g *stubGateway) {
		require.Len(t, g.addedItems, 1)
		assert.Equal(t, "r-1", g.addedItems[0].RestaurantID)
		assert.Equal(t, 11.25, g.addedItems[0].Price)
		assert.Equal(t, "http://frontend.test/static/images/food.svg", g.addedItems[0].ImageURL)
	})

	code, _, body = b.post("/restaurant/menu", url.Values{"action": {"add"}, "price": {"cheap"}})
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Error: invalid price")

	_, _, body = b.post("/restaurant/menu", url.Values{"action": {"delete"}, "item_id": {"i-9"}})
	assert.Contains(t, body, "Menu item not found")
	gw.with(func(g *stubGateway) {
		assert.Equal(t, []string{"i-9"}, g.deletedItems)
	})
	assert.Contains(t, body, "Margherita")
}

func TestRestaurantRegister(t *testing.T) {
	b := newBrowser(t, &stubGateway{})
	code, loc, _ := b.post("/restaurant/register", url.Values{"name": {"Sushi Go"}, "email": {"s@example.com"}})
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/restaurant/dashboard", loc)

	_, _, body := b.get("/restaurant/dashboard")
	assert.Contains(t, body, "Sushi Go")
}

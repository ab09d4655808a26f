package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/food-delivery/internal/coordinator/sagalog"
	sagasqlite "github.com/jcmexdev/food-delivery/internal/coordinator/sagalog/sqlite"
	"github.com/jcmexdev/food-delivery/internal/order-service/adapters/sqlite"
	"github.com/jcmexdev/food-delivery/internal/order-service/domain"
	"github.com/jcmexdev/food-delivery/internal/pkg/metrics"
)

type fakeCatalog struct {
	restaurant *domain.Restaurant
	menu       []domain.MenuItem
	err        error
}

func (f *fakeCatalog) GetRestaurant(context.Context, string) (*domain.Restaurant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.restaurant, nil
}

func (f *fakeCatalog) GetMenu(context.Context, string) ([]domain.MenuItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.menu, nil
}

type recordingNotifier struct {
	mu  sync.Mutex
	got []domain.StatusNotification
	err error
}

func (r *recordingNotifier) NotifyStatusChange(_ context.Context, n domain.StatusNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return r.err
}

type recordingPublisher struct {
	got []domain.StatusChangedEvent
}

func (r *recordingPublisher) PublishStatusChanged(_ context.Context, e domain.StatusChangedEvent) error {
	r.got = append(r.got, e)
	return nil
}

var fixedNow = time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *OrderService
	catalog   *fakeCatalog
	notifier  *recordingNotifier
	publisher *recordingPublisher
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := sqlite.New(ctx, db)
	require.NoError(t, err)
	logs, err := sagasqlite.New(ctx, db)
	require.NoError(t, err)

	f := &fixture{
		catalog: &fakeCatalog{
			restaurant: &domain.Restaurant{ID: "r-1", Name: "Luigi's"},
			menu: []domain.MenuItem{
				{ItemID: "i-1", ItemName: "Margherita", ImageURL: "http://img/margherita.jpg"},
			},
		},
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		metrics:   metrics.New("test"),
	}
	f.svc = NewOrderService(Deps{
		Repo:      repo,
		Catalog:   f.catalog,
		Notifier:  f.notifier,
		Publisher: f.publisher,
		SagaLog:   logs,
		Metrics:   f.metrics,
		Now:       func() time.Time { return fixedNow },
	})
	return f
}

func (f *fixture) create(t *testing.T) *domain.Order {
	t.Helper()
	o, err := f.svc.CreateOrder(context.Background(), domain.CreateOrderRequest{
		UserID:       "u-1",
		RestaurantID: "r-1",
		Items: []domain.RequestedItem{
			{ItemID: "i-1", ItemName: "Margherita", Quantity: 2},
			{ItemID: "i-2"},
		},
		Total: 21.5,
	})
	require.NoError(t, err)
	return o
}

func TestCreateOrder_EnrichesFromCatalog(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "Luigi's", o.RestaurantName)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, fixedNow, o.CreatedAt)
	assert.Nil(t, o.UpdatedAt)

	want := []domain.OrderItem{
		{ItemID: "i-1", ItemName: "Margherita", Quantity: 2, ImageURL: "http://img/margherita.jpg"},
		{ItemID: "i-2", ItemName: "Item", Quantity: 1, ImageURL: domain.FallbackImageURL("Item")},
	}
	if diff := cmp.Diff(want, o.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}

	stored, err := f.svc.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Items, stored.Items)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrdersCreated))
}

func TestCreateOrder_CatalogDownStillCreates(t *testing.T) {
	f := newFixture(t)
	f.catalog.err = errors.New("connection refused")

	o := f.create(t)
	assert.Equal(t, domain.UnknownRestaurantName, o.RestaurantName)
	assert.Equal(t, domain.FallbackImageURL("Margherita"), o.Items[0].ImageURL)
}

func TestCreateOrder_Invalid(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateOrder(context.Background(), domain.CreateOrderRequest{RestaurantID: "r-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)
}

func TestListUserOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t)

	orders, err := f.svc.ListUserOrders(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	orders, err = f.svc.ListUserOrders(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}

func TestUpdateStatus_DoesNotNotify(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)

	updated, err := f.svc.UpdateStatus(context.Background(), o.ID, "READY")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, updated.Status)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, fixedNow, *updated.UpdatedAt)
	assert.Empty(t, f.notifier.got)

	_, err = f.svc.UpdateStatus(context.Background(), "missing", "READY")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = f.svc.UpdateStatus(context.Background(), o.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestAdminUpdateStatus_NotifiesWithTimestamp(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)

	updated, err := f.svc.AdminUpdateStatus(context.Background(), o.ID, "OUT_FOR_DELIVERY")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOutForDelivery, updated.Status)

	require.Len(t, f.notifier.got, 1)
	n := f.notifier.got[0]
	assert.Equal(t, "Order "+o.ID+" status changed to OUT_FOR_DELIVERY", n.Message)
	require.NotNil(t, n.UpdatedAt)
	assert.Equal(t, fixedNow, *n.UpdatedAt)

	require.Len(t, f.publisher.got, 1)
	assert.Equal(t, domain.SourceAdmin, f.publisher.got[0].Source)
	assert.Equal(t, domain.StatusPending, f.publisher.got[0].PreviousStatus)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.StatusChanges.WithLabelValues("admin")))
}

func TestAdminUpdateStatus_EmptyStatusIsNoop(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)

	got, err := f.svc.AdminUpdateStatus(context.Background(), o.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Empty(t, f.notifier.got)
}

func TestAdminUpdateStatus_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AdminUpdateStatus(context.Background(), "missing", "READY")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestRestaurantUpdateStatus_Actions(t *testing.T) {
	tests := []struct {
		name   string
		action string
		status string
		want   domain.OrderStatus
	}{
		{"accept", "accept", "", domain.StatusPreparing},
		{"reject", "reject", "READY", domain.StatusRejected},
		{"update", "update", "READY", domain.StatusReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			o := f.create(t)

			updated, err := f.svc.RestaurantUpdateStatus(context.Background(), o.ID, tt.action, tt.status)
			require.NoError(t, err)
			assert.Equal(t, tt.want, updated.Status)

			require.Len(t, f.notifier.got, 1)
			assert.Equal(t, "Order status: "+string(tt.want), f.notifier.got[0].Message)
			assert.Nil(t, f.notifier.got[0].UpdatedAt)
		})
	}
}

func TestRestaurantUpdateStatus_NotifyFailureKeepsChange(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)
	f.notifier.err = errors.New("node server down")

	updated, err := f.svc.RestaurantUpdateStatus(context.Background(), o.ID, "accept", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, updated.Status)

	stored, err := f.svc.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, stored.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.NotificationsFailed))
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.create(t)

	_, err := f.svc.AdminUpdateStatus(ctx, o.ID, "READY")
	require.NoError(t, err)

	entries, err := f.svc.History(ctx, o.ID)
	require.NoError(t, err)

	var statuses []sagalog.Status
	for _, e := range entries {
		statuses = append(statuses, e.Status)
	}
	assert.Equal(t, []sagalog.Status{
		sagalog.StatusStarted,
		sagalog.StatusStepDone,
		sagalog.StatusStepDone,
		sagalog.StatusStepDone,
		sagalog.StatusCompleted,
	}, statuses)

	_, err = f.svc.History(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestHistory_WithoutLog(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)
	f.svc.sagaLog = nil

	entries, err := f.svc.History(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

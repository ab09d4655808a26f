// Package app implements the order use cases on top of the ports.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/food-delivery/internal/coordinator"
	"github.com/jcmexdev/food-delivery/internal/coordinator/sagalog"
	"github.com/jcmexdev/food-delivery/internal/order-service/domain"
	"github.com/jcmexdev/food-delivery/internal/order-service/ports"
	"github.com/jcmexdev/food-delivery/internal/pkg/interceptors"
	"github.com/jcmexdev/food-delivery/internal/pkg/metrics"
	"github.com/jcmexdev/food-delivery/internal/pkg/telemetry"
)

// Deps wires an OrderService. Publisher, SagaLog and Metrics are optional.
type Deps struct {
	Repo      ports.OrderRepository
	Catalog   ports.Catalog
	Notifier  ports.StatusNotifier
	Publisher ports.EventPublisher
	SagaLog   sagalog.Repository
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

type OrderService struct {
	repo      ports.OrderRepository
	catalog   ports.Catalog
	notifier  ports.StatusNotifier
	publisher ports.EventPublisher
	sagaLog   sagalog.Repository
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewOrderService(d Deps) *OrderService {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &OrderService{
		repo:      d.Repo,
		catalog:   d.Catalog,
		notifier:  d.Notifier,
		publisher: d.Publisher,
		sagaLog:   d.SagaLog,
		metrics:   d.Metrics,
		now:       now,
	}
}

// CreateOrder enriches the request with catalog data and stores a pending
// order. Catalog failures only degrade the enrichment.
func (s *OrderService) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (_ *domain.Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, "orders.create")
	defer func() { telemetry.EndSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	restaurant, images := s.enrich(ctx, req.RestaurantID)

	order := domain.NewOrder(req, restaurant, images, s.now())
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
	}

	slog.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"user_id", order.UserID,
		"restaurant_id", order.RestaurantID,
		"items", len(order.Items),
		"request_id", interceptors.RequestIDFromContext(ctx),
	)
	return order, nil
}

// enrich looks up the restaurant and its menu concurrently.
func (s *OrderService) enrich(ctx context.Context, restaurantID string) (*domain.Restaurant, map[string]string) {
	var (
		restaurant *domain.Restaurant
		images     map[string]string
		g          errgroup.Group
	)
	g.Go(func() error {
		r, err := s.catalog.GetRestaurant(ctx, restaurantID)
		if err != nil {
			slog.WarnContext(ctx, "could not fetch restaurant from catalog", "restaurant_id", restaurantID, "error", err)
			return nil
		}
		restaurant = r
		return nil
	})
	g.Go(func() error {
		menu, err := s.catalog.GetMenu(ctx, restaurantID)
		if err != nil {
			slog.WarnContext(ctx, "could not fetch menu images from catalog", "restaurant_id", restaurantID, "error", err)
			return nil
		}
		images = domain.MenuImages(menu)
		return nil
	})
	_ = g.Wait()
	return restaurant, images
}

// ListUserOrders returns the user's orders, newest first. An empty user id
// yields an empty list.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return []domain.Order{}, nil
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *OrderService) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListAll(ctx)
}

func (s *OrderService) ListRestaurantOrders(ctx context.Context, restaurantID string) ([]domain.Order, error) {
	return s.repo.ListByRestaurant(ctx, restaurantID)
}

// UpdateStatus is the plain status write used by PUT /orders/{id}; nobody is
// notified.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.UpdateStatus(ctx, id, st, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.countStatusChange(domain.SourceUser)
	slog.InfoContext(ctx, "order status updated", "order_id", id, "status", st)
	return order, nil
}

// AdminUpdateStatus changes the status and notifies peers. An empty status
// leaves the order untouched and returns it as is.
func (s *OrderService) AdminUpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(status) == "" {
		return order, nil
	}
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	message := func(o *domain.Order) string {
		return fmt.Sprintf("Order %s status changed to %s", o.ID, o.Status)
	}
	return s.changeStatus(ctx, order, st, domain.SourceAdmin, message, true)
}

// RestaurantUpdateStatus applies a restaurant manager's accept/reject/update
// action and notifies peers.
func (s *OrderService) RestaurantUpdateStatus(ctx context.Context, id, action, status string) (*domain.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	st, err := domain.ResolveRestaurantStatus(domain.RestaurantAction(action), status)
	if err != nil {
		return nil, err
	}

	message := func(o *domain.Order) string {
		return fmt.Sprintf("Order status: %s", o.Status)
	}
	return s.changeStatus(ctx, order, st, domain.SourceRestaurant, message, false)
}

// History returns the saga log of every status change of the order.
func (s *OrderService) History(ctx context.Context, id string) ([]sagalog.SagaLog, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.sagaLog == nil {
		return []sagalog.SagaLog{}, nil
	}
	entries, err := s.sagaLog.ListByOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	if entries == nil {
		entries = []sagalog.SagaLog{}
	}
	return entries, nil
}

type sagaPayload struct {
	OrderID        string `json:"order_id"`
	PreviousStatus string `json:"previous_status"`
	Status         string `json:"status"`
	Source         string `json:"source"`
}

func (s *OrderService) changeStatus(
	ctx context.Context,
	order *domain.Order,
	status domain.OrderStatus,
	source domain.StatusSource,
	message coordinator.MessageFunc,
	notifyWithTimestamp bool,
) (*domain.Order, error) {
	persist := coordinator.NewPersistStatusStep(s.repo, order, status, s.now().UTC())
	steps := []coordinator.Step{
		persist,
		coordinator.NewNotifyPeerStep(s.notifier, persist, message, notifyWithTimestamp),
	}
	if s.publisher != nil {
		steps = append(steps, coordinator.NewPublishEventStep(s.publisher, persist, source))
	}

	payload, _ := json.Marshal(sagaPayload{
		OrderID:        order.ID,
		PreviousStatus: string(order.Status),
		Status:         string(status),
		Source:         string(source),
	})

	saga := coordinator.NewOrchestrator(order.ID, steps, s.sagaLog)
	res, err := saga.Start(ctx, string(payload))
	if err != nil {
		return nil, err
	}
	if len(res.Skipped) > 0 && s.metrics != nil {
		s.metrics.NotificationsFailed.Add(float64(len(res.Skipped)))
	}
	s.countStatusChange(source)

	slog.InfoContext(ctx, "order status changed",
		"order_id", order.ID,
		"from", order.Status,
		"to", status,
		"source", source,
		"saga_id", res.SagaID,
	)
	return persist.Updated(), nil
}

func (s *OrderService) countStatusChange(source domain.StatusSource) {
	if s.metrics != nil {
		s.metrics.StatusChanges.WithLabelValues(string(source)).Inc()
	}
}

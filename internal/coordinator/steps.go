package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jcmexdev/food-delivery/internal/order-service/domain"
	"github.com/jcmexdev/food-delivery/internal/order-service/ports"
)

// --- PersistStatusStep ---

// PersistStatusStep writes the new status. It compensates by restoring the
// status and updated_at the order had before.
type PersistStatusStep struct {
	repo     ports.OrderRepository
	previous *domain.Order
	status   domain.OrderStatus
	at       time.Time
	updated  *domain.Order
}

func NewPersistStatusStep(repo ports.OrderRepository, previous *domain.Order, status domain.OrderStatus, at time.Time) *PersistStatusStep {
	return &PersistStatusStep{
		repo:     repo,
		previous: previous,
		status:   status,
		at:       at,
	}
}

func (s *PersistStatusStep) Name() string { return "Persist_Status_Step" }

func (s *PersistStatusStep) Execute(ctx context.Context) error {
	updated, err := s.repo.UpdateStatus(ctx, s.previous.ID, s.status, s.at)
	if err != nil {
		return fmt.Errorf("update status of order %s: %w", s.previous.ID, err)
	}
	s.updated = updated
	return nil
}

func (s *PersistStatusStep) Compensate(ctx context.Context) error {
	return s.repo.RestoreStatus(ctx, s.previous.ID, s.previous.Status, s.previous.UpdatedAt)
}

// Updated is the order as stored by Execute; nil before it ran.
func (s *PersistStatusStep) Updated() *domain.Order { return s.updated }

// --- NotifyPeerStep ---

// MessageFunc renders the notification text for an updated order.
type MessageFunc func(o *domain.Order) string

// NotifyPeerStep tells the catalog service about the change. Best-effort:
// the status is already committed and the peer may be down.
type NotifyPeerStep struct {
	notifier      ports.StatusNotifier
	persist       *PersistStatusStep
	message       MessageFunc
	withTimestamp bool
}

func NewNotifyPeerStep(notifier ports.StatusNotifier, persist *PersistStatusStep, message MessageFunc, withTimestamp bool) *NotifyPeerStep {
	return &NotifyPeerStep{
		notifier:      notifier,
		persist:       persist,
		message:       message,
		withTimestamp: withTimestamp,
	}
}

func (s *NotifyPeerStep) Name() string     { return "Notify_Peer_Step" }
func (s *NotifyPeerStep) BestEffort() bool { return true }

func (s *NotifyPeerStep) Execute(ctx context.Context) error {
	order := s.persist.Updated()
	if order == nil {
		return errors.New("no persisted order to notify about")
	}
	n := domain.StatusNotification{
		OrderID: order.ID,
		Status:  order.Status,
		Message: s.message(order),
	}
	if s.withTimestamp {
		n.UpdatedAt = order.UpdatedAt
	}
	return s.notifier.NotifyStatusChange(ctx, n)
}

func (s *NotifyPeerStep) Compensate(context.Context) error { return nil }

// --- PublishEventStep ---

// PublishEventStep emits an OrderStatusChanged event. Best-effort.
type PublishEventStep struct {
	publisher ports.EventPublisher
	persist   *PersistStatusStep
	previous  domain.OrderStatus
	source    domain.StatusSource
}

func NewPublishEventStep(publisher ports.EventPublisher, persist *PersistStatusStep, source domain.StatusSource) *PublishEventStep {
	return &PublishEventStep{
		publisher: publisher,
		persist:   persist,
		previous:  persist.previous.Status,
		source:    source,
	}
}

func (s *PublishEventStep) Name() string     { return "Publish_Event_Step" }
func (s *PublishEventStep) BestEffort() bool { return true }

func (s *PublishEventStep) Execute(ctx context.Context) error {
	order := s.persist.Updated()
	if order == nil {
		return errors.New("no persisted order to publish")
	}
	changedAt := s.persist.at
	if order.UpdatedAt != nil {
		changedAt = *order.UpdatedAt
	}
	return s.publisher.PublishStatusChanged(ctx, domain.StatusChangedEvent{
		OrderID:        order.ID,
		UserID:         order.UserID,
		RestaurantID:   order.RestaurantID,
		PreviousStatus: s.previous,
		Status:         order.Status,
		Source:         s.source,
		ChangedAt:      changedAt,
	})
}

func (s *PublishEventStep) Compensate(context.Context) error { return nil }

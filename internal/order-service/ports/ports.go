// Package ports declares what the order application needs from the outside
// world. Adapters under adapters/ implement them.
package ports

import (
	"context"
	"time"

	"github.com/jcmexdev/food-delivery/internal/order-service/domain"
)

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	// Get returns domain.ErrOrderNotFound when id is unknown.
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	// UpdateStatus sets status and updated_at and returns the stored order.
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) (*domain.Order, error)
	// RestoreStatus puts back a previous status and updated_at verbatim.
	RestoreStatus(ctx context.Context, id string, status domain.OrderStatus, updatedAt *time.Time) error
}

// Catalog is the peer service that owns restaurants and menus.
type Catalog interface {
	GetRestaurant(ctx context.Context, restaurantID string) (*domain.Restaurant, error)
	GetMenu(ctx context.Context, restaurantID string) ([]domain.MenuItem, error)
}

type StatusNotifier interface {
	NotifyStatusChange(ctx context.Context, n domain.StatusNotification) error
}

type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, e domain.StatusChangedEvent) error
}

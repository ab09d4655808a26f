package ports

import (
	"context"

	"github.com/jcmexdev/food-delivery/internal/frontend/core/domain/entity"
)

// Gateway is everything the front end asks of the API gateway.
type Gateway interface {
	RegisterUser(ctx context.Context, req entity.UserRegistration) (*entity.AuthResult, error)
	LoginUser(ctx context.Context, c entity.Credentials) (*entity.AuthResult, error)
	Locations(ctx context.Context) ([]entity.Location, error)
	Restaurants(ctx context.Context, location string) ([]entity.Restaurant, error)
	Restaurant(ctx context.Context, id string) (*entity.Restaurant, error)
	Menu(ctx context.Context, restaurantID string) ([]entity.MenuItem, error)

	CreateOrder(ctx context.Context, req entity.CreateOrder) (*entity.Order, error)
	UserOrders(ctx context.Context, userID string) ([]entity.Order, error)
	Order(ctx context.Context, id string) (*entity.Order, error)
	OrderHistory(ctx context.Context, id string) ([]entity.HistoryEntry, error)

	AdminLogin(ctx context.Context, c entity.Credentials) (*entity.AuthResult, error)
	AdminOrders(ctx context.Context) ([]entity.Order, error)
	AdminUpdateStatus(ctx context.Context, orderID, status string) (*entity.Order, error)

	RestaurantLogin(ctx context.Context, c entity.Credentials) (*entity.AuthResult, error)
	RegisterRestaurant(ctx context.Context, req entity.RestaurantRegistration) (*entity.AuthResult, error)
	RestaurantOrders(ctx context.Context, restaurantID string) ([]entity.Order, error)
	RestaurantMenu(ctx context.Context, restaurantID string) ([]entity.MenuItem, error)
	AddMenuItem(ctx context.Context, item entity.NewMenuItem) error
	DeleteMenuItem(ctx context.Context, itemID string) error
	RestaurantUpdateStatus(ctx context.Context, orderID, action, status string) (*entity.Order, error)
}

package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	UnknownRestaurantName = "Unknown"
	defaultItemName       = "Item"
)

type CreateOrderRequest struct {
	UserID       string
	RestaurantID string
	Items        []RequestedItem
	Total        float64
}

// RequestedItem is an item as submitted by the client. Zero Quantity means
// "not supplied" and defaults to 1.
type RequestedItem struct {
	ItemID   string
	ItemName string
	Quantity int
}

// Restaurant is the subset of catalog data an order keeps.
type Restaurant struct {
	ID   string
	Name string
}

// Validate checks the fields an order cannot be built without.
func (r CreateOrderRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidOrder)
	}
	if strings.TrimSpace(r.RestaurantID) == "" {
		return fmt.Errorf("%w: restaurant_id is required", ErrInvalidOrder)
	}
	if r.Total < 0 {
		return fmt.Errorf("%w: total must not be negative", ErrInvalidOrder)
	}
	for i, it := range r.Items {
		if it.Quantity < 0 {
			return fmt.Errorf("%w: items[%d].quantity must not be negative", ErrInvalidOrder, i)
		}
	}
	return nil
}

// NewOrder builds a pending order. restaurant may be nil when the catalog
// lookup failed; images maps item_id to image_url and may be empty.
func NewOrder(req CreateOrderRequest, restaurant *Restaurant, images map[string]string, now time.Time) *Order {
	name := UnknownRestaurantName
	if restaurant != nil && restaurant.Name != "" {
		name = restaurant.Name
	}

	items := make([]OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		itemName := it.ItemName
		if itemName == "" {
			itemName = defaultItemName
		}
		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		image := images[it.ItemID]
		if image == "" {
			image = FallbackImageURL(itemName)
		}
		items = append(items, OrderItem{
			ItemID:   it.ItemID,
			ItemName: itemName,
			Quantity: qty,
			ImageURL: image,
		})
	}

	return &Order{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		RestaurantID:   req.RestaurantID,
		RestaurantName: name,
		Items:          items,
		Total:          req.Total,
		Status:         StatusPending,
		CreatedAt:      now.UTC(),
	}
}

// FallbackImageURL is used for items the catalog has no picture for.
func FallbackImageURL(itemName string) string {
	return "https://source.unsplash.com/400x250/?" + strings.ReplaceAll(itemName, " ", "%20") + "%20food"
}

package domain

import "time"

// MenuItem is a catalog menu entry. Only ImageURL feeds into orders today.
type MenuItem struct {
	ItemID      string
	ItemName    string
	Price       float64
	Description string
	ImageURL    string
}

// MenuImages indexes a menu by item id, skipping items without a picture.
func MenuImages(menu []MenuItem) map[string]string {
	images := make(map[string]string, len(menu))
	for _, m := range menu {
		if m.ItemID != "" && m.ImageURL != "" {
			images[m.ItemID] = m.ImageURL
		}
	}
	return images
}

// StatusSource identifies who changed an order's status.
type StatusSource string

const (
	SourceUser       StatusSource = "user"
	SourceAdmin      StatusSource = "admin"
	SourceRestaurant StatusSource = "restaurant"
)

// StatusNotification is what the catalog service is told after a change.
type StatusNotification struct {
	OrderID   string
	Status    OrderStatus
	UpdatedAt *time.Time
	Message   string
}

// StatusChangedEvent is published on the event bus after a change.
type StatusChangedEvent struct {
	OrderID        string
	UserID         string
	RestaurantID   string
	PreviousStatus OrderStatus
	Status         OrderStatus
	Source         StatusSource
	ChangedAt      time.Time
}

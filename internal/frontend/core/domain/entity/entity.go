// Package entity holds the gateway data the front end renders. Field names
// follow the gateway's JSON.
package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID accepts both JSON strings and numbers; the gateway is not consistent
// about which one it sends for user, restaurant and item ids.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserRegistration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

type RestaurantRegistration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Cuisine  string `json:"cuisine"`
	Address  string `json:"address"`
	Location string `json:"location"`
	Phone    string `json:"phone"`
}

// AuthResult is the body of every login/registration response; only the
// fields relevant to the role are set.
type AuthResult struct {
	UserID         ID     `json:"user_id"`
	Name           string `json:"name"`
	AdminID        ID     `json:"admin_id"`
	RestaurantID   ID     `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
}

// Location is a delivery area. The gateway sends plain strings or objects
// with a name.
type Location string

func (l *Location) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = Location(s)
		return nil
	}
	var obj struct {
		Name     string `json:"name"`
		Location string `json:"location"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj.Name != "" {
		*l = Location(obj.Name)
	} else {
		*l = Location(obj.Location)
	}
	return nil
}

type Restaurant struct {
	RestaurantID ID      `json:"restaurant_id"`
	Name         string  `json:"name"`
	Cuisine      string  `json:"cuisine"`
	Address      string  `json:"address"`
	Location     string  `json:"location"`
	Phone        string  `json:"phone"`
	Rating       float64 `json:"rating"`
	ImageURL     string  `json:"image_url"`
}

type MenuItem struct {
	ItemID       ID      `json:"item_id"`
	RestaurantID ID      `json:"restaurant_id"`
	ItemName     string  `json:"item_name"`
	Price        float64 `json:"price"`
	Description  string  `json:"description"`
	ImageURL     string  `json:"image_url"`
}

type NewMenuItem struct {
	RestaurantID string  `json:"restaurant_id"`
	ItemName     string  `json:"item_name"`
	Price        float64 `json:"price"`
	Description  string  `json:"description"`
	ImageURL     string  `json:"image_url"`
}

// CartItem is one line of the browser cart as posted to /order.
type CartItem struct {
	ItemID   ID      `json:"item_id"`
	ItemName string  `json:"item_name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price,omitempty"`
}

type CreateOrder struct {
	UserID       string     `json:"user_id"`
	RestaurantID string     `json:"restaurant_id"`
	Items        []CartItem `json:"items"`
	Total        float64    `json:"total"`
}

type OrderItem struct {
	ItemID   ID     `json:"item_id"`
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
	ImageURL string `json:"image_url"`
}

type Order struct {
	OrderID        string      `json:"order_id"`
	UserID         ID          `json:"user_id"`
	RestaurantID   ID          `json:"restaurant_id"`
	RestaurantName string      `json:"restaurant_name"`
	Items          []OrderItem `json:"items"`
	Total          float64     `json:"total"`
	Status         string      `json:"status"`
	CreatedAt      string      `json:"created_at"`
	UpdatedAt      *string     `json:"updated_at"`
}

// HistoryEntry is one saga transition of an order's status history.
type HistoryEntry struct {
	SagaID    string   `json:"saga_id"`
	Status    string   `json:"status"`
	Step      string   `json:"step,omitempty"`
	Payload   string   `json:"payload,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	TraceID   string   `json:"trace_id,omitempty"`
	SpanID    string   `json:"span_id,omitempty"`
	UpdatedAt string   `json:"updated_at"`
}

// FormatMoney renders an amount with two decimals.
func FormatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

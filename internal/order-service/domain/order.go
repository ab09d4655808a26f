// Package domain holds the order aggregate and the rules for building and
// moving it between statuses.
package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidOrder  = errors.New("invalid order")
	ErrInvalidStatus = errors.New("invalid status")
)

type Order struct {
	ID             string
	UserID         string
	RestaurantID   string
	RestaurantName string
	Items          []OrderItem
	Total          float64
	Status         OrderStatus
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

type OrderItem struct {
	ItemID   string
	ItemName string
	Quantity int
	ImageURL string
}

type OrderStatus string

// The initial status is lower-case; every status set afterwards is
// upper-case. Clients already depend on both spellings.
const (
	StatusPending        OrderStatus = "pending"
	StatusPreparing      OrderStatus = "PREPARING"
	StatusReady          OrderStatus = "READY"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusRejected       OrderStatus = "REJECTED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

const maxStatusLen = 32

// ParseStatus trims s and rejects empty or oversized values. Statuses outside
// the known set are allowed.
func ParseStatus(s string) (OrderStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidStatus
	}
	if len(s) > maxStatusLen {
		return "", ErrInvalidStatus
	}
	return OrderStatus(s), nil
}

// KnownStatuses lists the predefined statuses in lifecycle order.
func KnownStatuses() []OrderStatus {
	return []OrderStatus{
		StatusPending, StatusPreparing, StatusReady, StatusOutForDelivery,
		StatusDelivered, StatusRejected, StatusCancelled,
	}
}

type RestaurantAction string

const (
	ActionAccept RestaurantAction = "accept"
	ActionReject RestaurantAction = "reject"
	ActionUpdate RestaurantAction = "update"
)

// ResolveRestaurantStatus maps a restaurant manager's action to a status.
// accept and reject are fixed; update and unrecognised actions fall through
// to the supplied status.
func ResolveRestaurantStatus(action RestaurantAction, status string) (OrderStatus, error) {
	switch RestaurantAction(strings.ToLower(strings.TrimSpace(string(action)))) {
	case ActionAccept:
		return StatusPreparing, nil
	case ActionReject:
		return StatusRejected, nil
	default:
		return ParseStatus(status)
	}
}

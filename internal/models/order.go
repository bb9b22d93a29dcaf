package models

import "time"

// OrderStatus is the lifecycle state of a checkout order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order is a consumer checkout. Creation is gated by the checkout
// eligibility predicate.
type Order struct {
	ID         string
	ConsumerID string
	Status     OrderStatus
	TotalCents int64
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderItem is one product line within an order. PriceCents is captured at
// checkout time so later price edits do not rewrite history.
type OrderItem struct {
	OrderID    string
	ProductID  string
	Quantity   int
	PriceCents int64
}

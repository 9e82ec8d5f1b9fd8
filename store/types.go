// Package store holds the domain entities used by the examples and
// integration tests. Prices are kept in cents (lowest currency unit) to
// avoid floating-point errors.
package store

import (
	"time"
)

// OrderStatus is a custom type for type-safe status handling.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// IsValid reports whether the status is one of the declared constants.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusCancelled:
		return true
	default:
		return false
	}
}

// Priority ranks order fulfilment urgency.
type Priority int

const (
	PriorityStandard Priority = iota
	PriorityExpress
	PriorityOvernight
)

// IsValid reports whether the priority is one of the declared constants.
func (p Priority) IsValid() bool {
	return p >= PriorityStandard && p <= PriorityOvernight
}

// String returns the constant name used on the wire.
func (p Priority) String() string {
	switch p {
	case PriorityStandard:
		return "STANDARD"
	case PriorityExpress:
		return "EXPRESS"
	case PriorityOvernight:
		return "OVERNIGHT"
	default:
		return "UNKNOWN"
	}
}

// Address is a physical shipping or billing address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// ContactInfo groups the ways a customer can be reached.
type ContactInfo struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Customer represents the user placing orders.
type Customer struct {
	ID       int64       `json:"id"`
	FullName string      `json:"full_name"`
	Address  Address     `json:"address"`
	Contact  ContactInfo `json:"contact"`
	Orders   []Order     `json:"orders,omitempty"`
	IsActive bool        `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
	Version   int64     `json:"version"`
}

// Order represents a transaction made by a customer.
type Order struct {
	ID         int64       `json:"id"`
	Reference  string      `json:"reference" map:"immutable"`
	Customer   *Customer   `json:"customer,omitempty"`
	Status     OrderStatus `json:"status"`
	Priority   Priority    `json:"priority"`
	TotalCents int64       `json:"total_cents"`
	Items      []OrderItem `json:"items"`
	PlacedAt   time.Time   `json:"placed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// OrderItem is a product line within an order. It snapshots the price at
// the time of purchase.
type OrderItem struct {
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

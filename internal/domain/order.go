package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultQuantity is used whenever a submitted quantity cannot be parsed
	// or falls outside [1, MaxQuantity]
	DefaultQuantity = 1
	// MaxQuantity bounds a single order line; orders.quantity is VARCHAR(10)
	MaxQuantity = 999
)

// DesignSnapshot holds the design fields copied onto an order when it is placed.
// Later catalog edits never change these.
type DesignSnapshot struct {
	DesignName  string `json:"design_name" db:"design_name"`
	DesignCode  string `json:"design_code" db:"design_code"`
	DesignPrice string `json:"design_price" db:"design_price"`
}

// Customer holds the shipping and contact fields of an order
type Customer struct {
	Name   string `json:"customer_name" db:"customer_name" validate:"required,max=100"`
	House  string `json:"house" db:"house" validate:"required,max=100"`
	City   string `json:"city" db:"city" validate:"required,max=100"`
	Mandal string `json:"mandal" db:"mandal" validate:"max=100"`
	Phone  string `json:"phone" db:"phone" validate:"required,min=7,max=20"`
	Email  string `json:"email" db:"email" validate:"required,email,max=100"`
}

// Order represents one customer purchase against a single design
type Order struct {
	ID uuid.UUID `json:"id" db:"id"`
	DesignSnapshot
	Customer
	Size            string     `json:"size" db:"size"`
	Quantity        string     `json:"quantity" db:"quantity"`
	PaymentImage    string     `json:"payment_image" db:"payment_image"`
	Status          Status     `json:"status" db:"status"`
	CreatedAt       *time.Time `json:"created_at,omitempty" db:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty" db:"status_updated_at"`
}

// ParseQuantity reads a quantity in [1, MaxQuantity], falling back to
// DefaultQuantity
func ParseQuantity(value string) int {
	q, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || q < 1 || q > MaxQuantity {
		return DefaultQuantity
	}
	return q
}

// QuantityValue returns the stored quantity as an integer
func (o *Order) QuantityValue() int {
	return ParseQuantity(o.Quantity)
}

// Address joins the address lines for display
func (o *Order) Address() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{o.House, o.City, o.Mandal} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// TransitionEffect describes what applying a status change did to an order
type TransitionEffect struct {
	Previous Status
	Current  Status
	// RestoreQuantity is the quantity to put back onto the originating design
	RestoreQuantity int
}

// Changed reports whether the status actually moved
func (e TransitionEffect) Changed() bool {
	return e.Previous != e.Current
}

// ApplyTransition rewrites the lifecycle fields for a move to target.
// completed_at and cancelled_at are never both set afterwards. Stock is only
// restored on entry into Cancelled, so repeating a cancel cannot restore twice.
func (o *Order) ApplyTransition(target Status, now time.Time) TransitionEffect {
	effect := TransitionEffect{Previous: o.Status, Current: target}

	switch target {
	case StatusCompleted:
		o.CompletedAt = &now
		o.CancelledAt = nil
	case StatusCancelled:
		o.CancelledAt = &now
		o.CompletedAt = nil
		if o.Status != StatusCancelled {
			effect.RestoreQuantity = o.QuantityValue()
		}
	default:
		o.StatusUpdatedAt = &now
		o.CompletedAt = nil
		o.CancelledAt = nil
	}

	o.Status = target
	return effect
}

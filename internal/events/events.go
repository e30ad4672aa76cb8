package events

import (
	"context"
	"time"

	"teeshop/internal/domain"

	"github.com/google/uuid"
)

// Event types
const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

// Event is an order lifecycle fact published for downstream consumers
type Event struct {
	ID             uuid.UUID     `json:"id"`
	Type           string        `json:"type"`
	OrderID        uuid.UUID     `json:"order_id"`
	DesignCode     string        `json:"design_code"`
	Status         domain.Status `json:"status"`
	PreviousStatus domain.Status `json:"previous_status,omitempty"`
	Quantity       int           `json:"quantity"`
	StockRestored  int           `json:"stock_restored,omitempty"`
	OccurredAt     time.Time     `json:"occurred_at"`
}

// Publisher sends events to a broker
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// OrderPlaced builds the event for a new order
func OrderPlaced(o *domain.Order, at time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       TypeOrderPlaced,
		OrderID:    o.ID,
		DesignCode: o.DesignCode,
		Status:     o.Status,
		Quantity:   o.QuantityValue(),
		OccurredAt: at,
	}
}

// StatusChanged builds the event for an applied transition
func StatusChanged(o *domain.Order, effect domain.TransitionEffect, restored int, at time.Time) Event {
	return Event{
		ID:             uuid.New(),
		Type:           TypeOrderStatusChanged,
		OrderID:        o.ID,
		DesignCode:     o.DesignCode,
		Status:         effect.Current,
		PreviousStatus: effect.Previous,
		Quantity:       o.QuantityValue(),
		StockRestored:  restored,
		OccurredAt:     at,
	}
}

type nopPublisher struct{}

// NewNopPublisher returns a Publisher that drops every event
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

func (nopPublisher) Close() error { return nil }

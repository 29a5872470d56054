package notify

import (
	"context"
	"time"

	"foodstand/internal/dto"
)

type EventType string

const (
	EventProductsUpdated EventType = "products-updated"
	EventProductRemoved  EventType = "product-removed"
)

// Event is the envelope delivered to terminals. products-updated carries the
// full view, product-removed the deleted record.
type Event struct {
	Type     EventType            `json:"type"`
	Products []dto.ProductViewDTO `json:"products,omitempty"`
	Product  *dto.ProductDTO      `json:"product,omitempty"`
	At       time.Time            `json:"at"`
}

// Publisher delivers an event to every listener it knows about. Delivery is
// best effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

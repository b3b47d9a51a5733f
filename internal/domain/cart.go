package domain

import (
	"time"

	"github.com/google/uuid"
)

type Cart struct {
	OwnerID string
	Items   []CartItem
}

type CartItem struct {
	ProductID uuid.UUID
	Quantity  int

	CreatedAt time.Time
}

// CartLine is the untrusted checkout input: a product reference plus a
// requested quantity. Prices are never accepted from the caller.
type CartLine struct {
	ProductID uuid.UUID
	Quantity  int
}

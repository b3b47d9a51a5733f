package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product is the catalog row the checkout locks and reads. Stock is
// mutated only under a row-level exclusive lock; Price is read-only
// during checkout and snapshotted onto the order line.
type Product struct {
	ID     uuid.UUID
	Name   string
	SKU    string
	Price  Money
	Stock  int
	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Product) Available(quantity int) bool {
	return p.Active && p.Stock >= quantity
}

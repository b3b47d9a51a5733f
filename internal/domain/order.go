package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Order struct {
	ID      uuid.UUID
	Number  string
	OwnerID string

	AddressID uuid.UUID

	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
	Currency     currency.Unit

	PaymentMethod    string
	PaymentSessionID string
	// PaymentStatus mirrors the last validated gateway status; the
	// payment row remains the source of truth.
	PaymentStatus PaymentStatus

	Status         OrderStatus
	ReviewRequired bool
	StockRestored  bool
	Notes          string

	Items []OrderItem

	CreatedAt   time.Time
	PaidAt      *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
	UpdatedAt   time.Time
}

// OrderItem snapshots name, SKU and unit price at creation so later
// catalog edits never change a historical order.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	SKU       string
	Quantity  int
	UnitPrice Money
	Subtotal  decimal.Decimal

	CreatedAt time.Time
}

// NewOrderNumber generates a human-readable order number. Uniqueness is
// enforced by the orders table; the random suffix makes collisions
// within a day practically impossible.
func NewOrderNumber(now time.Time) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)

	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), hex.EncodeToString(buf))
}

// Deletable reports whether the order may still be removed: before any
// money moved, or after a cancellation.
func (o Order) Deletable() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusCancelled
}

package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type CheckoutReason string

const (
	ReasonEmptyCart            CheckoutReason = "empty_cart"
	ReasonInvalidAddress       CheckoutReason = "invalid_address"
	ReasonUnsupportedPayment   CheckoutReason = "unsupported_payment_method"
	ReasonUnavailableProducts  CheckoutReason = "unavailable_products"
	ReasonInsufficientStock    CheckoutReason = "insufficient_stock"
	ReasonPaymentSessionFailed CheckoutReason = "payment_session_failed"
)

// StockShortage describes one product the buyer asked more of than the
// ledger holds.
type StockShortage struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Available int       `json:"available"`
	Requested int       `json:"requested"`
}

// CheckoutError carries a machine-distinguishable reason plus the full
// set of violations, so the buyer sees the complete picture in one
// round trip instead of one error per retry.
type CheckoutError struct {
	Reason      CheckoutReason
	Unavailable []uuid.UUID
	Shortages   []StockShortage
	Detail      string
}

func (e *CheckoutError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Reason))

	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	for _, id := range e.Unavailable {
		fmt.Fprintf(&b, ": product %s unavailable", id)
	}
	for _, s := range e.Shortages {
		fmt.Fprintf(&b, ": product %s has %d of %d requested", s.ProductID, s.Available, s.Requested)
	}

	return b.String()
}

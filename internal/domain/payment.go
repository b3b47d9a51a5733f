package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type PaymentStatus string

const (
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusInProcess PaymentStatus = "in_process"
	PaymentStatusRejected  PaymentStatus = "rejected"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

var validPaymentStatuses = map[PaymentStatus]struct{}{
	PaymentStatusApproved:  {},
	PaymentStatusPending:   {},
	PaymentStatusInProcess: {},
	PaymentStatusRejected:  {},
	PaymentStatusCancelled: {},
}

func ToPaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(s)
	if _, ok := validPaymentStatuses[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid payment status")
}

// Payment is one logical gateway payment. Repeated notifications for
// the same external id update the same row.
type Payment struct {
	ExternalID string
	OrderID    uuid.UUID
	// OrderNumber is the gateway's external reference, used to resolve
	// the order before OrderID is known.
	OrderNumber string

	Status       PaymentStatus
	StatusDetail string

	Amount    decimal.Decimal
	NetAmount decimal.Decimal
	FeeAmount decimal.Decimal
	Currency  currency.Unit

	PayerID    string
	PayerEmail string

	ApprovedAt *time.Time
	Raw        []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PaymentSession is the gateway handle for "this amount, for this
// order, awaiting buyer payment".
type PaymentSession struct {
	ID  string
	URL string
}

package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Address is persisted once per checkout and never mutated afterwards.
type Address struct {
	ID         uuid.UUID
	OwnerID    string
	Line1      string
	Line2      string
	City       string
	Region     string
	PostalCode string
	Country    string

	CreatedAt time.Time
}

func (a Address) Validate() error {
	if a.Line1 == "" {
		return errors.New("line1 is empty")
	}
	if a.City == "" {
		return errors.New("city is empty")
	}
	if a.PostalCode == "" {
		return errors.New("postal code is empty")
	}
	if a.Country == "" {
		return errors.New("country is empty")
	}

	return nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/port"
)

type addressRepository struct {
	db querier
}

func NewAddress(pool *pgxpool.Pool) port.AddressRepository {
	return &addressRepository{db: pool}
}

func NewAddressWithTx(tx pgx.Tx) port.AddressRepository {
	return &addressRepository{db: tx}
}

// InsertAddress persists the shipping address as a new record.
// Addresses are cheap and immutable so there is no deduplication.
func (r *addressRepository) InsertAddress(ctx context.Context, address domain.Address) (uuid.UUID, error) {
	if err := address.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("address.Validate: %w", err)
	}

	var addressID uuid.UUID

	err := r.db.QueryRow(ctx,
		`INSERT INTO addresses (owner_id, line1, line2, city, region, postal_code, country)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		address.OwnerID, address.Line1, address.Line2, address.City,
		address.Region, address.PostalCode, address.Country,
	).Scan(&addressID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert address: %w", err)
	}

	return addressID, nil
}

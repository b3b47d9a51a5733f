package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/verist/shopcore/internal/port"
)

type idempotencyRepository struct {
	db querier
}

// NewIdempotency returns the write-once fingerprint-to-response store
// shared by checkout submission and webhook delivery.
func NewIdempotency(pool *pgxpool.Pool) port.IdempotencyStore {
	return &idempotencyRepository{db: pool}
}

func NewIdempotencyWithTx(tx pgx.Tx) port.IdempotencyStore {
	return &idempotencyRepository{db: tx}
}

// Get only returns completed entries; a key claimed by an in-flight
// transaction is still a miss.
func (r *idempotencyRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var response []byte

	err := r.db.QueryRow(ctx,
		`SELECT response FROM idempotency_keys
		 WHERE key = $1 AND response IS NOT NULL`, key,
	).Scan(&response)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query idempotency key: %w", err)
	}

	return response, true, nil
}

// Claim inserts the bare key row. The primary key arbitrates races: a
// concurrent claimant blocks on the uncommitted row until this
// transaction resolves, then its own insert reports zero rows.
func (r *idempotencyRepository) Claim(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("idempotency key is empty")
	}

	tag, err := r.db.Exec(ctx,
		`INSERT INTO idempotency_keys (key)
		 VALUES ($1)
		 ON CONFLICT (key) DO NOTHING`,
		key)
	if err != nil {
		return false, fmt.Errorf("claim idempotency key: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Save is write-once: it fills the claimant's own empty row, or
// inserts the full row when no claim preceded it. A key that already
// carries a response stays exactly as first written.
func (r *idempotencyRepository) Save(ctx context.Context, key string, response []byte) error {
	if key == "" {
		return errors.New("idempotency key is empty")
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO idempotency_keys (key, response)
		 VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET response = EXCLUDED.response
		 WHERE idempotency_keys.response IS NULL`,
		key, response)
	if err != nil {
		return fmt.Errorf("insert idempotency key: %w", err)
	}

	return nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/verist/shopcore/internal/port"
)

type unitOfWork struct {
	pool *pgxpool.Pool
}

func NewUnitOfWork(pool *pgxpool.Pool) port.UnitOfWork {
	return &unitOfWork{pool: pool}
}

// Do binds one instance of every repository to a fresh transaction and
// runs fn against them. fn returning an error discards all writes.
func (u *unitOfWork) Do(ctx context.Context, fn func(r port.Repos) error) error {
	_, err := withTx(ctx, u.pool, func(tx pgx.Tx) (struct{}, error) {
		repos := port.Repos{
			Products:    NewProductWithTx(tx),
			Orders:      NewOrderWithTx(tx),
			Payments:    NewPaymentWithTx(tx),
			Carts:       NewCartWithTx(tx),
			Addresses:   NewAddressWithTx(tx),
			Idempotency: NewIdempotencyWithTx(tx),
		}
		return struct{}{}, fn(repos)
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

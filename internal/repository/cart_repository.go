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

type cartRepository struct {
	db querier
}

func NewCart(pool *pgxpool.Pool) port.CartRepository {
	return &cartRepository{db: pool}
}

func NewCartWithTx(tx pgx.Tx) port.CartRepository {
	return &cartRepository{db: tx}
}

func (r *cartRepository) GetCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	var c domain.Cart

	rows, err := r.db.Query(ctx,
		`SELECT product_id, quantity, created_at
		 FROM cart_items
		 WHERE owner_id = $1
		 ORDER BY created_at`, ownerID)
	if err != nil {
		return c, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.CreatedAt); err != nil {
			return c, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return c, fmt.Errorf("rows.Err: %w", err)
	}

	return domain.Cart{
		OwnerID: ownerID,
		Items:   items,
	}, nil
}

func (r *cartRepository) AddItem(ctx context.Context, ownerID string, item domain.CartItem) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO cart_items (owner_id, product_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (owner_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		ownerID, item.ProductID, item.Quantity)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}

	return nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, ownerID string, productID uuid.UUID) (bool, error) {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM cart_items WHERE owner_id = $1 AND product_id = $2`,
		ownerID, productID)
	if err != nil {
		return false, fmt.Errorf("delete cart item: %w", err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

func (r *cartRepository) ClearCart(ctx context.Context, ownerID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM cart_items WHERE owner_id = $1`, ownerID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	return nil
}

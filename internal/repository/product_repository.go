package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/port"
)

type productRepository struct {
	db querier
}

func NewProduct(pool *pgxpool.Pool) port.ProductRepository {
	return &productRepository{db: pool}
}

func NewProductWithTx(tx pgx.Tx) port.ProductRepository {
	return &productRepository{db: tx}
}

const productColumns = `id, name, sku, price_amount, price_currency, stock, active, created_at, updated_at`

func (r *productRepository) GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, productID)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("scanProduct: %w", ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("scanProduct: %w", err)
	}

	return product, nil
}

func (r *productRepository) InsertProduct(ctx context.Context, product domain.Product) (uuid.UUID, error) {
	var productID uuid.UUID

	err := r.db.QueryRow(ctx,
		`INSERT INTO products (name, sku, price_amount, price_currency, stock, active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		product.Name, product.SKU, product.Price.Amount, product.Price.Currency.String(),
		product.Stock, product.Active,
	).Scan(&productID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert product: %w", err)
	}

	return productID, nil
}

// LockProducts acquires FOR UPDATE locks in ascending id order, the
// consistent order that keeps concurrent checkouts deadlock-free.
func (r *productRepository) LockProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	if len(productIDs) == 0 {
		return nil, errors.New("no product ids to lock")
	}

	sorted := make([]uuid.UUID, len(productIDs))
	copy(sorted, productIDs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE id = ANY($1)
		 ORDER BY id
		 FOR UPDATE`, sorted)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	locked := make(map[uuid.UUID]domain.Product, len(sorted))
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanProduct: %w", err)
		}
		locked[product.ID] = product
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return locked, nil
}

func (r *productRepository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return errors.New("quantity must be positive")
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = now()
		 WHERE id = $1 AND stock >= $2`,
		productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("decrement stock: %w", ErrInsufficientStock)
	}

	return nil
}

func (r *productRepository) RestoreStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return errors.New("quantity must be positive")
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now()
		 WHERE id = $1`,
		productID, quantity)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("restore stock: %w", ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p            domain.Product
		priceAmount  decimal.Decimal
		currencyCode string
	)

	err := row.Scan(&p.ID, &p.Name, &p.SKU, &priceAmount, &currencyCode,
		&p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}

	price, err := domain.NewMoney(priceAmount, currencyCode)
	if err != nil {
		return domain.Product{}, fmt.Errorf("domain.NewMoney: %w", err)
	}
	p.Price = price

	return p, nil
}

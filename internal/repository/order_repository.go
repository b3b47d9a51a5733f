package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/port"
)

type orderRepository struct {
	db querier
}

func NewOrder(pool *pgxpool.Pool) port.OrderRepository {
	return &orderRepository{db: pool}
}

func NewOrderWithTx(tx pgx.Tx) port.OrderRepository {
	return &orderRepository{db: tx}
}

const orderColumns = `id, order_number, owner_id, address_id,
	subtotal, discount, shipping_cost, total, currency,
	payment_method, payment_session_id, payment_status,
	status, review_required, stock_restored, notes,
	created_at, paid_at, shipped_at, delivered_at, cancelled_at, updated_at`

func (r *orderRepository) InsertOrder(ctx context.Context, order domain.Order) (uuid.UUID, error) {
	if len(order.Items) == 0 {
		return uuid.Nil, errors.New("no items in order")
	}

	var orderID uuid.UUID

	err := r.db.QueryRow(ctx,
		`INSERT INTO orders (order_number, owner_id, address_id,
			subtotal, discount, shipping_cost, total, currency,
			payment_method, status, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		order.Number, order.OwnerID, order.AddressID,
		order.Subtotal, order.Discount, order.ShippingCost, order.Total, order.Currency.String(),
		order.PaymentMethod, string(domain.OrderStatusPending), order.Notes,
	).Scan(&orderID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err := r.db.Exec(ctx,
			`INSERT INTO order_items (order_id, product_id, name, sku, quantity,
				unit_price, currency, subtotal)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			orderID, item.ProductID, item.Name, item.SKU, item.Quantity,
			item.UnitPrice.Amount, item.UnitPrice.Currency.String(), item.Subtotal)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	return orderID, nil
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return r.getOrder(ctx, `WHERE id = $1`, orderID, false)
}

func (r *orderRepository) LockOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return r.getOrder(ctx, `WHERE id = $1`, orderID, true)
}

func (r *orderRepository) LockOrderByNumber(ctx context.Context, number string) (domain.Order, error) {
	return r.getOrder(ctx, `WHERE order_number = $1`, number, true)
}

func (r *orderRepository) getOrder(ctx context.Context, where string, arg any, lock bool) (domain.Order, error) {
	var o domain.Order

	query := `SELECT ` + orderColumns + ` FROM orders ` + where
	if lock {
		query += ` FOR UPDATE`
	}

	order, err := scanOrder(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return o, fmt.Errorf("scanOrder: %w", ErrNotFound)
		}
		return o, fmt.Errorf("scanOrder: %w", err)
	}

	items, err := r.getOrderItems(ctx, order.ID)
	if err != nil {
		return o, fmt.Errorf("getOrderItems: %w", err)
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) getOrderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, order_id, product_id, name, sku, quantity,
			unit_price, currency, subtotal, created_at
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var (
			item         domain.OrderItem
			priceAmount  decimal.Decimal
			currencyCode string
		)

		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.SKU,
			&item.Quantity, &priceAmount, &currencyCode, &item.Subtotal, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}

		price, err := domain.NewMoney(priceAmount, currencyCode)
		if err != nil {
			return nil, fmt.Errorf("domain.NewMoney: %w", err)
		}
		item.UnitPrice = price

		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return items, nil
}

func (r *orderRepository) SetPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE orders SET payment_session_id = $2, updated_at = now() WHERE id = $1`,
		orderID, sessionID)
	if err != nil {
		return fmt.Errorf("set payment session: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("set payment session: %w", ErrNotFound)
	}

	return nil
}

func (r *orderRepository) UpdateOrderState(ctx context.Context, order domain.Order) error {
	if order.ID == uuid.Nil {
		return errors.New("orderID is empty")
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE orders SET
			status = $2,
			payment_status = $3,
			review_required = $4,
			stock_restored = $5,
			notes = $6,
			paid_at = $7,
			shipped_at = $8,
			delivered_at = $9,
			cancelled_at = $10,
			updated_at = now()
		 WHERE id = $1`,
		order.ID, string(order.Status), string(order.PaymentStatus),
		order.ReviewRequired, order.StockRestored, order.Notes,
		order.PaidAt, order.ShippedAt, order.DeliveredAt, order.CancelledAt)
	if err != nil {
		return fmt.Errorf("update order state: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("update order state: %w", ErrNotFound)
	}

	return nil
}

func (r *orderRepository) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return errors.New("orderID is empty")
	}

	if _, err := r.db.Exec(ctx,
		`DELETE FROM payments WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete payments: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("delete order items: %w", ErrNotFound)
	}

	cmdTag, err = r.db.Exec(ctx,
		`DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("delete order: %w", ErrNotFound)
	}

	return nil
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o             domain.Order
		currencyCode  string
		status        string
		paymentStatus string
	)

	err := row.Scan(&o.ID, &o.Number, &o.OwnerID, &o.AddressID,
		&o.Subtotal, &o.Discount, &o.ShippingCost, &o.Total, &currencyCode,
		&o.PaymentMethod, &o.PaymentSessionID, &paymentStatus,
		&status, &o.ReviewRequired, &o.StockRestored, &o.Notes,
		&o.CreatedAt, &o.PaidAt, &o.ShippedAt, &o.DeliveredAt, &o.CancelledAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}

	o.Status, err = domain.ToOrderStatus(status)
	if err != nil {
		return o, fmt.Errorf("domain.ToOrderStatus[%s]: %w", status, err)
	}

	if paymentStatus != "" {
		o.PaymentStatus, err = domain.ToPaymentStatus(paymentStatus)
		if err != nil {
			return o, fmt.Errorf("domain.ToPaymentStatus[%s]: %w", paymentStatus, err)
		}
	}

	money, err := domain.NewMoney(o.Total, currencyCode)
	if err != nil {
		return o, fmt.Errorf("domain.NewMoney: %w", err)
	}
	o.Currency = money.Currency

	return o, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/port"
)

type paymentRepository struct {
	db querier
}

func NewPayment(pool *pgxpool.Pool) port.PaymentRepository {
	return &paymentRepository{db: pool}
}

func NewPaymentWithTx(tx pgx.Tx) port.PaymentRepository {
	return &paymentRepository{db: tx}
}

func (r *paymentRepository) GetPayment(ctx context.Context, externalID string) (domain.Payment, error) {
	var (
		p             domain.Payment
		currencyCode  string
		paymentStatus string
	)

	err := r.db.QueryRow(ctx,
		`SELECT external_id, order_id, status, status_detail,
			amount, net_amount, fee_amount, currency,
			payer_id, payer_email, approved_at, raw, created_at, updated_at
		 FROM payments
		 WHERE external_id = $1`, externalID,
	).Scan(&p.ExternalID, &p.OrderID, &paymentStatus, &p.StatusDetail,
		&p.Amount, &p.NetAmount, &p.FeeAmount, &currencyCode,
		&p.PayerID, &p.PayerEmail, &p.ApprovedAt, &p.Raw, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, fmt.Errorf("query payment: %w", ErrNotFound)
		}
		return p, fmt.Errorf("query payment: %w", err)
	}

	p.Status, err = domain.ToPaymentStatus(paymentStatus)
	if err != nil {
		return p, fmt.Errorf("domain.ToPaymentStatus[%s]: %w", paymentStatus, err)
	}

	money, err := domain.NewMoney(p.Amount, currencyCode)
	if err != nil {
		return p, fmt.Errorf("domain.NewMoney: %w", err)
	}
	p.Currency = money.Currency

	return p, nil
}

// UpsertPayment keys on external_id: the first delivery inserts, every
// redelivery updates the same row. One logical payment, one row.
func (r *paymentRepository) UpsertPayment(ctx context.Context, payment domain.Payment) error {
	if payment.ExternalID == "" {
		return errors.New("external payment id is empty")
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO payments (external_id, order_id, status, status_detail,
			amount, net_amount, fee_amount, currency,
			payer_id, payer_email, approved_at, raw)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (external_id) DO UPDATE SET
			status = EXCLUDED.status,
			status_detail = EXCLUDED.status_detail,
			amount = EXCLUDED.amount,
			net_amount = EXCLUDED.net_amount,
			fee_amount = EXCLUDED.fee_amount,
			payer_id = EXCLUDED.payer_id,
			payer_email = EXCLUDED.payer_email,
			approved_at = EXCLUDED.approved_at,
			raw = EXCLUDED.raw,
			updated_at = now()`,
		payment.ExternalID, payment.OrderID, string(payment.Status), payment.StatusDetail,
		payment.Amount, payment.NetAmount, payment.FeeAmount, payment.Currency.String(),
		payment.PayerID, payment.PayerEmail, payment.ApprovedAt,
		lo.Ternary(payment.Raw != nil, payment.Raw, []byte(`{}`)))
	if err != nil {
		return fmt.Errorf("upsert payment: %w", err)
	}

	return nil
}

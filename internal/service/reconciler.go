package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/gateway"
	"github.com/verist/shopcore/internal/port"
	"github.com/verist/shopcore/internal/repository"
	"go.uber.org/zap"
)

// Ack tells the gateway whether to stop retrying. Business rejections
// (order not found, amount mismatch) are still Accepted so redeliveries
// stop; only transient local failures report Accepted=false.
type Ack struct {
	Accepted bool   `json:"accepted"`
	Result   string `json:"result"`
}

// ErrMalformedNotification marks a body that authenticated but cannot
// be interpreted; retrying the same delivery cannot succeed.
var ErrMalformedNotification = errors.New("malformed notification")

const (
	AckProcessed      = "processed"
	AckNoChange       = "no_change"
	AckIgnored        = "ignored"
	AckOrderNotFound  = "order_not_found"
	AckAmountMismatch = "amount_mismatch"
)

type notification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

type Reconciler struct {
	uow     port.UnitOfWork
	idem    port.IdempotencyStore
	gateway port.PaymentGateway
	events  port.EventPublisher
	secret  string
	// tolerance is the maximum absolute difference between the paid
	// amount and the order total that still counts as a match.
	tolerance decimal.Decimal
	logger    *zap.Logger
}

func NewReconciler(uow port.UnitOfWork, idem port.IdempotencyStore, gw port.PaymentGateway,
	events port.EventPublisher, secret string, tolerance decimal.Decimal, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		uow:       uow,
		idem:      idem,
		gateway:   gw,
		events:    events,
		secret:    secret,
		tolerance: tolerance,
		logger:    logger,
	}
}

// Handle authenticates a raw gateway notification, resolves it to one
// order and applies its effect exactly once. An error return means the
// local side failed and the delivery is safe to retry.
func (r *Reconciler) Handle(ctx context.Context, body []byte, sig gateway.Signature) (Ack, error) {
	if err := gateway.VerifySignature(r.secret, sig, body); err != nil {
		return Ack{}, fmt.Errorf("gateway.VerifySignature: %w", err)
	}

	var n notification
	if err := json.Unmarshal(body, &n); err != nil {
		return Ack{}, fmt.Errorf("json.Unmarshal: %w", errors.Join(ErrMalformedNotification, err))
	}

	if n.Type != "payment" {
		return Ack{Accepted: true, Result: AckIgnored}, nil
	}
	if n.Data.ID == "" {
		return Ack{}, fmt.Errorf("notification has no payment id: %w", ErrMalformedNotification)
	}

	key := WebhookKey(n.Data.ID, n.Action)

	stored, found, err := r.idem.Get(ctx, key)
	if err != nil {
		return Ack{}, fmt.Errorf("idem.Get: %w", err)
	}
	if found {
		var ack Ack
		if err := json.Unmarshal(stored, &ack); err != nil {
			return Ack{}, fmt.Errorf("json.Unmarshal stored ack: %w", err)
		}
		r.logger.Info("duplicate webhook, returning stored ack",
			zap.String("payment_id", n.Data.ID), zap.String("action", n.Action))
		return ack, nil
	}

	// The notification is untrusted as a source of amounts; fetch the
	// authoritative record by id.
	payment, err := r.gateway.GetPayment(ctx, n.Data.ID)
	if err != nil {
		return Ack{}, fmt.Errorf("gateway.GetPayment: %w", err)
	}

	ack, cancelled, err := r.apply(ctx, payment)
	if err != nil {
		return Ack{}, err
	}

	r.saveAck(ctx, key, ack)

	if cancelled.Number != "" {
		if err := r.events.OrderCancelled(ctx, cancelled); err != nil {
			r.logger.Warn("order cancelled event not published",
				zap.String("order_number", cancelled.Number), zap.Error(err))
		}
	}

	return ack, nil
}

// apply runs the transactional part: lock the order, validate the paid
// amount, upsert the payment and advance the state machine.
func (r *Reconciler) apply(ctx context.Context, payment domain.Payment) (Ack, domain.Order, error) {
	var (
		ack       Ack
		cancelled domain.Order
	)

	err := r.uow.Do(ctx, func(repos port.Repos) error {
		order, err := repos.Orders.LockOrderByNumber(ctx, payment.OrderNumber)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				r.logger.Warn("webhook for unknown order",
					zap.String("payment_id", payment.ExternalID),
					zap.String("order_number", payment.OrderNumber))
				ack = Ack{Accepted: true, Result: AckOrderNotFound}
				return nil
			}
			return fmt.Errorf("orders.LockOrderByNumber: %w", err)
		}

		diff := payment.Amount.Sub(order.Total).Abs()
		if diff.GreaterThan(r.tolerance) {
			// Never auto-resolved: flag for a human, ack the webhook so
			// the gateway stops retrying, leave the state machine alone.
			order.ReviewRequired = true
			order.Notes = appendNote(order.Notes, fmt.Sprintf(
				"amount mismatch: payment %s reported %s (%s), order total %s",
				payment.ExternalID, payment.Amount.StringFixed(2), payment.Status, order.Total.StringFixed(2)))

			if err := repos.Orders.UpdateOrderState(ctx, order); err != nil {
				return fmt.Errorf("orders.UpdateOrderState: %w", err)
			}

			r.logger.Error("payment amount mismatch, order flagged for review",
				zap.String("order_number", order.Number),
				zap.String("payment_id", payment.ExternalID),
				zap.String("paid", payment.Amount.StringFixed(2)),
				zap.String("total", order.Total.StringFixed(2)))

			ack = Ack{Accepted: true, Result: AckAmountMismatch}
			return nil
		}

		payment.OrderID = order.ID
		if err := repos.Payments.UpsertPayment(ctx, payment); err != nil {
			return fmt.Errorf("payments.UpsertPayment: %w", err)
		}

		order.PaymentStatus = payment.Status

		target, changed := domain.TargetForPayment(payment.Status, order.Status)
		if changed {
			applyTransition(&order, target)

			if target == domain.OrderStatusCancelled && !order.StockRestored {
				if err := restoreStock(ctx, repos, &order); err != nil {
					return fmt.Errorf("restoreStock: %w", err)
				}
				cancelled = order
			}
		}

		if err := repos.Orders.UpdateOrderState(ctx, order); err != nil {
			return fmt.Errorf("orders.UpdateOrderState: %w", err)
		}

		if changed {
			r.logger.Info("order advanced by payment",
				zap.String("order_number", order.Number),
				zap.String("payment_id", payment.ExternalID),
				zap.String("status", string(target)))
			ack = Ack{Accepted: true, Result: AckProcessed}
		} else {
			ack = Ack{Accepted: true, Result: AckNoChange}
		}
		return nil
	})
	if err != nil {
		return Ack{}, domain.Order{}, fmt.Errorf("uow.Do: %w", err)
	}

	return ack, cancelled, nil
}

func (r *Reconciler) saveAck(ctx context.Context, key string, ack Ack) {
	payload, err := json.Marshal(ack)
	if err != nil {
		r.logger.Error("ack not serializable", zap.Error(err))
		return
	}

	if err := r.idem.Save(ctx, key, payload); err != nil {
		r.logger.Warn("webhook idempotency entry not saved", zap.Error(err))
	}
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "\n" + note
}

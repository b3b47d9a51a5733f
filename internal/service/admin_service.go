package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/port"
	"github.com/verist/shopcore/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrOrderNotFound        = errors.New("order_not_found")
	ErrInvalidTransition    = errors.New("invalid_state_transition")
	ErrDeletionNotPermitted = errors.New("deletion_not_permitted")
)

// AdminService drives the fulfillment transitions and the deletion
// path used by staff, outside the webhook reconciler.
type AdminService struct {
	uow    port.UnitOfWork
	events port.EventPublisher
	logger *zap.Logger
}

func NewAdmin(uow port.UnitOfWork, events port.EventPublisher, logger *zap.Logger) *AdminService {
	return &AdminService{
		uow:    uow,
		events: events,
		logger: logger,
	}
}

func (s *AdminService) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	var order domain.Order

	err := s.uow.Do(ctx, func(r port.Repos) error {
		var err error
		order, err = r.Orders.GetOrder(ctx, orderID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOrderNotFound
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return order, ErrOrderNotFound
		}
		return order, fmt.Errorf("uow.Do: %w", err)
	}

	return order, nil
}

// Transition moves an order to target. Repeating a transition the
// order already made is an idempotent no-op; anything else outside the
// table is refused. Cancelling a pending order restores its stock in
// the same transaction.
func (s *AdminService) Transition(ctx context.Context, orderID uuid.UUID, target domain.OrderStatus) (domain.Order, error) {
	var (
		order   domain.Order
		changed bool
	)

	err := s.uow.Do(ctx, func(r port.Repos) error {
		var err error
		order, err = r.Orders.LockOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("orders.LockOrder: %w", err)
		}

		if order.Status == target {
			return nil // already there
		}

		if !domain.CanTransition(order.Status, target) {
			return ErrInvalidTransition
		}

		changed = true

		applyTransition(&order, target)

		if target == domain.OrderStatusCancelled {
			if err := restoreStock(ctx, r, &order); err != nil {
				return fmt.Errorf("restoreStock: %w", err)
			}
		}

		if err := r.Orders.UpdateOrderState(ctx, order); err != nil {
			return fmt.Errorf("orders.UpdateOrderState: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrInvalidTransition) {
			return order, err
		}
		return order, fmt.Errorf("uow.Do: %w", err)
	}

	// A repeated transition changes nothing, so nothing is announced.
	if !changed {
		return order, nil
	}

	if order.Status == domain.OrderStatusCancelled {
		if err := s.events.OrderCancelled(ctx, order); err != nil {
			s.logger.Warn("order cancelled event not published",
				zap.String("order_number", order.Number), zap.Error(err))
		}
	}

	s.logger.Info("order transitioned",
		zap.String("order_number", order.Number),
		zap.String("status", string(order.Status)))

	return order, nil
}

// DeleteOrder removes an order that is still pending or already
// cancelled, restoring stock unless a cancellation already did. Any
// other state is refused: stock and money have moved downstream.
func (s *AdminService) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	err := s.uow.Do(ctx, func(r port.Repos) error {
		order, err := r.Orders.LockOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("orders.LockOrder: %w", err)
		}

		if !order.Deletable() {
			return ErrDeletionNotPermitted
		}

		if err := restoreStock(ctx, r, &order); err != nil {
			return fmt.Errorf("restoreStock: %w", err)
		}

		if err := r.Orders.DeleteOrder(ctx, orderID); err != nil {
			return fmt.Errorf("orders.DeleteOrder: %w", err)
		}

		s.logger.Info("order deleted",
			zap.String("order_number", order.Number),
			zap.String("status", string(order.Status)))
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrDeletionNotPermitted) {
			return err
		}
		return fmt.Errorf("uow.Do: %w", err)
	}

	return nil
}

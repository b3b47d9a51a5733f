package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/port"
)

// restoreStock puts every line's quantity back on its product, exactly
// once per order. The caller must hold the order row lock and run this
// inside the same transaction as the state change or deletion, so a
// concurrent checkout for the same product cannot observe a half
// restored ledger. Product locks are taken in the same sorted order as
// at deduction time.
func restoreStock(ctx context.Context, repos port.Repos, order *domain.Order) error {
	if order.StockRestored {
		return nil
	}

	productIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	if _, err := repos.Products.LockProducts(ctx, productIDs); err != nil {
		return fmt.Errorf("products.LockProducts: %w", err)
	}

	for _, item := range order.Items {
		if err := repos.Products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("products.RestoreStock: %w", err)
		}
	}

	order.StockRestored = true

	return nil
}

// applyTransition moves the order to target and stamps the matching
// lifecycle timestamp if it has not been recorded yet.
func applyTransition(order *domain.Order, target domain.OrderStatus) {
	order.Status = target

	now := nowUTC()
	switch target {
	case domain.OrderStatusProcessing:
		if order.PaidAt == nil {
			order.PaidAt = &now
		}
	case domain.OrderStatusShipped:
		if order.ShippedAt == nil {
			order.ShippedAt = &now
		}
	case domain.OrderStatusDelivered:
		if order.DeliveredAt == nil {
			order.DeliveredAt = &now
		}
	case domain.OrderStatusCancelled:
		if order.CancelledAt == nil {
			order.CancelledAt = &now
		}
	}
}

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

var ErrProductUnavailable = errors.New("product_unavailable")

// CartService maintains the buyer's persisted cart between visits. The
// cart is a shopping list, not a reservation: stock is only checked and
// locked at checkout.
type CartService struct {
	carts    port.CartRepository
	products port.ProductRepository
	logger   *zap.Logger
}

func NewCartService(carts port.CartRepository, products port.ProductRepository, logger *zap.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

func (s *CartService) Get(ctx context.Context, ownerID string) (domain.Cart, error) {
	cart, err := s.carts.GetCart(ctx, ownerID)
	if err != nil {
		return cart, fmt.Errorf("carts.GetCart: %w", err)
	}
	return cart, nil
}

// Add puts a line in the cart, overwriting the quantity for a product
// already there. Unknown and inactive products are refused.
func (s *CartService) Add(ctx context.Context, ownerID string, line domain.CartLine) error {
	if line.Quantity <= 0 {
		return fmt.Errorf("quantity %d: %w", line.Quantity, ErrProductUnavailable)
	}

	product, err := s.products.GetProduct(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductUnavailable
		}
		return fmt.Errorf("products.GetProduct: %w", err)
	}
	if !product.Active {
		return ErrProductUnavailable
	}

	err = s.carts.AddItem(ctx, ownerID, domain.CartItem{
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
	})
	if err != nil {
		return fmt.Errorf("carts.AddItem: %w", err)
	}

	s.logger.Debug("cart item added",
		zap.String("owner_id", ownerID),
		zap.String("product_id", line.ProductID.String()),
		zap.Int("quantity", line.Quantity))

	return nil
}

func (s *CartService) Remove(ctx context.Context, ownerID string, productID uuid.UUID) (bool, error) {
	found, err := s.carts.DeleteItem(ctx, ownerID, productID)
	if err != nil {
		return false, fmt.Errorf("carts.DeleteItem: %w", err)
	}
	return found, nil
}

func (s *CartService) Clear(ctx context.Context, ownerID string) error {
	if err := s.carts.ClearCart(ctx, ownerID); err != nil {
		return fmt.Errorf("carts.ClearCart: %w", err)
	}
	return nil
}

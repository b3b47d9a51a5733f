package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/port"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

var supportedPaymentMethods = map[string]struct{}{
	"card":          {},
	"bank_transfer": {},
	"wallet":        {},
}

// errKeyClaimed aborts the transaction when another submission holds
// the idempotency key; the caller replays that submission's response.
var errKeyClaimed = errors.New("idempotency key claimed by another submission")

// CheckoutConfig carries the pricing policy knobs.
type CheckoutConfig struct {
	// Shipping is free once the cart holds at least FreeShippingUnits
	// units; below that the flat ShippingFee applies.
	ShippingFee       decimal.Decimal
	FreeShippingUnits int
	Currency          currency.Unit
}

type CheckoutInput struct {
	OwnerID       string
	Lines         []domain.CartLine
	Address       domain.Address
	PaymentMethod string
}

type CheckoutResult struct {
	OrderID           uuid.UUID       `json:"order_id"`
	OrderNumber       string          `json:"order_number"`
	PaymentSessionID  string          `json:"payment_session_id"`
	PaymentSessionURL string          `json:"payment_session_url"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	ShippingCost      decimal.Decimal `json:"shipping_cost"`
	Total             decimal.Decimal `json:"total"`
	Currency          string          `json:"currency"`
}

type CheckoutService struct {
	uow     port.UnitOfWork
	idem    port.IdempotencyStore
	gateway port.PaymentGateway
	events  port.EventPublisher
	cfg     CheckoutConfig
	logger  *zap.Logger
}

func NewCheckout(uow port.UnitOfWork, idem port.IdempotencyStore, gw port.PaymentGateway,
	events port.EventPublisher, cfg CheckoutConfig, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		uow:     uow,
		idem:    idem,
		gateway: gw,
		events:  events,
		cfg:     cfg,
		logger:  logger,
	}
}

// Checkout validates the cart, locks inventory, creates the order and
// opens a payment session — or fails with a tagged reason and no
// persistent change. Resubmitting the same buyer+cart returns the
// stored response without touching stock again.
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (CheckoutResult, error) {
	var result CheckoutResult

	if err := validateInput(input); err != nil {
		return result, err
	}

	input.Lines = mergeLines(input.Lines)

	key := CheckoutKey(input.OwnerID, input.Lines)

	stored, found, err := s.idem.Get(ctx, key)
	if err != nil {
		return result, fmt.Errorf("idem.Get: %w", err)
	}
	if found {
		if err := json.Unmarshal(stored, &result); err != nil {
			return result, fmt.Errorf("json.Unmarshal stored response: %w", err)
		}
		s.logger.Info("duplicate checkout, returning stored response",
			zap.String("owner_id", input.OwnerID),
			zap.String("order_number", result.OrderNumber))
		return result, nil
	}

	var order domain.Order

	err = s.uow.Do(ctx, func(r port.Repos) error {
		// The key claim arbitrates concurrent duplicates: a loser
		// blocks on the winner's uncommitted row, then sees the
		// conflict, rolls back and replays the winner's response.
		claimed, err := r.Idempotency.Claim(ctx, key)
		if err != nil {
			return fmt.Errorf("idempotency.Claim: %w", err)
		}
		if !claimed {
			return errKeyClaimed
		}

		addressID, err := r.Addresses.InsertAddress(ctx, input.Address)
		if err != nil {
			return fmt.Errorf("addresses.InsertAddress: %w", err)
		}

		order, err = s.buildOrder(ctx, r, input, addressID)
		if err != nil {
			return err
		}

		orderID, err := r.Orders.InsertOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("orders.InsertOrder: %w", err)
		}
		order.ID = orderID

		for _, item := range order.Items {
			if err := r.Products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("products.DecrementStock: %w", err)
			}
		}

		// The gateway call runs before commit so a failure rolls back
		// the order and stock as if nothing happened.
		session, err := s.gateway.CreateSession(ctx, port.SessionRequest{
			OrderNumber: order.Number,
			OwnerID:     order.OwnerID,
			Total:       domain.Money{Amount: order.Total, Currency: order.Currency},
			Items:       order.Items,
		})
		if err != nil {
			s.logger.Warn("payment session creation failed, rolling back",
				zap.String("order_number", order.Number), zap.Error(err))
			return &domain.CheckoutError{Reason: domain.ReasonPaymentSessionFailed, Detail: err.Error()}
		}

		if err := r.Orders.SetPaymentSession(ctx, orderID, session.ID); err != nil {
			return fmt.Errorf("orders.SetPaymentSession: %w", err)
		}

		if err := r.Carts.ClearCart(ctx, input.OwnerID); err != nil {
			return fmt.Errorf("carts.ClearCart: %w", err)
		}

		result = CheckoutResult{
			OrderID:           orderID,
			OrderNumber:       order.Number,
			PaymentSessionID:  session.ID,
			PaymentSessionURL: session.URL,
			Subtotal:          order.Subtotal,
			ShippingCost:      order.ShippingCost,
			Total:             order.Total,
			Currency:          order.Currency.String(),
		}

		// Saved in the same transaction as the order, so the claimed
		// key and the stored response commit or roll back together.
		return s.saveResponse(ctx, r.Idempotency, key, result)
	})
	if err != nil {
		if errors.Is(err, errKeyClaimed) {
			return s.replayStored(ctx, key, input.OwnerID)
		}
		var checkoutErr *domain.CheckoutError
		if errors.As(err, &checkoutErr) {
			return result, checkoutErr
		}
		return result, fmt.Errorf("uow.Do: %w", err)
	}

	if err := s.events.OrderCreated(ctx, order); err != nil {
		s.logger.Warn("order created event not published",
			zap.String("order_number", order.Number), zap.Error(err))
	}

	s.logger.Info("order created",
		zap.String("order_number", result.OrderNumber),
		zap.String("owner_id", input.OwnerID),
		zap.String("total", result.Total.StringFixed(2)))

	return result, nil
}

// buildOrder locks every product row, validates the full cart and
// prices the order. All violations are accumulated so the buyer sees
// the complete picture in one round trip.
func (s *CheckoutService) buildOrder(ctx context.Context, r port.Repos, input CheckoutInput, addressID uuid.UUID) (domain.Order, error) {
	var o domain.Order

	productIDs := make([]uuid.UUID, 0, len(input.Lines))
	for _, line := range input.Lines {
		productIDs = append(productIDs, line.ProductID)
	}

	locked, err := r.Products.LockProducts(ctx, productIDs)
	if err != nil {
		return o, fmt.Errorf("products.LockProducts: %w", err)
	}

	var (
		unavailable []uuid.UUID
		shortages   []domain.StockShortage
	)

	for _, line := range input.Lines {
		product, ok := locked[line.ProductID]
		switch {
		case !ok, !product.Active:
			unavailable = append(unavailable, line.ProductID)
		case product.Stock < line.Quantity:
			shortages = append(shortages, domain.StockShortage{
				ProductID: product.ID,
				Name:      product.Name,
				Available: product.Stock,
				Requested: line.Quantity,
			})
		}
	}

	if len(unavailable) > 0 || len(shortages) > 0 {
		reason := domain.ReasonInsufficientStock
		if len(unavailable) > 0 {
			reason = domain.ReasonUnavailableProducts
		}
		return o, &domain.CheckoutError{
			Reason:      reason,
			Unavailable: unavailable,
			Shortages:   shortages,
		}
	}

	subtotal := decimal.Zero
	units := 0
	items := make([]domain.OrderItem, 0, len(input.Lines))

	for _, line := range input.Lines {
		product := locked[line.ProductID]
		lineSubtotal := product.Price.Mul(line.Quantity).Amount

		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			SKU:       product.SKU,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			Subtotal:  lineSubtotal,
		})

		subtotal = subtotal.Add(lineSubtotal)
		units += line.Quantity
	}

	shipping := s.cfg.ShippingFee
	if units >= s.cfg.FreeShippingUnits {
		shipping = decimal.Zero
	}

	return domain.Order{
		Number:        domain.NewOrderNumber(nowUTC()),
		OwnerID:       input.OwnerID,
		AddressID:     addressID,
		Subtotal:      subtotal,
		Discount:      decimal.Zero,
		ShippingCost:  shipping,
		Total:         subtotal.Add(shipping),
		Currency:      s.cfg.Currency,
		PaymentMethod: input.PaymentMethod,
		Status:        domain.OrderStatusPending,
		Items:         items,
	}, nil
}

func (s *CheckoutService) saveResponse(ctx context.Context, idem port.IdempotencyStore, key string, result CheckoutResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("json.Marshal checkout response: %w", err)
	}

	if err := idem.Save(ctx, key, payload); err != nil {
		return fmt.Errorf("idem.Save: %w", err)
	}

	return nil
}

// replayStored returns the response committed by the submission that
// won the key. The winner has committed before our claim could fail,
// so the first read normally hits; the retries cover replicas and
// snapshot lag.
func (s *CheckoutService) replayStored(ctx context.Context, key, ownerID string) (CheckoutResult, error) {
	var result CheckoutResult

	for attempt := 0; attempt < 5; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(50 * time.Millisecond):
			}
		}

		stored, found, err := s.idem.Get(ctx, key)
		if err != nil {
			return result, fmt.Errorf("idem.Get: %w", err)
		}
		if !found {
			continue
		}

		if err := json.Unmarshal(stored, &result); err != nil {
			return result, fmt.Errorf("json.Unmarshal stored response: %w", err)
		}
		s.logger.Info("concurrent duplicate checkout, returning stored response",
			zap.String("owner_id", ownerID),
			zap.String("order_number", result.OrderNumber))
		return result, nil
	}

	return result, errors.New("concurrent checkout in flight, stored response not visible")
}

// mergeLines folds lines naming the same product into one, summing
// quantities, so a duplicated line cannot pass per-line stock checks
// that its total would fail.
func mergeLines(lines []domain.CartLine) []domain.CartLine {
	merged := make([]domain.CartLine, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))

	for _, line := range lines {
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}

	return merged
}

func validateInput(input CheckoutInput) error {
	if len(input.Lines) == 0 {
		return &domain.CheckoutError{Reason: domain.ReasonEmptyCart}
	}

	for _, line := range input.Lines {
		if line.ProductID == uuid.Nil || line.Quantity <= 0 {
			return &domain.CheckoutError{
				Reason: domain.ReasonUnavailableProducts,
				Detail: fmt.Sprintf("invalid line for product %s", line.ProductID),
			}
		}
	}

	if err := input.Address.Validate(); err != nil {
		return &domain.CheckoutError{Reason: domain.ReasonInvalidAddress, Detail: err.Error()}
	}

	if _, ok := supportedPaymentMethods[input.PaymentMethod]; !ok {
		return &domain.CheckoutError{
			Reason: domain.ReasonUnsupportedPayment,
			Detail: input.PaymentMethod,
		}
	}

	return nil
}

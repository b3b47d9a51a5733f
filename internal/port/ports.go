package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/verist/shopcore/internal/domain"
)

type ProductRepository interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error)
	InsertProduct(ctx context.Context, product domain.Product) (uuid.UUID, error)

	// LockProducts acquires exclusive row locks for the duration of the
	// surrounding transaction. Implementations lock in ascending id
	// order so concurrent callers cannot deadlock. Missing ids are
	// simply absent from the result.
	LockProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.Product, error)

	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
	RestoreStock(ctx context.Context, productID uuid.UUID, quantity int) error
}

type OrderRepository interface {
	InsertOrder(ctx context.Context, order domain.Order) (uuid.UUID, error)

	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)

	// LockOrder and LockOrderByNumber load the order and its items
	// under an exclusive row lock on the order row.
	LockOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	LockOrderByNumber(ctx context.Context, number string) (domain.Order, error)

	SetPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error

	// UpdateOrderState persists status, payment mirror, flags, notes
	// and lifecycle timestamps.
	UpdateOrderState(ctx context.Context, order domain.Order) error

	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
}

type PaymentRepository interface {
	GetPayment(ctx context.Context, externalID string) (domain.Payment, error)

	// UpsertPayment inserts on first sight of the external id and
	// updates in place on repeat delivery.
	UpsertPayment(ctx context.Context, payment domain.Payment) error
}

type CartRepository interface {
	GetCart(ctx context.Context, ownerID string) (domain.Cart, error)
	AddItem(ctx context.Context, ownerID string, item domain.CartItem) error
	DeleteItem(ctx context.Context, ownerID string, productID uuid.UUID) (bool, error)
	ClearCart(ctx context.Context, ownerID string) error
}

type AddressRepository interface {
	InsertAddress(ctx context.Context, address domain.Address) (uuid.UUID, error)
}

// IdempotencyStore maps a deterministic request fingerprint to the
// response produced the first time. Save is write-once: a second write
// for the same key is a no-op.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Claim reserves key for the calling transaction. Exactly one of
	// any set of concurrent claimants gets true; a claimant racing an
	// in-flight transaction blocks until that transaction resolves. A
	// claim rolls back with the transaction that made it.
	Claim(ctx context.Context, key string) (bool, error)

	Save(ctx context.Context, key string, response []byte) error
}

// Repos bundles the repositories bound to one transaction.
type Repos struct {
	Products    ProductRepository
	Orders      OrderRepository
	Payments    PaymentRepository
	Carts       CartRepository
	Addresses   AddressRepository
	Idempotency IdempotencyStore
}

// UnitOfWork runs fn inside a single database transaction. Any error
// returned by fn discards every write, including stock decrements.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r Repos) error) error
}

type SessionRequest struct {
	OrderNumber string
	OwnerID     string
	Total       domain.Money
	Items       []domain.OrderItem
}

// PaymentGateway is the external processor: create a payment session
// for a new order, fetch authoritative payment details by id.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (domain.PaymentSession, error)
	GetPayment(ctx context.Context, externalID string) (domain.Payment, error)
}

// EventPublisher informs the outbound-notification component; delivery
// is best-effort and never fails the business operation.
type EventPublisher interface {
	OrderCreated(ctx context.Context, order domain.Order) error
	OrderCancelled(ctx context.Context, order domain.Order) error
}

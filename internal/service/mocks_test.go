package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/port"
	"github.com/verist/shopcore/internal/repository"
)

// memStore is the in-memory backing for all repository fakes. The fake
// unit of work snapshots it before running fn and restores the snapshot
// on error, mirroring the all-or-nothing transaction semantics the real
// postgres implementation provides.
type memStore struct {
	products  map[uuid.UUID]domain.Product
	orders    map[uuid.UUID]domain.Order
	byNumber  map[string]uuid.UUID
	payments  map[string]domain.Payment
	carts     map[string][]domain.CartItem
	addresses map[uuid.UUID]domain.Address
	// idem holds claimed keys; a nil value is a claim without a
	// response yet, mirroring the NULL placeholder row.
	idem map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{
		products:  map[uuid.UUID]domain.Product{},
		orders:    map[uuid.UUID]domain.Order{},
		byNumber:  map[string]uuid.UUID{},
		payments:  map[string]domain.Payment{},
		carts:     map[string][]domain.CartItem{},
		addresses: map[uuid.UUID]domain.Address{},
		idem:      map[string][]byte{},
	}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		v.Items = append([]domain.OrderItem(nil), v.Items...)
		c.orders[k] = v
	}
	for k, v := range s.byNumber {
		c.byNumber[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = append([]domain.CartItem(nil), v...)
	}
	for k, v := range s.addresses {
		c.addresses[k] = v
	}
	for k, v := range s.idem {
		c.idem[k] = v
	}
	return c
}

type fakeUow struct {
	store *memStore
	// doErr, when set, fails Do before fn runs
	doErr error
}

func (u *fakeUow) Do(_ context.Context, fn func(r port.Repos) error) error {
	if u.doErr != nil {
		return u.doErr
	}

	snapshot := u.store.clone()
	err := fn(port.Repos{
		Products:    &fakeProducts{store: u.store},
		Orders:      &fakeOrders{store: u.store},
		Payments:    &fakePayments{store: u.store},
		Carts:       &fakeCarts{store: u.store},
		Addresses:   &fakeAddresses{store: u.store},
		Idempotency: &fakeIdem{store: u.store},
	})
	if err != nil {
		*u.store = *snapshot
		return err
	}
	return nil
}

type fakeProducts struct{ store *memStore }

func (f *fakeProducts) GetProduct(_ context.Context, productID uuid.UUID) (domain.Product, error) {
	p, ok := f.store.products[productID]
	if !ok {
		return domain.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) InsertProduct(_ context.Context, product domain.Product) (uuid.UUID, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	f.store.products[product.ID] = product
	return product.ID, nil
}

func (f *fakeProducts) LockProducts(_ context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	locked := make(map[uuid.UUID]domain.Product)
	for _, id := range productIDs {
		if p, ok := f.store.products[id]; ok {
			locked[id] = p
		}
	}
	return locked, nil
}

func (f *fakeProducts) DecrementStock(_ context.Context, productID uuid.UUID, quantity int) error {
	p, ok := f.store.products[productID]
	if !ok || p.Stock < quantity {
		return repository.ErrInsufficientStock
	}
	p.Stock -= quantity
	f.store.products[productID] = p
	return nil
}

func (f *fakeProducts) RestoreStock(_ context.Context, productID uuid.UUID, quantity int) error {
	p, ok := f.store.products[productID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock += quantity
	f.store.products[productID] = p
	return nil
}

type fakeOrders struct{ store *memStore }

func (f *fakeOrders) InsertOrder(_ context.Context, order domain.Order) (uuid.UUID, error) {
	if len(order.Items) == 0 {
		return uuid.Nil, errors.New("no items in order")
	}
	if _, exists := f.store.byNumber[order.Number]; exists {
		return uuid.Nil, fmt.Errorf("duplicate order number %s", order.Number)
	}

	order.ID = uuid.New()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	f.store.orders[order.ID] = order
	f.store.byNumber[order.Number] = order.ID
	return order.ID, nil
}

func (f *fakeOrders) GetOrder(_ context.Context, orderID uuid.UUID) (domain.Order, error) {
	o, ok := f.store.orders[orderID]
	if !ok {
		return domain.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) LockOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return f.GetOrder(ctx, orderID)
}

func (f *fakeOrders) LockOrderByNumber(ctx context.Context, number string) (domain.Order, error) {
	orderID, ok := f.store.byNumber[number]
	if !ok {
		return domain.Order{}, repository.ErrNotFound
	}
	return f.GetOrder(ctx, orderID)
}

func (f *fakeOrders) SetPaymentSession(_ context.Context, orderID uuid.UUID, sessionID string) error {
	o, ok := f.store.orders[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	o.PaymentSessionID = sessionID
	f.store.orders[orderID] = o
	return nil
}

func (f *fakeOrders) UpdateOrderState(_ context.Context, order domain.Order) error {
	stored, ok := f.store.orders[order.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Status = order.Status
	stored.PaymentStatus = order.PaymentStatus
	stored.ReviewRequired = order.ReviewRequired
	stored.StockRestored = order.StockRestored
	stored.Notes = order.Notes
	stored.PaidAt = order.PaidAt
	stored.ShippedAt = order.ShippedAt
	stored.DeliveredAt = order.DeliveredAt
	stored.CancelledAt = order.CancelledAt
	f.store.orders[order.ID] = stored
	return nil
}

func (f *fakeOrders) DeleteOrder(_ context.Context, orderID uuid.UUID) error {
	o, ok := f.store.orders[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	delete(f.store.orders, orderID)
	delete(f.store.byNumber, o.Number)
	return nil
}

type fakePayments struct{ store *memStore }

func (f *fakePayments) GetPayment(_ context.Context, externalID string) (domain.Payment, error) {
	p, ok := f.store.payments[externalID]
	if !ok {
		return domain.Payment{}, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakePayments) UpsertPayment(_ context.Context, payment domain.Payment) error {
	f.store.payments[payment.ExternalID] = payment
	return nil
}

type fakeCarts struct{ store *memStore }

func (f *fakeCarts) GetCart(_ context.Context, ownerID string) (domain.Cart, error) {
	return domain.Cart{OwnerID: ownerID, Items: f.store.carts[ownerID]}, nil
}

func (f *fakeCarts) AddItem(_ context.Context, ownerID string, item domain.CartItem) error {
	for i, existing := range f.store.carts[ownerID] {
		if existing.ProductID == item.ProductID {
			f.store.carts[ownerID][i].Quantity = item.Quantity
			return nil
		}
	}
	f.store.carts[ownerID] = append(f.store.carts[ownerID], item)
	return nil
}

func (f *fakeCarts) DeleteItem(_ context.Context, ownerID string, productID uuid.UUID) (bool, error) {
	items := f.store.carts[ownerID]
	for i, item := range items {
		if item.ProductID == productID {
			f.store.carts[ownerID] = append(items[:i], items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCarts) ClearCart(_ context.Context, ownerID string) error {
	delete(f.store.carts, ownerID)
	return nil
}

type fakeAddresses struct{ store *memStore }

func (f *fakeAddresses) InsertAddress(_ context.Context, address domain.Address) (uuid.UUID, error) {
	if err := address.Validate(); err != nil {
		return uuid.Nil, err
	}
	address.ID = uuid.New()
	f.store.addresses[address.ID] = address
	return address.ID, nil
}

type fakeIdem struct {
	store   *memStore
	getErr  error
	saveErr error
	// missNextGet makes the next Get report a miss, modeling a read
	// that ran before a concurrent writer committed.
	missNextGet bool
}

func newFakeIdem(store *memStore) *fakeIdem {
	return &fakeIdem{store: store}
}

func (f *fakeIdem) Get(_ context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	if f.missNextGet {
		f.missNextGet = false
		return nil, false, nil
	}
	payload, ok := f.store.idem[key]
	if !ok || payload == nil {
		return nil, false, nil
	}
	return payload, true, nil
}

func (f *fakeIdem) Claim(_ context.Context, key string) (bool, error) {
	if _, exists := f.store.idem[key]; exists {
		return false, nil
	}
	f.store.idem[key] = nil
	return true, nil
}

func (f *fakeIdem) Save(_ context.Context, key string, response []byte) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if existing, ok := f.store.idem[key]; ok && existing != nil {
		return nil
	}
	f.store.idem[key] = response
	return nil
}

type fakeGateway struct {
	session     domain.PaymentSession
	createErr   error
	createCalls int

	payments map[string]domain.Payment
	getErr   error
}

func (f *fakeGateway) CreateSession(_ context.Context, _ port.SessionRequest) (domain.PaymentSession, error) {
	f.createCalls++
	if f.createErr != nil {
		return domain.PaymentSession{}, f.createErr
	}
	return f.session, nil
}

func (f *fakeGateway) GetPayment(_ context.Context, externalID string) (domain.Payment, error) {
	if f.getErr != nil {
		return domain.Payment{}, f.getErr
	}
	p, ok := f.payments[externalID]
	if !ok {
		return domain.Payment{}, errors.New("gateway: payment not found")
	}
	return p, nil
}

type fakeEvents struct {
	created   []string
	cancelled []string
}

func (f *fakeEvents) OrderCreated(_ context.Context, order domain.Order) error {
	f.created = append(f.created, order.Number)
	return nil
}

func (f *fakeEvents) OrderCancelled(_ context.Context, order domain.Order) error {
	f.cancelled = append(f.cancelled, order.Number)
	return nil
}

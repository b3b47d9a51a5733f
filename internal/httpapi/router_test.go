package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/gateway"
	"github.com/verist/shopcore/internal/service"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubCheckout struct {
	result service.CheckoutResult
	err    error

	gotInput service.CheckoutInput
}

func (s *stubCheckout) Checkout(_ context.Context, input service.CheckoutInput) (service.CheckoutResult, error) {
	s.gotInput = input
	return s.result, s.err
}

type stubWebhook struct {
	ack service.Ack
	err error

	gotBody []byte
	gotSig  gateway.Signature
}

func (s *stubWebhook) Handle(_ context.Context, body []byte, sig gateway.Signature) (service.Ack, error) {
	s.gotBody = body
	s.gotSig = sig
	return s.ack, s.err
}

type stubCart struct {
	cart domain.Cart
	err  error

	gotOwnerID   string
	gotLine      domain.CartLine
	gotProductID uuid.UUID
	removeFound  bool
	cleared      bool
}

func (s *stubCart) Get(_ context.Context, ownerID string) (domain.Cart, error) {
	s.gotOwnerID = ownerID
	return s.cart, s.err
}

func (s *stubCart) Add(_ context.Context, ownerID string, line domain.CartLine) error {
	s.gotOwnerID = ownerID
	s.gotLine = line
	return s.err
}

func (s *stubCart) Remove(_ context.Context, ownerID string, productID uuid.UUID) (bool, error) {
	s.gotOwnerID = ownerID
	s.gotProductID = productID
	return s.removeFound, s.err
}

func (s *stubCart) Clear(_ context.Context, ownerID string) error {
	s.gotOwnerID = ownerID
	s.cleared = true
	return s.err
}

type stubAdmin struct {
	order domain.Order
	err   error

	gotOrderID uuid.UUID
	gotTarget  domain.OrderStatus
}

func (s *stubAdmin) GetOrder(_ context.Context, orderID uuid.UUID) (domain.Order, error) {
	s.gotOrderID = orderID
	return s.order, s.err
}

func (s *stubAdmin) Transition(_ context.Context, orderID uuid.UUID, target domain.OrderStatus) (domain.Order, error) {
	s.gotOrderID = orderID
	s.gotTarget = target
	return s.order, s.err
}

func (s *stubAdmin) DeleteOrder(_ context.Context, orderID uuid.UUID) error {
	s.gotOrderID = orderID
	return s.err
}

type testRouter struct {
	router   *gin.Engine
	checkout *stubCheckout
	cart     *stubCart
	webhook  *stubWebhook
	admin    *stubAdmin
}

func newTestRouter() testRouter {
	checkout := &stubCheckout{}
	cart := &stubCart{}
	webhook := &stubWebhook{}
	admin := &stubAdmin{}

	return testRouter{
		router:   NewRouter(checkout, cart, webhook, admin, zap.NewNop()),
		checkout: checkout,
		cart:     cart,
		webhook:  webhook,
		admin:    admin,
	}
}

func (tr testRouter) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	tr.router.ServeHTTP(rec, req)
	return rec
}

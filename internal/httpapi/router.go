// Package httpapi exposes the buyer cart, the checkout intake, the
// payment webhook endpoint and the administrative order actions over
// HTTP. Buyer
// identity arrives as an explicit header set by the upstream auth
// proxy; nothing here reads ambient session state.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/gateway"
	"github.com/verist/shopcore/internal/middleware"
	"github.com/verist/shopcore/internal/service"
	"go.uber.org/zap"
)

type CheckoutService interface {
	Checkout(ctx context.Context, input service.CheckoutInput) (service.CheckoutResult, error)
}

type WebhookService interface {
	Handle(ctx context.Context, body []byte, sig gateway.Signature) (service.Ack, error)
}

type CartService interface {
	Get(ctx context.Context, ownerID string) (domain.Cart, error)
	Add(ctx context.Context, ownerID string, line domain.CartLine) error
	Remove(ctx context.Context, ownerID string, productID uuid.UUID) (bool, error)
	Clear(ctx context.Context, ownerID string) error
}

type AdminService interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	Transition(ctx context.Context, orderID uuid.UUID, target domain.OrderStatus) (domain.Order, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
}

func NewRouter(checkout CheckoutService, cart CartService, webhook WebhookService, admin AdminService, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", middleware.PrometheusHandler())

	ch := &checkoutHandler{svc: checkout, logger: logger}
	router.POST("/api/checkout", ch.Checkout)

	crt := &cartHandler{svc: cart, logger: logger}
	router.GET("/api/cart", crt.GetCart)
	router.POST("/api/cart/items", crt.AddItem)
	router.DELETE("/api/cart/items/:productID", crt.RemoveItem)
	router.DELETE("/api/cart", crt.ClearCart)

	wh := &webhookHandler{svc: webhook, logger: logger}
	router.POST("/webhooks/payments", wh.Receive)

	ah := &adminHandler{svc: admin, logger: logger}
	adminGroup := router.Group("/api/admin")
	{
		adminGroup.GET("/orders/:id", ah.GetOrder)
		adminGroup.PATCH("/orders/:id/status", ah.Transition)
		adminGroup.DELETE("/orders/:id", ah.DeleteOrder)
	}

	return router
}

package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/middleware"
	"github.com/verist/shopcore/internal/service"
	"go.uber.org/zap"
)

type checkoutHandler struct {
	svc    CheckoutService
	logger *zap.Logger
}

type checkoutLineRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type checkoutAddressRequest struct {
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

type checkoutRequest struct {
	Items         []checkoutLineRequest  `json:"items" binding:"required,dive"`
	Address       checkoutAddressRequest `json:"address" binding:"required"`
	PaymentMethod string                 `json:"payment_method" binding:"required"`
}

func (h *checkoutHandler) Checkout(c *gin.Context) {
	ownerID, ok := buyerID(c)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lines := make([]domain.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id: " + item.ProductID})
			return
		}
		lines = append(lines, domain.CartLine{ProductID: productID, Quantity: item.Quantity})
	}

	result, err := h.svc.Checkout(c.Request.Context(), service.CheckoutInput{
		OwnerID: ownerID,
		Lines:   lines,
		Address: domain.Address{
			OwnerID:    ownerID,
			Line1:      req.Address.Line1,
			Line2:      req.Address.Line2,
			City:       req.Address.City,
			Region:     req.Address.Region,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	middleware.RecordCheckout("success")
	c.JSON(http.StatusOK, result)
}

func (h *checkoutHandler) renderError(c *gin.Context, err error) {
	var checkoutErr *domain.CheckoutError
	if !errors.As(err, &checkoutErr) {
		h.logger.Error("checkout failed", zap.Error(err))
		middleware.RecordCheckout("error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	middleware.RecordCheckout(string(checkoutErr.Reason))

	body := gin.H{"reason": checkoutErr.Reason}
	if checkoutErr.Detail != "" {
		body["detail"] = checkoutErr.Detail
	}
	if len(checkoutErr.Unavailable) > 0 {
		body["unavailable_products"] = checkoutErr.Unavailable
	}
	if len(checkoutErr.Shortages) > 0 {
		body["insufficient_stock"] = checkoutErr.Shortages
	}

	status := http.StatusUnprocessableEntity
	switch checkoutErr.Reason {
	case domain.ReasonEmptyCart, domain.ReasonInvalidAddress, domain.ReasonUnsupportedPayment:
		status = http.StatusBadRequest
	case domain.ReasonPaymentSessionFailed:
		status = http.StatusBadGateway
	}

	c.JSON(status, body)
}

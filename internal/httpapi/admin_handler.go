package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/service"
	"go.uber.org/zap"
)

type adminHandler struct {
	svc    AdminService
	logger *zap.Logger
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

type orderSummary struct {
	OrderID       string `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	OwnerID       string `json:"owner_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status,omitempty"`
	Total         string `json:"total"`
	Currency      string `json:"currency"`
	Review        bool   `json:"review_required"`
	Notes         string `json:"notes,omitempty"`
}

func summarize(order domain.Order) orderSummary {
	return orderSummary{
		OrderID:       order.ID.String(),
		OrderNumber:   order.Number,
		OwnerID:       order.OwnerID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		Total:         order.Total.StringFixed(2),
		Currency:      order.Currency.String(),
		Review:        order.ReviewRequired,
		Notes:         order.Notes,
	}
}

func (h *adminHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.svc.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, summarize(order))
}

func (h *adminHandler) Transition(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, err := domain.ToOrderStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + req.Status})
		return
	}

	order, err := h.svc.Transition(c.Request.Context(), orderID, target)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, summarize(order))
}

func (h *adminHandler) DeleteOrder(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteOrder(c.Request.Context(), orderID); err != nil {
		h.renderError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *adminHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"reason": "order_not_found"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"reason": "invalid_state_transition"})
	case errors.Is(err, service.ErrDeletionNotPermitted):
		c.JSON(http.StatusConflict, gin.H{"reason": "deletion_not_permitted"})
	default:
		h.logger.Error("admin action failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseOrderID(c *gin.Context) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return uuid.Nil, false
	}
	return orderID, true
}

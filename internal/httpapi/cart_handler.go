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

type cartHandler struct {
	svc    CartService
	logger *zap.Logger
}

type cartItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type cartItemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type cartResponse struct {
	OwnerID string             `json:"owner_id"`
	Items   []cartItemResponse `json:"items"`
}

func (h *cartHandler) GetCart(c *gin.Context) {
	ownerID, ok := buyerID(c)
	if !ok {
		return
	}

	cart, err := h.svc.Get(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("cart fetch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	resp := cartResponse{OwnerID: cart.OwnerID, Items: []cartItemResponse{}}
	for _, item := range cart.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (h *cartHandler) AddItem(c *gin.Context) {
	ownerID, ok := buyerID(c)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id: " + req.ProductID})
		return
	}

	err = h.svc.Add(c.Request.Context(), ownerID, domain.CartLine{
		ProductID: productID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		if errors.Is(err, service.ErrProductUnavailable) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"reason": "product_unavailable"})
			return
		}
		h.logger.Error("cart add failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *cartHandler) RemoveItem(c *gin.Context) {
	ownerID, ok := buyerID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("productID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	found, err := h.svc.Remove(c.Request.Context(), ownerID, productID)
	if err != nil {
		h.logger.Error("cart remove failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"reason": "item_not_in_cart"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *cartHandler) ClearCart(c *gin.Context) {
	ownerID, ok := buyerID(c)
	if !ok {
		return
	}

	if err := h.svc.Clear(c.Request.Context(), ownerID); err != nil {
		h.logger.Error("cart clear failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// buyerID reads the identity header set by the upstream auth proxy.
func buyerID(c *gin.Context) (string, bool) {
	ownerID := c.GetHeader("X-User-ID")
	if ownerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing buyer identity"})
		return "", false
	}
	return ownerID, true
}

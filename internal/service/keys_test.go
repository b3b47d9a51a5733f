package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/verist/shopcore/internal/domain"
)

func TestCheckoutKey(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()

	base := CheckoutKey("buyer-1", []domain.CartLine{
		{ProductID: p1, Quantity: 2},
		{ProductID: p2, Quantity: 1},
	})

	t.Run("line order does not matter", func(t *testing.T) {
		reordered := CheckoutKey("buyer-1", []domain.CartLine{
			{ProductID: p2, Quantity: 1},
			{ProductID: p1, Quantity: 2},
		})
		assert.Equal(t, base, reordered)
	})

	t.Run("different buyer", func(t *testing.T) {
		assert.NotEqual(t, base, CheckoutKey("buyer-2", []domain.CartLine{
			{ProductID: p1, Quantity: 2},
			{ProductID: p2, Quantity: 1},
		}))
	})

	t.Run("different quantity", func(t *testing.T) {
		assert.NotEqual(t, base, CheckoutKey("buyer-1", []domain.CartLine{
			{ProductID: p1, Quantity: 3},
			{ProductID: p2, Quantity: 1},
		}))
	})

	t.Run("subset of the cart", func(t *testing.T) {
		assert.NotEqual(t, base, CheckoutKey("buyer-1", []domain.CartLine{
			{ProductID: p1, Quantity: 2},
		}))
	})
}

func TestWebhookKey(t *testing.T) {
	assert.Equal(t, WebhookKey("pay-1", "payment.updated"), WebhookKey("pay-1", "payment.updated"))
	assert.NotEqual(t, WebhookKey("pay-1", "payment.updated"), WebhookKey("pay-2", "payment.updated"))
	assert.NotEqual(t, WebhookKey("pay-1", "payment.created"), WebhookKey("pay-1", "payment.updated"))
}

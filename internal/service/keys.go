package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/verist/shopcore/internal/domain"
)

// CheckoutKey fingerprints a checkout submission: same buyer plus the
// same cart contents always collide, regardless of line order.
func CheckoutKey(ownerID string, lines []domain.CartLine) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("%s:%d", line.ProductID, line.Quantity))
	}
	sort.Strings(parts)

	h := sha256.New()
	fmt.Fprintf(h, "checkout;owner:%s;%s", ownerID, strings.Join(parts, ";"))

	return hex.EncodeToString(h.Sum(nil))
}

// WebhookKey fingerprints one gateway notification: external payment id
// plus the event action.
func WebhookKey(paymentID, action string) string {
	h := sha256.New()
	fmt.Fprintf(h, "webhook;payment:%s;action:%s", paymentID, action)

	return hex.EncodeToString(h.Sum(nil))
}

package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Signature holds the provider's webhook signature header fields: the
// x-signature value split into ts/v1 plus the x-request-id header.
type Signature struct {
	TS        string
	V1        string
	RequestID string
}

var ErrBadSignature = errors.New("webhook signature mismatch")

// ParseSignatureHeader splits an `x-signature: ts=...,v1=...` header.
func ParseSignatureHeader(header, requestID string) (Signature, error) {
	sig := Signature{RequestID: requestID}

	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "ts":
			sig.TS = v
		case "v1":
			sig.V1 = v
		}
	}

	if sig.TS == "" || sig.V1 == "" {
		return sig, fmt.Errorf("x-signature header missing ts or v1: %w", ErrBadSignature)
	}
	if sig.RequestID == "" {
		return sig, fmt.Errorf("x-request-id header missing: %w", ErrBadSignature)
	}

	return sig, nil
}

// VerifySignature checks the HMAC-SHA256 of the raw body against the
// v1 digest, using the shared secret and the ts/request-id fields. The
// body is authenticated before any parsing happens.
func VerifySignature(secret string, sig Signature, body []byte) error {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "ts:%s;request-id:%s;", sig.TS, sig.RequestID)
	mac.Write(body)

	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(sig.V1))) {
		return ErrBadSignature
	}

	return nil
}

// SignBody computes the v1 digest a caller would send; used by tests
// and by the local webhook simulator.
func SignBody(secret string, sig Signature, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "ts:%s;request-id:%s;", sig.TS, sig.RequestID)
	mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}

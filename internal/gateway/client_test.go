package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/port"
	"golang.org/x/text/currency"
)

func TestClientCreateSession(t *testing.T) {
	var gotReq createSessionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"sess-1","checkout_url":"https://pay.example/sess-1"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token-1", time.Second)

	session, err := client.CreateSession(t.Context(), port.SessionRequest{
		OrderNumber: "ORD-20260830-abcdef01",
		OwnerID:     "buyer-1",
		Total:       domain.Money{Amount: decimal.RequireFromString("24.90"), Currency: currency.EUR},
		Items: []domain.OrderItem{{
			Name:      "mug",
			Quantity:  2,
			UnitPrice: domain.Money{Amount: decimal.RequireFromString("10.00"), Currency: currency.EUR},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentSession{ID: "sess-1", URL: "https://pay.example/sess-1"}, session)

	assert.Equal(t, "ORD-20260830-abcdef01", gotReq.ExternalReference)
	assert.Equal(t, "buyer-1", gotReq.PayerReference)
	assert.Equal(t, "24.90", gotReq.Amount)
	assert.Equal(t, "EUR", gotReq.Currency)
	require.Len(t, gotReq.Items, 1)
	assert.Equal(t, sessionItem{Title: "mug", Quantity: 2, UnitPrice: "10.00"}, gotReq.Items[0])
}

func TestClientCreateSessionErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"gateway error", http.StatusBadGateway, `{"error":"upstream"}`},
		{"empty session id", http.StatusCreated, `{"id":"","checkout_url":""}`},
		{"not json", http.StatusOK, `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "token-1", time.Second)

			_, err := client.CreateSession(t.Context(), port.SessionRequest{OrderNumber: "ORD-1"})
			require.Error(t, err)
		})
	}
}

func TestClientGetPayment(t *testing.T) {
	const body = `{
		"id": "pay-1",
		"status": "approved",
		"status_detail": "accredited",
		"external_reference": "ORD-20260830-abcdef01",
		"transaction_amount": "24.90",
		"net_amount": "23.80",
		"fee_amount": "1.10",
		"currency": "EUR",
		"payer": {"id": "payer-9", "email": "buyer@example.com"},
		"date_approved": "2026-08-30T14:05:00Z"
	}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/payments/pay-1", r.URL.Path)
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token-1", time.Second)

	payment, err := client.GetPayment(t.Context(), "pay-1")
	require.NoError(t, err)

	assert.Equal(t, "pay-1", payment.ExternalID)
	assert.Equal(t, "ORD-20260830-abcdef01", payment.OrderNumber)
	assert.Equal(t, domain.PaymentStatusApproved, payment.Status)
	assert.Equal(t, "accredited", payment.StatusDetail)
	assert.True(t, payment.Amount.Equal(decimal.RequireFromString("24.90")))
	assert.True(t, payment.NetAmount.Equal(decimal.RequireFromString("23.80")))
	assert.True(t, payment.FeeAmount.Equal(decimal.RequireFromString("1.10")))
	assert.Equal(t, currency.EUR, payment.Currency)
	assert.Equal(t, "payer-9", payment.PayerID)
	assert.Equal(t, "buyer@example.com", payment.PayerEmail)
	require.NotNil(t, payment.ApprovedAt)
	assert.Equal(t, time.Date(2026, 8, 30, 14, 5, 0, 0, time.UTC), payment.ApprovedAt.UTC())
	assert.JSONEq(t, body, string(payment.Raw), "raw body kept for the audit trail")
}

func TestClientGetPaymentErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, `{"error":"payment not found"}`},
		{"unknown status", http.StatusOK, `{"id":"pay-1","status":"charged_back","transaction_amount":"1.00","currency":"EUR"}`},
		{"bad amount", http.StatusOK, `{"id":"pay-1","status":"approved","transaction_amount":"twenty","currency":"EUR"}`},
		{"bad currency", http.StatusOK, `{"id":"pay-1","status":"approved","transaction_amount":"1.00","currency":"EURO"}`},
		{"bad date", http.StatusOK, `{"id":"pay-1","status":"approved","transaction_amount":"1.00","currency":"EUR","date_approved":"yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "token-1", time.Second)

			_, err := client.GetPayment(t.Context(), "pay-1")
			require.Error(t, err)
		})
	}
}

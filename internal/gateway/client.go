// Package gateway talks to the external payment processor: it creates
// payment sessions for new orders and fetches authoritative payment
// details by id. Webhook notification bodies are never trusted as a
// source of amounts; GetPayment is.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/verist/shopcore/internal/domain"
	"github.com/verist/shopcore/internal/port"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sessionItem struct {
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type createSessionRequest struct {
	ExternalReference string        `json:"external_reference"`
	PayerReference    string        `json:"payer_reference"`
	Amount            string        `json:"amount"`
	Currency          string        `json:"currency"`
	Items             []sessionItem `json:"items"`
}

type createSessionResponse struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

func (c *Client) CreateSession(ctx context.Context, req port.SessionRequest) (domain.PaymentSession, error) {
	var s domain.PaymentSession

	body := createSessionRequest{
		ExternalReference: req.OrderNumber,
		PayerReference:    req.OwnerID,
		Amount:            req.Total.Amount.StringFixed(2),
		Currency:          req.Total.Currency.String(),
	}
	for _, item := range req.Items {
		body.Items = append(body.Items, sessionItem{
			Title:     item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.Amount.StringFixed(2),
		})
	}

	var resp createSessionResponse
	if err := c.post(ctx, "/v1/checkout/sessions", body, &resp); err != nil {
		return s, fmt.Errorf("post session: %w", err)
	}

	if resp.ID == "" {
		return s, fmt.Errorf("gateway returned empty session id")
	}

	return domain.PaymentSession{ID: resp.ID, URL: resp.CheckoutURL}, nil
}

type paymentResponse struct {
	ID                string  `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount string  `json:"transaction_amount"`
	NetAmount         string  `json:"net_amount"`
	FeeAmount         string  `json:"fee_amount"`
	Currency          string  `json:"currency"`
	Payer             payerID `json:"payer"`
	DateApproved      *string `json:"date_approved"`
}

type payerID struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *Client) GetPayment(ctx context.Context, externalID string) (domain.Payment, error) {
	var p domain.Payment

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/payments/"+externalID, nil)
	if err != nil {
		return p, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return p, fmt.Errorf("httpClient.Do: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return p, fmt.Errorf("io.ReadAll: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return p, fmt.Errorf("gateway status %d: %s", httpResp.StatusCode, raw)
	}

	var resp paymentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return p, fmt.Errorf("json.Unmarshal: %w", err)
	}

	return mapPaymentResponse(resp, raw)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("httpClient.Do: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("io.ReadAll: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusCreated {
		return fmt.Errorf("gateway status %d: %s", httpResp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	return nil
}

func mapPaymentResponse(resp paymentResponse, raw []byte) (domain.Payment, error) {
	var p domain.Payment

	status, err := domain.ToPaymentStatus(resp.Status)
	if err != nil {
		return p, fmt.Errorf("domain.ToPaymentStatus[%s]: %w", resp.Status, err)
	}

	amount, err := decimal.NewFromString(resp.TransactionAmount)
	if err != nil {
		return p, fmt.Errorf("amount[%s]: %w", resp.TransactionAmount, err)
	}

	money, err := domain.NewMoney(amount, resp.Currency)
	if err != nil {
		return p, fmt.Errorf("domain.NewMoney: %w", err)
	}

	net := decimal.Zero
	if resp.NetAmount != "" {
		if net, err = decimal.NewFromString(resp.NetAmount); err != nil {
			return p, fmt.Errorf("net amount[%s]: %w", resp.NetAmount, err)
		}
	}

	fee := decimal.Zero
	if resp.FeeAmount != "" {
		if fee, err = decimal.NewFromString(resp.FeeAmount); err != nil {
			return p, fmt.Errorf("fee amount[%s]: %w", resp.FeeAmount, err)
		}
	}

	var approvedAt *time.Time
	if resp.DateApproved != nil {
		t, err := time.Parse(time.RFC3339, *resp.DateApproved)
		if err != nil {
			return p, fmt.Errorf("date approved[%s]: %w", *resp.DateApproved, err)
		}
		approvedAt = &t
	}

	return domain.Payment{
		ExternalID:   resp.ID,
		OrderNumber:  resp.ExternalReference,
		Status:       status,
		StatusDetail: resp.StatusDetail,
		Amount:       money.Amount,
		NetAmount:    net,
		FeeAmount:    fee,
		Currency:     money.Currency,
		PayerID:      resp.Payer.ID,
		PayerEmail:   resp.Payer.Email,
		ApprovedAt:   approvedAt,
		Raw:          raw,
	}, nil
}

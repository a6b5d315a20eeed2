// Package tools dispatches the agent's tool calls to the two external
// side-effecting actions: charging a card and emailing a payment link.
// A failed side effect is reported back as a negative result, never as a
// session-ending error.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ActionResult is the common response shape of both downstream actions.
type ActionResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Error       string `json:"error"`
	ClientEmail string `json:"client_email"` // payment-link action only
}

// ChargeRequest carries the card fields and payment amount for the charge
// action.
type ChargeRequest struct {
	CardNumber  string `json:"card_number"`
	ExpMonth    string `json:"exp_month"`
	ExpYear     string `json:"exp_year"`
	CVC         string `json:"cvc"`
	InvoiceID   string `json:"invoice_id,omitempty"`
	AmountCents int64  `json:"amount"`
	ClientName  string `json:"client_name,omitempty"`
}

// PaymentLinkRequest carries the delivery fields for the link action.
type PaymentLinkRequest struct {
	InvoiceID     string `json:"invoice_id,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	ClientName    string `json:"client_name,omitempty"`
	ClientEmail   string `json:"client_email"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	CallID        string `json:"call_id,omitempty"`
}

// ActionClient posts to one downstream action endpoint. Both collaborators
// share the same synchronous POST/JSON contract.
type ActionClient struct {
	endpoint   string
	serviceKey string
	httpClient *http.Client
}

func NewActionClient(endpoint, serviceKey string, httpClient *http.Client) *ActionClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ActionClient{
		endpoint:   strings.TrimSpace(endpoint),
		serviceKey: strings.TrimSpace(serviceKey),
		httpClient: httpClient,
	}
}

func (c *ActionClient) Configured() bool {
	return c != nil && c.endpoint != ""
}

// Post sends the request body and decodes the action's result. Transport
// failures, non-2xx statuses, and unparseable bodies all surface as errors
// for the dispatcher to translate; they never propagate further.
func (c *ActionClient) Post(ctx context.Context, payload any) (ActionResult, error) {
	if !c.Configured() {
		return ActionResult{}, fmt.Errorf("action endpoint is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return ActionResult{}, fmt.Errorf("marshal action request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return ActionResult{}, fmt.Errorf("create action request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.serviceKey != "" {
		req.Header.Set("apikey", c.serviceKey)
		req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ActionResult{}, fmt.Errorf("action request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return ActionResult{}, fmt.Errorf("action error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var result ActionResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&result); err != nil {
		return ActionResult{}, fmt.Errorf("decode action response: %w", err)
	}
	return result, nil
}

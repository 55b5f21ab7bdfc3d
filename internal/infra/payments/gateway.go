package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"staynest/internal/app/policies"
	"staynest/internal/domain/shared/money"
)

// Client talks to the hosted checkout collaborator. Orders are opened in
// the gateway's minor units; everything above this adapter stays in whole
// currency units.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(baseURL, keyID, keySecret string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateOrder opens a gateway order for the amount still due after the
// wallet deduction.
func (c *Client) CreateOrder(ctx context.Context, amount money.Money, receipt string) (policies.GatewayOrder, error) {
	payload, err := json.Marshal(createOrderRequest{
		Amount:   amount.ToMinorUnits(),
		Currency: amount.Currency,
		Receipt:  receipt,
	})
	if err != nil {
		return policies.GatewayOrder{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return policies.GatewayOrder{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return policies.GatewayOrder{}, fmt.Errorf("%w: %v", policies.ErrGatewayOrderFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return policies.GatewayOrder{}, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return policies.GatewayOrder{}, fmt.Errorf("%w: status %d", policies.ErrGatewayOrderFailed, resp.StatusCode)
	}

	var out createOrderResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return policies.GatewayOrder{}, err
	}
	if out.ID == "" {
		return policies.GatewayOrder{}, policies.ErrGatewayOrderFailed
	}
	return policies.GatewayOrder{
		OrderID:  out.ID,
		Amount:   money.FromMinorUnits(out.Amount, out.Currency),
		Currency: out.Currency,
	}, nil
}

// Verify checks the HMAC-SHA256 callback signature over "orderID|paymentID"
// with the key secret. Constant-time comparison.
func (c *Client) Verify(ctx context.Context, cb policies.Callback) error {
	if cb.OrderID == "" || cb.PaymentID == "" || cb.Signature == "" {
		return policies.ErrVerificationFailed
	}
	expected := Sign(cb.OrderID, cb.PaymentID, c.keySecret)
	if !hmac.Equal([]byte(expected), []byte(cb.Signature)) {
		return policies.ErrVerificationFailed
	}
	return nil
}

// Sign computes the callback signature. Exposed so tests and sandboxed
// gateway doubles can produce valid callbacks.
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

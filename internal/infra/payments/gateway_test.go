package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staynest/internal/app/policies"
	"staynest/internal/domain/shared/money"
)

func TestCreateOrder_submitsMinorUnits(t *testing.T) {
	var captured createOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key-1", user)
		assert.Equal(t, "secret-1", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(createOrderResponse{
			ID:       "order-1",
			Amount:   captured.Amount,
			Currency: captured.Currency,
			Status:   "created",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-1", "secret-1", WithHTTPClient(srv.Client()))
	order, err := c.CreateOrder(context.Background(), money.Units(4300), "b-1")
	require.NoError(t, err)

	assert.Equal(t, int64(430000), captured.Amount)
	assert.Equal(t, "b-1", captured.Receipt)
	assert.Equal(t, "order-1", order.OrderID)
	assert.Equal(t, int64(4300), order.Amount.Amount)
}

func TestCreateOrder_nonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-1", "secret-1", WithHTTPClient(srv.Client()))
	_, err := c.CreateOrder(context.Background(), money.Units(4300), "b-1")
	assert.ErrorIs(t, err, policies.ErrGatewayOrderFailed)
}

func TestCreateOrder_missingOrderID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(createOrderResponse{Status: "created"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-1", "secret-1", WithHTTPClient(srv.Client()))
	_, err := c.CreateOrder(context.Background(), money.Units(4300), "b-1")
	assert.ErrorIs(t, err, policies.ErrGatewayOrderFailed)
}

func TestVerify(t *testing.T) {
	c := NewClient("http://gateway.invalid", "key-1", "secret-1")

	valid := policies.Callback{
		OrderID:   "order-1",
		PaymentID: "pay-1",
		Signature: Sign("order-1", "pay-1", "secret-1"),
	}
	assert.NoError(t, c.Verify(context.Background(), valid))

	tampered := valid
	tampered.PaymentID = "pay-2"
	assert.ErrorIs(t, c.Verify(context.Background(), tampered), policies.ErrVerificationFailed)

	wrongKey := valid
	wrongKey.Signature = Sign("order-1", "pay-1", "other-secret")
	assert.ErrorIs(t, c.Verify(context.Background(), wrongKey), policies.ErrVerificationFailed)

	assert.ErrorIs(t, c.Verify(context.Background(), policies.Callback{}), policies.ErrVerificationFailed)
}

package policies

import (
	"context"
	"errors"

	"staynest/internal/domain/shared/money"
)

var (
	ErrGatewayOrderFailed = errors.New("payments: gateway order creation failed")
	ErrVerificationFailed = errors.New("payments: callback signature verification failed")
)

// GatewayOrder is the collaborator-side order the guest settles through
// the client checkout handoff.
type GatewayOrder struct {
	OrderID  string
	Amount   money.Money
	Currency string
}

// Callback is the asynchronous completion notification for an order.
type Callback struct {
	OrderID   string
	PaymentID string
	Signature string
}

// PaymentGateway is the external payment collaborator. Amounts cross this
// boundary in the gateway's smallest unit; the port implementations own
// the conversion.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount money.Money, receipt string) (GatewayOrder, error)
	Verify(ctx context.Context, cb Callback) error
}

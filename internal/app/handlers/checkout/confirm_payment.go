package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"staynest/internal/app/commands"
	"staynest/internal/app/handlers/support"
	"staynest/internal/app/middleware"
	"staynest/internal/app/outbox"
	"staynest/internal/app/policies"
	"staynest/internal/app/uow"
	domainbooking "staynest/internal/domain/booking"
	domainwallet "staynest/internal/domain/wallet"
)

const confirmPaymentKey = "checkout.confirm_payment"

// ErrStaleOrder marks a callback for an order past its timeout window.
var ErrStaleOrder = errors.New("checkout: gateway order past its timeout window")

// ConfirmPaymentCommand processes the asynchronous gateway callback. It
// is idempotent by order id: duplicate or late callbacks for a settled
// order change nothing.
type ConfirmPaymentCommand struct {
	OrderID   string
	PaymentID string
	Signature string
}

func (c ConfirmPaymentCommand) Key() string { return confirmPaymentKey }

func (c ConfirmPaymentCommand) IdempotencyKey() string {
	return fmt.Sprintf("gateway-callback:%s", c.OrderID)
}

func (c ConfirmPaymentCommand) ResultPrototype() any { return &ConfirmPaymentResult{} }

type ConfirmPaymentResult struct {
	BookingID    string `json:"booking_id"`
	Status       string `json:"status"`
	PointsEarned int    `json:"points_earned"`
}

type ConfirmPaymentHandler struct {
	UoWFactory   uow.UoWFactory
	Gateway      policies.PaymentGateway
	Locks        policies.UserLocks
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	OrderTimeout time.Duration
	Now          func() time.Time
	IDGen        func() string
}

func (h *ConfirmPaymentHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (*ConfirmPaymentResult, error) {
	unit, ctx, commit, cleanup, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, ErrUnitOfWorkRequired
	}
	if cleanup != nil {
		defer cleanup()
	}

	b, err := unit.Bookings().ByGatewayOrder(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	// Terminal states absorb duplicates silently.
	if b.Status == domainbooking.PaymentConfirmed || b.Status == domainbooking.PaymentFailed {
		return &ConfirmPaymentResult{BookingID: string(b.ID), Status: string(b.Status)}, nil
	}

	now := h.now()
	if h.OrderTimeout > 0 && now.Sub(b.CreatedAt) > h.OrderTimeout {
		if err := h.failBooking(ctx, b, "order timed out before callback", now); err != nil {
			return nil, err
		}
		return nil, ErrStaleOrder
	}

	if err := h.verify(ctx, cmd); err != nil {
		// Never silently confirm on a bad signature; the booking fails
		// and the caller sees the verification error.
		if failErr := h.failBooking(ctx, b, "callback verification failed", now); failErr != nil {
			return nil, failErr
		}
		return nil, err
	}

	if h.Locks != nil {
		release, err := h.Locks.Acquire(ctx, b.TravellerID, WalletLockTTL)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	points := 0
	var w *domainwallet.Wallet
	if b.WalletDeduction.IsPositive() || b.GatewayDue().IsPositive() {
		w, err = unit.Wallets().ByUser(ctx, b.TravellerID)
		if err != nil {
			if err != domainwallet.ErrWalletNotFound {
				return nil, err
			}
			w = domainwallet.NewWallet(b.TravellerID, now)
		}
	}
	if b.WalletDeduction.IsPositive() {
		reason := fmt.Sprintf("booking %s", b.ID)
		if err := w.Debit(h.id(), b.WalletDeduction, reason, now); err != nil {
			return nil, err
		}
	}

	changed, err := b.Confirm(now)
	if err != nil {
		return nil, err
	}

	// Reward points accrue on the gateway-settled portion only.
	if changed && w != nil {
		points = w.EarnPoints(h.id(), b.GatewayDue(), fmt.Sprintf("booking %s", b.ID), now)
	}

	if w != nil {
		if err := unit.Wallets().Save(ctx, w); err != nil {
			return nil, err
		}
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := h.drainEvents(ctx, b, w); err != nil {
		return nil, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &ConfirmPaymentResult{BookingID: string(b.ID), Status: string(b.Status), PointsEarned: points}, nil
}

func (h *ConfirmPaymentHandler) verify(ctx context.Context, cmd ConfirmPaymentCommand) error {
	if h.Gateway == nil {
		return policies.ErrVerificationFailed
	}
	return h.Gateway.Verify(ctx, policies.Callback{
		OrderID:   cmd.OrderID,
		PaymentID: cmd.PaymentID,
		Signature: cmd.Signature,
	})
}

// failBooking persists the failed state in its own committed unit. The
// surrounding command still returns an error and its transaction rolls
// back, but the pending booking must not stay pending.
func (h *ConfirmPaymentHandler) failBooking(ctx context.Context, b *domainbooking.Booking, reason string, now time.Time) error {
	return support.RunInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		if _, err := b.Fail(reason, now); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		return h.drainEvents(ctx, b, nil)
	})
}

func (h *ConfirmPaymentHandler) drainEvents(ctx context.Context, b *domainbooking.Booking, w *domainwallet.Wallet) error {
	pending := b.PendingEvents()
	b.ClearEvents()
	if w != nil {
		pending = append(pending, w.PendingEvents()...)
		w.ClearEvents()
	}
	return outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending)
}

func (h *ConfirmPaymentHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ConfirmPaymentHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *ConfirmPaymentHandler) id() string {
	if h.IDGen != nil {
		return h.IDGen()
	}
	return uuid.NewString()
}

var _ commands.Handler[ConfirmPaymentCommand, *ConfirmPaymentResult] = (*ConfirmPaymentHandler)(nil)
var _ middleware.IdempotentCommand = ConfirmPaymentCommand{}

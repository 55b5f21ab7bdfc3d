package cancellation

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
	domaincancel "staynest/internal/domain/cancellation"
	domainuser "staynest/internal/domain/user"
	domainwallet "staynest/internal/domain/wallet"
)

const cancelBookingKey = "booking.cancel"

var ErrUnitOfWorkRequired = errors.New("cancellation: unit of work required")

// CancelBookingCommand prices and applies a cancellation. The quota
// increment, refund credit, and booking state change commit as one unit;
// retries after a transient failure cannot double-burn the monthly quota
// because the idempotency key is derived from the booking id.
type CancelBookingCommand struct {
	BookingID   string
	RequesterID string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) IdempotencyKey() string {
	return fmt.Sprintf("cancel-booking:%s", c.BookingID)
}

func (c CancelBookingCommand) ResultPrototype() any { return &CancelBookingResult{} }

type CancelBookingResult struct {
	BookingID        string `json:"booking_id"`
	Fee              int64  `json:"fee"`
	RefundAmount     int64  `json:"refund_amount"`
	QuotaConsumed    bool   `json:"quota_consumed"`
	NewWalletBalance int64  `json:"new_wallet_balance"`
	Currency         string `json:"currency"`
}

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Engine     domaincancel.Engine
	Locks      policies.UserLocks
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	IDGen      func() string
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	if h.Locks != nil {
		release, err := h.Locks.Acquire(ctx, cmd.RequesterID, 15*time.Second)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	unit, ctx, commit, cleanup, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, ErrUnitOfWorkRequired
	}
	if cleanup != nil {
		defer cleanup()
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if b.TravellerID != cmd.RequesterID {
		return nil, domainbooking.ErrNotOwner
	}

	requester, err := unit.Users().ByID(ctx, domainuser.ID(cmd.RequesterID))
	if err != nil {
		return nil, err
	}

	now := h.now()
	outcome := h.Engine.Decide(requester, b.Quote.Gross, now, b.Range.CheckIn)

	changed, err := b.Cancel(outcome.Fee, outcome.Refund, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Already cancelled: surface the stored terms without new side effects.
		w, werr := unit.Wallets().ByUser(ctx, cmd.RequesterID)
		balance := int64(0)
		if werr == nil {
			balance = w.Balance.Amount
		}
		return &CancelBookingResult{
			BookingID:        string(b.ID),
			NewWalletBalance: balance,
			Currency:         b.Quote.Gross.Currency,
		}, nil
	}

	w, err := unit.Wallets().ByUser(ctx, cmd.RequesterID)
	if err != nil {
		if err != domainwallet.ErrWalletNotFound {
			return nil, err
		}
		w = domainwallet.NewWallet(cmd.RequesterID, now)
	}
	if outcome.Refund.IsPositive() {
		reason := fmt.Sprintf("refund for booking %s", b.ID)
		if err := w.Credit(h.id(), outcome.Refund, reason, now); err != nil {
			return nil, err
		}
	}

	if err := unit.Users().Save(ctx, requester); err != nil {
		return nil, err
	}
	if err := unit.Wallets().Save(ctx, w); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	pending = append(pending, w.PendingEvents()...)
	w.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &CancelBookingResult{
		BookingID:        string(b.ID),
		Fee:              outcome.Fee.Amount,
		RefundAmount:     outcome.Refund.Amount,
		QuotaConsumed:    outcome.QuotaConsumed,
		NewWalletBalance: w.Balance.Amount,
		Currency:         b.Quote.Gross.Currency,
	}, nil
}

func (h *CancelBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CancelBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *CancelBookingHandler) id() string {
	if h.IDGen != nil {
		return h.IDGen()
	}
	return uuid.NewString()
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
var _ middleware.IdempotentCommand = CancelBookingCommand{}

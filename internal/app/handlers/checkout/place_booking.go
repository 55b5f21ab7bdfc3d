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
	domainlistings "staynest/internal/domain/listings"
	domainpricing "staynest/internal/domain/pricing"
	domainrange "staynest/internal/domain/shared/daterange"
	"staynest/internal/domain/shared/money"
	domainuser "staynest/internal/domain/user"
	domainwallet "staynest/internal/domain/wallet"
)

const placeBookingKey = "checkout.place_booking"

// WalletLockTTL bounds how long a checkout may hold a user's wallet lease.
const WalletLockTTL = 15 * time.Second

var ErrUnitOfWorkRequired = errors.New("checkout: unit of work required")

// PlaceBookingCommand runs the quoted leg of the reconciliation state
// machine: it either settles entirely from the wallet or opens a gateway
// order for the remainder. The wallet is never debited before the gateway
// settles.
type PlaceBookingCommand struct {
	CommandID             string
	ListingID             string
	TravellerID           string
	CheckIn               time.Time
	CheckOut              time.Time
	Guests                int
	RequestedWalletAmount int64
	IdempotencyKeyV       string
}

func (c PlaceBookingCommand) Key() string { return placeBookingKey }

func (c PlaceBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c PlaceBookingCommand) ResultPrototype() any { return &PlaceBookingResult{} }

type PlaceBookingResult struct {
	BookingID       string `json:"booking_id"`
	Status          string `json:"status"`
	GatewayOrderID  string `json:"gateway_order_id,omitempty"`
	WalletDeduction int64  `json:"wallet_deduction"`
	AmountDue       int64  `json:"amount_due"`
	Currency        string `json:"currency"`
}

type PlaceBookingHandler struct {
	UoWFactory uow.UoWFactory
	Gateway    policies.PaymentGateway
	Locks      policies.UserLocks
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	IDGen      func() string
}

func (h *PlaceBookingHandler) Handle(ctx context.Context, cmd PlaceBookingCommand) (*PlaceBookingResult, error) {
	if h.Locks != nil {
		release, err := h.Locks.Acquire(ctx, cmd.TravellerID, WalletLockTTL)
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

	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	now := h.now()

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	traveller, err := unit.Users().ByID(ctx, domainuser.ID(cmd.TravellerID))
	if err != nil {
		return nil, err
	}

	quote, err := domainpricing.Calculate(domainpricing.Input{
		Nightly:      listing.PricePerNight,
		Range:        dr,
		Guests:       cmd.Guests,
		MemberActive: traveller.MembershipActive(now),
	})
	if err != nil {
		return nil, err
	}

	w, err := unit.Wallets().ByUser(ctx, cmd.TravellerID)
	if err != nil {
		if err != domainwallet.ErrWalletNotFound {
			return nil, err
		}
		w = domainwallet.NewWallet(cmd.TravellerID, now)
	}
	deduction := ClampWalletDeduction(money.Units(cmd.RequestedWalletAmount), w.Balance, quote.Gross)
	due, err := quote.Gross.Sub(deduction)
	if err != nil {
		return nil, err
	}

	params := domainbooking.CreateParams{
		ID:              domainbooking.BookingID(cmd.CommandID),
		ListingID:       listing.ID,
		OwnerID:         listing.Owner,
		TravellerID:     cmd.TravellerID,
		Range:           dr,
		Guests:          cmd.Guests,
		Quote:           quote,
		WalletDeduction: deduction,
		CreatedAt:       now,
	}

	var result *PlaceBookingResult
	if !due.IsPositive() {
		result, err = h.settleFromWallet(ctx, unit, params, traveller, w, now)
	} else {
		result, err = h.openGatewayOrder(ctx, unit, params, due)
	}
	if err != nil {
		return nil, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// settleFromWallet is the ConfirmedByWalletOnly shortcut: full coverage,
// one wallet debit, commission frozen immediately. Reward points accrue
// only on gateway-settled cash, so a wallet-only booking earns none.
func (h *PlaceBookingHandler) settleFromWallet(ctx context.Context, unit uow.UnitOfWork, params domainbooking.CreateParams, traveller *domainuser.User, w *domainwallet.Wallet, now time.Time) (*PlaceBookingResult, error) {
	b, err := domainbooking.NewBooking(params)
	if err != nil {
		return nil, err
	}
	reason := fmt.Sprintf("booking %s", b.ID)
	if err := w.Debit(h.id(), params.Quote.Gross, reason, now); err != nil {
		return nil, err
	}
	if _, err := b.Confirm(now); err != nil {
		return nil, err
	}
	if err := unit.Wallets().Save(ctx, w); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := h.drainEvents(ctx, b, w); err != nil {
		return nil, err
	}
	return &PlaceBookingResult{
		BookingID:       string(b.ID),
		Status:          string(b.Status),
		WalletDeduction: b.WalletDeduction.Amount,
		AmountDue:       0,
		Currency:        b.Quote.Gross.Currency,
	}, nil
}

// openGatewayOrder transitions to AwaitingGatewayPayment. The wallet debit
// is deferred to the verified callback so a gateway failure leaves no
// partial mutation.
func (h *PlaceBookingHandler) openGatewayOrder(ctx context.Context, unit uow.UnitOfWork, params domainbooking.CreateParams, due money.Money) (*PlaceBookingResult, error) {
	if h.Gateway == nil {
		return nil, policies.ErrGatewayOrderFailed
	}
	order, err := h.Gateway.CreateOrder(ctx, due, string(params.ID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", policies.ErrGatewayOrderFailed, err)
	}
	params.GatewayOrderID = order.OrderID
	b, err := domainbooking.NewBooking(params)
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := h.drainEvents(ctx, b, nil); err != nil {
		return nil, err
	}
	return &PlaceBookingResult{
		BookingID:       string(b.ID),
		Status:          string(b.Status),
		GatewayOrderID:  order.OrderID,
		WalletDeduction: b.WalletDeduction.Amount,
		AmountDue:       due.Amount,
		Currency:        due.Currency,
	}, nil
}

func (h *PlaceBookingHandler) drainEvents(ctx context.Context, b *domainbooking.Booking, w *domainwallet.Wallet) error {
	pending := b.PendingEvents()
	b.ClearEvents()
	if w != nil {
		pending = append(pending, w.PendingEvents()...)
		w.ClearEvents()
	}
	return outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending)
}

func (h *PlaceBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *PlaceBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *PlaceBookingHandler) id() string {
	if h.IDGen != nil {
		return h.IDGen()
	}
	return uuid.NewString()
}

var _ commands.Handler[PlaceBookingCommand, *PlaceBookingResult] = (*PlaceBookingHandler)(nil)
var _ middleware.IdempotentCommand = PlaceBookingCommand{}

package booking

import (
	"context"
	"errors"
	"time"

	"staynest/internal/domain/commission"
	"staynest/internal/domain/listings"
	"staynest/internal/domain/pricing"
	"staynest/internal/domain/shared/daterange"
	"staynest/internal/domain/shared/events"
	"staynest/internal/domain/shared/money"
)

var (
	ErrInvalidGuests   = errors.New("booking: guests count must be positive")
	ErrInvalidState    = errors.New("booking: invalid state transition")
	ErrBookingNotFound = errors.New("booking: not found")
	ErrNotOwner        = errors.New("booking: requester does not own this booking")
)

type BookingID string

// PaymentStatus is the stored settlement state. Display state (upcoming,
// current stay, completed) is derived, never persisted.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Booking carries the guest's quote and, once confirmed, the frozen
// commission split. Monetary fields never change after confirmation.
type Booking struct {
	ID              BookingID
	ListingID       listings.ListingID
	OwnerID         listings.OwnerID
	TravellerID     string
	Range           daterange.DateRange
	Guests          int
	Quote           pricing.Quote
	WalletDeduction money.Money
	GatewayOrderID  string
	Status          PaymentStatus
	Commission      commission.Record
	ConfirmedAt     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	ByGatewayOrder(ctx context.Context, orderID string) (*Booking, error)
	ListByTraveller(ctx context.Context, travellerID string) ([]*Booking, error)
	ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]*Booking, error)
	ListAwaitingBefore(ctx context.Context, createdBefore time.Time) ([]*Booking, error)
	Save(ctx context.Context, b *Booking) error
}

type CreateParams struct {
	ID              BookingID
	ListingID       listings.ListingID
	OwnerID         listings.OwnerID
	TravellerID     string
	Range           daterange.DateRange
	Guests          int
	Quote           pricing.Quote
	WalletDeduction money.Money
	GatewayOrderID  string
	CreatedAt       time.Time
}

// NewBooking records a quoted booking. WalletDeduction is already clamped
// by the reconciler; the wallet itself has not been touched yet.
func NewBooking(params CreateParams) (*Booking, error) {
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if params.TravellerID == "" {
		return nil, errors.New("booking: traveller id required")
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if !params.Quote.Gross.IsPositive() {
		return nil, errors.New("booking: gross amount must be positive")
	}
	if params.WalletDeduction.Amount < 0 || params.WalletDeduction.Amount > params.Quote.Gross.Amount {
		return nil, errors.New("booking: wallet deduction out of range")
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:              params.ID,
		ListingID:       params.ListingID,
		OwnerID:         params.OwnerID,
		TravellerID:     params.TravellerID,
		Range:           params.Range,
		Guests:          params.Guests,
		Quote:           params.Quote,
		WalletDeduction: params.WalletDeduction,
		GatewayOrderID:  params.GatewayOrderID,
		Status:          PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingQuoted{BookingID: b.ID, ListingID: b.ListingID, TravellerID: b.TravellerID, Gross: b.Quote.Gross, At: now})
	return b, nil
}

// AwaitingGateway reports whether the booking still waits for a gateway
// callback.
func (b *Booking) AwaitingGateway() bool {
	return b.Status == PaymentPending && b.GatewayOrderID != ""
}

// GatewayDue is the portion to be settled through the gateway.
func (b *Booking) GatewayDue() money.Money {
	due, err := b.Quote.Gross.Sub(b.WalletDeduction)
	if err != nil {
		return money.Money{Amount: 0, Currency: b.Quote.Gross.Currency}
	}
	return due
}

// Confirm freezes the commission split and marks the booking settled.
// Idempotent: confirming an already confirmed booking is a no-op so late
// or duplicate gateway callbacks cannot double-apply.
func (b *Booking) Confirm(now time.Time) (bool, error) {
	if b.Status == PaymentConfirmed {
		return false, nil
	}
	if b.Status != PaymentPending {
		return false, ErrInvalidState
	}
	record, err := commission.Split(b.Quote.Gross, b.Quote.ServiceFee)
	if err != nil {
		return false, err
	}
	b.Commission = record
	b.Status = PaymentConfirmed
	b.ConfirmedAt = now.UTC()
	b.UpdatedAt = b.ConfirmedAt
	b.Record(BookingConfirmed{
		BookingID:       b.ID,
		ListingID:       b.ListingID,
		OwnerID:         b.OwnerID,
		Gross:           b.Quote.Gross,
		PlatformRevenue: record.PlatformRevenue,
		At:              b.UpdatedAt,
	})
	return true, nil
}

// Fail marks a pending booking as failed. No wallet debit has happened by
// construction, so there is nothing to roll back. Idempotent.
func (b *Booking) Fail(reason string, now time.Time) (bool, error) {
	if b.Status == PaymentFailed {
		return false, nil
	}
	if b.Status != PaymentPending {
		return false, ErrInvalidState
	}
	b.Status = PaymentFailed
	b.UpdatedAt = now.UTC()
	b.Record(BookingFailed{BookingID: b.ID, Reason: reason, At: b.UpdatedAt})
	return true, nil
}

// Cancel marks a confirmed booking cancelled with the fee the policy
// engine priced. Idempotent by booking id: a second cancel is a no-op.
func (b *Booking) Cancel(fee, refund money.Money, now time.Time) (bool, error) {
	if b.Status == PaymentCancelled {
		return false, nil
	}
	if b.Status != PaymentConfirmed {
		return false, ErrInvalidState
	}
	b.Status = PaymentCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, Fee: fee, Refund: refund, At: b.UpdatedAt})
	return true, nil
}

package me

import (
	"context"
	"time"

	"staynest/internal/app/handlers/support"
	"staynest/internal/app/queries"
	"staynest/internal/app/uow"
	domainbooking "staynest/internal/domain/booking"
)

const listBookingsKey = "me.bookings"

// ListBookingsQuery returns a traveller's bookings with the display phase
// derived at read time.
type ListBookingsQuery struct {
	TravellerID string
}

func (q ListBookingsQuery) Key() string { return listBookingsKey }

type BookingView struct {
	BookingID         string    `json:"booking_id"`
	ListingID         string    `json:"listing_id"`
	CheckIn           time.Time `json:"check_in"`
	CheckOut          time.Time `json:"check_out"`
	Guests            int       `json:"guests"`
	GrossAmount       int64     `json:"gross_amount"`
	WalletDeduction   int64     `json:"wallet_deduction"`
	Currency          string    `json:"currency"`
	PaymentStatus     string    `json:"payment_status"`
	Phase             string    `json:"phase"`
	DaysUntilCheckIn  int       `json:"days_until_check_in,omitempty"`
	DaysUntilCheckOut int       `json:"days_until_check_out,omitempty"`
}

type BookingCollection struct {
	Items []BookingView `json:"items"`
}

type ListBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *ListBookingsHandler) Handle(ctx context.Context, q ListBookingsQuery) (BookingCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Bookings().ListByTraveller(ctx, q.TravellerID)
	if err != nil {
		return BookingCollection{}, err
	}
	now := h.now()
	views := make([]BookingView, 0, len(items))
	for _, b := range items {
		view := BookingView{
			BookingID:       string(b.ID),
			ListingID:       string(b.ListingID),
			CheckIn:         b.Range.CheckIn,
			CheckOut:        b.Range.CheckOut,
			Guests:          b.Guests,
			GrossAmount:     b.Quote.Gross.Amount,
			WalletDeduction: b.WalletDeduction.Amount,
			Currency:        b.Quote.Gross.Currency,
			PaymentStatus:   string(b.Status),
		}
		if b.Status == domainbooking.PaymentConfirmed {
			lc := domainbooking.DeriveLifecycle(now, b.Range)
			view.Phase = string(lc.Phase)
			view.DaysUntilCheckIn = lc.DaysUntilCheckIn
			view.DaysUntilCheckOut = lc.DaysUntilCheckOut
		}
		views = append(views, view)
	}
	return BookingCollection{Items: views}, nil
}

func (h *ListBookingsHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

var _ queries.Handler[ListBookingsQuery, BookingCollection] = (*ListBookingsHandler)(nil)

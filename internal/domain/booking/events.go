package booking

import (
	"time"

	"staynest/internal/domain/listings"
	"staynest/internal/domain/shared/money"
)

type BookingQuoted struct {
	BookingID   BookingID
	ListingID   listings.ListingID
	TravellerID string
	Gross       money.Money
	At          time.Time
}

func (e BookingQuoted) EventName() string     { return "booking.quoted" }
func (e BookingQuoted) AggregateID() string   { return string(e.BookingID) }
func (e BookingQuoted) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID       BookingID
	ListingID       listings.ListingID
	OwnerID         listings.OwnerID
	Gross           money.Money
	PlatformRevenue money.Money
	At              time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingFailed struct {
	BookingID BookingID
	Reason    string
	At        time.Time
}

func (e BookingFailed) EventName() string     { return "booking.payment_failed" }
func (e BookingFailed) AggregateID() string   { return string(e.BookingID) }
func (e BookingFailed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID
	Fee       money.Money
	Refund    money.Money
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

package pricing

import (
	"errors"

	"staynest/internal/domain/shared/daterange"
	"staynest/internal/domain/shared/money"
)

var (
	ErrInvalidDateRange = errors.New("pricing: checkout must be after checkin")
	ErrInvalidGuests    = errors.New("pricing: guests count must be positive")
	ErrInvalidRate      = errors.New("pricing: nightly rate must be positive")
)

const (
	// ExtraGuestFeePerNight is charged per night for each guest beyond two.
	ExtraGuestFeePerNight = 500
	// ServiceFeePercent is the platform fee on the base stay price,
	// waived for active members.
	ServiceFeePercent = 5
	// IncludedGuests stay without surcharge.
	IncludedGuests = 2
)

// Quote is the full price breakdown owed by the guest for a stay.
// Gross is what the guest pays; the service fee inside it becomes the
// platform commission once the booking is confirmed.
type Quote struct {
	Nights        int
	Nightly       money.Money
	Base          money.Money
	ExtraGuestFee money.Money
	ServiceFee    money.Money
	Gross         money.Money
}

// Input carries everything the calculator needs. MemberActive reflects the
// payer's membership at quote time; an expired membership must be passed
// as false by the caller.
type Input struct {
	Nightly      money.Money
	Range        daterange.DateRange
	Guests       int
	MemberActive bool
}

// Calculate produces the gross price for a stay. The service fee is
// rounded to the nearest whole unit exactly once; every downstream
// consumer (checkout display, confirmation freeze, analytics) reuses the
// stored result instead of recomputing.
func Calculate(in Input) (Quote, error) {
	if err := in.Range.Validate(); err != nil {
		return Quote{}, ErrInvalidDateRange
	}
	nights := in.Range.Nights()
	if nights <= 0 {
		return Quote{}, ErrInvalidDateRange
	}
	if in.Guests <= 0 {
		return Quote{}, ErrInvalidGuests
	}
	if !in.Nightly.IsPositive() {
		return Quote{}, ErrInvalidRate
	}

	currency := in.Nightly.Currency
	extra := money.Money{Amount: 0, Currency: currency}
	if in.Guests > IncludedGuests {
		perNight := int64(in.Guests-IncludedGuests) * ExtraGuestFeePerNight
		extra = money.Money{Amount: perNight * int64(nights), Currency: currency}
	}

	base, err := in.Nightly.Multiply(int64(nights)).Add(extra)
	if err != nil {
		return Quote{}, err
	}

	fee := money.Money{Amount: 0, Currency: currency}
	if !in.MemberActive {
		fee = base.Percent(ServiceFeePercent)
	}

	gross, err := base.Add(fee)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		Nights:        nights,
		Nightly:       in.Nightly,
		Base:          base,
		ExtraGuestFee: extra,
		ServiceFee:    fee,
		Gross:         gross,
	}, nil
}

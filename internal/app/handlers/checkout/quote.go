package checkout

import (
	"context"
	"time"

	"staynest/internal/app/handlers/support"
	"staynest/internal/app/queries"
	"staynest/internal/app/uow"
	domainlistings "staynest/internal/domain/listings"
	domainpricing "staynest/internal/domain/pricing"
	domainrange "staynest/internal/domain/shared/daterange"
	"staynest/internal/domain/shared/money"
	domainuser "staynest/internal/domain/user"
	domainwallet "staynest/internal/domain/wallet"
)

const getQuoteKey = "checkout.quote"

// GetQuoteQuery previews the checkout total for a stay, including the
// wallet deduction clamp, without touching any state.
type GetQuoteQuery struct {
	ListingID             string
	TravellerID           string
	CheckIn               time.Time
	CheckOut              time.Time
	Guests                int
	RequestedWalletAmount int64
}

func (q GetQuoteQuery) Key() string { return getQuoteKey }

type QuoteBreakdown struct {
	Nights        int   `json:"nights"`
	Nightly       int64 `json:"nightly"`
	Base          int64 `json:"base"`
	ExtraGuestFee int64 `json:"extra_guest_fee"`
	ServiceFee    int64 `json:"service_fee"`
}

type QuoteResult struct {
	GrossAmount     int64          `json:"gross_amount"`
	ServiceFee      int64          `json:"service_fee"`
	WalletDeduction int64          `json:"wallet_deduction"`
	FinalAmountDue  int64          `json:"final_amount_due"`
	Currency        string         `json:"currency"`
	Breakdown       QuoteBreakdown `json:"breakdown"`
}

type GetQuoteHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (*QuoteResult, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	dr, err := domainrange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return nil, err
	}
	now := h.now()
	traveller, err := unit.Users().ByID(ctx, domainuser.ID(q.TravellerID))
	if err != nil {
		return nil, err
	}
	quote, err := domainpricing.Calculate(domainpricing.Input{
		Nightly:      listing.PricePerNight,
		Range:        dr,
		Guests:       q.Guests,
		MemberActive: traveller.MembershipActive(now),
	})
	if err != nil {
		return nil, err
	}

	balance := money.Units(0)
	w, err := unit.Wallets().ByUser(ctx, q.TravellerID)
	if err == nil {
		balance = w.Balance
	} else if err != domainwallet.ErrWalletNotFound {
		return nil, err
	}
	deduction := ClampWalletDeduction(money.Units(q.RequestedWalletAmount), balance, quote.Gross)

	return &QuoteResult{
		GrossAmount:     quote.Gross.Amount,
		ServiceFee:      quote.ServiceFee.Amount,
		WalletDeduction: deduction.Amount,
		FinalAmountDue:  quote.Gross.Amount - deduction.Amount,
		Currency:        quote.Gross.Currency,
		Breakdown: QuoteBreakdown{
			Nights:        quote.Nights,
			Nightly:       quote.Nightly.Amount,
			Base:          quote.Base.Amount,
			ExtraGuestFee: quote.ExtraGuestFee.Amount,
			ServiceFee:    quote.ServiceFee.Amount,
		},
	}, nil
}

func (h *GetQuoteHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

// ClampWalletDeduction bounds the requested wallet spend by the available
// balance and the amount actually owed.
func ClampWalletDeduction(requested, balance, gross money.Money) money.Money {
	if requested.Amount <= 0 {
		return money.Money{Amount: 0, Currency: gross.Currency}
	}
	clamped := money.Min(money.Min(requested, balance), gross)
	if clamped.Amount < 0 {
		return money.Money{Amount: 0, Currency: gross.Currency}
	}
	clamped.Currency = gross.Currency
	return clamped
}

var _ queries.Handler[GetQuoteQuery, *QuoteResult] = (*GetQuoteHandler)(nil)

package analytics

import (
	"context"
	"sort"
	"time"

	"staynest/internal/app/handlers/support"
	"staynest/internal/app/queries"
	"staynest/internal/app/uow"
	domainbooking "staynest/internal/domain/booking"
	"staynest/internal/domain/commission"
	"staynest/internal/domain/shared/money"
)

const topHotelsKey = "analytics.top_hotels"

// TopHotelsQuery ranks listings by confirmed gross revenue.
type TopHotelsQuery struct {
	From  time.Time
	To    time.Time
	Limit int
}

func (q TopHotelsQuery) Key() string { return topHotelsKey }

type HotelRollup struct {
	ListingID          string `json:"listing_id"`
	OwnerID            string `json:"owner_id"`
	GrossRevenue       int64  `json:"gross_revenue"`
	Commission         int64  `json:"commission"`
	NetPlatformRevenue int64  `json:"net_platform_revenue"`
	BookingsCount      int    `json:"bookings_count"`
}

type TopHotelsResult struct {
	Currency string        `json:"currency"`
	Hotels   []HotelRollup `json:"hotels"`
}

type TopHotelsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *TopHotelsHandler) Handle(ctx context.Context, q TopHotelsQuery) (*TopHotelsResult, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListConfirmedBetween(ctx, q.From, q.To)
	if err != nil {
		return nil, err
	}

	type totals struct {
		owner      string
		gross      int64
		commission int64
		count      int
	}
	byListing := map[string]*totals{}
	for _, b := range bookings {
		if b.Status != domainbooking.PaymentConfirmed {
			continue
		}
		id := string(b.ListingID)
		t, ok := byListing[id]
		if !ok {
			t = &totals{owner: string(b.OwnerID)}
			byListing[id] = t
		}
		t.gross += b.Commission.GrossRevenue.Amount
		t.commission += b.Commission.Commission.Amount
		t.count++
	}

	hotels := make([]HotelRollup, 0, len(byListing))
	for id, t := range byListing {
		rec, err := commission.SplitTotals(money.Units(t.gross), money.Units(t.commission))
		if err != nil {
			return nil, err
		}
		hotels = append(hotels, HotelRollup{
			ListingID:          id,
			OwnerID:            t.owner,
			GrossRevenue:       t.gross,
			Commission:         t.commission,
			NetPlatformRevenue: rec.PlatformRevenue.Amount,
			BookingsCount:      t.count,
		})
	}
	sort.Slice(hotels, func(i, j int) bool {
		if hotels[i].GrossRevenue == hotels[j].GrossRevenue {
			return hotels[i].ListingID < hotels[j].ListingID
		}
		return hotels[i].GrossRevenue > hotels[j].GrossRevenue
	})
	if q.Limit > 0 && len(hotels) > q.Limit {
		hotels = hotels[:q.Limit]
	}
	return &TopHotelsResult{Currency: money.DefaultCurrency, Hotels: hotels}, nil
}

var _ queries.Handler[TopHotelsQuery, *TopHotelsResult] = (*TopHotelsHandler)(nil)

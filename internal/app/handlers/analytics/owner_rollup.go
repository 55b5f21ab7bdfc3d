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

const ownerRollupKey = "analytics.owner_rollup"

// OwnerRollupQuery aggregates confirmed revenue per property owner,
// applying the identical commission split to each owner's subtotals.
type OwnerRollupQuery struct {
	From  time.Time
	To    time.Time
	Limit int
}

func (q OwnerRollupQuery) Key() string { return ownerRollupKey }

type OwnerRollup struct {
	OwnerID            string `json:"owner_id"`
	GrossRevenue       int64  `json:"gross_revenue"`
	Commission         int64  `json:"commission"`
	NetPlatformRevenue int64  `json:"net_platform_revenue"`
	OwnerNet           int64  `json:"owner_net"`
	BookingsCount      int    `json:"bookings_count"`
	HotelsCount        int    `json:"hotels_count"`
}

type OwnerRollupResult struct {
	Currency string        `json:"currency"`
	Owners   []OwnerRollup `json:"owners"`
}

type OwnerRollupHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *OwnerRollupHandler) Handle(ctx context.Context, q OwnerRollupQuery) (*OwnerRollupResult, error) {
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
	rollups, err := BuildOwnerRollups(bookings, q.Limit)
	if err != nil {
		return nil, err
	}
	return &OwnerRollupResult{Currency: money.DefaultCurrency, Owners: rollups}, nil
}

// BuildOwnerRollups sums frozen revenue per owner, ordered by gross
// revenue descending. Limit <= 0 returns all owners.
func BuildOwnerRollups(bookings []*domainbooking.Booking, limit int) ([]OwnerRollup, error) {
	type totals struct {
		gross      int64
		commission int64
		count      int
		hotels     map[string]struct{}
	}
	byOwner := map[string]*totals{}
	for _, b := range bookings {
		if b.Status != domainbooking.PaymentConfirmed {
			continue
		}
		owner := string(b.OwnerID)
		t, ok := byOwner[owner]
		if !ok {
			t = &totals{hotels: map[string]struct{}{}}
			byOwner[owner] = t
		}
		t.gross += b.Commission.GrossRevenue.Amount
		t.commission += b.Commission.Commission.Amount
		t.count++
		t.hotels[string(b.ListingID)] = struct{}{}
	}

	rollups := make([]OwnerRollup, 0, len(byOwner))
	for owner, t := range byOwner {
		rec, err := commission.SplitTotals(money.Units(t.gross), money.Units(t.commission))
		if err != nil {
			return nil, err
		}
		rollups = append(rollups, OwnerRollup{
			OwnerID:            owner,
			GrossRevenue:       t.gross,
			Commission:         t.commission,
			NetPlatformRevenue: rec.PlatformRevenue.Amount,
			OwnerNet:           rec.OwnerNet.Amount,
			BookingsCount:      t.count,
			HotelsCount:        len(t.hotels),
		})
	}
	sort.Slice(rollups, func(i, j int) bool {
		if rollups[i].GrossRevenue == rollups[j].GrossRevenue {
			return rollups[i].OwnerID < rollups[j].OwnerID
		}
		return rollups[i].GrossRevenue > rollups[j].GrossRevenue
	})
	if limit > 0 && len(rollups) > limit {
		rollups = rollups[:limit]
	}
	return rollups, nil
}

var _ queries.Handler[OwnerRollupQuery, *OwnerRollupResult] = (*OwnerRollupHandler)(nil)

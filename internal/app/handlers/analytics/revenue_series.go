package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"staynest/internal/app/handlers/support"
	"staynest/internal/app/queries"
	"staynest/internal/app/uow"
	domainbooking "staynest/internal/domain/booking"
	"staynest/internal/domain/commission"
	"staynest/internal/domain/shared/money"
)

const revenueSeriesKey = "analytics.revenue_series"

var ErrInvalidGranularity = errors.New("analytics: unknown bucket granularity")

type Granularity string

const (
	ByDay   Granularity = "day"
	ByWeek  Granularity = "week"
	ByMonth Granularity = "month"
	ByYear  Granularity = "year"
)

// RevenueSeriesQuery buckets confirmed bookings' frozen commission fields
// over a time window. Read-only; may run on a stale snapshot.
type RevenueSeriesQuery struct {
	From        time.Time
	To          time.Time
	Granularity Granularity
}

func (q RevenueSeriesQuery) Key() string { return revenueSeriesKey }

type RevenueBucket struct {
	BucketLabel        string `json:"bucket_label"`
	GrossRevenue       int64  `json:"gross_revenue"`
	Commission         int64  `json:"commission"`
	NetPlatformRevenue int64  `json:"net_platform_revenue"`
	BookingsCount      int    `json:"bookings_count"`
}

type RevenueSeriesResult struct {
	Granularity Granularity     `json:"granularity"`
	Currency    string          `json:"currency"`
	Buckets     []RevenueBucket `json:"buckets"`
}

type RevenueSeriesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *RevenueSeriesHandler) Handle(ctx context.Context, q RevenueSeriesQuery) (*RevenueSeriesResult, error) {
	if _, err := bucketLabel(time.Now(), q.Granularity); err != nil {
		return nil, err
	}
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
	buckets, err := BuildSeries(bookings, q.Granularity)
	if err != nil {
		return nil, err
	}
	return &RevenueSeriesResult{
		Granularity: q.Granularity,
		Currency:    money.DefaultCurrency,
		Buckets:     buckets,
	}, nil
}

// BuildSeries groups frozen per-booking revenue into labeled buckets. Net
// platform revenue is derived from the bucket totals through the same
// split every display layer uses.
func BuildSeries(bookings []*domainbooking.Booking, g Granularity) ([]RevenueBucket, error) {
	type totals struct {
		gross      int64
		commission int64
		count      int
	}
	byLabel := map[string]*totals{}
	for _, b := range bookings {
		if b.Status != domainbooking.PaymentConfirmed {
			continue
		}
		label, err := bucketLabel(b.ConfirmedAt, g)
		if err != nil {
			return nil, err
		}
		t, ok := byLabel[label]
		if !ok {
			t = &totals{}
			byLabel[label] = t
		}
		t.gross += b.Commission.GrossRevenue.Amount
		t.commission += b.Commission.Commission.Amount
		t.count++
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	buckets := make([]RevenueBucket, 0, len(labels))
	for _, label := range labels {
		t := byLabel[label]
		rec, err := commission.SplitTotals(money.Units(t.gross), money.Units(t.commission))
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, RevenueBucket{
			BucketLabel:        label,
			GrossRevenue:       t.gross,
			Commission:         t.commission,
			NetPlatformRevenue: rec.PlatformRevenue.Amount,
			BookingsCount:      t.count,
		})
	}
	return buckets, nil
}

func bucketLabel(t time.Time, g Granularity) (string, error) {
	t = t.UTC()
	switch g {
	case ByDay:
		return t.Format("2006-01-02"), nil
	case ByWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), nil
	case ByMonth:
		return t.Format("2006-01"), nil
	case ByYear:
		return t.Format("2006"), nil
	default:
		return "", ErrInvalidGranularity
	}
}

var _ queries.Handler[RevenueSeriesQuery, *RevenueSeriesResult] = (*RevenueSeriesHandler)(nil)

package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "staynest/internal/domain/booking"
	"staynest/internal/domain/listings"
	domainpricing "staynest/internal/domain/pricing"
	domainrange "staynest/internal/domain/shared/daterange"
	"staynest/internal/domain/shared/money"
	"staynest/internal/infra/storage/memory"
)

// confirmedBooking fabricates a settled booking whose frozen commission
// derives from the supplied gross and service fee.
func confirmedBooking(t *testing.T, id, listing, owner string, gross, fee int64, confirmedAt time.Time) *domainbooking.Booking {
	t.Helper()
	checkIn := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	dr, err := domainrange.New(checkIn, checkIn.AddDate(0, 0, 3))
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:          domainbooking.BookingID(id),
		ListingID:   listings.ListingID(listing),
		OwnerID:     listings.OwnerID(owner),
		TravellerID: "traveller-" + id,
		Range:       dr,
		Guests:      2,
		Quote: domainpricing.Quote{
			ServiceFee: money.Units(fee),
			Gross:      money.Units(gross),
		},
		WalletDeduction: money.Units(0),
		CreatedAt:       confirmedAt.Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = b.Confirm(confirmedAt)
	require.NoError(t, err)
	b.ClearEvents()
	return b
}

func seedAnalytics(t *testing.T, bookings ...*domainbooking.Booking) memory.Factory {
	t.Helper()
	repo := memory.NewBookingRepository()
	for _, b := range bookings {
		require.NoError(t, repo.Save(context.Background(), b))
	}
	return memory.Factory{
		UsersRepo:    memory.NewUserRepository(),
		WalletsRepo:  memory.NewWalletRepository(),
		BookingsRepo: repo,
		ListingsRepo: memory.NewListingRepository(),
	}
}

func day(d int, hour int) time.Time {
	return time.Date(2026, 9, d, hour, 0, 0, 0, time.UTC)
}

func TestRevenueSeries_dailyBuckets(t *testing.T) {
	factory := seedAnalytics(t,
		confirmedBooking(t, "b-1", "l-1", "o-1", 6300, 300, day(10, 9)),
		confirmedBooking(t, "b-2", "l-1", "o-1", 6300, 300, day(10, 18)),
		confirmedBooking(t, "b-3", "l-2", "o-2", 6000, 0, day(11, 8)),
	)

	h := &RevenueSeriesHandler{UoWFactory: factory}
	result, err := h.Handle(context.Background(), RevenueSeriesQuery{
		From:        day(1, 0),
		To:          day(30, 0),
		Granularity: ByDay,
	})
	require.NoError(t, err)

	require.Len(t, result.Buckets, 2)
	first := result.Buckets[0]
	assert.Equal(t, "2026-09-10", first.BucketLabel)
	assert.Equal(t, int64(12600), first.GrossRevenue)
	assert.Equal(t, int64(600), first.Commission)
	// commission + 15% of the owner share of 12000
	assert.Equal(t, int64(2400), first.NetPlatformRevenue)
	assert.Equal(t, 2, first.BookingsCount)

	second := result.Buckets[1]
	assert.Equal(t, "2026-09-11", second.BucketLabel)
	assert.Equal(t, int64(6000), second.GrossRevenue)
	assert.Equal(t, int64(900), second.NetPlatformRevenue)
}

func TestRevenueSeries_weekLabelsUseISOWeek(t *testing.T) {
	// 2026-09-10 is a Thursday in ISO week 37.
	buckets, err := BuildSeries([]*domainbooking.Booking{
		confirmedBooking(t, "b-1", "l-1", "o-1", 6300, 300, day(10, 9)),
	}, ByWeek)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, "2026-W37", buckets[0].BucketLabel)
}

func TestRevenueSeries_rejectsUnknownGranularity(t *testing.T) {
	h := &RevenueSeriesHandler{UoWFactory: seedAnalytics(t)}
	_, err := h.Handle(context.Background(), RevenueSeriesQuery{Granularity: "hour"})
	assert.ErrorIs(t, err, ErrInvalidGranularity)
}

func TestRevenueSeries_windowFiltersByConfirmation(t *testing.T) {
	factory := seedAnalytics(t,
		confirmedBooking(t, "b-1", "l-1", "o-1", 6300, 300, day(10, 9)),
		confirmedBooking(t, "b-2", "l-1", "o-1", 6300, 300, day(20, 9)),
	)

	h := &RevenueSeriesHandler{UoWFactory: factory}
	result, err := h.Handle(context.Background(), RevenueSeriesQuery{
		From:        day(1, 0),
		To:          day(15, 0),
		Granularity: ByMonth,
	})
	require.NoError(t, err)
	require.Len(t, result.Buckets, 1)
	assert.Equal(t, "2026-09", result.Buckets[0].BucketLabel)
	assert.Equal(t, int64(6300), result.Buckets[0].GrossRevenue)
	assert.Equal(t, 1, result.Buckets[0].BookingsCount)
}

func TestOwnerRollup_ordersByGrossAndCountsHotels(t *testing.T) {
	factory := seedAnalytics(t,
		confirmedBooking(t, "b-1", "l-1", "o-1", 6300, 300, day(10, 9)),
		confirmedBooking(t, "b-2", "l-2", "o-1", 6300, 300, day(11, 9)),
		confirmedBooking(t, "b-3", "l-3", "o-2", 6000, 0, day(12, 9)),
	)

	h := &OwnerRollupHandler{UoWFactory: factory}
	result, err := h.Handle(context.Background(), OwnerRollupQuery{From: day(1, 0), To: day(30, 0)})
	require.NoError(t, err)

	require.Len(t, result.Owners, 2)
	top := result.Owners[0]
	assert.Equal(t, "o-1", top.OwnerID)
	assert.Equal(t, int64(12600), top.GrossRevenue)
	assert.Equal(t, int64(10200), top.OwnerNet)
	assert.Equal(t, int64(2400), top.NetPlatformRevenue)
	assert.Equal(t, 2, top.BookingsCount)
	assert.Equal(t, 2, top.HotelsCount)

	assert.Equal(t, "o-2", result.Owners[1].OwnerID)
	assert.Equal(t, 1, result.Owners[1].HotelsCount)
}

func TestOwnerRollup_limitTruncates(t *testing.T) {
	rollups, err := BuildOwnerRollups([]*domainbooking.Booking{
		confirmedBooking(t, "b-1", "l-1", "o-1", 6300, 300, day(10, 9)),
		confirmedBooking(t, "b-2", "l-2", "o-2", 4000, 200, day(10, 10)),
		confirmedBooking(t, "b-3", "l-3", "o-3", 2000, 100, day(10, 11)),
	}, 2)
	require.NoError(t, err)
	require.Len(t, rollups, 2)
	assert.Equal(t, "o-1", rollups[0].OwnerID)
	assert.Equal(t, "o-2", rollups[1].OwnerID)
}

func TestTopHotels_ranksListings(t *testing.T) {
	factory := seedAnalytics(t,
		confirmedBooking(t, "b-1", "l-1", "o-1", 6300, 300, day(10, 9)),
		confirmedBooking(t, "b-2", "l-2", "o-1", 6300, 300, day(11, 9)),
		confirmedBooking(t, "b-3", "l-2", "o-1", 6300, 300, day(12, 9)),
	)

	h := &TopHotelsHandler{UoWFactory: factory}
	result, err := h.Handle(context.Background(), TopHotelsQuery{From: day(1, 0), To: day(30, 0), Limit: 1})
	require.NoError(t, err)

	require.Len(t, result.Hotels, 1)
	assert.Equal(t, "l-2", result.Hotels[0].ListingID)
	assert.Equal(t, "o-1", result.Hotels[0].OwnerID)
	assert.Equal(t, int64(12600), result.Hotels[0].GrossRevenue)
	assert.Equal(t, 2, result.Hotels[0].BookingsCount)
}

func TestRevenueSeries_bucketNetMatchesPerBookingSum(t *testing.T) {
	bookings := []*domainbooking.Booking{
		confirmedBooking(t, "b-1", "l-1", "o-1", 6300, 300, day(10, 9)),
		confirmedBooking(t, "b-2", "l-1", "o-1", 9000, 0, day(10, 18)),
		confirmedBooking(t, "b-3", "l-2", "o-2", 4200, 200, day(11, 8)),
		confirmedBooking(t, "b-4", "l-3", "o-3", 5250, 250, day(20, 14)),
	}

	var perBooking int64
	for _, b := range bookings {
		perBooking += b.Commission.PlatformRevenue.Amount
	}

	// Deriving net from bucket totals must agree with summing the frozen
	// per-booking records, at every granularity.
	for _, g := range []Granularity{ByDay, ByWeek, ByMonth, ByYear} {
		buckets, err := BuildSeries(bookings, g)
		require.NoError(t, err)
		var bucketed int64
		for _, bucket := range buckets {
			bucketed += bucket.NetPlatformRevenue
		}
		assert.Equal(t, perBooking, bucketed, "granularity %s", g)
	}
}

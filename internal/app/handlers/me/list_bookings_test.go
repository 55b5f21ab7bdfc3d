package me

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

var listNow = time.Date(2026, 9, 11, 12, 0, 0, 0, time.UTC)

func storedBooking(t *testing.T, id string, checkIn time.Time, confirm bool, createdAt time.Time) *domainbooking.Booking {
	t.Helper()
	dr, err := domainrange.New(checkIn, checkIn.AddDate(0, 0, 3))
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:          domainbooking.BookingID(id),
		ListingID:   "l-1",
		OwnerID:     listings.OwnerID("o-1"),
		TravellerID: "user-1",
		Range:       dr,
		Guests:      2,
		Quote: domainpricing.Quote{
			ServiceFee: money.Units(300),
			Gross:      money.Units(6300),
		},
		WalletDeduction: money.Units(0),
		GatewayOrderID:  "order-" + id,
		CreatedAt:       createdAt,
	})
	require.NoError(t, err)
	if confirm {
		_, err = b.Confirm(createdAt)
		require.NoError(t, err)
	}
	b.ClearEvents()
	return b
}

func TestListBookings_derivesPhases(t *testing.T) {
	repo := memory.NewBookingRepository()
	ctx := context.Background()
	// Mid-stay: checked in yesterday, out in two days.
	require.NoError(t, repo.Save(ctx, storedBooking(t, "b-current", listNow.AddDate(0, 0, -1), true, listNow.Add(-48*time.Hour))))
	// Upcoming: check-in five days out.
	require.NoError(t, repo.Save(ctx, storedBooking(t, "b-upcoming", listNow.AddDate(0, 0, 5), true, listNow.Add(-24*time.Hour))))
	// Pending bookings carry no display phase.
	require.NoError(t, repo.Save(ctx, storedBooking(t, "b-pending", listNow.AddDate(0, 0, 9), false, listNow.Add(-time.Hour))))

	h := &ListBookingsHandler{
		UoWFactory: memory.Factory{
			UsersRepo:    memory.NewUserRepository(),
			WalletsRepo:  memory.NewWalletRepository(),
			BookingsRepo: repo,
			ListingsRepo: memory.NewListingRepository(),
		},
		Now: func() time.Time { return listNow },
	}

	result, err := h.Handle(context.Background(), ListBookingsQuery{TravellerID: "user-1"})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)

	// Newest first.
	assert.Equal(t, "b-pending", result.Items[0].BookingID)
	assert.Equal(t, string(domainbooking.PaymentPending), result.Items[0].PaymentStatus)
	assert.Empty(t, result.Items[0].Phase)

	assert.Equal(t, "b-upcoming", result.Items[1].BookingID)
	assert.Equal(t, string(domainbooking.PhaseUpcoming), result.Items[1].Phase)
	assert.Equal(t, 5, result.Items[1].DaysUntilCheckIn)

	assert.Equal(t, "b-current", result.Items[2].BookingID)
	assert.Equal(t, string(domainbooking.PhaseCurrentStay), result.Items[2].Phase)
	assert.Equal(t, 2, result.Items[2].DaysUntilCheckOut)
}

func TestListBookings_emptyForUnknownTraveller(t *testing.T) {
	h := &ListBookingsHandler{
		UoWFactory: memory.Factory{
			UsersRepo:    memory.NewUserRepository(),
			WalletsRepo:  memory.NewWalletRepository(),
			BookingsRepo: memory.NewBookingRepository(),
			ListingsRepo: memory.NewListingRepository(),
		},
		Now: func() time.Time { return listNow },
	}

	result, err := h.Handle(context.Background(), ListBookingsQuery{TravellerID: "ghost"})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}

package schedule

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

func awaitingBooking(t *testing.T, id, orderID string, createdAt time.Time) *domainbooking.Booking {
	t.Helper()
	checkIn := time.Now().UTC().AddDate(0, 1, 0).Truncate(24 * time.Hour)
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
		WalletDeduction: money.Units(2000),
		GatewayOrderID:  orderID,
		CreatedAt:       createdAt,
	})
	require.NoError(t, err)
	b.ClearEvents()
	return b
}

func TestSweepOnce_failsOnlyStaleAwaitingOrders(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewBookingRepository()
	now := time.Now().UTC()

	// Two hours past the 30 minute timeout.
	require.NoError(t, repo.Save(ctx, awaitingBooking(t, "b-stale", "order-stale", now.Add(-2*time.Hour))))
	// Still inside the window.
	require.NoError(t, repo.Save(ctx, awaitingBooking(t, "b-fresh", "order-fresh", now.Add(-5*time.Minute))))
	// Wallet-only bookings never enter the awaiting state.
	walletOnly := awaitingBooking(t, "b-wallet", "", now.Add(-2*time.Hour))
	require.NoError(t, repo.Save(ctx, walletOnly))

	s := &AbandonedOrderSweeper{
		UoWFactory: memory.Factory{
			UsersRepo:    memory.NewUserRepository(),
			WalletsRepo:  memory.NewWalletRepository(),
			BookingsRepo: repo,
			ListingsRepo: memory.NewListingRepository(),
		},
		Outbox:       memory.NewOutbox(),
		OrderTimeout: 30 * time.Minute,
	}
	require.NoError(t, s.SweepOnce(ctx))

	stale, err := repo.ByID(ctx, "b-stale")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.PaymentFailed, stale.Status)

	fresh, err := repo.ByID(ctx, "b-fresh")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.PaymentPending, fresh.Status)

	pendingWalletOnly, err := repo.ByID(ctx, "b-wallet")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.PaymentPending, pendingWalletOnly.Status)
}

func TestSweepOnce_secondRunIsANoOp(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewBookingRepository()
	now := time.Now().UTC()
	require.NoError(t, repo.Save(ctx, awaitingBooking(t, "b-stale", "order-stale", now.Add(-2*time.Hour))))

	s := &AbandonedOrderSweeper{
		UoWFactory: memory.Factory{
			UsersRepo:    memory.NewUserRepository(),
			WalletsRepo:  memory.NewWalletRepository(),
			BookingsRepo: repo,
			ListingsRepo: memory.NewListingRepository(),
		},
		Outbox:       memory.NewOutbox(),
		OrderTimeout: 30 * time.Minute,
	}
	require.NoError(t, s.SweepOnce(ctx))

	first, err := repo.ByID(ctx, "b-stale")
	require.NoError(t, err)
	firstVersion := first.Version

	require.NoError(t, s.SweepOnce(ctx))
	second, err := repo.ByID(ctx, "b-stale")
	require.NoError(t, err)
	assert.Equal(t, firstVersion, second.Version)
}

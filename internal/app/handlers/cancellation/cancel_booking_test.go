package cancellation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "staynest/internal/domain/booking"
	domaincancel "staynest/internal/domain/cancellation"
	domainpricing "staynest/internal/domain/pricing"
	domainrange "staynest/internal/domain/shared/daterange"
	"staynest/internal/domain/shared/money"
	domainuser "staynest/internal/domain/user"
	domainwallet "staynest/internal/domain/wallet"
	"staynest/internal/infra/storage/memory"
)

var cancelNow = time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC)

type cancelFixture struct {
	users    *memory.UserRepository
	wallets  *memory.WalletRepository
	bookings *memory.BookingRepository
	handler  *CancelBookingHandler
}

// seedCancelFixture stores a traveller with a confirmed 6300 booking.
// freeCancellationsUsed pre-burns quota slots for the current month.
func seedCancelFixture(t *testing.T, member bool, freeCancellationsUsed int) cancelFixture {
	t.Helper()
	ctx := context.Background()

	users := memory.NewUserRepository()
	wallets := memory.NewWalletRepository()
	bookings := memory.NewBookingRepository()
	listings := memory.NewListingRepository()

	traveller, err := domainuser.NewUser(domainuser.CreateParams{ID: "user-1", CreatedAt: cancelNow.AddDate(-1, 0, 0)})
	require.NoError(t, err)
	if member {
		require.NoError(t, traveller.ActivateMembership(cancelNow.AddDate(1, 0, 0), cancelNow.AddDate(0, -1, 0)))
	}
	for i := 0; i < freeCancellationsUsed; i++ {
		require.True(t, traveller.ConsumeFreeCancellation(cancelNow))
	}
	require.NoError(t, users.Save(ctx, traveller))

	dr, err := domainrange.New(
		time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	quote, err := domainpricing.Calculate(domainpricing.Input{
		Nightly:      money.Units(2000),
		Range:        dr,
		Guests:       2,
		MemberActive: false,
	})
	require.NoError(t, err)

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:              "b-1",
		ListingID:       "l-1",
		OwnerID:         "o-1",
		TravellerID:     "user-1",
		Range:           dr,
		Guests:          2,
		Quote:           quote,
		WalletDeduction: money.Units(0),
		CreatedAt:       cancelNow.Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = b.Confirm(cancelNow.Add(-time.Hour))
	require.NoError(t, err)
	b.ClearEvents()
	require.NoError(t, bookings.Save(ctx, b))

	handler := &CancelBookingHandler{
		UoWFactory: memory.Factory{
			UsersRepo:    users,
			WalletsRepo:  wallets,
			BookingsRepo: bookings,
			ListingsRepo: listings,
		},
		Engine: domaincancel.NewEngine(nil),
		Outbox: memory.NewOutbox(),
		Now:    func() time.Time { return cancelNow },
		IDGen:  func() string { return "tx-refund" },
	}
	return cancelFixture{users: users, wallets: wallets, bookings: bookings, handler: handler}
}

func cancelCmd() CancelBookingCommand {
	return CancelBookingCommand{BookingID: "b-1", RequesterID: "user-1"}
}

func TestCancelBooking_memberWithQuotaCancelsFree(t *testing.T) {
	f := seedCancelFixture(t, true, 0)

	result, err := f.handler.Handle(context.Background(), cancelCmd())
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.Fee)
	assert.Equal(t, int64(6300), result.RefundAmount)
	assert.True(t, result.QuotaConsumed)
	assert.Equal(t, int64(6300), result.NewWalletBalance)

	u, err := f.users.ByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.FreeCancellationsUsed)

	b, err := f.bookings.ByID(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.PaymentCancelled, b.Status)
}

func TestCancelBooking_memberPastQuotaPaysFee(t *testing.T) {
	f := seedCancelFixture(t, true, 2)

	result, err := f.handler.Handle(context.Background(), cancelCmd())
	require.NoError(t, err)

	assert.Equal(t, int64(1260), result.Fee)
	assert.Equal(t, int64(5040), result.RefundAmount)
	assert.False(t, result.QuotaConsumed)

	// No extra quota burn past the monthly allowance.
	u, err := f.users.ByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, u.FreeCancellationsUsed)

	w, err := f.wallets.ByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5040), w.Balance.Amount)
}

func TestCancelBooking_nonMemberPaysFlatFee(t *testing.T) {
	f := seedCancelFixture(t, false, 0)

	result, err := f.handler.Handle(context.Background(), cancelCmd())
	require.NoError(t, err)

	assert.Equal(t, int64(1260), result.Fee)
	assert.Equal(t, int64(5040), result.RefundAmount)
	assert.False(t, result.QuotaConsumed)
}

func TestCancelBooking_secondCancelHasNoSideEffects(t *testing.T) {
	f := seedCancelFixture(t, false, 0)

	first, err := f.handler.Handle(context.Background(), cancelCmd())
	require.NoError(t, err)

	second, err := f.handler.Handle(context.Background(), cancelCmd())
	require.NoError(t, err)
	assert.Equal(t, first.BookingID, second.BookingID)
	assert.Zero(t, second.Fee)
	assert.Zero(t, second.RefundAmount)
	assert.Equal(t, first.NewWalletBalance, second.NewWalletBalance)

	w, err := f.wallets.ByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5040), w.Balance.Amount)
	assert.Len(t, w.Transactions, 1)
}

func TestCancelBooking_rejectsOtherTraveller(t *testing.T) {
	f := seedCancelFixture(t, false, 0)

	_, err := f.handler.Handle(context.Background(), CancelBookingCommand{BookingID: "b-1", RequesterID: "user-2"})
	assert.ErrorIs(t, err, domainbooking.ErrNotOwner)
}

func TestCancelBooking_pendingBookingCannotCancel(t *testing.T) {
	f := seedCancelFixture(t, false, 0)

	pending, err := f.bookings.ByID(context.Background(), "b-1")
	require.NoError(t, err)
	pending.Status = domainbooking.PaymentPending
	require.NoError(t, f.bookings.Save(context.Background(), pending))

	_, err = f.handler.Handle(context.Background(), cancelCmd())
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)

	_, err = f.wallets.ByUser(context.Background(), "user-1")
	assert.ErrorIs(t, err, domainwallet.ErrWalletNotFound)
}

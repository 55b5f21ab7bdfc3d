package checkout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staynest/internal/app/policies"
	domainbooking "staynest/internal/domain/booking"
	domainlistings "staynest/internal/domain/listings"
	"staynest/internal/domain/shared/money"
	domainuser "staynest/internal/domain/user"
	domainwallet "staynest/internal/domain/wallet"
	"staynest/internal/infra/storage/memory"
)

var fixedNow = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

type fakeGateway struct {
	orders    []money.Money
	verifyErr error
	orderErr  error
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount money.Money, receipt string) (policies.GatewayOrder, error) {
	if g.orderErr != nil {
		return policies.GatewayOrder{}, g.orderErr
	}
	g.orders = append(g.orders, amount)
	return policies.GatewayOrder{OrderID: "order-1", Amount: amount, Currency: amount.Currency}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, cb policies.Callback) error {
	return g.verifyErr
}

type checkoutFixture struct {
	factory  memory.Factory
	users    *memory.UserRepository
	wallets  *memory.WalletRepository
	bookings *memory.BookingRepository
	gateway  *fakeGateway
	outbox   *memory.Outbox
}

func newCheckoutFixture(t *testing.T, walletBalance int64, member bool) checkoutFixture {
	t.Helper()
	ctx := context.Background()

	users := memory.NewUserRepository()
	wallets := memory.NewWalletRepository()
	bookings := memory.NewBookingRepository()
	listings := memory.NewListingRepository()

	traveller, err := domainuser.NewUser(domainuser.CreateParams{ID: "user-1", CreatedAt: fixedNow})
	require.NoError(t, err)
	if member {
		require.NoError(t, traveller.ActivateMembership(fixedNow.AddDate(1, 0, 0), fixedNow))
	}
	require.NoError(t, users.Save(ctx, traveller))

	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:            "l-1",
		Owner:         "o-1",
		Title:         "Seaside Loft",
		City:          "Goa",
		PricePerNight: money.Units(2000),
		Rooms:         domainlistings.Rooms{Double: 3},
		CreatedAt:     fixedNow,
	})
	require.NoError(t, err)
	require.NoError(t, listings.Save(ctx, listing))

	if walletBalance > 0 {
		w := domainwallet.NewWallet("user-1", fixedNow)
		require.NoError(t, w.Credit("seed", money.Units(walletBalance), "seed", fixedNow))
		require.NoError(t, wallets.Save(ctx, w))
	}

	return checkoutFixture{
		factory: memory.Factory{
			UsersRepo:    users,
			WalletsRepo:  wallets,
			BookingsRepo: bookings,
			ListingsRepo: listings,
		},
		users:    users,
		wallets:  wallets,
		bookings: bookings,
		gateway:  &fakeGateway{},
		outbox:   memory.NewOutbox(),
	}
}

func (f checkoutFixture) placeHandler() *PlaceBookingHandler {
	seq := 0
	return &PlaceBookingHandler{
		UoWFactory: f.factory,
		Gateway:    f.gateway,
		Outbox:     f.outbox,
		Now:        func() time.Time { return fixedNow },
		IDGen: func() string {
			seq++
			return fmt.Sprintf("tx-%d", seq)
		},
	}
}

func placeCmd(walletAmount int64) PlaceBookingCommand {
	return PlaceBookingCommand{
		CommandID:             "b-1",
		ListingID:             "l-1",
		TravellerID:           "user-1",
		CheckIn:               time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:              time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC),
		Guests:                2,
		RequestedWalletAmount: walletAmount,
	}
}

func TestPlaceBooking_walletCoversEverything(t *testing.T) {
	f := newCheckoutFixture(t, 8000, false)
	h := f.placeHandler()

	result, err := h.Handle(context.Background(), placeCmd(6300))
	require.NoError(t, err)

	assert.Equal(t, string(domainbooking.PaymentConfirmed), result.Status)
	assert.Equal(t, int64(6300), result.WalletDeduction)
	assert.Equal(t, int64(0), result.AmountDue)
	assert.Empty(t, f.gateway.orders, "no gateway order for a fully covered booking")

	w, err := f.wallets.ByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1700), w.Balance.Amount)
	// Wallet-funded spend earns no reward points.
	assert.Equal(t, 0, w.Points)

	b, err := f.bookings.ByID(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.PaymentConfirmed, b.Status)
	assert.Equal(t, int64(1200), b.Commission.PlatformRevenue.Amount)
}

func TestPlaceBooking_partialWalletOpensGatewayOrder(t *testing.T) {
	f := newCheckoutFixture(t, 8000, false)
	h := f.placeHandler()

	result, err := h.Handle(context.Background(), placeCmd(2000))
	require.NoError(t, err)

	assert.Equal(t, string(domainbooking.PaymentPending), result.Status)
	assert.Equal(t, "order-1", result.GatewayOrderID)
	assert.Equal(t, int64(2000), result.WalletDeduction)
	assert.Equal(t, int64(4300), result.AmountDue)

	require.Len(t, f.gateway.orders, 1)
	assert.Equal(t, int64(4300), f.gateway.orders[0].Amount)

	// The wallet is untouched until the gateway settles.
	w, err := f.wallets.ByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(8000), w.Balance.Amount)
}

func TestPlaceBooking_clampsRequestedWalletAmount(t *testing.T) {
	f := newCheckoutFixture(t, 1500, false)
	h := f.placeHandler()

	result, err := h.Handle(context.Background(), placeCmd(999999))
	require.NoError(t, err)

	assert.Equal(t, int64(1500), result.WalletDeduction)
	assert.Equal(t, int64(4800), result.AmountDue)
}

func TestPlaceBooking_memberSkipsServiceFee(t *testing.T) {
	f := newCheckoutFixture(t, 8000, true)
	h := f.placeHandler()

	result, err := h.Handle(context.Background(), placeCmd(6000))
	require.NoError(t, err)

	assert.Equal(t, string(domainbooking.PaymentConfirmed), result.Status)
	assert.Equal(t, int64(6000), result.WalletDeduction)

	b, err := f.bookings.ByID(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.Commission.Commission.Amount)
	assert.Equal(t, int64(900), b.Commission.PlatformRevenue.Amount)
}

func TestPlaceBooking_gatewayFailureLeavesNothingBehind(t *testing.T) {
	f := newCheckoutFixture(t, 1000, false)
	f.gateway.orderErr = policies.ErrGatewayOrderFailed
	h := f.placeHandler()

	_, err := h.Handle(context.Background(), placeCmd(1000))
	assert.ErrorIs(t, err, policies.ErrGatewayOrderFailed)

	_, err = f.bookings.ByID(context.Background(), "b-1")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)

	w, err := f.wallets.ByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), w.Balance.Amount)
}

func TestClampWalletDeduction(t *testing.T) {
	gross := money.Units(6300)

	assert.Equal(t, int64(6300), ClampWalletDeduction(money.Units(9000), money.Units(8000), gross).Amount)
	assert.Equal(t, int64(2000), ClampWalletDeduction(money.Units(2000), money.Units(8000), gross).Amount)
	assert.Equal(t, int64(1500), ClampWalletDeduction(money.Units(2000), money.Units(1500), gross).Amount)
	assert.Equal(t, int64(0), ClampWalletDeduction(money.Units(0), money.Units(8000), gross).Amount)
	assert.Equal(t, int64(0), ClampWalletDeduction(money.Units(-5), money.Units(8000), gross).Amount)
}

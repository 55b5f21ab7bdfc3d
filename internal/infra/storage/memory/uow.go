package memory

import (
	"context"
	"errors"

	"staynest/internal/app/uow"
	domainbooking "staynest/internal/domain/booking"
	domainlistings "staynest/internal/domain/listings"
	domainuser "staynest/internal/domain/user"
	domainwallet "staynest/internal/domain/wallet"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	UsersRepo    domainuser.Repository
	WalletsRepo  domainwallet.Repository
	BookingsRepo domainbooking.Repository
	ListingsRepo domainlistings.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.UsersRepo == nil || f.WalletsRepo == nil || f.BookingsRepo == nil || f.ListingsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		users:    f.UsersRepo,
		wallets:  f.WalletsRepo,
		bookings: f.BookingsRepo,
		listings: f.ListingsRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	users    domainuser.Repository
	wallets  domainwallet.Repository
	bookings domainbooking.Repository
	listings domainlistings.Repository
}

func (u *Unit) Users() domainuser.Repository {
	return u.users
}

func (u *Unit) Wallets() domainwallet.Repository {
	return u.wallets
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Listings() domainlistings.Repository {
	return u.listings
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}

package uow

import (
	"context"

	domainbooking "staynest/internal/domain/booking"
	domainlistings "staynest/internal/domain/listings"
	domainuser "staynest/internal/domain/user"
	domainwallet "staynest/internal/domain/wallet"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
// Booking confirmation plus its frozen commission record, and
// cancellation-quota increment plus refund credit, each commit as one
// unit through this interface.
type UnitOfWork interface {
	Users() domainuser.Repository
	Wallets() domainwallet.Repository
	Bookings() domainbooking.Repository
	Listings() domainlistings.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}

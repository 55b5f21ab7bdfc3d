package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainbooking "staynest/internal/domain/booking"
	domainlistings "staynest/internal/domain/listings"
	domainuser "staynest/internal/domain/user"
	domainwallet "staynest/internal/domain/wallet"
)

// UserRepository keeps users in memory.
type UserRepository struct {
	mu    sync.RWMutex
	items map[domainuser.ID]domainuser.User
}

// NewUserRepository builds an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{items: make(map[domainuser.ID]domainuser.User)}
}

// ByID returns a copy of the stored user or user.ErrNotFound.
func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	copied := stored
	return &copied, nil
}

// Save stores the user state.
func (r *UserRepository) Save(ctx context.Context, user *domainuser.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.Version++
	r.items[user.ID] = *user
	return nil
}

// WalletRepository keeps per-user ledgers in memory.
type WalletRepository struct {
	mu    sync.RWMutex
	items map[string]*domainwallet.Wallet
}

// NewWalletRepository builds an empty repository.
func NewWalletRepository() *WalletRepository {
	return &WalletRepository{items: make(map[string]*domainwallet.Wallet)}
}

// ByUser returns a detached copy of the ledger or wallet.ErrWalletNotFound.
func (r *WalletRepository) ByUser(ctx context.Context, userID string) (*domainwallet.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.items[userID]
	if !ok {
		return nil, domainwallet.ErrWalletNotFound
	}
	copied := *stored
	copied.Transactions = append([]domainwallet.Transaction(nil), stored.Transactions...)
	copied.ClearEvents()
	return &copied, nil
}

// Save stores the ledger state.
func (r *WalletRepository) Save(ctx context.Context, w *domainwallet.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w.Version++
	stored := *w
	stored.Transactions = append([]domainwallet.Transaction(nil), w.Transactions...)
	stored.ClearEvents()
	r.items[w.UserID] = &stored
	return nil
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

// NewBookingRepository builds an empty booking repo.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

// ByID fetches a booking copy.
func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(stored), nil
}

// ByGatewayOrder locates the booking that opened a gateway order.
func (r *BookingRepository) ByGatewayOrder(ctx context.Context, orderID string) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if orderID == "" {
		return nil, domainbooking.ErrBookingNotFound
	}
	for _, b := range r.items {
		if b.GatewayOrderID == orderID {
			return cloneBooking(b), nil
		}
	}
	return nil, domainbooking.ErrBookingNotFound
}

func (r *BookingRepository) ListByTraveller(ctx context.Context, travellerID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.TravellerID == travellerID {
			matches = append(matches, cloneBooking(b))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *BookingRepository) ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.Status != domainbooking.PaymentConfirmed {
			continue
		}
		if !from.IsZero() && b.ConfirmedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !b.ConfirmedAt.Before(to) {
			continue
		}
		matches = append(matches, cloneBooking(b))
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ConfirmedAt.Before(matches[j].ConfirmedAt)
	})
	return matches, nil
}

func (r *BookingRepository) ListAwaitingBefore(ctx context.Context, createdBefore time.Time) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.AwaitingGateway() && b.CreatedAt.Before(createdBefore) {
			matches = append(matches, cloneBooking(b))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}

// Save stores the current booking state.
func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking.Version++
	r.items[booking.ID] = cloneBooking(booking)
	return nil
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	copied := *b
	copied.ClearEvents()
	return &copied
}

// ListingRepository is an in-memory implementation for tests and demos.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]domainlistings.Listing
}

// NewListingRepository builds an empty repository.
func NewListingRepository() *ListingRepository {
	return &ListingRepository{items: make(map[domainlistings.ListingID]domainlistings.Listing)}
}

// ByID returns a listing or listings.ErrListingNotFound.
func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrListingNotFound
	}
	copied := stored
	return &copied, nil
}

func (r *ListingRepository) ByOwner(ctx context.Context, owner domainlistings.OwnerID) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainlistings.Listing, 0)
	for _, l := range r.items {
		if l.Owner == owner {
			copied := l
			matches = append(matches, &copied)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

// Save stores/updates a listing entry.
func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[listing.ID] = *listing
	return nil
}

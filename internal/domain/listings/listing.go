package listings

import (
	"context"
	"errors"
	"time"

	"staynest/internal/domain/shared/money"
)

var (
	ErrListingNotFound = errors.New("listings: not found")
	ErrInvalidRate     = errors.New("listings: nightly rate must be positive")
	ErrRoomsMismatch   = errors.New("listings: total rooms must equal the sum of room types")
)

type ListingID string

type OwnerID string

// Rooms is the inventory by room type. The legacy flat total moved here;
// Total() is the single source for it.
type Rooms struct {
	Single int
	Double int
	Triple int
}

func (r Rooms) Total() int {
	return r.Single + r.Double + r.Triple
}

func (r Rooms) Validate(legacyTotal int) error {
	if r.Single < 0 || r.Double < 0 || r.Triple < 0 {
		return ErrRoomsMismatch
	}
	if legacyTotal != 0 && legacyTotal != r.Total() {
		return ErrRoomsMismatch
	}
	return nil
}

// Listing carries the pricing inputs the money engine reads. Inventory
// availability and overbooking are managed elsewhere.
type Listing struct {
	ID            ListingID
	Owner         OwnerID
	Title         string
	City          string
	PricePerNight money.Money
	Rooms         Rooms
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	ByOwner(ctx context.Context, owner OwnerID) ([]*Listing, error)
	Save(ctx context.Context, listing *Listing) error
}

type CreateParams struct {
	ID            ListingID
	Owner         OwnerID
	Title         string
	City          string
	PricePerNight money.Money
	Rooms         Rooms
	LegacyRooms   int
	CreatedAt     time.Time
}

func NewListing(params CreateParams) (*Listing, error) {
	if !params.PricePerNight.IsPositive() {
		return nil, ErrInvalidRate
	}
	if err := params.Rooms.Validate(params.LegacyRooms); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	return &Listing{
		ID:            params.ID,
		Owner:         params.Owner,
		Title:         params.Title,
		City:          params.City,
		PricePerNight: params.PricePerNight,
		Rooms:         params.Rooms,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "staynest/internal/domain/listings"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	col := db.Collection("agg_listing")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}},
	})
	return &ListingRepository{col: col}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainlistings.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) ByOwner(ctx context.Context, owner domainlistings.OwnerID) ([]*domainlistings.Listing, error) {
	cur, err := r.col.Find(ctx, bson.M{"owner_id": string(owner)})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainlistings.Listing
	for cur.Next(ctx) {
		var doc listingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

type listingDocument struct {
	ID            string        `bson:"_id"`
	OwnerID       string        `bson:"owner_id"`
	Title         string        `bson:"title"`
	City          string        `bson:"city"`
	PricePerNight moneyDocument `bson:"price_per_night"`
	RoomsSingle   int           `bson:"rooms_single"`
	RoomsDouble   int           `bson:"rooms_double"`
	RoomsTriple   int           `bson:"rooms_triple"`
	CreatedAt     int64         `bson:"created_at"`
	UpdatedAt     int64         `bson:"updated_at"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:            string(l.ID),
		OwnerID:       string(l.Owner),
		Title:         l.Title,
		City:          l.City,
		PricePerNight: toMoneyDoc(l.PricePerNight),
		RoomsSingle:   l.Rooms.Single,
		RoomsDouble:   l.Rooms.Double,
		RoomsTriple:   l.Rooms.Triple,
		CreatedAt:     timeToMillis(l.CreatedAt),
		UpdatedAt:     timeToMillis(l.UpdatedAt),
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:            domainlistings.ListingID(d.ID),
		Owner:         domainlistings.OwnerID(d.OwnerID),
		Title:         d.Title,
		City:          d.City,
		PricePerNight: d.PricePerNight.toMoney(),
		Rooms: domainlistings.Rooms{
			Single: d.RoomsSingle,
			Double: d.RoomsDouble,
			Triple: d.RoomsTriple,
		},
		CreatedAt: millisToTime(d.CreatedAt),
		UpdatedAt: millisToTime(d.UpdatedAt),
	}
}

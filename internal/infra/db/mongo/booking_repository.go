package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staynest/internal/domain/booking"
	"staynest/internal/domain/commission"
	"staynest/internal/domain/listings"
	domainpricing "staynest/internal/domain/pricing"
	domainrange "staynest/internal/domain/shared/daterange"
	"staynest/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "gateway_order_id", Value: 1}},
		Options: options.Index().SetSparse(true),
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "confirmed_at", Value: 1}},
	})
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) ByGatewayOrder(ctx context.Context, orderID string) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"gateway_order_id": orderID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) ListByTraveller(ctx context.Context, travellerID string) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, bson.M{"traveller_id": travellerID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return decodeBookings(ctx, cur)
}

func (r *BookingRepository) ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]*domainbooking.Booking, error) {
	filter := bson.M{"status": string(domainbooking.PaymentConfirmed)}
	rangeFilter := bson.M{}
	if !from.IsZero() {
		rangeFilter["$gte"] = from.UnixMilli()
	}
	if !to.IsZero() {
		rangeFilter["$lt"] = to.UnixMilli()
	}
	if len(rangeFilter) > 0 {
		filter["confirmed_at"] = rangeFilter
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return decodeBookings(ctx, cur)
}

func (r *BookingRepository) ListAwaitingBefore(ctx context.Context, createdBefore time.Time) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"status":           string(domainbooking.PaymentPending),
		"gateway_order_id": bson.M{"$ne": ""},
		"created_at":       bson.M{"$lt": createdBefore.UnixMilli()},
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return decodeBookings(ctx, cur)
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func decodeBookings(ctx context.Context, cur *mongo.Cursor) ([]*domainbooking.Booking, error) {
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func toMoneyDoc(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

type quoteDocument struct {
	Nights        int           `bson:"nights"`
	Nightly       moneyDocument `bson:"nightly"`
	Base          moneyDocument `bson:"base"`
	ExtraGuestFee moneyDocument `bson:"extra_guest_fee"`
	ServiceFee    moneyDocument `bson:"service_fee"`
	Gross         moneyDocument `bson:"gross"`
}

type commissionDocument struct {
	GrossRevenue    moneyDocument `bson:"gross_revenue"`
	Commission      moneyDocument `bson:"commission"`
	OwnerGrossShare moneyDocument `bson:"owner_gross_share"`
	OwnerCommission moneyDocument `bson:"owner_commission"`
	OwnerNet        moneyDocument `bson:"owner_net"`
	PlatformRevenue moneyDocument `bson:"platform_revenue"`
}

type bookingDocument struct {
	ID              string             `bson:"_id"`
	ListingID       string             `bson:"listing_id"`
	OwnerID         string             `bson:"owner_id"`
	TravellerID     string             `bson:"traveller_id"`
	CheckIn         int64              `bson:"check_in"`
	CheckOut        int64              `bson:"check_out"`
	Guests          int                `bson:"guests"`
	Quote           quoteDocument      `bson:"quote"`
	WalletDeduction moneyDocument      `bson:"wallet_deduction"`
	GatewayOrderID  string             `bson:"gateway_order_id"`
	Status          string             `bson:"status"`
	Commission      commissionDocument `bson:"commission"`
	ConfirmedAt     int64              `bson:"confirmed_at"`
	CreatedAt       int64              `bson:"created_at"`
	UpdatedAt       int64              `bson:"updated_at"`
	Version         int64              `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:          string(b.ID),
		ListingID:   string(b.ListingID),
		OwnerID:     string(b.OwnerID),
		TravellerID: b.TravellerID,
		CheckIn:     b.Range.CheckIn.UnixMilli(),
		CheckOut:    b.Range.CheckOut.UnixMilli(),
		Guests:      b.Guests,
		Quote: quoteDocument{
			Nights:        b.Quote.Nights,
			Nightly:       toMoneyDoc(b.Quote.Nightly),
			Base:          toMoneyDoc(b.Quote.Base),
			ExtraGuestFee: toMoneyDoc(b.Quote.ExtraGuestFee),
			ServiceFee:    toMoneyDoc(b.Quote.ServiceFee),
			Gross:         toMoneyDoc(b.Quote.Gross),
		},
		WalletDeduction: toMoneyDoc(b.WalletDeduction),
		GatewayOrderID:  b.GatewayOrderID,
		Status:          string(b.Status),
		Commission: commissionDocument{
			GrossRevenue:    toMoneyDoc(b.Commission.GrossRevenue),
			Commission:      toMoneyDoc(b.Commission.Commission),
			OwnerGrossShare: toMoneyDoc(b.Commission.OwnerGrossShare),
			OwnerCommission: toMoneyDoc(b.Commission.OwnerCommission),
			OwnerNet:        toMoneyDoc(b.Commission.OwnerNet),
			PlatformRevenue: toMoneyDoc(b.Commission.PlatformRevenue),
		},
		ConfirmedAt: timeToMillis(b.ConfirmedAt),
		CreatedAt:   b.CreatedAt.UnixMilli(),
		UpdatedAt:   b.UpdatedAt.UnixMilli(),
		Version:     b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:          domainbooking.BookingID(d.ID),
		ListingID:   listings.ListingID(d.ListingID),
		OwnerID:     listings.OwnerID(d.OwnerID),
		TravellerID: d.TravellerID,
		Range:       domainrange.DateRange{CheckIn: millisToTime(d.CheckIn), CheckOut: millisToTime(d.CheckOut)},
		Guests:      d.Guests,
		Quote: domainpricing.Quote{
			Nights:        d.Quote.Nights,
			Nightly:       d.Quote.Nightly.toMoney(),
			Base:          d.Quote.Base.toMoney(),
			ExtraGuestFee: d.Quote.ExtraGuestFee.toMoney(),
			ServiceFee:    d.Quote.ServiceFee.toMoney(),
			Gross:         d.Quote.Gross.toMoney(),
		},
		WalletDeduction: d.WalletDeduction.toMoney(),
		GatewayOrderID:  d.GatewayOrderID,
		Status:          domainbooking.PaymentStatus(d.Status),
		Commission: commission.Record{
			GrossRevenue:    d.Commission.GrossRevenue.toMoney(),
			Commission:      d.Commission.Commission.toMoney(),
			OwnerGrossShare: d.Commission.OwnerGrossShare.toMoney(),
			OwnerCommission: d.Commission.OwnerCommission.toMoney(),
			OwnerNet:        d.Commission.OwnerNet.toMoney(),
			PlatformRevenue: d.Commission.PlatformRevenue.toMoney(),
		},
		ConfirmedAt: millisToTime(d.ConfirmedAt),
		CreatedAt:   millisToTime(d.CreatedAt),
		UpdatedAt:   millisToTime(d.UpdatedAt),
		Version:     d.Version,
	}
}

func timeToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainuser "staynest/internal/domain/user"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection("agg_user")}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *UserRepository) Save(ctx context.Context, u *domainuser.User) error {
	doc := newUserDocument(u)
	filter := bson.M{"_id": doc.ID, "version": u.Version}
	doc.Version = u.Version + 1
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	u.Version = doc.Version
	return nil
}

type userDocument struct {
	ID                    string `bson:"_id"`
	Email                 string `bson:"email"`
	Name                  string `bson:"name"`
	Role                  string `bson:"role"`
	IsMember              bool   `bson:"is_member"`
	MembershipExpiresAt   int64  `bson:"membership_expires_at"`
	FreeCancellationsUsed int    `bson:"free_cancellations_used"`
	QuotaMonth            string `bson:"quota_month"`
	CreatedAt             int64  `bson:"created_at"`
	UpdatedAt             int64  `bson:"updated_at"`
	Version               int64  `bson:"version"`
}

func newUserDocument(u *domainuser.User) userDocument {
	return userDocument{
		ID:                    string(u.ID),
		Email:                 u.Email,
		Name:                  u.Name,
		Role:                  string(u.Role),
		IsMember:              u.IsMember,
		MembershipExpiresAt:   timeToMillis(u.MembershipExpiresAt),
		FreeCancellationsUsed: u.FreeCancellationsUsed,
		QuotaMonth:            u.QuotaMonth,
		CreatedAt:             timeToMillis(u.CreatedAt),
		UpdatedAt:             timeToMillis(u.UpdatedAt),
		Version:               u.Version,
	}
}

func (d userDocument) toAggregate() *domainuser.User {
	return &domainuser.User{
		ID:                    domainuser.ID(d.ID),
		Email:                 d.Email,
		Name:                  d.Name,
		Role:                  domainuser.Role(d.Role),
		IsMember:              d.IsMember,
		MembershipExpiresAt:   millisToTime(d.MembershipExpiresAt),
		FreeCancellationsUsed: d.FreeCancellationsUsed,
		QuotaMonth:            d.QuotaMonth,
		CreatedAt:             millisToTime(d.CreatedAt),
		UpdatedAt:             millisToTime(d.UpdatedAt),
		Version:               d.Version,
	}
}

package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainwallet "staynest/internal/domain/wallet"
)

type WalletRepository struct {
	col *mongo.Collection
}

func NewWalletRepository(db *mongo.Database) *WalletRepository {
	return &WalletRepository{col: db.Collection("agg_wallet")}
}

func (r *WalletRepository) ByUser(ctx context.Context, userID string) (*domainwallet.Wallet, error) {
	var doc walletDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainwallet.ErrWalletNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *WalletRepository) Save(ctx context.Context, w *domainwallet.Wallet) error {
	doc := newWalletDocument(w)
	filter := bson.M{"_id": doc.UserID, "version": w.Version}
	doc.Version = w.Version + 1
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
	w.Version = doc.Version
	return nil
}

type walletTxDocument struct {
	ID          string        `bson:"_id"`
	Type        string        `bson:"type"`
	Amount      moneyDocument `bson:"amount"`
	Points      int           `bson:"points"`
	Description string        `bson:"description"`
	CreatedAt   int64         `bson:"created_at"`
}

type walletDocument struct {
	UserID       string             `bson:"_id"`
	Balance      moneyDocument      `bson:"balance"`
	Points       int                `bson:"points"`
	Transactions []walletTxDocument `bson:"transactions"`
	UpdatedAt    int64              `bson:"updated_at"`
	Version      int64              `bson:"version"`
}

func newWalletDocument(w *domainwallet.Wallet) walletDocument {
	txs := make([]walletTxDocument, 0, len(w.Transactions))
	for _, tx := range w.Transactions {
		txs = append(txs, walletTxDocument{
			ID:          tx.ID,
			Type:        string(tx.Type),
			Amount:      toMoneyDoc(tx.Amount),
			Points:      tx.Points,
			Description: tx.Description,
			CreatedAt:   tx.CreatedAt.UnixMilli(),
		})
	}
	return walletDocument{
		UserID:       w.UserID,
		Balance:      toMoneyDoc(w.Balance),
		Points:       w.Points,
		Transactions: txs,
		UpdatedAt:    timeToMillis(w.UpdatedAt),
		Version:      w.Version,
	}
}

func (d walletDocument) toAggregate() *domainwallet.Wallet {
	txs := make([]domainwallet.Transaction, 0, len(d.Transactions))
	for _, tx := range d.Transactions {
		txs = append(txs, domainwallet.Transaction{
			ID:          tx.ID,
			Type:        domainwallet.TransactionType(tx.Type),
			Amount:      tx.Amount.toMoney(),
			Points:      tx.Points,
			Description: tx.Description,
			CreatedAt:   millisToTime(tx.CreatedAt),
		})
	}
	return &domainwallet.Wallet{
		UserID:       d.UserID,
		Balance:      d.Balance.toMoney(),
		Points:       d.Points,
		Transactions: txs,
		UpdatedAt:    millisToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}

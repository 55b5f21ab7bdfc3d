package wallet

import (
	"context"
	"errors"
	"time"

	"staynest/internal/domain/shared/events"
	"staynest/internal/domain/shared/money"
)

var (
	ErrInsufficientBalance = errors.New("wallet: insufficient balance")
	ErrInvalidAmount       = errors.New("wallet: amount must be positive")
	ErrInvalidRedemption   = errors.New("wallet: redemption below minimum or above point balance")
	ErrWalletNotFound      = errors.New("wallet: not found")
)

const (
	// MinRedeemPoints is the smallest redeemable point amount.
	MinRedeemPoints = 20
	// PointsPerRedeemedUnit converts points to wallet credit: 20 points = 1 unit.
	PointsPerRedeemedUnit = 20
	// EarnPointsStep grants EarnPointsGrant points per full step of cash spend.
	EarnPointsStep  = 100
	EarnPointsGrant = 10
)

type TransactionType string

const (
	TypeEarn   TransactionType = "earn"
	TypeRedeem TransactionType = "redeem"
	TypeDebit  TransactionType = "debit"
	TypeCredit TransactionType = "credit"
)

// Transaction is one append-only ledger entry. Amount is signed: debits
// and redeems are negative, credits positive, point-only entries zero.
type Transaction struct {
	ID          string
	Type        TransactionType
	Amount      money.Money
	Points      int
	Description string
	CreatedAt   time.Time
}

// Wallet is the per-user ledger aggregate. Balance and Points are caches;
// the transaction log is the source of truth and the balance is always
// recomputable by replay.
type Wallet struct {
	UserID       string
	Balance      money.Money
	Points       int
	Transactions []Transaction
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

type Repository interface {
	ByUser(ctx context.Context, userID string) (*Wallet, error)
	Save(ctx context.Context, w *Wallet) error
}

// NewWallet opens an empty ledger for a user.
func NewWallet(userID string, now time.Time) *Wallet {
	return &Wallet{
		UserID:    userID,
		Balance:   money.Units(0),
		UpdatedAt: now.UTC(),
	}
}

// Credit adds spendable funds, recording exactly one transaction.
func (w *Wallet) Credit(txID string, amount money.Money, reason string, now time.Time) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	balance, err := w.Balance.Add(amount)
	if err != nil {
		return err
	}
	w.Balance = balance
	w.append(Transaction{ID: txID, Type: TypeCredit, Amount: amount, Description: reason, CreatedAt: now.UTC()})
	w.Record(WalletCredited{UserID: w.UserID, Amount: amount, Reason: reason, At: now.UTC()})
	return nil
}

// Debit removes spendable funds, failing without side effect when the
// balance cannot cover the amount.
func (w *Wallet) Debit(txID string, amount money.Money, reason string, now time.Time) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.Amount > w.Balance.Amount {
		return ErrInsufficientBalance
	}
	balance, err := w.Balance.Sub(amount)
	if err != nil {
		return err
	}
	w.Balance = balance
	w.append(Transaction{ID: txID, Type: TypeDebit, Amount: amount.Neg(), Description: reason, CreatedAt: now.UTC()})
	w.Record(WalletDebited{UserID: w.UserID, Amount: amount, Reason: reason, At: now.UTC()})
	return nil
}

// EarnPoints grants floor(spent/100)*10 points for a cash spend. A zero
// grant records nothing.
func (w *Wallet) EarnPoints(txID string, cashSpent money.Money, reason string, now time.Time) int {
	granted := PointsForSpend(cashSpent)
	if granted <= 0 {
		return 0
	}
	w.Points += granted
	w.append(Transaction{
		ID:          txID,
		Type:        TypeEarn,
		Amount:      money.Money{Amount: 0, Currency: w.Balance.Currency},
		Points:      granted,
		Description: reason,
		CreatedAt:   now.UTC(),
	})
	w.Record(PointsEarned{UserID: w.UserID, Points: granted, At: now.UTC()})
	return granted
}

// RedeemPoints converts points into wallet credit at 20 points = 1 unit,
// emitting a redeem entry for the points and a credit entry for the funds.
func (w *Wallet) RedeemPoints(redeemTxID, creditTxID string, points int, now time.Time) (money.Money, error) {
	if points < MinRedeemPoints || points > w.Points {
		return money.Money{}, ErrInvalidRedemption
	}
	credit := money.Units(int64(points / PointsPerRedeemedUnit))
	w.Points -= points
	w.append(Transaction{
		ID:          redeemTxID,
		Type:        TypeRedeem,
		Amount:      money.Money{Amount: 0, Currency: w.Balance.Currency},
		Points:      -points,
		Description: "reward points redemption",
		CreatedAt:   now.UTC(),
	})
	if err := w.Credit(creditTxID, credit, "reward points redemption", now); err != nil {
		return money.Money{}, err
	}
	w.Record(PointsRedeemed{UserID: w.UserID, Points: points, Credited: credit, At: now.UTC()})
	return credit, nil
}

// ReplayBalance recomputes the cache from the log. Used by invariants
// checks and repository reads.
func (w *Wallet) ReplayBalance() money.Money {
	total := money.Money{Amount: 0, Currency: w.Balance.Currency}
	for _, tx := range w.Transactions {
		total.Amount += tx.Amount.Amount
	}
	return total
}

// PointsForSpend computes the earn grant for a cash spend without mutating
// any wallet.
func PointsForSpend(cashSpent money.Money) int {
	if cashSpent.Amount <= 0 {
		return 0
	}
	return int(cashSpent.Amount/EarnPointsStep) * EarnPointsGrant
}

func (w *Wallet) append(tx Transaction) {
	w.Transactions = append(w.Transactions, tx)
	w.UpdatedAt = tx.CreatedAt
}

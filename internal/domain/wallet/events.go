package wallet

import (
	"time"

	"staynest/internal/domain/shared/money"
)

type WalletCredited struct {
	UserID string
	Amount money.Money
	Reason string
	At     time.Time
}

func (e WalletCredited) EventName() string     { return "wallet.credited" }
func (e WalletCredited) AggregateID() string   { return e.UserID }
func (e WalletCredited) OccurredAt() time.Time { return e.At }

type WalletDebited struct {
	UserID string
	Amount money.Money
	Reason string
	At     time.Time
}

func (e WalletDebited) EventName() string     { return "wallet.debited" }
func (e WalletDebited) AggregateID() string   { return e.UserID }
func (e WalletDebited) OccurredAt() time.Time { return e.At }

type PointsEarned struct {
	UserID string
	Points int
	At     time.Time
}

func (e PointsEarned) EventName() string     { return "wallet.points_earned" }
func (e PointsEarned) AggregateID() string   { return e.UserID }
func (e PointsEarned) OccurredAt() time.Time { return e.At }

type PointsRedeemed struct {
	UserID   string
	Points   int
	Credited money.Money
	At       time.Time
}

func (e PointsRedeemed) EventName() string     { return "wallet.points_redeemed" }
func (e PointsRedeemed) AggregateID() string   { return e.UserID }
func (e PointsRedeemed) OccurredAt() time.Time { return e.At }

package cancellation

import (
	"time"

	"staynest/internal/domain/shared/money"
)

// Outcome prices one cancellation request. QuotaConsumed marks whether a
// monthly free-cancellation slot was burned.
type Outcome struct {
	Fee           money.Money
	Refund        money.Money
	QuotaConsumed bool
}

// FeePolicy prices a fee-bearing cancellation. Pluggable because the
// exact schedule is policy, not engine.
type FeePolicy interface {
	Fee(gross money.Money, cancelAt, checkIn time.Time) money.Money
}

// FlatPercentPolicy charges a fixed percentage of the gross amount
// regardless of how far out the cancellation happens.
type FlatPercentPolicy struct {
	Percent int64
}

func (p FlatPercentPolicy) Fee(gross money.Money, _, _ time.Time) money.Money {
	return gross.Percent(p.Percent)
}

// DefaultPolicy is the platform default: flat 20% of gross.
var DefaultPolicy FeePolicy = FlatPercentPolicy{Percent: 20}

// QuotaChecker is the slice of the user aggregate the engine needs.
type QuotaChecker interface {
	MembershipActive(now time.Time) bool
	ConsumeFreeCancellation(now time.Time) bool
}

// Engine decides free-versus-fee for a cancellation. The caller persists
// the quota consumption and refund atomically with the booking change.
type Engine struct {
	Policy FeePolicy
}

func NewEngine(policy FeePolicy) Engine {
	if policy == nil {
		policy = DefaultPolicy
	}
	return Engine{Policy: policy}
}

// Decide prices the cancellation. Active members with remaining monthly
// quota cancel free and consume one slot; everyone else pays the policy
// fee and the quota stays untouched.
func (e Engine) Decide(requester QuotaChecker, gross money.Money, cancelAt, checkIn time.Time) Outcome {
	if requester != nil && requester.MembershipActive(cancelAt) && requester.ConsumeFreeCancellation(cancelAt) {
		return Outcome{
			Fee:           money.Money{Amount: 0, Currency: gross.Currency},
			Refund:        gross,
			QuotaConsumed: true,
		}
	}
	fee := e.policy().Fee(gross, cancelAt, checkIn)
	refund, err := gross.Sub(fee)
	if err != nil || refund.Amount < 0 {
		refund = money.Money{Amount: 0, Currency: gross.Currency}
	}
	return Outcome{Fee: fee, Refund: refund}
}

func (e Engine) policy() FeePolicy {
	if e.Policy == nil {
		return DefaultPolicy
	}
	return e.Policy
}

package commission

import (
	"errors"

	"staynest/internal/domain/shared/money"
)

var ErrInvalidSplit = errors.New("commission: service fee cannot exceed gross amount")

// OwnerCommissionPercent is the platform's cut of the owner's gross share.
const OwnerCommissionPercent = 15

// Record is the per-booking revenue split, frozen at confirmation time and
// never recomputed so historical analytics stay stable across policy
// changes.
type Record struct {
	GrossRevenue    money.Money
	Commission      money.Money
	OwnerGrossShare money.Money
	OwnerCommission money.Money
	OwnerNet        money.Money
	PlatformRevenue money.Money
}

// Split partitions a gross amount into platform and owner shares. This is
// the only place the split math lives; checkout display, booking
// confirmation and every analytics rollup call it rather than carrying
// their own copy.
func Split(gross, serviceFee money.Money) (Record, error) {
	if serviceFee.Amount < 0 || serviceFee.Amount > gross.Amount {
		return Record{}, ErrInvalidSplit
	}
	ownerShare, err := gross.Sub(serviceFee)
	if err != nil {
		return Record{}, err
	}
	if ownerShare.Amount < 0 {
		ownerShare = money.Money{Amount: 0, Currency: gross.Currency}
	}
	ownerCommission := ownerShare.Percent(OwnerCommissionPercent)
	ownerNet, err := ownerShare.Sub(ownerCommission)
	if err != nil {
		return Record{}, err
	}
	platform, err := serviceFee.Add(ownerCommission)
	if err != nil {
		return Record{}, err
	}
	return Record{
		GrossRevenue:    gross,
		Commission:      serviceFee,
		OwnerGrossShare: ownerShare,
		OwnerCommission: ownerCommission,
		OwnerNet:        ownerNet,
		PlatformRevenue: platform,
	}, nil
}

// SplitTotals applies the identical split to aggregated bucket totals.
// Because the split is linear in (gross, commission), the result equals
// the sum of per-booking records in the bucket.
func SplitTotals(grossTotal, commissionTotal money.Money) (Record, error) {
	return Split(grossTotal, commissionTotal)
}

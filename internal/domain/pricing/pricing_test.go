package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staynest/internal/domain/shared/daterange"
	"staynest/internal/domain/shared/money"
)

func stay(t *testing.T, nights int) daterange.DateRange {
	t.Helper()
	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	dr, err := daterange.New(checkIn, checkIn.AddDate(0, 0, nights))
	require.NoError(t, err)
	return dr
}

func TestCalculate_nonMemberThreeNights(t *testing.T) {
	quote, err := Calculate(Input{
		Nightly: money.Units(2000),
		Range:   stay(t, 3),
		Guests:  2,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, quote.Nights)
	assert.Equal(t, int64(6000), quote.Base.Amount)
	assert.Equal(t, int64(0), quote.ExtraGuestFee.Amount)
	assert.Equal(t, int64(300), quote.ServiceFee.Amount)
	assert.Equal(t, int64(6300), quote.Gross.Amount)
}

func TestCalculate_activeMemberWaivesServiceFee(t *testing.T) {
	quote, err := Calculate(Input{
		Nightly:      money.Units(2000),
		Range:        stay(t, 3),
		Guests:       2,
		MemberActive: true,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), quote.ServiceFee.Amount)
	assert.Equal(t, int64(6000), quote.Gross.Amount)
}

func TestCalculate_extraGuestSurcharge(t *testing.T) {
	// 2 guests above the included 2: 2 × 500 × 3 nights = 3000.
	quote, err := Calculate(Input{
		Nightly: money.Units(2000),
		Range:   stay(t, 3),
		Guests:  4,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3000), quote.ExtraGuestFee.Amount)
	assert.Equal(t, int64(9000), quote.Base.Amount)
	assert.Equal(t, int64(450), quote.ServiceFee.Amount)
	assert.Equal(t, int64(9450), quote.Gross.Amount)
}

func TestCalculate_serviceFeeRoundsHalfUp(t *testing.T) {
	// Base 1250 → 5% = 62.5, rounded to 63 exactly once.
	quote, err := Calculate(Input{
		Nightly: money.Units(1250),
		Range:   stay(t, 1),
		Guests:  1,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(63), quote.ServiceFee.Amount)
	assert.Equal(t, int64(1313), quote.Gross.Amount)
}

func TestCalculate_rejectsInvalidInput(t *testing.T) {
	valid := stay(t, 2)

	_, err := Calculate(Input{Nightly: money.Units(2000), Range: valid, Guests: 0})
	assert.ErrorIs(t, err, ErrInvalidGuests)

	_, err = Calculate(Input{Nightly: money.Units(0), Range: valid, Guests: 1})
	assert.ErrorIs(t, err, ErrInvalidRate)

	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	_, err = Calculate(Input{
		Nightly: money.Units(2000),
		Range:   daterange.DateRange{CheckIn: checkIn, CheckOut: checkIn},
		Guests:  1,
	})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

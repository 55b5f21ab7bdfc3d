package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_validatesCurrency(t *testing.T) {
	m, err := New(100, "inr")
	require.NoError(t, err)
	assert.Equal(t, "INR", m.Currency)

	_, err = New(100, "RUPEES")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestArithmetic_rejectsCurrencyMismatch(t *testing.T) {
	_, err := Units(100).Add(Must(50, "USD"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = Units(100).Sub(Must(50, "USD"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestPercent_roundsHalfUpOnce(t *testing.T) {
	assert.Equal(t, int64(300), Units(6000).Percent(5).Amount)
	assert.Equal(t, int64(63), Units(1250).Percent(5).Amount)  // 62.5 rounds up
	assert.Equal(t, int64(62), Units(1249).Percent(5).Amount)  // 62.45 rounds down
	assert.Equal(t, int64(900), Units(6000).Percent(15).Amount)
	assert.Equal(t, int64(0), Units(0).Percent(5).Amount)
	assert.Equal(t, int64(0), Units(-100).Percent(5).Amount)
}

func TestMinorUnitsBoundary(t *testing.T) {
	assert.Equal(t, int64(430000), Units(4300).ToMinorUnits())

	m := FromMinorUnits(430000, "inr")
	assert.Equal(t, int64(4300), m.Amount)
	assert.Equal(t, "INR", m.Currency)
}

func TestMin(t *testing.T) {
	assert.Equal(t, int64(5), Min(Units(5), Units(9)).Amount)
	assert.Equal(t, int64(5), Min(Units(9), Units(5)).Amount)
}

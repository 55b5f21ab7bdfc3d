package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
}

func TestNew_rejectsInvertedRange(t *testing.T) {
	_, err := New(day(12), day(10))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(day(10), day(10))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(time.Time{}, day(10))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestNights(t *testing.T) {
	dr, err := New(day(10), day(13))
	require.NoError(t, err)
	assert.Equal(t, 3, dr.Nights())
}

func TestContainsDate_halfOpen(t *testing.T) {
	dr, err := New(day(10), day(13))
	require.NoError(t, err)

	assert.True(t, dr.ContainsDate(day(10)))
	assert.True(t, dr.ContainsDate(day(12)))
	assert.False(t, dr.ContainsDate(day(13)))
	assert.False(t, dr.ContainsDate(day(9)))
}

func TestOverlaps(t *testing.T) {
	a, _ := New(day(10), day(13))
	b, _ := New(day(12), day(15))
	c, _ := New(day(13), day(15))

	assert.True(t, a.Overlaps(b))
	assert.True(t, b.Overlaps(a))
	// Back-to-back stays share a boundary day but not a night.
	assert.False(t, a.Overlaps(c))
}

func TestDaysUntil_roundsUp(t *testing.T) {
	now := time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, DaysUntil(now, day(11)))
	assert.Equal(t, 3, DaysUntil(now, day(13)))
	assert.Equal(t, 2, DaysUntil(day(10), day(12)))
	assert.Equal(t, 0, DaysUntil(now, day(10)))
}

package cancellation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staynest/internal/domain/shared/money"
	domainuser "staynest/internal/domain/user"
)

func activeMember(t *testing.T, now time.Time) *domainuser.User {
	t.Helper()
	u, err := domainuser.NewUser(domainuser.CreateParams{ID: "user-1", CreatedAt: now})
	require.NoError(t, err)
	require.NoError(t, u.ActivateMembership(now.AddDate(1, 0, 0), now))
	return u
}

func TestDecide_memberWithQuotaCancelsFree(t *testing.T) {
	now := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	checkIn := now.AddDate(0, 0, 5)
	u := activeMember(t, now)
	engine := NewEngine(nil)

	outcome := engine.Decide(u, money.Units(6300), now, checkIn)

	assert.True(t, outcome.QuotaConsumed)
	assert.Equal(t, int64(0), outcome.Fee.Amount)
	assert.Equal(t, int64(6300), outcome.Refund.Amount)
	assert.Equal(t, 1, u.FreeCancellationsUsed)
}

func TestDecide_exhaustedQuotaFallsToFee(t *testing.T) {
	now := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	checkIn := now.AddDate(0, 0, 5)
	u := activeMember(t, now)
	require.True(t, u.ConsumeFreeCancellation(now))
	require.True(t, u.ConsumeFreeCancellation(now))
	engine := NewEngine(nil)

	outcome := engine.Decide(u, money.Units(6300), now, checkIn)

	assert.False(t, outcome.QuotaConsumed)
	assert.Equal(t, int64(1260), outcome.Fee.Amount)
	assert.Equal(t, int64(5040), outcome.Refund.Amount)
	assert.Equal(t, 2, u.FreeCancellationsUsed)
}

func TestDecide_nonMemberAlwaysPaysFee(t *testing.T) {
	now := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	u, err := domainuser.NewUser(domainuser.CreateParams{ID: "user-2", CreatedAt: now})
	require.NoError(t, err)
	engine := NewEngine(nil)

	outcome := engine.Decide(u, money.Units(6300), now, now.AddDate(0, 0, 5))

	assert.False(t, outcome.QuotaConsumed)
	assert.Equal(t, int64(1260), outcome.Fee.Amount)
	assert.Equal(t, int64(5040), outcome.Refund.Amount)
}

func TestDecide_expiredMembershipPaysFee(t *testing.T) {
	now := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	u := activeMember(t, now)
	u.MembershipExpiresAt = now.AddDate(0, 0, -1)
	engine := NewEngine(nil)

	outcome := engine.Decide(u, money.Units(6300), now, now.AddDate(0, 0, 5))

	assert.False(t, outcome.QuotaConsumed)
	assert.Equal(t, int64(1260), outcome.Fee.Amount)
}

func TestDecide_customPolicy(t *testing.T) {
	now := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	engine := NewEngine(FlatPercentPolicy{Percent: 50})

	outcome := engine.Decide(nil, money.Units(1000), now, now.AddDate(0, 0, 5))

	assert.Equal(t, int64(500), outcome.Fee.Amount)
	assert.Equal(t, int64(500), outcome.Refund.Amount)
}

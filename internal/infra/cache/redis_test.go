package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staynest/internal/app/policies"
)

func TestLocalLocks(t *testing.T) {
	locks := NewLocalLocks()
	ctx := context.Background()

	release, err := locks.Acquire(ctx, "user-1", time.Second)
	require.NoError(t, err)

	_, err = locks.Acquire(ctx, "user-1", time.Second)
	assert.ErrorIs(t, err, policies.ErrWalletBusy)

	// Independent users never contend.
	otherRelease, err := locks.Acquire(ctx, "user-2", time.Second)
	require.NoError(t, err)
	otherRelease()

	release()
	// Released leases can be reacquired; double release is safe.
	release()
	again, err := locks.Acquire(ctx, "user-1", time.Second)
	require.NoError(t, err)
	again()
}

func TestWalletLockKey(t *testing.T) {
	assert.Equal(t, "lock:wallet:user-1", walletLockKey("user-1"))
}

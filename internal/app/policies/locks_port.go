package policies

import (
	"context"
	"errors"
	"time"
)

var ErrWalletBusy = errors.New("locks: wallet is locked by another operation")

// UserLocks serializes wallet mutations per user so two concurrent
// checkouts cannot double-spend the same balance. Implementations hold a
// lease for at most ttl in case the holder dies.
type UserLocks interface {
	Acquire(ctx context.Context, userID string, ttl time.Duration) (release func(), err error)
}

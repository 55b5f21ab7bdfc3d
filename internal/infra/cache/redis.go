package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"staynest/internal/app/policies"
)

// WalletLocks serializes wallet mutations per user with Redis SET NX
// leases. The lease token guards release so an expired holder cannot
// delete a lock a newer holder owns.
type WalletLocks struct {
	client *redis.Client
}

func NewWalletLocks(client *redis.Client) *WalletLocks {
	return &WalletLocks{client: client}
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *WalletLocks) Acquire(ctx context.Context, userID string, ttl time.Duration) (func(), error) {
	key := walletLockKey(userID)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, policies.ErrWalletBusy
	}
	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}
	return release, nil
}

func walletLockKey(userID string) string {
	return fmt.Sprintf("lock:wallet:%s", userID)
}

// LocalLocks is an in-process UserLocks for tests and single-node runs.
type LocalLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocks() *LocalLocks {
	return &LocalLocks{held: make(map[string]struct{})}
}

func (l *LocalLocks) Acquire(ctx context.Context, userID string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[userID]; busy {
		return nil, policies.ErrWalletBusy
	}
	l.held[userID] = struct{}{}
	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, userID)
			l.mu.Unlock()
		})
	}
	return release, nil
}

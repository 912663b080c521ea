package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes the conflict-check + commit sequence per
// professional. Between the check and the write another booking for the
// same professional could otherwise slip in.
type Locker interface {
	Lock(ctx context.Context, professionalID uint) (release func(), err error)
}

// RedisLocker implements Locker with SET NX so multiple instances of the
// service can share one agenda safely.
type RedisLocker struct {
	Client  *redis.Client
	TTL     time.Duration
	Timeout time.Duration
}

func NewRedisLocker(client *redis.Client, timeout time.Duration) *RedisLocker {
	return &RedisLocker{Client: client, TTL: 10 * time.Second, Timeout: timeout}
}

func (l *RedisLocker) Lock(ctx context.Context, professionalID uint) (func(), error) {
	key := fmt.Sprintf("booking:lock:professional:%d", professionalID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.Timeout)

	for {
		ok, err := l.Client.SetNX(ctx, key, token, l.TTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}

	release := func() {
		// Only delete the lock if it is still ours; an expired lock may
		// have been reacquired by another instance.
		script := redis.NewScript(`
			if redis.call("GET", KEYS[1]) == ARGV[1] then
				return redis.call("DEL", KEYS[1])
			end
			return 0
		`)
		script.Run(context.Background(), l.Client, []string{key}, token)
	}
	return release, nil
}

// LocalLocker is the single-process fallback used when no Redis address
// is configured, and by the test suite.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[uint]*sync.Mutex)}
}

func (l *LocalLocker) Lock(ctx context.Context, professionalID uint) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[professionalID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[professionalID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

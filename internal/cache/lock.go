package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another process holds the lock.
var ErrLockHeld = errors.New("lock held")

const lockRetry = 100 * time.Millisecond

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a SET NX lock shared by every process using the same Redis.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func lockKey(name string) string {
	return "gridiron:lock:" + name
}

// TryLock takes the lock once and returns ErrLockHeld if it is taken.
func (l *RedisLocker) TryLock(ctx context.Context, name string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey(name), token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{lockKey(name)}, token).Err()
	}, nil
}

// Lock waits for the lock until ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, name string) (func(), error) {
	for {
		unlock, err := l.TryLock(ctx, name)
		if !errors.Is(err, ErrLockHeld) {
			return unlock, err
		}
		select {
		case <-ctx.Done():
			return nil, ErrLockHeld
		case <-time.After(lockRetry):
		}
	}
}

// LocalLocker is an in-process lock per name, used when Redis is not
// configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]chan struct{}{}}
}

// Lock blocks until no other caller holds name or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, name string) (func(), error) {
	for {
		l.mu.Lock()
		wait, busy := l.held[name]
		if !busy {
			done := make(chan struct{})
			l.held[name] = done
			l.mu.Unlock()
			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, name)
					l.mu.Unlock()
					close(done)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ErrLockHeld
		case <-wait:
		}
	}
}

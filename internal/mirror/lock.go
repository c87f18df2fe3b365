package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker guards the Applying phase across processes. The in-process guard is
// always on; a Locker extends it to other instances sharing the same bucket.
type Locker interface {
	// TryLock acquires the lock without waiting. It returns ErrLockHeld when
	// another holder has it.
	TryLock(ctx context.Context) (unlock func(), err error)
}

type noopLocker struct{}

func (noopLocker) TryLock(context.Context) (func(), error) { return func() {}, nil }

// FileLocker uses an advisory file lock, for instances on the same host.
type FileLocker struct {
	flock *flock.Flock
}

func NewFileLocker(path string) (*FileLocker, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	return &FileLocker{flock: flock.New(path)}, nil
}

func (l *FileLocker) TryLock(context.Context) (func(), error) {
	locked, err := l.flock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("file lock %s: %w", l.flock.Path(), err)
	}
	if !locked {
		return nil, ErrLockHeld
	}
	return func() {
		if err := l.flock.Unlock(); err != nil {
			slog.Warn("file lock release", "path", l.flock.Path(), "error", err)
		}
	}, nil
}

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker uses a SET NX key with a TTL, for instances on different hosts.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, key string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisLocker{client: client, key: key, ttl: ttl}
}

func (l *RedisLocker) TryLock(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func() {
		// the run context may already be cancelled; release on a fresh one
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			slog.Warn("redis lock release", "key", l.key, "error", err)
		}
	}, nil
}

var (
	_ Locker = noopLocker{}
	_ Locker = (*FileLocker)(nil)
	_ Locker = (*RedisLocker)(nil)
)

package mirror

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultConcurrency = 8
	DefaultLockKey     = "dropmirror:sync"
)

type Config struct {
	Concurrency int           `mapstructure:"concurrency"`
	Interval    time.Duration `mapstructure:"interval"`
	Protected   []string      `mapstructure:"protected"`
	Ignore      []string      `mapstructure:"ignore"`
	Sitemap     bool          `mapstructure:"sitemap"`
	Lock        LockConfig    `mapstructure:"lock"`
}

type LockConfig struct {
	Backend  string        `mapstructure:"backend"` // none, file or redis
	Path     string        `mapstructure:"path"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("sync `concurrency` must not be negative")
	}
	if c.Interval < 0 {
		return fmt.Errorf("sync `interval` must not be negative")
	}
	return c.Lock.Validate()
}

func (c *LockConfig) Validate() error {
	switch strings.ToLower(c.Backend) {
	case "", "none":
	case "file":
		if c.Path == "" {
			return fmt.Errorf("sync lock `path` is required for the file backend")
		}
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("sync lock `redis_url` is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown sync lock backend %q", c.Backend)
	}
	return nil
}

func (c LockConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", c.Backend),
		slog.String("path", c.Path),
		slog.Bool("redis", c.RedisURL != ""),
		slog.Duration("ttl", c.TTL),
	)
}

func (c *Config) concurrency() int {
	if c == nil || c.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return c.Concurrency
}

func (c *Config) protectedNames() []string {
	if c == nil || c.Protected == nil {
		return DefaultProtected
	}
	return c.Protected
}

// NewLocker builds the cross-process lock described by the config.
func NewLocker(c *LockConfig) (Locker, error) {
	switch strings.ToLower(c.Backend) {
	case "", "none":
		return noopLocker{}, nil
	case "file":
		return NewFileLocker(c.Path)
	case "redis":
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return NewRedisLocker(redis.NewClient(opts), DefaultLockKey, c.TTL), nil
	default:
		return nil, fmt.Errorf("unknown sync lock backend %q", c.Backend)
	}
}

package server

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sunvalleybronze/dropmirror/internal/blob"
	"github.com/sunvalleybronze/dropmirror/internal/dropbox"
	"github.com/sunvalleybronze/dropmirror/internal/history"
	"github.com/sunvalleybronze/dropmirror/internal/mirror"
	"github.com/sunvalleybronze/dropmirror/internal/notify"
	"github.com/ulule/limiter/v3"
)

const (
	DefaultAddr     = "127.0.0.1:8080"
	DefaultSyncRate = "5-M"
)

type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	LogFile  string         `mapstructure:"log_file"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Dropbox  dropbox.Config `mapstructure:"dropbox"`
	Blob     blob.S3Config  `mapstructure:"blob"`
	Sync     mirror.Config  `mapstructure:"sync"`
	History  history.Config `mapstructure:"history"`
	Notify   notify.Config  `mapstructure:"notify"`
}

type HTTPConfig struct {
	Addr     string `mapstructure:"addr"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
	// SyncRate limits the sync endpoint per client, in limiter notation.
	SyncRate string `mapstructure:"sync_rate"`
}

func (c *HTTPConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("http `addr` is required")
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return fmt.Errorf("http `cert_file` and `key_file` must be set together")
	}
	if c.SyncRate != "" {
		if _, err := limiter.NewRateFromFormatted(c.SyncRate); err != nil {
			return fmt.Errorf("http `sync_rate`: %w", err)
		}
	}
	return nil
}

func (c *HTTPConfig) TLS() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

func (c *Config) Validate() error {
	return errors.Join(
		c.HTTP.Validate(),
		c.Dropbox.Validate(),
		c.Blob.Validate(),
		c.Sync.Validate(),
		c.History.Validate(),
		c.Notify.Validate(),
	)
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("logLevel", c.LogLevel),
		slog.String("addr", c.HTTP.Addr),
		slog.Bool("tls", c.HTTP.TLS()),
		slog.Any("dropbox", c.Dropbox),
		slog.Any("blob", c.Blob),
		slog.Int("concurrency", c.Sync.Concurrency),
		slog.Duration("interval", c.Sync.Interval),
		slog.Any("lock", c.Sync.Lock),
		slog.Bool("history", c.History.Enabled),
		slog.Any("notify", c.Notify),
	)
}

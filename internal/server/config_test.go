package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sunvalleybronze/dropmirror/internal/blob"
	"github.com/sunvalleybronze/dropmirror/internal/dropbox"
	"github.com/sunvalleybronze/dropmirror/internal/history"
	"github.com/sunvalleybronze/dropmirror/internal/mirror"
	"github.com/sunvalleybronze/dropmirror/internal/notify"
)

func validConfig() *Config {
	return &Config{
		LogLevel: "info",
		HTTP:     HTTPConfig{Addr: DefaultAddr, SyncRate: DefaultSyncRate},
		Dropbox:  dropbox.Config{Token: "sl.token"},
		Blob: blob.S3Config{
			BucketName: "catalog-mirror",
			Region:     "us-east-1",
			AccessKey:  "AKIA",
			SecretKey:  "secret",
		},
		Sync: mirror.Config{Concurrency: 4, Interval: time.Hour},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "no addr", mutate: func(c *Config) { c.HTTP.Addr = "" }, wantErr: "addr"},
		{name: "cert without key", mutate: func(c *Config) { c.HTTP.CertFile = "cert.pem" }, wantErr: "key_file"},
		{name: "bad sync rate", mutate: func(c *Config) { c.HTTP.SyncRate = "often" }, wantErr: "sync_rate"},
		{name: "no dropbox token", mutate: func(c *Config) { c.Dropbox.Token = "" }, wantErr: dropbox.ErrNoToken.Error()},
		{name: "no bucket", mutate: func(c *Config) { c.Blob.BucketName = "" }, wantErr: "bucket_name"},
		{name: "bad lock backend", mutate: func(c *Config) { c.Sync.Lock.Backend = "etcd" }, wantErr: "etcd"},
		{name: "history without path", mutate: func(c *Config) { c.History = history.Config{Enabled: true} }, wantErr: "history"},
		{name: "notify without key", mutate: func(c *Config) { c.Notify = notify.Config{Enabled: true} }, wantErr: notify.ErrKeyMissing.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestHTTPConfig_TLS(t *testing.T) {
	assert.False(t, (&HTTPConfig{}).TLS())
	assert.False(t, (&HTTPConfig{CertFile: "c.pem"}).TLS())
	assert.True(t, (&HTTPConfig{CertFile: "c.pem", KeyFile: "k.pem"}).TLS())
}

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sunvalleybronze/dropmirror/internal/blob"
	"github.com/sunvalleybronze/dropmirror/internal/dropbox"
	"github.com/sunvalleybronze/dropmirror/internal/mirror"
	"github.com/sunvalleybronze/dropmirror/internal/server"
	"github.com/sunvalleybronze/dropmirror/internal/version"
)

const (
	envPrefix      = "DROPMIRROR"
	configFileName = "dropmirror"
)

var home, _ = os.UserHomeDir()

// defaults lists every config key. Viper only maps env vars onto keys it
// knows about, so keys without a meaningful default are listed with a zero value.
var defaults = map[string]any{
	"log_level": "info",
	"log_file":  "",

	"http.addr":      server.DefaultAddr,
	"http.cert_file": "",
	"http.key_file":  "",
	"http.sync_rate": server.DefaultSyncRate,

	"dropbox.token":       "",
	"dropbox.api_url":     dropbox.DefaultAPIURL,
	"dropbox.content_url": dropbox.DefaultContentURL,
	"dropbox.page_limit":  dropbox.DefaultPageLimit,
	"dropbox.timeout":     dropbox.DefaultTimeout,
	"dropbox.max_retries": dropbox.DefaultMaxRetries,

	"blob.bucket_name":     "",
	"blob.region":          blob.DefaultRegion,
	"blob.access_key":      "",
	"blob.secret_key":      "",
	"blob.endpoint":        "",
	"blob.use_accelerate":  false,
	"blob.public_base_url": "",
	"blob.link_expiry":     blob.DefaultLinkExpiry,
	"blob.part_size":       blob.DefaultPartSize,

	"sync.concurrency":    mirror.DefaultConcurrency,
	"sync.interval":       0,
	"sync.protected":      mirror.DefaultProtected,
	"sync.ignore":         []string{},
	"sync.sitemap":        false,
	"sync.lock.backend":   "none",
	"sync.lock.path":      "",
	"sync.lock.redis_url": "",
	"sync.lock.ttl":       0,

	"history.enabled": false,
	"history.path":    "",
	"history.keep":    500,

	"notify.enabled":          false,
	"notify.sendgrid_api_key": "",
	"notify.from":             "",
	"notify.from_name":        version.AppName,
	"notify.to":               []string{},
}

// loadConfig merges defaults, the config file, DROPMIRROR_* env vars and
// flags, in increasing order of precedence. It does not validate.
func loadConfig(cmd *cobra.Command) (*server.Config, error) {
	v := viper.New()

	if f := cmd.Flag("config"); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
	} else {
		v.SetConfigName(configFileName)
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(home, ".config", "dropmirror"))
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config read '%s': %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if f := cmd.Flag("log-level"); f != nil {
		v.BindPFlag("log_level", f)
	}
	if f := cmd.Flag("bind"); f != nil {
		v.BindPFlag("http.addr", f)
	}

	var cfg server.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}

	if v.ConfigFileUsed() != "" {
		cfg.History.Path = resolveRelative(v.ConfigFileUsed(), cfg.History.Path)
		cfg.Sync.Lock.Path = resolveRelative(v.ConfigFileUsed(), cfg.Sync.Lock.Path)
	}

	return &cfg, nil
}

// resolveRelative makes a path from the config file relative to that file.
func resolveRelative(configFile, path string) string {
	if path == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "~") || path == ":memory:" {
		return path
	}
	return filepath.Join(filepath.Dir(configFile), path)
}

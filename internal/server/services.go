package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sunvalleybronze/dropmirror/internal/blob"
	"github.com/sunvalleybronze/dropmirror/internal/catalog"
	"github.com/sunvalleybronze/dropmirror/internal/dropbox"
	"github.com/sunvalleybronze/dropmirror/internal/history"
	"github.com/sunvalleybronze/dropmirror/internal/links"
	"github.com/sunvalleybronze/dropmirror/internal/mirror"
	"github.com/sunvalleybronze/dropmirror/internal/notify"
	"github.com/sunvalleybronze/dropmirror/internal/sitemap"
)

type Services struct {
	Dropbox  *dropbox.Client
	Blob     *blob.Store
	Catalog  *catalog.Service
	Links    *links.Service
	Sitemap  *sitemap.Updater
	History  *history.Store // nil when history is disabled
	Notifier *notify.Notifier
	Engine   *mirror.Engine
}

func NewServices(ctx context.Context, config *Config) (*Services, error) {
	dbx, err := dropbox.New(&config.Dropbox)
	if err != nil {
		return nil, fmt.Errorf("dropbox client: %w", err)
	}

	store, err := blob.NewStoreWithConfig(ctx, &config.Blob)
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}

	svc := &Services{
		Dropbox: dbx,
		Blob:    store,
		Catalog: catalog.NewService(dbx, store.PublicURL),
		Links:   links.NewService(store, config.Blob.LinkExpiry),
		Sitemap: sitemap.NewUpdater(store),
	}

	sinks := []mirror.ReportSink{svc.Links}
	if config.Sync.Sitemap {
		sinks = append(sinks, svc.Sitemap)
	}

	if config.History.Enabled {
		svc.History, err = history.Open(ctx, &config.History)
		if err != nil {
			return nil, fmt.Errorf("run history: %w", err)
		}
		sinks = append(sinks, svc.History)
	}

	if config.Notify.Enabled {
		svc.Notifier = notify.New(&config.Notify)
		sinks = append(sinks, svc.Notifier)
	}

	locker, err := mirror.NewLocker(&config.Sync.Lock)
	if err != nil {
		svc.Shutdown(ctx)
		return nil, fmt.Errorf("sync lock: %w", err)
	}

	svc.Engine = mirror.NewEngine(dbx, store, &config.Sync,
		mirror.WithLocker(locker),
		mirror.WithReportSinks(sinks...),
	)

	slog.Info("services ready", "history", svc.History != nil, "notify", svc.Notifier != nil, "sitemap", config.Sync.Sitemap)
	return svc, nil
}

func (s *Services) Shutdown(ctx context.Context) error {
	if s.History != nil {
		if err := s.History.Close(); err != nil {
			return fmt.Errorf("close run history: %w", err)
		}
	}
	return nil
}

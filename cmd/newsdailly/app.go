package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/newsdailly/newsdailly/config"
	"github.com/newsdailly/newsdailly/docstore"
	"github.com/newsdailly/newsdailly/images"
	"github.com/newsdailly/newsdailly/logger"
	"github.com/newsdailly/newsdailly/market"
	"github.com/newsdailly/newsdailly/metrics"
	"github.com/newsdailly/newsdailly/theme"
)

// app holds the shared dependencies of every command. Only the pieces a
// command asks for are opened.
type app struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *metrics.Metrics

	closers []func() error
}

func loadApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg := cfg.Log.Logger()
	if debug {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, metrics: metrics.New()}
	a.closers = append(a.closers, func() error {
		_ = log.Sync()
		return nil
	})
	return a, nil
}

// Close releases everything the app opened, in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("Failed to close resource", logger.Error(err))
		}
	}
}

// openStore opens the configured document store.
func (a *app) openStore() (docstore.Backend, error) {
	var (
		store docstore.Backend
		err   error
	)
	switch a.cfg.Store.Backend {
	case config.BackendSQLite:
		store, err = docstore.NewSQLStore(docstore.DriverSQLite, a.cfg.Store.DSN, a.cfg.Store.Collection)
	case config.BackendPostgres:
		store, err = docstore.NewSQLStore(docstore.DriverPostgres, a.cfg.Store.DSN, a.cfg.Store.Collection)
	case config.BackendElasticsearch:
		es := a.cfg.Elasticsearch
		client, clientErr := docstore.NewElasticClient(docstore.ElasticConfig{
			Addresses: []string{es.URL},
			Username:  es.Username,
			Password:  es.Password,
			APIKey:    es.APIKey,
		})
		if clientErr != nil {
			return nil, clientErr
		}
		store = docstore.NewElasticStore(client, a.cfg.Store.Collection)
	default:
		return nil, fmt.Errorf("unknown store backend %q", a.cfg.Store.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	a.log.Debug("Opened document store",
		logger.String("backend", a.cfg.Store.Backend),
		logger.String("collection", a.cfg.Store.Collection),
	)
	a.closers = append(a.closers, store.Close)
	return store, nil
}

// openImages returns the hero image resolver, or nil when no image source
// is configured. For the dir backend it also returns the directory bucket.
func (a *app) openImages() (*images.Resolver, *images.DirBucket, error) {
	opts := []images.Option{images.WithLogger(a.log), images.WithMetrics(a.metrics)}
	ic := a.cfg.Images

	switch ic.Backend {
	case config.ImagesDir:
		bucket, err := images.NewDirBucket(ic.Dir, "/images")
		if err != nil {
			return nil, nil, err
		}
		return images.NewResolver(bucket, ic.Folder, opts...), bucket, nil
	default:
		if ic.BaseURL == "" {
			a.log.Debug("No image base URL configured, hero images disabled")
			return nil, nil, nil
		}
		bucket, err := images.NewHTTPBucket(ic.BaseURL, images.URLStyle(ic.URLStyle), nil)
		if err != nil {
			return nil, nil, err
		}
		return images.NewResolver(bucket, ic.Folder, opts...), nil, nil
	}
}

// newPoller builds a price poller from the markets section.
func (a *app) newPoller(opts ...market.PollerOption) *market.Poller {
	mc := a.cfg.Markets
	client := market.NewClient(mc.APIURL, &http.Client{Timeout: 10 * time.Second})
	opts = append([]market.PollerOption{market.WithLogger(a.log), market.WithMetrics(a.metrics)}, opts...)
	return market.NewPoller(client, market.PollerConfig{Symbols: mc.Symbols, Interval: mc.Interval}, opts...)
}

// openTheme restores the theme from the preference database.
func (a *app) openTheme() (*theme.State, error) {
	prefs, err := config.NewPreferenceStore(a.cfg.Preferences.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	a.closers = append(a.closers, prefs.Close)

	def, err := theme.ParseMode(a.cfg.Theme.Default)
	if err != nil {
		return nil, err
	}
	return theme.Init(prefs, def)
}

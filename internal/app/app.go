// Package app wires the config into the components both binaries share.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/lfarina18/metafar-challenge/internal/config"
	"github.com/lfarina18/metafar-challenge/internal/httpx"
	"github.com/lfarina18/metafar-challenge/internal/metrics"
	"github.com/lfarina18/metafar-challenge/internal/notify"
	"github.com/lfarina18/metafar-challenge/internal/querycache"
	"github.com/lfarina18/metafar-challenge/internal/quotes"
	"github.com/lfarina18/metafar-challenge/internal/ratelimit"
	"github.com/lfarina18/metafar-challenge/internal/schema"
	"github.com/lfarina18/metafar-challenge/internal/storage"
	"github.com/lfarina18/metafar-challenge/internal/twelvedata"
)

// snapshotKey is the storage row holding the cache snapshot.
const snapshotKey = "query-cache"

// App holds the shared components.
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
	Cache     *querycache.Cache
	Service   *quotes.Service
	Store     *storage.KV
	Persister *querycache.Persister
}

// New builds the API client, cache and service from cfg. Persistence is
// opened when cfg.Cache.PersistPath is set. A nil notifier discards.
func New(cfg config.Config, logger *zap.Logger, notifier notify.Notifier) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Discard
	}
	if cfg.API.APIKey == "" {
		logger.Warn("TWELVE_DATA_API_KEY not set; upstream requests will be rejected")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := m.Register(reg); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	hc := httpx.New(cfg.API.Timeout())
	hc.UserAgent = cfg.API.UserAgent
	client, err := twelvedata.New(cfg.API.APIKey,
		twelvedata.WithBaseURL(cfg.API.BaseURL),
		twelvedata.WithHTTPClient(ratelimit.PerMinute(hc, cfg.API.MaxRequestsPerMinute, cfg.API.Burst)),
		twelvedata.WithValidator(schema.New(logger.Named("schema"))),
		twelvedata.WithObserver(m),
	)
	if err != nil {
		return nil, fmt.Errorf("twelvedata client: %w", err)
	}

	cacheLog := logger.Named("cache")
	cache := querycache.New(
		querycache.WithPolicies(quotes.DefaultPolicies()),
		querycache.WithLogger(cacheLog),
		querycache.WithMetrics(m),
		querycache.WithErrorHook(func(key querycache.Key, err error) {
			cacheLog.Error("fetch failed", zap.Stringer("key", key), zap.Int("status", notify.Status(err)), zap.Error(err))
		}),
	)

	hours := quotes.MarketHours{Location: loc, OpenHour: cfg.Market.OpenHour, OpenMinute: cfg.Market.OpenMinute}
	svc := quotes.NewService(client, cache,
		quotes.WithMarketHours(hours),
		quotes.WithNotifier(notifier),
		quotes.WithLogger(logger.Named("quotes")),
		quotes.WithDefaultExchange(cfg.Market.DefaultExchange),
	)

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
		Registry: reg,
		Cache:    cache,
		Service:  svc,
	}
	if cfg.Cache.PersistPath != "" {
		store, err := storage.Open(cfg.Cache.PersistPath, logger.Named("storage"))
		if err != nil {
			return nil, err
		}
		a.Store = store
		a.Persister = &querycache.Persister{
			Store:      store,
			StorageKey: snapshotKey,
			Buster:     cfg.Cache.Buster,
			MaxAge:     cfg.Cache.MaxAge(),
			Filter:     quotes.PersistFilter,
			Decode:     quotes.DecodeEntry,
			Logger:     logger.Named("persist"),
		}
	}
	return a, nil
}

// Restore loads the persisted snapshot, if persistence is on.
func (a *App) Restore(ctx context.Context) (int, error) {
	if a.Persister == nil {
		return 0, nil
	}
	return a.Persister.Restore(ctx, a.Cache)
}

// Save writes the snapshot, if persistence is on.
func (a *App) Save(ctx context.Context) error {
	if a.Persister == nil {
		return nil
	}
	return a.Persister.Save(ctx, a.Cache)
}

func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}

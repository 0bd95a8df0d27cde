// Package scheduler runs the background jobs of the server: stock list
// refresh, cache persistence and garbage collection.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/lfarina18/metafar-challenge/internal/querycache"
)

// ListRefresher reloads exchange listings. *quotes.Service implements it.
type ListRefresher interface {
	RefreshLists(ctx context.Context, exchanges []string) error
}

// Config selects what runs and how often. A zero period or an empty cron
// spec disables the job.
type Config struct {
	RefreshListsCron string
	Exchanges        []string
	PersistEvery     time.Duration
	GCEvery          time.Duration
	JobTimeout       time.Duration
	Location         *time.Location
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron      *cron.Cron
	cfg       Config
	lists     ListRefresher
	cache     *querycache.Cache
	persister *querycache.Persister
	logger    *zap.Logger
	ctx       context.Context
}

// New builds a Scheduler. persister may be nil when persistence is off.
func New(ctx context.Context, cfg Config, lists ListRefresher, cache *querycache.Cache, persister *querycache.Persister, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = time.Minute
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		cfg:       cfg,
		lists:     lists,
		cache:     cache,
		persister: persister,
		logger:    logger,
		ctx:       ctx,
	}
}

// Register adds the enabled jobs.
func (s *Scheduler) Register() error {
	if s.cfg.RefreshListsCron != "" && len(s.cfg.Exchanges) > 0 {
		if _, err := s.cron.AddFunc(s.cfg.RefreshListsCron, s.refreshLists); err != nil {
			return fmt.Errorf("register list refresh: %w", err)
		}
	}
	if s.persister != nil && s.cfg.PersistEvery > 0 {
		s.cron.Schedule(cron.Every(s.cfg.PersistEvery), cron.FuncJob(s.persist))
	}
	if s.cfg.GCEvery > 0 {
		s.cron.Schedule(cron.Every(s.cfg.GCEvery), cron.FuncJob(s.sweep))
	}
	return nil
}

// Jobs reports how many jobs are registered.
func (s *Scheduler) Jobs() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", s.Jobs()))
}

// Stop waits for running jobs, then saves the cache one last time.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
	if s.persister != nil {
		if err := s.persister.Save(ctx, s.cache); err != nil {
			s.logger.Error("final cache save", zap.Error(err))
		}
	}
	s.logger.Info("scheduler stopped")
}

// RefreshListsNow runs the list refresh job immediately.
func (s *Scheduler) RefreshListsNow(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()
	return s.lists.RefreshLists(ctx, s.cfg.Exchanges)
}

// PersistNow saves the cache snapshot immediately.
func (s *Scheduler) PersistNow(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()
	return s.persister.Save(ctx, s.cache)
}

func (s *Scheduler) refreshLists() {
	start := time.Now()
	if err := s.RefreshListsNow(s.ctx); err != nil {
		s.logger.Error("list refresh", zap.Strings("exchanges", s.cfg.Exchanges), zap.Error(err))
		return
	}
	s.logger.Info("lists refreshed", zap.Strings("exchanges", s.cfg.Exchanges), zap.Duration("elapsed", time.Since(start)))
}

func (s *Scheduler) persist() {
	if err := s.PersistNow(s.ctx); err != nil {
		s.logger.Error("cache save", zap.Error(err))
	}
}

func (s *Scheduler) sweep() {
	if n := s.cache.Sweep(); n > 0 {
		s.logger.Debug("cache sweep", zap.Int("removed", n), zap.Int("entries", s.cache.Len()))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ l *zap.SugaredLogger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}

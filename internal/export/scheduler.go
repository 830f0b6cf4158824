package export

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"eventcsv/internal/config"
	"eventcsv/internal/ics"
	appLog "eventcsv/internal/log"
)

// Scheduler runs Refresh on the configured cron schedule and keeps the
// latest successful result.
type Scheduler struct {
	cfg     *config.Config
	fetcher *ics.Fetcher
	cron    *cron.Cron

	observer RefreshObserver

	mu     sync.RWMutex
	latest *Result
}

// RefreshObserver is told about every refresh run.
type RefreshObserver interface {
	ObserveRefresh(d time.Duration, instances int, at time.Time, err error)
}

// NewScheduler builds a scheduler for cfg. Nothing runs until Start.
func NewScheduler(cfg *config.Config, f *ics.Fetcher) *Scheduler {
	if f == nil {
		f = ics.NewFetcher(cfg.CacheDir, nil)
	}
	return &Scheduler{
		cfg:     cfg,
		fetcher: f,
		cron:    cron.New(),
	}
}

// Start performs an initial refresh and, when cfg.RefreshCron is set,
// registers the periodic one. ctx bounds every scheduled run.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.RunOnce(ctx); err != nil {
		appLog.Error("initial refresh failed", err)
	}
	if s.cfg.RefreshCron == "" {
		appLog.Info("scheduled refresh disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.cfg.RefreshCron, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	appLog.Info("scheduled refresh enabled", "cron", s.cfg.RefreshCron)
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// WithObserver reports every run to o. It must be called before Start.
func (s *Scheduler) WithObserver(o RefreshObserver) *Scheduler {
	s.observer = o
	return s
}

// RunOnce refreshes immediately and records the result on success.
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()
	res, err := Refresh(ctx, s.cfg, s.fetcher)
	if s.observer != nil {
		s.observer.ObserveRefresh(time.Since(start), res.Instances, res.GeneratedAt, err)
	}
	if err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	s.latest = &res
	s.mu.Unlock()
	return res, nil
}

// Latest returns the last successful refresh, if any.
func (s *Scheduler) Latest() (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return Result{}, false
	}
	return *s.latest, true
}

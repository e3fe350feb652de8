package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Scheduler triggers the pipeline immediately and then every Interval.
// A trigger that fires while a run is still going is skipped.
type Scheduler struct {
	Pipeline *Pipeline
	Interval time.Duration
	Logger   *slog.Logger
}

// Run blocks until ctx is done and every in-flight run has returned.
func (s *Scheduler) Run(ctx context.Context) error {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	trigger := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Pipeline.TryRun(ctx); errors.Is(err, ErrRunInProgress) {
				log.Warn("previous run still in progress, skipping trigger")
			}
		}()
	}

	log.Info("scheduler started", "interval", s.Interval)
	trigger()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			trigger()
		}
	}
}

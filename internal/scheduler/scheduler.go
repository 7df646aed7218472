// Package scheduler periodically refreshes the live dataset.
//
// A Scheduler owns a single repeating ticker and calls RefreshLive on
// every tick, inline on the Run goroutine. Ticks that fire while a refresh
// is outstanding are coalesced by the ticker's one-slot buffer, so a slow
// feed never causes a burst of catch-up requests. There is no backoff or
// jitter.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/OkinawaYT/Michishirube2026/internal/clock"
	"github.com/OkinawaYT/Michishirube2026/internal/datastore"
)

// ErrInvalidInterval is returned by Run when the interval is not positive.
var ErrInvalidInterval = errors.New("scheduler: interval must be positive")

// Refresher is implemented by *datastore.Store.
type Refresher interface {
	RefreshLive(ctx context.Context) datastore.Result
}

// Scheduler triggers live refreshes at a fixed interval.
type Scheduler struct {
	target   Refresher
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock providing the ticker.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New creates a Scheduler refreshing target every interval.
func New(target Refresher, interval time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		target:   target,
		interval: interval,
		clock:    clock.Real(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the refresh period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Run refreshes on every tick until ctx is done, then stops the ticker and
// returns ctx.Err(). The first refresh happens one interval after Run is
// called.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, s.interval)
	}

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler starting", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping: context cancelled")
			return ctx.Err()

		case <-ticker.C():
			r := s.target.RefreshLive(ctx)
			s.logger.Debug("tick",
				"outcome", string(r.Outcome),
				"flow", r.FlowID,
				"seq", r.Seq,
			)
		}
	}
}

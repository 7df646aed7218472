// Package guide wires configuration, the datastore, the refresh scheduler
// and selection state into the conference guide a presentation layer
// consumes.
//
// Lifecycle:
//
//	g := guide.New(cfg)
//	g.Init(ctx)  // master, then live, sequentially
//	g.Start(ctx) // blocks refreshing live data until ctx is done
//
// Getters derive their results from a fresh datastore snapshot and the
// current selection on every call; nothing is cached.
package guide

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/OkinawaYT/Michishirube2026/internal/clock"
	"github.com/OkinawaYT/Michishirube2026/internal/config"
	"github.com/OkinawaYT/Michishirube2026/internal/datastore"
	"github.com/OkinawaYT/Michishirube2026/internal/feed"
	"github.com/OkinawaYT/Michishirube2026/internal/scheduler"
	"github.com/OkinawaYT/Michishirube2026/internal/selection"
)

var (
	// ErrNotReady is returned by Start before Init has completed.
	ErrNotReady = errors.New("guide: Start called before Init")

	// ErrAlreadyStarted is returned by every Start call after the first.
	ErrAlreadyStarted = errors.New("guide: Start called more than once")
)

// Guide is the conference guide.
//
// Thread-safety: all methods are safe for concurrent use.
type Guide struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *datastore.Store
	scheduler *scheduler.Scheduler

	mu  sync.Mutex
	sel *selection.State

	initOnce    sync.Once
	initResults []datastore.Result
	ready       atomic.Bool
	started     atomic.Bool
}

type options struct {
	httpClient *http.Client
	clock      clock.Clock
	flows      datastore.FlowIDGenerator
	seq        *datastore.Sequence
	logger     *slog.Logger
	observers  []datastore.Observer
}

// Option configures a Guide.
type Option func(*options)

// WithHTTPClient sets the HTTP client used for both feeds.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithClock sets the clock for cache-busting, result timestamps and the
// refresh ticker.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithFlowIDs sets the flow id generator.
func WithFlowIDs(g datastore.FlowIDGenerator) Option {
	return func(o *options) { o.flows = g }
}

// WithSequence sets the logical clock stamping results.
func WithSequence(s *datastore.Sequence) Option {
	return func(o *options) { o.seq = s }
}

// WithLogger sets the logger. Ignored when console logging is disabled in
// the configuration.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver receives every load and refresh result.
func WithObserver(obs datastore.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// New builds a Guide from cfg. Both datasets start empty.
func New(cfg config.Config, opts ...Option) *Guide {
	o := options{
		httpClient: http.DefaultClient,
		clock:      clock.Real(),
		flows:      datastore.UUIDv7Generator{},
		seq:        datastore.NewSequenceAt(0),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if !cfg.Features.ConsoleLogging {
		logger = slog.New(slog.DiscardHandler)
	}

	client := feed.New(
		feed.WithHTTPClient(o.httpClient),
		feed.WithClock(o.clock),
		feed.WithTimeout(cfg.API.RequestTimeout),
	)

	storeOpts := []datastore.Option{
		datastore.WithClock(o.clock),
		datastore.WithFlowIDs(o.flows),
		datastore.WithSequence(o.seq),
		datastore.WithLogger(logger),
	}
	for _, obs := range o.observers {
		storeOpts = append(storeOpts, datastore.WithObserver(obs))
	}
	store := datastore.New(client, cfg.API.MasterURL, cfg.API.LiveURL, storeOpts...)

	return &Guide{
		cfg:    cfg,
		logger: logger,
		store:  store,
		scheduler: scheduler.New(store, cfg.Refresh.LiveInterval,
			scheduler.WithClock(o.clock),
			scheduler.WithLogger(logger),
		),
		sel: selection.New(logger),
	}
}

// Init loads master data, then live data, and marks the guide ready. Load
// failures leave the affected dataset empty; Init itself never fails. The
// two results are returned in order.
//
// Only the first call loads. Later calls return the first call's results
// without fetching, so a loaded master dataset is never replaced or reset.
func (g *Guide) Init(ctx context.Context) []datastore.Result {
	g.initOnce.Do(func() {
		// Master first: live views are only meaningful once the schedule is in.
		master := g.store.LoadMaster(ctx)
		live := g.store.LoadLive(ctx)
		g.initResults = []datastore.Result{master, live}
		g.ready.Store(true)

		snap := g.store.Snapshot()
		g.logger.Info("ready",
			"sessions", len(snap.Master.Sessions),
			"speakers", len(snap.Master.Speakers),
			"venues", len(snap.Master.Venues),
			"slots", len(snap.Master.TimelineStructure),
			"notices", len(snap.Live.Notices),
			"parking", len(snap.Live.Parking),
		)
	})
	return slices.Clone(g.initResults)
}

// Ready reports whether Init has completed.
func (g *Guide) Ready() bool {
	return g.ready.Load()
}

// PollingEnabled reports whether Start will run the refresh scheduler.
func (g *Guide) PollingEnabled() bool {
	return g.cfg.Features.LivePolling
}

// Start runs the live refresh scheduler until ctx is done and returns
// ctx.Err(). When live polling is disabled it returns nil immediately.
// Start may be called once; later calls return ErrAlreadyStarted and never
// create a second ticker.
func (g *Guide) Start(ctx context.Context) error {
	if !g.ready.Load() {
		return ErrNotReady
	}
	if !g.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	if !g.cfg.Features.LivePolling {
		g.logger.Info("live polling disabled")
		return nil
	}
	return g.scheduler.Run(ctx)
}

// Refresh triggers one live refresh outside the schedule.
func (g *Guide) Refresh(ctx context.Context) datastore.Result {
	return g.store.RefreshLive(ctx)
}

// Snapshot returns a copy of both datasets.
func (g *Guide) Snapshot() datastore.Snapshot {
	return g.store.Snapshot()
}

// Config returns the configuration the guide was built with.
func (g *Guide) Config() config.Config {
	return g.cfg
}

package datastore

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/OkinawaYT/Michishirube2026/internal/clock"
	"github.com/OkinawaYT/Michishirube2026/internal/feed"
	"github.com/OkinawaYT/Michishirube2026/internal/model"
)

// Fetcher performs the cache-busted GET. Implemented by *feed.Client.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Observer receives every Result after state has been updated. Observers
// run synchronously on the calling goroutine.
type Observer func(Result)

// Store holds the master and live datasets.
type Store struct {
	fetcher   Fetcher
	masterURL string
	liveURL   string

	clock     clock.Clock
	seq       *Sequence
	flows     FlowIDGenerator
	logger    *slog.Logger
	observers []Observer

	mu     sync.RWMutex
	master model.Master
	live   model.Live

	refreshing atomic.Bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock stamping Result.At.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithFlowIDs sets the flow id generator.
func WithFlowIDs(g FlowIDGenerator) Option {
	return func(s *Store) { s.flows = g }
}

// WithSequence sets the logical clock, e.g. to continue a journal.
func WithSequence(seq *Sequence) Option {
	return func(s *Store) { s.seq = seq }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithObserver registers an observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, o) }
}

// New creates a Store with both datasets empty.
func New(fetcher Fetcher, masterURL, liveURL string, opts ...Option) *Store {
	s := &Store{
		fetcher:   fetcher,
		masterURL: masterURL,
		liveURL:   liveURL,
		clock:     clock.Real(),
		seq:       NewSequenceAt(0),
		flows:     UUIDv7Generator{},
		logger:    slog.Default(),
		master:    model.EmptyMaster(),
		live:      model.EmptyLive(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot is an immutable copy of both datasets.
type Snapshot struct {
	Master model.Master
	Live   model.Live
}

// Snapshot returns deep copies of the current datasets.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Master: s.master.Clone(), Live: s.live.Clone()}
}

// Master returns a copy of the master dataset.
func (s *Store) Master() model.Master {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.master.Clone()
}

// Live returns a copy of the live dataset.
func (s *Store) Live() model.Live {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live.Clone()
}

// LoadMaster fetches the master feed. On success the four master
// collections are replaced; on any failure they are reset to empty and
// the error is logged at Error level and returned in the Result.
func (s *Store) LoadMaster(ctx context.Context) Result {
	r := s.begin(FeedMaster, OpLoad)
	log := s.logger.With("feed", string(FeedMaster), "flow", r.FlowID, "seq", r.Seq)
	log.Debug("fetching", "url", s.masterURL)

	// Any failure resets all four collections.
	m, err := s.fetchMaster(ctx)
	if err != nil {
		m = model.EmptyMaster()
		r.Outcome = OutcomeReset
		r.Err = err
		log.Error("master load failed", "url", s.masterURL, "status", feed.StatusCode(err), "error", err)
	} else {
		r.Outcome = OutcomeLoaded
	}

	// Swap under the write lock; readers see old or new, never a mix.
	r.Fingerprint = m.Fingerprint()
	r.Counts = m.Counts()

	s.mu.Lock()
	r.Changed = s.master.Fingerprint() != r.Fingerprint
	s.master = m
	s.mu.Unlock()

	if r.Outcome == OutcomeLoaded {
		log.Info("master loaded",
			"sessions", r.Counts.Sessions,
			"speakers", r.Counts.Speakers,
			"venues", r.Counts.Venues,
			"slots", r.Counts.Slots,
		)
	}
	return s.finish(r)
}

// LoadLive fetches the live feed. On success notices and parking are
// replaced; on any failure they are reset to empty and a warning is
// logged. The payload's "error" field is not consulted.
func (s *Store) LoadLive(ctx context.Context) Result {
	r := s.begin(FeedLive, OpLoad)
	log := s.logger.With("feed", string(FeedLive), "flow", r.FlowID, "seq", r.Seq)
	log.Debug("fetching", "url", s.liveURL)

	// Unlike refresh, the initial load ignores the "error" flag.
	p, err := s.fetchLive(ctx)
	if err != nil {
		p = model.LivePayload{Live: model.EmptyLive()}
		r.Outcome = OutcomeReset
		r.Err = err
		log.Warn("live load failed", "url", s.liveURL, "status", feed.StatusCode(err), "error", err)
	} else {
		r.Outcome = OutcomeLoaded
		r.CacheAge = p.CacheAge
	}

	r.Fingerprint = p.Live.Fingerprint()
	r.Counts = p.Live.Counts()

	s.mu.Lock()
	r.Changed = s.live.Fingerprint() != r.Fingerprint
	s.live = p.Live
	s.mu.Unlock()

	if r.Outcome == OutcomeLoaded {
		attrs := []any{"notices", r.Counts.Notices, "parking", r.Counts.Parking}
		if r.CacheAge != nil && *r.CacheAge >= 0 {
			attrs = append(attrs, "cache_age", *r.CacheAge)
		}
		log.Info("live loaded", attrs...)
	}
	return s.finish(r)
}

// RefreshLive re-fetches the live feed and replaces notices and parking
// only when the payload is truthy and carries no truthy "error" field.
// Failures are logged at Warn level and leave state untouched. A call made
// while another refresh is in flight returns OutcomeSkipped without
// fetching.
func (s *Store) RefreshLive(ctx context.Context) Result {
	// One refresh at a time; overlapping ticks are reported, not queued.
	if !s.refreshing.CompareAndSwap(false, true) {
		r := s.begin(FeedLive, OpRefresh)
		r.Outcome = OutcomeSkipped
		s.fillCurrentLive(&r)
		s.logger.Debug("refresh skipped, previous still in flight", "feed", string(FeedLive), "flow", r.FlowID, "seq", r.Seq)
		return s.finish(r)
	}
	defer s.refreshing.Store(false)

	r := s.begin(FeedLive, OpRefresh)
	log := s.logger.With("feed", string(FeedLive), "flow", r.FlowID, "seq", r.Seq)

	// Transport, status and decode failures keep the previous data.
	body, err := s.fetcher.Fetch(ctx, s.liveURL)
	if err != nil {
		return s.retain(r, log, err)
	}
	// Falsy bodies (null, false, 0, "") are checked before decoding.
	if !model.Truthy(body) {
		r.Outcome = OutcomeDiscarded
		s.fillCurrentLive(&r)
		log.Debug("refresh discarded, empty payload")
		return s.finish(r)
	}
	p, err := feed.ParseLive(s.liveURL, body)
	if err != nil {
		return s.retain(r, log, err)
	}
	r.CacheAge = p.CacheAge
	// A truthy "error" field means the backend served a fallback.
	if p.Flagged {
		r.Outcome = OutcomeDiscarded
		s.fillCurrentLive(&r)
		log.Debug("refresh discarded, payload flagged error")
		return s.finish(r)
	}

	// Accepted: replace notices and parking together.
	r.Outcome = OutcomeRefreshed
	r.Fingerprint = p.Live.Fingerprint()
	r.Counts = p.Live.Counts()

	s.mu.Lock()
	r.Changed = s.live.Fingerprint() != r.Fingerprint
	s.live = p.Live
	s.mu.Unlock()

	attrs := []any{"notices", r.Counts.Notices, "parking", r.Counts.Parking, "changed", r.Changed}
	if r.CacheAge != nil {
		attrs = append(attrs, "cache_age", *r.CacheAge)
	}
	log.Info("live refreshed", attrs...)
	return s.finish(r)
}

func (s *Store) retain(r Result, log *slog.Logger, err error) Result {
	r.Outcome = OutcomeRetained
	r.Err = err
	s.fillCurrentLive(&r)
	log.Warn("refresh failed", "url", s.liveURL, "status", feed.StatusCode(err), "error", err)
	return s.finish(r)
}

func (s *Store) fetchMaster(ctx context.Context) (model.Master, error) {
	body, err := s.fetcher.Fetch(ctx, s.masterURL)
	if err != nil {
		return model.Master{}, err
	}
	return feed.ParseMaster(s.masterURL, body)
}

func (s *Store) fetchLive(ctx context.Context) (model.LivePayload, error) {
	body, err := s.fetcher.Fetch(ctx, s.liveURL)
	if err != nil {
		return model.LivePayload{}, err
	}
	return feed.ParseLive(s.liveURL, body)
}

// fillCurrentLive reports the unchanged live dataset in r.
func (s *Store) fillCurrentLive(r *Result) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r.Counts = s.live.Counts()
	r.Fingerprint = s.live.Fingerprint()
}

func (s *Store) begin(f Feed, op Op) Result {
	return Result{
		Seq:    s.seq.Next(),
		FlowID: s.flows.Generate(),
		Feed:   f,
		Op:     op,
		At:     s.clock.Now(),
	}
}

func (s *Store) finish(r Result) Result {
	for _, o := range s.observers {
		o(r)
	}
	return r
}

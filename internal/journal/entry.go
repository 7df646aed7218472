package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/OkinawaYT/Michishirube2026/internal/datastore"
	"github.com/OkinawaYT/Michishirube2026/internal/feed"
	"github.com/OkinawaYT/Michishirube2026/internal/model"
)

// Entry is one journal row.
type Entry struct {
	Seq         int64        `json:"seq"`
	FlowID      string       `json:"flow_id"`
	Feed        string       `json:"feed"`
	Op          string       `json:"op"`
	Outcome     string       `json:"outcome"`
	ErrorKind   string       `json:"error_kind,omitempty"`
	Error       string       `json:"error,omitempty"`
	Status      int          `json:"status,omitempty"`
	Counts      model.Counts `json:"counts"`
	Fingerprint string       `json:"fingerprint"`
	Changed     bool         `json:"changed"`
	CacheAge    *float64     `json:"cache_age,omitempty"`
	At          time.Time    `json:"at"`
}

// EntryFromResult flattens a datastore result into a row.
func EntryFromResult(r datastore.Result) Entry {
	return Entry{
		Seq:         r.Seq,
		FlowID:      r.FlowID,
		Feed:        string(r.Feed),
		Op:          string(r.Op),
		Outcome:     string(r.Outcome),
		ErrorKind:   r.ErrorKind(),
		Error:       r.ErrorMessage(),
		Status:      feed.StatusCode(r.Err),
		Counts:      r.Counts,
		Fingerprint: r.Fingerprint,
		Changed:     r.Changed,
		CacheAge:    r.CacheAge,
		At:          r.At.UTC().Truncate(time.Millisecond),
	}
}

// Record appends r. A row with the same flow id is ignored.
func (j *Journal) Record(ctx context.Context, r datastore.Result) error {
	e := EntryFromResult(r)
	var cacheAge sql.NullFloat64
	if e.CacheAge != nil {
		cacheAge = sql.NullFloat64{Float64: *e.CacheAge, Valid: true}
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO fetches
		(flow_id, seq, feed, op, outcome, error_kind, error, status,
		 sessions, speakers, venues, slots, notices, parking,
		 fingerprint, changed, cache_age, at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(flow_id) DO NOTHING
	`,
		e.FlowID, e.Seq, e.Feed, e.Op, e.Outcome, e.ErrorKind, e.Error, e.Status,
		e.Counts.Sessions, e.Counts.Speakers, e.Counts.Venues, e.Counts.Slots, e.Counts.Notices, e.Counts.Parking,
		e.Fingerprint, e.Changed, cacheAge, e.At.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record %s %s: %w", e.Feed, e.Op, err)
	}
	return nil
}

// Observer returns a datastore observer that records every result. Write
// failures are logged, not returned.
func (j *Journal) Observer(logger *slog.Logger) datastore.Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return func(r datastore.Result) {
		if err := j.Record(context.Background(), r); err != nil {
			logger.Warn("journal write failed", "flow", r.FlowID, "seq", r.Seq, "error", err)
		}
	}
}

// Filter narrows Recent.
type Filter struct {
	// Feed restricts to "master" or "live"; empty means both.
	Feed string

	// Limit keeps only the most recent rows; zero means all.
	Limit int
}

// Recent returns journal rows in ascending seq order.
//
// Returns an empty slice (not nil) when nothing matches.
func (j *Journal) Recent(ctx context.Context, f Filter) ([]Entry, error) {
	query := `
		SELECT flow_id, seq, feed, op, outcome, error_kind, error, status,
		       sessions, speakers, venues, slots, notices, parking,
		       fingerprint, changed, cache_age, at_ms
		FROM fetches
		WHERE (? = '' OR feed = ?)
		ORDER BY seq DESC, flow_id COLLATE BINARY DESC`
	args := []any{f.Feed, f.Feed}
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fetches: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fetches: %w", err)
	}

	slices.Reverse(entries)
	return entries, nil
}

// LastSeq returns the highest recorded seq, or 0 for an empty journal.
func (j *Journal) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := j.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM fetches`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq.Int64, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e        Entry
		cacheAge sql.NullFloat64
		atMS     int64
	)
	err := rows.Scan(
		&e.FlowID, &e.Seq, &e.Feed, &e.Op, &e.Outcome, &e.ErrorKind, &e.Error, &e.Status,
		&e.Counts.Sessions, &e.Counts.Speakers, &e.Counts.Venues, &e.Counts.Slots, &e.Counts.Notices, &e.Counts.Parking,
		&e.Fingerprint, &e.Changed, &cacheAge, &atMS,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("scan fetch: %w", err)
	}
	if cacheAge.Valid {
		v := cacheAge.Float64
		e.CacheAge = &v
	}
	e.At = time.UnixMilli(atMS).UTC()
	return e, nil
}

package journal

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OkinawaYT/Michishirube2026/internal/datastore"
	"github.com/OkinawaYT/Michishirube2026/internal/feed"
	"github.com/OkinawaYT/Michishirube2026/internal/model"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func createTestJournal(t *testing.T) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j, path
}

func result(seq int64, f datastore.Feed, op datastore.Op, outcome datastore.Outcome) datastore.Result {
	return datastore.Result{
		Seq:         seq,
		FlowID:      "flow-" + string(rune('a'+seq)),
		Feed:        f,
		Op:          op,
		Outcome:     outcome,
		Fingerprint: "fp",
		At:          epoch.Add(time.Duration(seq) * time.Minute),
	}
}

func TestOpen_PragmasAndVersion(t *testing.T) {
	j, _ := createTestJournal(t)

	mode, err := j.pragma(context.Background(), "journal_mode")
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)

	v, err := j.schemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, v)
}

func TestOpen_CreatesIndexes(t *testing.T) {
	j, _ := createTestJournal(t)

	rows, err := j.db.Query(`SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'fetches' AND name LIKE 'idx_%' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"idx_fetches_feed_seq", "idx_fetches_seq"}, names)
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	j, path := createTestJournal(t)
	_, err := j.db.Exec("PRAGMA user_version = 2")
	require.NoError(t, err)
	require.NoError(t, j.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal schema version 2 is newer than supported version 1")
}

func TestOpen_Idempotent(t *testing.T) {
	j, path := createTestJournal(t)
	require.NoError(t, j.Record(context.Background(), result(1, datastore.FeedMaster, datastore.OpLoad, datastore.OutcomeLoaded)))
	require.NoError(t, j.Close())

	again, err := Open(path)
	require.NoError(t, err)
	defer again.Close()

	entries, err := again.Recent(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "journal.db"))
	require.Error(t, err)
}

func TestRecord_RoundTrip(t *testing.T) {
	j, _ := createTestJournal(t)
	age := 42.5
	r := datastore.Result{
		Seq:         7,
		FlowID:      "flow-7",
		Feed:        datastore.FeedLive,
		Op:          datastore.OpRefresh,
		Outcome:     datastore.OutcomeRetained,
		Err:         &feed.FetchError{Code: feed.ErrCodeStatus, URL: "https://x.test/exec", StatusCode: 502, Status: "502 Bad Gateway"},
		Counts:      model.Counts{Notices: 3, Parking: 2},
		Fingerprint: "abc123",
		Changed:     false,
		CacheAge:    &age,
		At:          epoch.Add(1500 * time.Microsecond),
	}
	require.NoError(t, j.Record(context.Background(), r))

	entries, err := j.Recent(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, int64(7), e.Seq)
	assert.Equal(t, "flow-7", e.FlowID)
	assert.Equal(t, "live", e.Feed)
	assert.Equal(t, "refresh", e.Op)
	assert.Equal(t, "retained", e.Outcome)
	assert.Equal(t, "fetch", e.ErrorKind)
	assert.Contains(t, e.Error, "502 Bad Gateway")
	assert.Equal(t, 502, e.Status)
	assert.Equal(t, model.Counts{Notices: 3, Parking: 2}, e.Counts)
	assert.Equal(t, "abc123", e.Fingerprint)
	assert.False(t, e.Changed)
	require.NotNil(t, e.CacheAge)
	assert.Equal(t, 42.5, *e.CacheAge)
	assert.Equal(t, epoch.Add(time.Millisecond), e.At)

	assert.Equal(t, EntryFromResult(r), e)
}

func TestRecord_DuplicateFlowIgnored(t *testing.T) {
	j, _ := createTestJournal(t)
	r := result(1, datastore.FeedMaster, datastore.OpLoad, datastore.OutcomeLoaded)
	require.NoError(t, j.Record(context.Background(), r))
	require.NoError(t, j.Record(context.Background(), r))

	entries, err := j.Recent(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecent_OrderFilterLimit(t *testing.T) {
	j, _ := createTestJournal(t)
	ctx := context.Background()
	// Recorded out of order on purpose.
	for _, r := range []datastore.Result{
		result(3, datastore.FeedLive, datastore.OpRefresh, datastore.OutcomeRefreshed),
		result(1, datastore.FeedMaster, datastore.OpLoad, datastore.OutcomeLoaded),
		result(4, datastore.FeedLive, datastore.OpRefresh, datastore.OutcomeDiscarded),
		result(2, datastore.FeedLive, datastore.OpLoad, datastore.OutcomeLoaded),
	} {
		require.NoError(t, j.Record(ctx, r))
	}

	seqs := func(es []Entry) []int64 {
		out := []int64{}
		for _, e := range es {
			out = append(out, e.Seq)
		}
		return out
	}

	all, err := j.Recent(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, seqs(all))

	live, err := j.Recent(ctx, Filter{Feed: "live"})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 4}, seqs(live))

	last2, err := j.Recent(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, seqs(last2))

	none, err := j.Recent(ctx, Filter{Feed: "nope"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestLastSeq(t *testing.T) {
	j, _ := createTestJournal(t)
	ctx := context.Background()

	seq, err := j.LastSeq(ctx)
	require.NoError(t, err)
	assert.Zero(t, seq)

	require.NoError(t, j.Record(ctx, result(5, datastore.FeedLive, datastore.OpLoad, datastore.OutcomeLoaded)))
	require.NoError(t, j.Record(ctx, result(2, datastore.FeedMaster, datastore.OpLoad, datastore.OutcomeLoaded)))
	seq, err = j.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), seq)
}

func TestObserver_RecordsAndLogsFailures(t *testing.T) {
	j, _ := createTestJournal(t)
	var buf bytes.Buffer
	obs := j.Observer(slog.New(slog.NewTextHandler(&buf, nil)))

	obs(result(1, datastore.FeedMaster, datastore.OpLoad, datastore.OutcomeLoaded))
	entries, err := j.Recent(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Empty(t, buf.String())

	require.NoError(t, j.Close())
	obs(result(2, datastore.FeedMaster, datastore.OpLoad, datastore.OutcomeLoaded))
	assert.Contains(t, buf.String(), "journal write failed")
}

func TestEntryFromResult_NoError(t *testing.T) {
	e := EntryFromResult(result(1, datastore.FeedMaster, datastore.OpLoad, datastore.OutcomeLoaded))
	assert.Empty(t, e.ErrorKind)
	assert.Empty(t, e.Error)
	assert.Zero(t, e.Status)

	e = EntryFromResult(datastore.Result{Err: &feed.ParseError{Code: feed.ErrCodeNotObject, URL: "u", Err: errors.New("x")}})
	assert.Equal(t, "parse", e.ErrorKind)
	assert.Zero(t, e.Status)
}

package datastore

import (
	"time"

	"github.com/OkinawaYT/Michishirube2026/internal/feed"
	"github.com/OkinawaYT/Michishirube2026/internal/model"
)

// Feed names a dataset.
type Feed string

const (
	FeedMaster Feed = "master"
	FeedLive   Feed = "live"
)

// Op names the operation that produced a Result.
type Op string

const (
	OpLoad    Op = "load"
	OpRefresh Op = "refresh"
)

// Outcome describes what an operation did to the dataset.
type Outcome string

const (
	// OutcomeLoaded: an initial load replaced the dataset.
	OutcomeLoaded Outcome = "loaded"

	// OutcomeReset: an initial load failed and the dataset was emptied.
	OutcomeReset Outcome = "reset"

	// OutcomeRefreshed: a refresh replaced the live dataset.
	OutcomeRefreshed Outcome = "refreshed"

	// OutcomeDiscarded: a refresh got a falsy or error-flagged payload and
	// kept the previous live dataset.
	OutcomeDiscarded Outcome = "discarded"

	// OutcomeRetained: a refresh failed (transport, status or parse) and
	// kept the previous live dataset.
	OutcomeRetained Outcome = "retained"

	// OutcomeSkipped: a refresh was requested while another was in flight.
	OutcomeSkipped Outcome = "skipped"
)

// Result reports one load or refresh.
type Result struct {
	Seq     int64
	FlowID  string
	Feed    Feed
	Op      Op
	Outcome Outcome

	// Err is the *feed.FetchError or *feed.ParseError behind a reset or
	// retained outcome, nil otherwise.
	Err error

	// Counts are the dataset sizes after the operation.
	Counts model.Counts

	// Fingerprint identifies the dataset after the operation.
	Fingerprint string

	// Changed is true when the operation altered the dataset.
	Changed bool

	// CacheAge is the live feed's reported cache age in seconds, when
	// present.
	CacheAge *float64

	At time.Time
}

// OK reports whether the operation applied new data.
func (r Result) OK() bool {
	return r.Outcome == OutcomeLoaded || r.Outcome == OutcomeRefreshed
}

// ErrorKind classifies Err as "fetch", "parse" or "".
func (r Result) ErrorKind() string {
	return feed.Kind(r.Err)
}

// ErrorMessage returns Err's text or "".
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

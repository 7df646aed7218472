package datastore

import "github.com/google/uuid"

// FlowIDGenerator produces correlation ids, one per load or refresh.
// Implemented by UUIDv7Generator in production and by
// testutil.SequentialFlowIDs in tests.
type FlowIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 flow ids, so journal rows
// sort by creation time even across restarts.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

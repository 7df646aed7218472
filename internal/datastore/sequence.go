package datastore

import "sync/atomic"

// Sequence is a monotonic logical clock stamping every Result so the
// journal and logs order operations without relying on wall-clock time.
//
// Thread-safety: safe for concurrent use.
type Sequence struct {
	seq atomic.Int64
}

// NewSequenceAt creates a Sequence whose next value is start+1. Used to
// continue numbering after rows already present in a journal.
func NewSequenceAt(start int64) *Sequence {
	s := &Sequence{}
	s.seq.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Sequence) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the last issued sequence number without incrementing.
func (s *Sequence) Current() int64 {
	return s.seq.Load()
}

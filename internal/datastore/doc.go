// Package datastore owns the guide's two datasets and their load/refresh
// lifecycle.
//
// Master data is loaded once at startup. Live data is loaded once and then
// replaced wholesale by periodic refreshes. Failures never propagate as
// panics or returned errors: every operation yields a Result describing
// what happened, and the datasets follow two policies:
//
//   - Loads are fail-safe-empty: any failure resets the affected
//     collections to empty.
//   - Refreshes are fail-safe-stale: any failure, falsy payload or
//     payload carrying a truthy "error" field leaves the previous live
//     data in place.
//
// Thread-safety: Store is safe for concurrent use. Readers take copies via
// Snapshot; at most one RefreshLive runs at a time and overlapping calls
// are skipped rather than queued.
package datastore

// Package model defines the guide's datasets and the ingestion step that
// turns raw feed documents into them.
//
// Everything downstream of DecodeMaster and DecodeLive can rely on a fully
// defaulted representation:
//   - every collection is a non-nil slice, empty when the source field is
//     absent, null, or not an array
//   - string fields are NFC-normalized; JSON numbers and booleans are kept
//     as their literal text, null becomes ""
//   - master collection elements that are not JSON objects are dropped
//
// Referential integrity (Session.VenueID, Session.SpeakerIDs) is NOT
// checked here. Lookups that miss degrade in package derive.
//
// model imports nothing internal.
package model

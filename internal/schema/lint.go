package schema

import (
	"fmt"

	"github.com/OkinawaYT/Michishirube2026/internal/model"
)

// Lint checks cross-references in a normalized master dataset. Dangling
// references and duplicate ids are errors; unused venues and session
// times without a timeline slot are warnings.
func Lint(m model.Master) []ValidationError {
	errs := []ValidationError{}

	venues := make(map[string]bool)
	for i, v := range m.Venues {
		if venues[v.ID] {
			errs = append(errs, duplicate(fmt.Sprintf("venues[%d].id", i), v.ID))
		}
		venues[v.ID] = true
	}

	speakers := make(map[string]bool)
	for i, sp := range m.Speakers {
		if speakers[sp.ID] {
			errs = append(errs, duplicate(fmt.Sprintf("speakers[%d].id", i), sp.ID))
		}
		speakers[sp.ID] = true
	}

	slots := make(map[string]bool)
	for _, slot := range m.TimelineStructure {
		slots[slot.TimeRange] = true
	}

	sessions := make(map[string]bool)
	used := make(map[string]bool)
	for i, s := range m.Sessions {
		if sessions[s.ID] {
			errs = append(errs, duplicate(fmt.Sprintf("sessions[%d].id", i), s.ID))
		}
		sessions[s.ID] = true
		used[s.VenueID] = true

		if !venues[s.VenueID] {
			errs = append(errs, ValidationError{
				Field:    fmt.Sprintf("sessions[%d].venue_id", i),
				Message:  fmt.Sprintf("session %q references unknown venue %q", s.ID, s.VenueID),
				Code:     ErrDanglingVenue,
				Severity: SeverityError,
			})
		}
		for j, id := range s.SpeakerIDs {
			if !speakers[id] {
				errs = append(errs, ValidationError{
					Field:    fmt.Sprintf("sessions[%d].speaker_ids[%d]", i, j),
					Message:  fmt.Sprintf("session %q references unknown speaker %q", s.ID, id),
					Code:     ErrDanglingSpeaker,
					Severity: SeverityError,
				})
			}
		}
		if !slots[s.Time] {
			errs = append(errs, ValidationError{
				Field:    fmt.Sprintf("sessions[%d].time", i),
				Message:  fmt.Sprintf("session %q time %q has no timeline slot", s.ID, s.Time),
				Code:     ErrOrphanTime,
				Severity: SeverityWarning,
			})
		}
	}

	for i, v := range m.Venues {
		if !used[v.ID] {
			errs = append(errs, ValidationError{
				Field:    fmt.Sprintf("venues[%d]", i),
				Message:  fmt.Sprintf("venue %q is not used by any session", v.ID),
				Code:     ErrUnusedVenue,
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

func duplicate(field, id string) ValidationError {
	return ValidationError{
		Field:    field,
		Message:  fmt.Sprintf("duplicate id %q", id),
		Code:     ErrDuplicateID,
		Severity: SeverityError,
	}
}

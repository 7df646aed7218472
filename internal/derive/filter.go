package derive

// TimetableFilter narrows the timetable. Empty fields do not filter.
type TimetableFilter struct {
	// Venue matches Session.VenueID exactly.
	Venue string `json:"venue"`

	// Location is a venue id; it filters only when it resolves to a venue.
	Location string `json:"location"`

	// Time selects a single time slot.
	Time string `json:"time"`

	// Speaker is a speaker name; sessions must include a speaker with it.
	Speaker string `json:"speaker"`
}

// IsZero reports whether no field is set.
func (f TimetableFilter) IsZero() bool {
	return f == TimetableFilter{}
}

package model

import "encoding/json"

// Session is one talk in the schedule.
type Session struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Time        string   `json:"time"`     // time-slot key, joins TimelineSlot.TimeRange
	VenueID     string   `json:"venue_id"` // should reference Venue.ID
	SpeakerIDs  []string `json:"speaker_ids"`
	Hashtags    []string `json:"hashtags"`
}

// Speaker is a person appearing in one or more sessions.
type Speaker struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kana        string `json:"kana"` // phonetic reading
	Affiliation string `json:"affiliation"`
	Image       string `json:"image"`
}

// Venue is a room or hall.
type Venue struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// TimelineSlot is one row of the timetable.
type TimelineSlot struct {
	TimeRange  string `json:"time_range"`
	IsParallel bool   `json:"is_parallel"` // several venues run concurrently
}

// Master is the slow-changing schedule dataset.
type Master struct {
	Sessions          []Session      `json:"sessions"`
	Speakers          []Speaker      `json:"speakers"`
	TimelineStructure []TimelineSlot `json:"timeline_structure"`
	Venues            []Venue        `json:"venues"`
}

// Live is the fast-changing operational dataset. Notices and parking
// records are kept as raw JSON; their shape is not validated.
type Live struct {
	Notices []json.RawMessage `json:"notices"`
	Parking []json.RawMessage `json:"parking"`
}

// LivePayload is a decoded live feed response.
type LivePayload struct {
	Live

	// CacheAge is the feed's reported cache age in seconds, nil when absent
	// or not a number.
	CacheAge *float64

	// Flagged is true when the payload carries a truthy "error" field.
	Flagged bool
}

// Counts summarizes collection sizes for logs and the journal.
type Counts struct {
	Sessions int `json:"sessions"`
	Speakers int `json:"speakers"`
	Venues   int `json:"venues"`
	Slots    int `json:"slots"`
	Notices  int `json:"notices"`
	Parking  int `json:"parking"`
}

// EmptyMaster returns a Master whose collections are all empty.
func EmptyMaster() Master {
	return Master{
		Sessions:          []Session{},
		Speakers:          []Speaker{},
		TimelineStructure: []TimelineSlot{},
		Venues:            []Venue{},
	}
}

// EmptyLive returns a Live whose collections are empty.
func EmptyLive() Live {
	return Live{
		Notices: []json.RawMessage{},
		Parking: []json.RawMessage{},
	}
}

// Counts reports the master collection sizes.
func (m Master) Counts() Counts {
	return Counts{
		Sessions: len(m.Sessions),
		Speakers: len(m.Speakers),
		Venues:   len(m.Venues),
		Slots:    len(m.TimelineStructure),
	}
}

// Counts reports the live collection sizes.
func (l Live) Counts() Counts {
	return Counts{
		Notices: len(l.Notices),
		Parking: len(l.Parking),
	}
}

// Clone returns a deep copy so callers can hand out snapshots without
// sharing backing arrays.
func (m Master) Clone() Master {
	out := Master{
		Sessions:          make([]Session, len(m.Sessions)),
		Speakers:          append([]Speaker{}, m.Speakers...),
		TimelineStructure: append([]TimelineSlot{}, m.TimelineStructure...),
		Venues:            append([]Venue{}, m.Venues...),
	}
	for i, s := range m.Sessions {
		s.SpeakerIDs = append([]string{}, s.SpeakerIDs...)
		s.Hashtags = append([]string{}, s.Hashtags...)
		out.Sessions[i] = s
	}
	return out
}

// Clone returns a deep copy of the live dataset.
func (l Live) Clone() Live {
	out := Live{
		Notices: make([]json.RawMessage, len(l.Notices)),
		Parking: make([]json.RawMessage, len(l.Parking)),
	}
	for i, n := range l.Notices {
		out.Notices[i] = append(json.RawMessage{}, n...)
	}
	for i, p := range l.Parking {
		out.Parking[i] = append(json.RawMessage{}, p...)
	}
	return out
}

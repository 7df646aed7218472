package guide

import (
	"encoding/json"

	"github.com/OkinawaYT/Michishirube2026/internal/derive"
	"github.com/OkinawaYT/Michishirube2026/internal/model"
	"github.com/OkinawaYT/Michishirube2026/internal/selection"
)

// Speakers returns the speakers matching the current search text.
func (g *Guide) Speakers() []model.Speaker {
	g.mu.Lock()
	q := g.sel.SpeakerQuery
	g.mu.Unlock()
	return derive.FilteredSpeakers(g.store.Master(), q)
}

// Venues returns the venues used by at least one session.
func (g *Guide) Venues() []model.Venue {
	return derive.UniqueVenues(g.store.Master())
}

// Times returns the distinct session times.
func (g *Guide) Times() []string {
	return derive.UniqueTimes(g.store.Master())
}

// SpeakerNames returns the names of speakers appearing in sessions.
func (g *Guide) SpeakerNames() []string {
	return derive.UniqueSpeakerNames(g.store.Master())
}

// Timeline returns the timeline slots under the current timetable filter.
func (g *Guide) Timeline() []model.TimelineSlot {
	return derive.FilteredTimeline(g.store.Master(), g.timetable())
}

// SessionsAt returns the sessions at time under the current timetable
// filter.
func (g *Guide) SessionsAt(time string) []model.Session {
	return derive.SessionsAt(g.store.Master(), time, g.timetable())
}

// SessionsByTime returns every session at time.
func (g *Guide) SessionsByTime(time string) []model.Session {
	return derive.SessionsByTime(g.store.Master(), time)
}

// AllTags returns every hashtag.
func (g *Guide) AllTags() []string {
	return derive.AllTags(g.store.Master())
}

// AvailableTags returns the hashtags co-occurring with the selected tags.
func (g *Guide) AvailableTags() []string {
	return derive.AvailableTags(g.store.Master(), g.tags())
}

// Sessions returns the sessions matching the selected tags.
func (g *Guide) Sessions() []model.Session {
	return derive.FilteredSessions(g.store.Master(), g.tags())
}

// Speaker resolves id, falling back to the unknown-speaker placeholder.
func (g *Guide) Speaker(id string) model.Speaker {
	return derive.ResolveSpeaker(g.store.Master(), id)
}

// SessionsForSpeaker returns the sessions featuring speaker id.
func (g *Guide) SessionsForSpeaker(id string) []model.Session {
	return derive.SessionsForSpeaker(g.store.Master(), id)
}

// Venue returns the venue with id.
func (g *Guide) Venue(id string) (model.Venue, bool) {
	return derive.VenueByID(g.store.Master(), id)
}

// Notices returns the live notices as raw JSON.
func (g *Guide) Notices() []json.RawMessage {
	return g.store.Live().Notices
}

// Parking returns the live parking records as raw JSON.
func (g *Guide) Parking() []json.RawMessage {
	return g.store.Live().Parking
}

// Selection returns a copy of the selection state.
func (g *Guide) Selection() selection.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := *g.sel
	st.SelectedTags = g.sel.Tags()
	return st
}

// OpenSession shows s in the detail modal.
func (g *Guide) OpenSession(s model.Session) {
	g.mutate(func(st *selection.State) { st.OpenSession(s) })
}

// OpenSpeaker shows sp in the detail modal.
func (g *Guide) OpenSpeaker(sp model.Speaker) {
	g.mutate(func(st *selection.State) { st.OpenSpeaker(sp) })
}

// CloseModal hides the detail modal.
func (g *Guide) CloseModal() {
	g.mutate(func(st *selection.State) { st.CloseModal() })
}

// SetTab switches the active tab.
func (g *Guide) SetTab(tab string) {
	g.mutate(func(st *selection.State) { st.SetTab(tab) })
}

// SetSpeakerQuery sets the speaker search text.
func (g *Guide) SetSpeakerQuery(q string) {
	g.mutate(func(st *selection.State) { st.SetSpeakerQuery(q) })
}

// SetTimetableFilter replaces the timetable filter.
func (g *Guide) SetTimetableFilter(f derive.TimetableFilter) {
	g.mutate(func(st *selection.State) { st.SetTimetableFilter(f) })
}

// ResetTimetableFilter clears the timetable filter.
func (g *Guide) ResetTimetableFilter() {
	g.mutate(func(st *selection.State) { st.ResetTimetableFilter() })
}

// ToggleTag adds or removes tag from the selection.
func (g *Guide) ToggleTag(tag string) {
	g.mutate(func(st *selection.State) { st.ToggleTag(tag) })
}

func (g *Guide) mutate(fn func(*selection.State)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.sel)
}

func (g *Guide) timetable() derive.TimetableFilter {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sel.Timetable
}

func (g *Guide) tags() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sel.Tags()
}

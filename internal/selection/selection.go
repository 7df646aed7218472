// Package selection holds the guide's UI-facing selection state: active
// tab, detail modal, hashtag selection, speaker search text and timetable
// filter.
package selection

import (
	"log/slog"
	"slices"

	"github.com/OkinawaYT/Michishirube2026/internal/derive"
	"github.com/OkinawaYT/Michishirube2026/internal/model"
)

// DefaultTab is the tab shown on startup.
const DefaultTab = "news"

// ModalType identifies what the detail modal shows.
type ModalType string

const (
	ModalNone    ModalType = ""
	ModalSession ModalType = "session"
	ModalSpeaker ModalType = "speaker"
)

// State is the selection state. The zero value is not ready for use; call
// New.
//
// State is not safe for concurrent use; guide.Guide serializes access.
type State struct {
	ActiveTab string

	ModalOpen bool
	ModalType ModalType

	// SelectedSession or SelectedSpeaker is set according to ModalType.
	SelectedSession *model.Session
	SelectedSpeaker *model.Speaker

	SelectedTags []string
	SpeakerQuery string
	Timetable    derive.TimetableFilter

	logger *slog.Logger
}

// New returns the initial state: the news tab, no modal, no tags, empty
// search and a zero timetable filter. A nil logger discards.
func New(logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &State{
		ActiveTab:    DefaultTab,
		SelectedTags: []string{},
		logger:       logger,
	}
}

// OpenSession shows s in the modal.
func (st *State) OpenSession(s model.Session) {
	st.SelectedSession = &s
	st.SelectedSpeaker = nil
	st.ModalType = ModalSession
	st.ModalOpen = true
	st.logger.Debug("open session", "id", s.ID, "title", s.Title)
}

// OpenSpeaker shows sp in the modal.
func (st *State) OpenSpeaker(sp model.Speaker) {
	st.SelectedSpeaker = &sp
	st.SelectedSession = nil
	st.ModalType = ModalSpeaker
	st.ModalOpen = true
	st.logger.Debug("open speaker", "id", sp.ID, "name", sp.Name)
}

// CloseModal hides the modal. The last selected item is kept so a closing
// animation can still render it.
func (st *State) CloseModal() {
	st.ModalOpen = false
}

// SetTab switches the active tab.
func (st *State) SetTab(tab string) {
	st.ActiveTab = tab
}

// SetSpeakerQuery sets the speaker search text.
func (st *State) SetSpeakerQuery(q string) {
	st.SpeakerQuery = q
}

// SetTimetableFilter replaces the timetable filter.
func (st *State) SetTimetableFilter(f derive.TimetableFilter) {
	st.Timetable = f
}

// ResetTimetableFilter clears all four timetable filter fields at once.
func (st *State) ResetTimetableFilter() {
	st.Timetable = derive.TimetableFilter{}
}

// ToggleTag adds tag to the selection or removes it if already selected.
func (st *State) ToggleTag(tag string) {
	st.SelectedTags = derive.ToggleTag(st.SelectedTags, tag)
}

// Tags returns a copy of the selected tags.
func (st *State) Tags() []string {
	return append([]string{}, st.SelectedTags...)
}

// IsTagSelected reports whether tag is in the selection.
func (st *State) IsTagSelected(tag string) bool {
	return slices.Contains(st.SelectedTags, tag)
}

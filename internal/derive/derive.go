package derive

import (
	"slices"
	"sort"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/OkinawaYT/Michishirube2026/internal/model"
)

// UnknownSpeakerID is the id of the placeholder returned by ResolveSpeaker
// for ids with no matching speaker.
const UnknownSpeakerID = "unknown"

// FilteredSpeakers returns the speakers whose name, affiliation or kana
// contains query, case-insensitively. A query that is empty after trimming
// returns every speaker. Both sides are NFC-normalized so composed and
// decomposed kana match.
func FilteredSpeakers(m model.Master, query string) []model.Speaker {
	if strings.TrimSpace(query) == "" {
		return append([]model.Speaker{}, m.Speakers...)
	}
	q := fold(query)
	out := []model.Speaker{}
	for _, sp := range m.Speakers {
		if strings.Contains(fold(sp.Name), q) ||
			strings.Contains(fold(sp.Affiliation), q) ||
			strings.Contains(fold(sp.Kana), q) {
			out = append(out, sp)
		}
	}
	return out
}

func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// UniqueVenues returns the venues referenced by at least one session,
// ordered by id under Japanese collation. Venues listed more than once are
// kept as listed.
func UniqueVenues(m model.Master) []model.Venue {
	used := make(map[string]bool, len(m.Sessions))
	for _, s := range m.Sessions {
		used[s.VenueID] = true
	}
	out := []model.Venue{}
	for _, v := range m.Venues {
		if used[v.ID] {
			out = append(out, v)
		}
	}
	col := collate.New(language.Japanese)
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(out[i].ID, out[j].ID) < 0
	})
	return out
}

// UniqueTimes returns the distinct session times in UTF-16 code unit order.
func UniqueTimes(m model.Master) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, s := range m.Sessions {
		if !seen[s.Time] {
			seen[s.Time] = true
			out = append(out, s.Time)
		}
	}
	slices.SortFunc(out, compareUTF16)
	return out
}

// UniqueSpeakerNames returns the distinct names of speakers referenced by
// any session, sorted. Ids with no matching speaker are skipped.
func UniqueSpeakerNames(m model.Master) []string {
	speakers := speakerIndex(m)
	seen := make(map[string]bool)
	out := []string{}
	for _, s := range m.Sessions {
		for _, id := range s.SpeakerIDs {
			sp, ok := speakers[id]
			if !ok || seen[sp.Name] {
				continue
			}
			seen[sp.Name] = true
			out = append(out, sp.Name)
		}
	}
	slices.SortFunc(out, compareUTF16)
	return out
}

// FilteredTimeline returns the timeline slots that survive f. A set time
// filter keeps only the slot with that exact time range. Non-parallel
// slots always pass otherwise; parallel slots pass only when SessionsAt
// finds at least one session for them.
func FilteredTimeline(m model.Master, f TimetableFilter) []model.TimelineSlot {
	out := []model.TimelineSlot{}
	for _, slot := range m.TimelineStructure {
		if f.Time != "" && f.Time != slot.TimeRange {
			continue
		}
		if slot.IsParallel && len(SessionsAt(m, slot.TimeRange, f)) == 0 {
			continue
		}
		out = append(out, slot)
	}
	return out
}

// SessionsAt returns the sessions at time that pass f, applied in order:
// venue equality, location (only when it resolves to a known venue), time
// conflict (a set time filter different from time yields nothing), and
// speaker name membership.
func SessionsAt(m model.Master, time string, f TimetableFilter) []model.Session {
	out := SessionsByTime(m, time)

	if f.Venue != "" {
		out = keep(out, func(s model.Session) bool { return s.VenueID == f.Venue })
	}

	if f.Location != "" {
		if v, ok := VenueByID(m, f.Location); ok {
			out = keep(out, func(s model.Session) bool { return s.VenueID == v.ID })
		}
	}

	if f.Time != "" && f.Time != time {
		return []model.Session{}
	}

	if f.Speaker != "" {
		speakers := speakerIndex(m)
		out = keep(out, func(s model.Session) bool {
			for _, id := range s.SpeakerIDs {
				if sp, ok := speakers[id]; ok && sp.Name == f.Speaker {
					return true
				}
			}
			return false
		})
	}
	return out
}

// SessionsByTime returns every session at time, unfiltered.
func SessionsByTime(m model.Master, time string) []model.Session {
	return keep(m.Sessions, func(s model.Session) bool { return s.Time == time })
}

// VenueByID returns the first venue with id.
func VenueByID(m model.Master, id string) (model.Venue, bool) {
	for _, v := range m.Venues {
		if v.ID == id {
			return v, true
		}
	}
	return model.Venue{}, false
}

// AllTags returns every distinct hashtag, sorted.
func AllTags(m model.Master) []string {
	return tagsOf(m.Sessions)
}

// AvailableTags returns the tags that co-occur with the selection: the
// sorted union of hashtags over sessions carrying any selected tag. The
// selected tags themselves are included whenever a session carries them.
// An empty selection returns AllTags.
func AvailableTags(m model.Master, selected []string) []string {
	if len(selected) == 0 {
		return AllTags(m)
	}
	return tagsOf(FilteredSessions(m, selected))
}

// FilteredSessions returns the sessions carrying at least one selected tag
// (OR semantics). An empty selection returns every session.
func FilteredSessions(m model.Master, selected []string) []model.Session {
	if len(selected) == 0 {
		return append([]model.Session{}, m.Sessions...)
	}
	return keep(m.Sessions, func(s model.Session) bool {
		for _, tag := range selected {
			if slices.Contains(s.Hashtags, tag) {
				return true
			}
		}
		return false
	})
}

// ToggleTag returns a new selection with tag removed if present, appended
// otherwise. selected is not modified.
func ToggleTag(selected []string, tag string) []string {
	if i := slices.Index(selected, tag); i >= 0 {
		return slices.Delete(slices.Clone(selected), i, i+1)
	}
	return append(slices.Clone(selected), tag)
}

// ResolveSpeaker returns the first speaker with id, or a placeholder with
// id UnknownSpeakerID and empty fields.
func ResolveSpeaker(m model.Master, id string) model.Speaker {
	for _, sp := range m.Speakers {
		if sp.ID == id {
			return sp
		}
	}
	return model.Speaker{ID: UnknownSpeakerID}
}

// SessionsForSpeaker returns the sessions listing id among their speakers.
func SessionsForSpeaker(m model.Master, id string) []model.Session {
	return keep(m.Sessions, func(s model.Session) bool {
		return slices.Contains(s.SpeakerIDs, id)
	})
}

func keep(in []model.Session, pred func(model.Session) bool) []model.Session {
	out := []model.Session{}
	for _, s := range in {
		if pred(s) {
			out = append(out, s)
		}
	}
	return out
}

func tagsOf(sessions []model.Session) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, s := range sessions {
		for _, tag := range s.Hashtags {
			if !seen[tag] {
				seen[tag] = true
				out = append(out, tag)
			}
		}
	}
	slices.SortFunc(out, compareUTF16)
	return out
}

// speakerIndex maps id to the first speaker carrying it.
func speakerIndex(m model.Master) map[string]model.Speaker {
	idx := make(map[string]model.Speaker, len(m.Speakers))
	for _, sp := range m.Speakers {
		if _, ok := idx[sp.ID]; !ok {
			idx[sp.ID] = sp
		}
	}
	return idx
}

// compareUTF16 orders strings by UTF-16 code units. This matches byte order
// except when a supplementary-plane character (emoji) meets one in
// U+E000..U+FFFF (full-width forms), where the surrogate sorts first.
func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

package guide

import (
	"fmt"
	"sort"
)

// View names accepted by View.
const (
	ViewSpeakers        = "speakers"
	ViewVenues          = "venues"
	ViewTimes           = "times"
	ViewSpeakerNames    = "speaker-names"
	ViewTimeline        = "timeline"
	ViewSessions        = "sessions"
	ViewSessionsAt      = "sessions-at"
	ViewTags            = "tags"
	ViewAvailableTags   = "available-tags"
	ViewNotices         = "notices"
	ViewParking         = "parking"
	ViewSpeaker         = "speaker"
	ViewSpeakerSessions = "speaker-sessions"
)

type viewSpec struct {
	arg    string // argument name, "" when none
	render func(g *Guide, arg string) any
}

var views = map[string]viewSpec{
	ViewSpeakers:        {render: func(g *Guide, _ string) any { return g.Speakers() }},
	ViewVenues:          {render: func(g *Guide, _ string) any { return g.Venues() }},
	ViewTimes:           {render: func(g *Guide, _ string) any { return g.Times() }},
	ViewSpeakerNames:    {render: func(g *Guide, _ string) any { return g.SpeakerNames() }},
	ViewTimeline:        {render: func(g *Guide, _ string) any { return g.Timeline() }},
	ViewSessions:        {render: func(g *Guide, _ string) any { return g.Sessions() }},
	ViewSessionsAt:      {arg: "time", render: func(g *Guide, t string) any { return g.SessionsAt(t) }},
	ViewTags:            {render: func(g *Guide, _ string) any { return g.AllTags() }},
	ViewAvailableTags:   {render: func(g *Guide, _ string) any { return g.AvailableTags() }},
	ViewNotices:         {render: func(g *Guide, _ string) any { return g.Notices() }},
	ViewParking:         {render: func(g *Guide, _ string) any { return g.Parking() }},
	ViewSpeaker:         {arg: "id", render: func(g *Guide, id string) any { return g.Speaker(id) }},
	ViewSpeakerSessions: {arg: "id", render: func(g *Guide, id string) any { return g.SessionsForSpeaker(id) }},
}

// ViewNames lists every view, sorted.
func ViewNames() []string {
	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ViewArg returns the argument a view requires, or "" if it takes none.
func ViewArg(name string) (string, bool) {
	spec, ok := views[name]
	return spec.arg, ok
}

// View renders the named view. Views that take an argument (see ViewArg)
// require a non-empty arg; others ignore it.
func (g *Guide) View(name, arg string) (any, error) {
	spec, ok := views[name]
	if !ok {
		return nil, fmt.Errorf("unknown view %q", name)
	}
	if spec.arg != "" && arg == "" {
		return nil, fmt.Errorf("view %q requires the %s argument", name, spec.arg)
	}
	return spec.render(g, arg), nil
}

// Views renders every view that takes no argument.
func (g *Guide) Views() map[string]any {
	out := make(map[string]any)
	for name, spec := range views {
		if spec.arg == "" {
			out[name] = spec.render(g, "")
		}
	}
	return out
}

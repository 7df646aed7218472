package model

import (
	"bytes"
	"encoding/json"
	"errors"

	"golang.org/x/text/unicode/norm"
)

// ErrNotObject is returned when a feed document is valid JSON but its
// top-level value is not an object.
var ErrNotObject = errors.New("top-level JSON value is not an object")

// DecodeMaster normalizes a master feed document. It fails only when data
// is not valid JSON or not a JSON object; malformed fields degrade to
// empty values.
func DecodeMaster(data []byte) (Master, error) {
	fields, err := decodeObject(data)
	if err != nil {
		return EmptyMaster(), err
	}

	return Master{
		Sessions:          decodeList(fields["sessions"], decodeSession),
		Speakers:          decodeList(fields["speakers"], decodeSpeaker),
		TimelineStructure: decodeList(fields["timeline_structure"], decodeSlot),
		Venues:            decodeList(fields["venues"], decodeVenue),
	}, nil
}

// DecodeLive normalizes a live feed document. Notices and parking
// elements are kept verbatim, including non-object elements.
func DecodeLive(data []byte) (LivePayload, error) {
	fields, err := decodeObject(data)
	if err != nil {
		return LivePayload{Live: EmptyLive()}, err
	}

	payload := LivePayload{
		Live: Live{
			Notices: rawList(fields["notices"]),
			Parking: rawList(fields["parking"]),
		},
		Flagged: Truthy(fields["error"]),
	}
	var age float64
	if raw := bytes.TrimSpace(fields["cacheAge"]); isNumber(raw) && json.Unmarshal(raw, &age) == nil {
		payload.CacheAge = &age
	}
	return payload, nil
}

// Truthy applies JavaScript truthiness to a raw JSON value: null, false,
// 0 and "" are falsy; absent values are falsy; objects and arrays are
// truthy even when empty.
func Truthy(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return false
	}
	switch b[0] {
	case 'n', 'f':
		return false
	case 't', '{', '[':
		return true
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return false
		}
		return s != ""
	default:
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return false
		}
		return f != 0
	}
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, err
		}
		return fields, nil
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, err
	}
	return nil, ErrNotObject
}

// decodeList decodes raw as an array of objects. Anything else yields an
// empty slice; elements that fail to decode are dropped.
func decodeList[T any](raw json.RawMessage, decode func(json.RawMessage) (T, bool)) []T {
	out := []T{}
	for _, elem := range rawArray(raw) {
		if v, ok := decode(elem); ok {
			out = append(out, v)
		}
	}
	return out
}

func rawList(raw json.RawMessage) []json.RawMessage {
	out := []json.RawMessage{}
	for _, elem := range rawArray(raw) {
		out = append(out, append(json.RawMessage{}, bytes.TrimSpace(elem)...))
	}
	return out
}

func rawArray(raw json.RawMessage) []json.RawMessage {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 || b[0] != '[' {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(b, &elems); err != nil {
		return nil
	}
	return elems
}

func isNumber(raw []byte) bool {
	return len(raw) > 0 && (raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'))
}

func isObject(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) > 0 && b[0] == '{'
}

// text accepts any JSON scalar as a string.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, b[0] == 'n', b[0] == '{', b[0] == '[':
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(norm.NFC.String(s))
	default:
		*t = text(b)
	}
	return nil
}

// flag accepts any JSON value and applies JavaScript truthiness.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	*f = flag(Truthy(b))
	return nil
}

func textList(raw json.RawMessage) []string {
	out := []string{}
	for _, elem := range rawArray(raw) {
		b := bytes.TrimSpace(elem)
		if len(b) == 0 || b[0] == 'n' || b[0] == '{' || b[0] == '[' {
			continue
		}
		var t text
		if err := t.UnmarshalJSON(b); err != nil {
			continue
		}
		out = append(out, string(t))
	}
	return out
}

type rawSession struct {
	ID          text            `json:"id"`
	Title       text            `json:"title"`
	Description text            `json:"description"`
	Time        text            `json:"time"`
	VenueID     text            `json:"venue_id"`
	SpeakerIDs  json.RawMessage `json:"speaker_ids"`
	Hashtags    json.RawMessage `json:"hashtags"`
}

func decodeSession(raw json.RawMessage) (Session, bool) {
	if !isObject(raw) {
		return Session{}, false
	}
	var r rawSession
	if err := json.Unmarshal(raw, &r); err != nil {
		return Session{}, false
	}
	return Session{
		ID:          string(r.ID),
		Title:       string(r.Title),
		Description: string(r.Description),
		Time:        string(r.Time),
		VenueID:     string(r.VenueID),
		SpeakerIDs:  textList(r.SpeakerIDs),
		Hashtags:    textList(r.Hashtags),
	}, true
}

type rawSpeaker struct {
	ID          text `json:"id"`
	Name        text `json:"name"`
	Kana        text `json:"kana"`
	Affiliation text `json:"affiliation"`
	Image       text `json:"image"`
}

func decodeSpeaker(raw json.RawMessage) (Speaker, bool) {
	if !isObject(raw) {
		return Speaker{}, false
	}
	var r rawSpeaker
	if err := json.Unmarshal(raw, &r); err != nil {
		return Speaker{}, false
	}
	return Speaker{
		ID:          string(r.ID),
		Name:        string(r.Name),
		Kana:        string(r.Kana),
		Affiliation: string(r.Affiliation),
		Image:       string(r.Image),
	}, true
}

type rawVenue struct {
	ID          text `json:"id"`
	Name        text `json:"name"`
	Description text `json:"description"`
}

func decodeVenue(raw json.RawMessage) (Venue, bool) {
	if !isObject(raw) {
		return Venue{}, false
	}
	var r rawVenue
	if err := json.Unmarshal(raw, &r); err != nil {
		return Venue{}, false
	}
	return Venue{ID: string(r.ID), Name: string(r.Name), Description: string(r.Description)}, true
}

type rawSlot struct {
	TimeRange  text `json:"time_range"`
	IsParallel flag `json:"is_parallel"`
}

func decodeSlot(raw json.RawMessage) (TimelineSlot, bool) {
	if !isObject(raw) {
		return TimelineSlot{}, false
	}
	var r rawSlot
	if err := json.Unmarshal(raw, &r); err != nil {
		return TimelineSlot{}, false
	}
	return TimelineSlot{TimeRange: string(r.TimeRange), IsParallel: bool(r.IsParallel)}, true
}

package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/OkinawaYT/Michishirube2026/internal/guide"
	"github.com/OkinawaYT/Michishirube2026/internal/selection"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", event.Seq, event.Op, event.Feed, event.Outcome)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against the guide's final
// state and the result's trace. It returns one message per failure.
func EvaluateAssertions(g *guide.Guide, result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertOutcomes:
			err = assertOutcomes(result, a)
		case AssertViewEquals:
			err = assertViewEquals(g, a)
		case AssertViewCount:
			err = assertViewCount(g, a)
		case AssertViewContains:
			err = assertViewContains(g, a)
		case AssertSelection:
			err = assertSelection(g, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func assertOutcomes(result *Result, a Assertion) error {
	got := result.Outcomes()
	if slices.Equal(got, a.Outcomes) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutcomes,
		Expected: fmt.Sprintf("%v", a.Outcomes),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    result.Trace,
	}
}

func assertViewEquals(g *guide.Guide, a Assertion) error {
	got, err := renderView(g, a)
	if err != nil {
		return err
	}
	want, err := normalize(a.Expect)
	if err != nil {
		return fmt.Errorf("view_equals %s: expect: %w", a.View, err)
	}
	if reflect.DeepEqual(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertViewEquals,
		Expected: fmt.Sprintf("%s = %s", a.View, compact(want)),
		Actual:   compact(got),
	}
}

func assertViewCount(g *guide.Guide, a Assertion) error {
	got, err := renderView(g, a)
	if err != nil {
		return err
	}
	list, ok := got.([]any)
	if !ok {
		return fmt.Errorf("view_count %s: view is not a list", a.View)
	}
	if len(list) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertViewCount,
		Expected: fmt.Sprintf("%d elements in %s", a.Count, a.View),
		Actual:   fmt.Sprintf("%d elements", len(list)),
	}
}

func assertViewContains(g *guide.Guide, a Assertion) error {
	got, err := renderView(g, a)
	if err != nil {
		return err
	}
	want, err := normalize(a.Expect)
	if err != nil {
		return fmt.Errorf("view_contains %s: expect: %w", a.View, err)
	}

	elems, ok := got.([]any)
	if !ok {
		elems = []any{got}
	}
	for _, elem := range elems {
		if subsetMatch(elem, want) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertViewContains,
		Expected: fmt.Sprintf("%s contains %s", a.View, compact(want)),
		Actual:   compact(got),
	}
}

func assertSelection(g *guide.Guide, a Assertion) error {
	got, err := normalize(selectionView(g.Selection()))
	if err != nil {
		return err
	}
	want, err := normalize(a.Expect)
	if err != nil {
		return fmt.Errorf("selection: expect: %w", err)
	}
	if subsetMatch(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertSelection,
		Expected: compact(want),
		Actual:   compact(got),
	}
}

// selectionView flattens the selection state to the keys scenarios
// assert on.
func selectionView(st selection.State) map[string]any {
	out := map[string]any{
		"active_tab":    st.ActiveTab,
		"modal_open":    st.ModalOpen,
		"modal_type":    string(st.ModalType),
		"selected_tags": st.SelectedTags,
		"speaker_query": st.SpeakerQuery,
		"timetable":     st.Timetable,
	}
	if st.SelectedSession != nil {
		out["session"] = st.SelectedSession.ID
	}
	if st.SelectedSpeaker != nil {
		out["speaker"] = st.SelectedSpeaker.ID
	}
	return out
}

func renderView(g *guide.Guide, a Assertion) (any, error) {
	v, err := g.View(a.View, a.Arg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Type, err)
	}
	return normalize(v)
}

// normalize round-trips v through JSON so typed views and YAML-decoded
// expectations compare as the same generic shapes.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// subsetMatch reports whether every key in want is present in got with a
// matching value. Non-object values must be equal.
func subsetMatch(got, want any) bool {
	wantMap, ok := want.(map[string]any)
	if !ok {
		return reflect.DeepEqual(got, want)
	}
	gotMap, ok := got.(map[string]any)
	if !ok {
		return false
	}
	for k, wv := range wantMap {
		gv, ok := gotMap[k]
		if !ok || !subsetMatch(gv, wv) {
			return false
		}
	}
	return true
}

func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OkinawaYT/Michishirube2026/internal/datastore"
	"github.com/OkinawaYT/Michishirube2026/internal/derive"
)

const basicMaster = `{
  "sessions": [
    {"id": "s1", "time": "10:00", "venue_id": "v1", "speaker_ids": ["p1"], "hashtags": ["go"]},
    {"id": "s2", "time": "11:00", "venue_id": "v1", "speaker_ids": ["p2"], "hashtags": ["ai"]}
  ],
  "speakers": [
    {"id": "p1", "name": "Taro", "kana": "たろう", "affiliation": "Uni"},
    {"id": "p2", "name": "Hanako", "kana": "はなこ", "affiliation": "Lab"}
  ],
  "venues": [{"id": "v1"}],
  "timeline_structure": [{"time_range": "10:00", "is_parallel": false}]
}`

func scenarioWith(steps []Step, assertions ...Assertion) *Scenario {
	if len(assertions) == 0 {
		assertions = []Assertion{{Type: AssertOutcomes, Outcomes: []string{}}}
	}
	return &Scenario{
		Name:        "inline",
		Description: "inline scenario",
		Master:      FeedFixture{Body: basicMaster},
		Live:        []FeedFixture{{Body: `{"notices": [{"id": 1}]}`}},
		Steps:       steps,
		Assertions:  assertions,
	}
}

func TestRun_InitTrace(t *testing.T) {
	result, err := Run(scenarioWith([]Step{{Action: StepInit}},
		Assertion{Type: AssertOutcomes, Outcomes: []string{"loaded", "loaded"}},
	))
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	require.Len(t, result.Trace, 2)
	assert.Equal(t, TraceEvent{
		Seq:     1,
		Flow:    "test-flow-0001",
		Feed:    "master",
		Op:      "load",
		Outcome: "loaded",
		Counts:  result.Trace[0].Counts,
		Changed: true,
	}, result.Trace[0])
	assert.Equal(t, 2, result.Trace[0].Counts.Sessions)
	assert.Equal(t, 1, result.Trace[1].Counts.Notices)
	assert.Equal(t, "test-flow-0002", result.Trace[1].Flow)
}

func TestRun_NoStepsLeavesEmptyViews(t *testing.T) {
	result, err := Run(scenarioWith([]Step{{Action: StepSetTab, Tab: "map"}},
		Assertion{Type: AssertViewCount, View: "sessions", Count: 0},
		Assertion{Type: AssertSelection, Expect: map[string]any{"active_tab": "map"}},
	))
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Empty(t, result.Trace)
	assert.Len(t, result.Views, 10)
}

func TestRun_MasterFailureResets(t *testing.T) {
	s := scenarioWith([]Step{{Action: StepInit}},
		Assertion{Type: AssertOutcomes, Outcomes: []string{"reset", "loaded"}},
		Assertion{Type: AssertViewEquals, View: "sessions", Expect: []any{}},
		Assertion{Type: AssertViewCount, View: "notices", Count: 1},
	)
	s.Master = FeedFixture{Status: 404, Body: "missing"}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, "fetch", result.Trace[0].ErrorKind)
}

func TestRun_ParseFailureKind(t *testing.T) {
	s := scenarioWith([]Step{{Action: StepInit}})
	s.Live = []FeedFixture{{Body: "[1, 2]"}}

	result, err := Run(s)
	require.NoError(t, err)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, "reset", result.Trace[1].Outcome)
	assert.Equal(t, "parse", result.Trace[1].ErrorKind)
}

func TestRun_LiveQueueRepeatsLast(t *testing.T) {
	s := scenarioWith([]Step{
		{Action: StepInit},
		{Action: StepRefresh},
		{Action: StepRefresh},
	}, Assertion{Type: AssertOutcomes, Outcomes: []string{"loaded", "loaded", "refreshed", "refreshed"}})
	s.Live = []FeedFixture{
		{Body: `{"notices": []}`},
		{Body: `{"notices": [{"id": 1}]}`},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.True(t, result.Trace[2].Changed)
	assert.False(t, result.Trace[3].Changed, "identical payload does not change the dataset")
}

func TestRun_DefaultLiveIsEmptyObject(t *testing.T) {
	s := scenarioWith([]Step{{Action: StepInit}},
		Assertion{Type: AssertOutcomes, Outcomes: []string{"loaded", "loaded"}},
		Assertion{Type: AssertViewCount, View: "notices", Count: 0},
	)
	s.Live = nil

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_SelectionSteps(t *testing.T) {
	result, err := Run(scenarioWith([]Step{
		{Action: StepInit},
		{Action: StepOpenSession, ID: "s2"},
		{Action: StepCloseModal},
		{Action: StepToggleTag, Tag: "ai"},
		{Action: StepSearch, Query: "TARO"},
		{Action: StepFilter, Filter: &derive.TimetableFilter{Venue: "v1"}},
		{Action: StepResetFilter},
	},
		Assertion{Type: AssertSelection, Expect: map[string]any{
			"modal_open":    false,
			"modal_type":    "session",
			"session":       "s2",
			"selected_tags": []any{"ai"},
			"speaker_query": "TARO",
			"timetable":     map[string]any{"venue": ""},
		}},
		Assertion{Type: AssertViewEquals, View: "available-tags", Expect: []any{"ai"}},
		Assertion{Type: AssertViewContains, View: "speakers", Expect: map[string]any{"name": "Taro"}},
		Assertion{Type: AssertViewCount, View: "speakers", Count: 1},
	))
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_OpenSpeakerFallsBackToUnknown(t *testing.T) {
	result, err := Run(scenarioWith([]Step{
		{Action: StepInit},
		{Action: StepOpenSpeaker, ID: "missing"},
	}, Assertion{Type: AssertSelection, Expect: map[string]any{"modal_type": "speaker", "speaker": "unknown"}}))
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_OpenUnknownSessionFails(t *testing.T) {
	_, err := Run(scenarioWith([]Step{
		{Action: StepInit},
		{Action: StepOpenSession, ID: "nope"},
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `step 1 (open_session): no session with id "nope"`)
}

func TestRun_FailingAssertionsReported(t *testing.T) {
	result, err := Run(scenarioWith([]Step{{Action: StepInit}},
		Assertion{Type: AssertOutcomes, Outcomes: []string{"loaded"}},
		Assertion{Type: AssertViewCount, View: "sessions", Count: 5},
	))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Assertion failed: outcomes")
	assert.Contains(t, result.Errors[1], "5 elements in sessions")
}

func TestRun_Deterministic(t *testing.T) {
	s := scenarioWith([]Step{{Action: StepInit}, {Action: StepRefresh}})

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Views, second.Views)
}

func TestRun_ExtraObserver(t *testing.T) {
	var seen []datastore.Result
	_, err := Run(scenarioWith([]Step{{Action: StepInit}}), WithObserver(func(r datastore.Result) {
		seen = append(seen, r)
	}))
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.Equal(t, Epoch, seen[0].At)
}

func TestRun_ExampleScenarios(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}

package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/OkinawaYT/Michishirube2026/internal/derive"
	"github.com/OkinawaYT/Michishirube2026/internal/guide"
)

// Scenario is one scripted guide session.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Master is the master feed response.
	Master FeedFixture `yaml:"master"`

	// Live are the live feed responses, served in order. The last one
	// repeats; none means 200 "{}".
	Live []FeedFixture `yaml:"live,omitempty"`

	// Steps drive the guide.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and final views.
	Assertions []Assertion `yaml:"assertions"`
}

// FeedFixture is a canned feed response. Exactly one of Body and File
// may be set; File is read at load time.
type FeedFixture struct {
	Status int    `yaml:"status,omitempty"`
	Body   string `yaml:"body,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// Step is one action against the guide.
type Step struct {
	Action string `yaml:"action"`

	Tag    string                  `yaml:"tag,omitempty"`
	Query  string                  `yaml:"query,omitempty"`
	ID     string                  `yaml:"id,omitempty"`
	Tab    string                  `yaml:"tab,omitempty"`
	Filter *derive.TimetableFilter `yaml:"filter,omitempty"`
}

// Step actions.
const (
	StepInit        = "init"
	StepRefresh     = "refresh"
	StepToggleTag   = "toggle_tag"
	StepSearch      = "search"
	StepFilter      = "filter"
	StepResetFilter = "reset_filter"
	StepOpenSession = "open_session"
	StepOpenSpeaker = "open_speaker"
	StepCloseModal  = "close_modal"
	StepSetTab      = "set_tab"
)

// Assertion validates the trace or a view.
type Assertion struct {
	// Type is one of outcomes, view_equals, view_count, view_contains,
	// selection.
	Type string `yaml:"type"`

	// Outcomes is the expected outcome sequence (outcomes).
	Outcomes []string `yaml:"outcomes,omitempty"`

	// View names the guide view (view_*); Arg is its argument, if any.
	View string `yaml:"view,omitempty"`
	Arg  string `yaml:"arg,omitempty"`

	// Expect is the whole view (view_equals), an element subset
	// (view_contains) or a subset of the selection state (selection).
	Expect any `yaml:"expect,omitempty"`

	// Count is the expected view length (view_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertOutcomes     = "outcomes"
	AssertViewEquals   = "view_equals"
	AssertViewCount    = "view_count"
	AssertViewContains = "view_contains"
	AssertSelection    = "selection"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	if err := scenario.Master.resolve(base); err != nil {
		return nil, fmt.Errorf("master: %w", err)
	}
	for i := range scenario.Live {
		if err := scenario.Live[i].resolve(base); err != nil {
			return nil, fmt.Errorf("live[%d]: %w", i, err)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func (f *FeedFixture) resolve(base string) error {
	if f.File == "" {
		return nil
	}
	if f.Body != "" {
		return fmt.Errorf("body and file are mutually exclusive")
	}
	path := f.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	f.Body = string(data)
	f.File = ""
	return nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step Step) error {
	switch step.Action {
	case StepInit, StepRefresh, StepResetFilter, StepCloseModal, StepSearch:
	case StepToggleTag:
		if step.Tag == "" {
			return fmt.Errorf("steps[%d]: tag is required for toggle_tag", i)
		}
	case StepFilter:
		if step.Filter == nil {
			return fmt.Errorf("steps[%d]: filter is required for filter", i)
		}
	case StepOpenSession, StepOpenSpeaker:
		if step.ID == "" {
			return fmt.Errorf("steps[%d]: id is required for %s", i, step.Action)
		}
	case StepSetTab:
		if step.Tab == "" {
			return fmt.Errorf("steps[%d]: tab is required for set_tab", i)
		}
	case "":
		return fmt.Errorf("steps[%d]: action is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", i, step.Action)
	}
	return nil
}

func validateAssertion(i int, a Assertion) error {
	switch a.Type {
	case AssertOutcomes:
		if a.Outcomes == nil {
			return fmt.Errorf("assertions[%d]: outcomes is required for outcomes", i)
		}
		return nil
	case AssertSelection:
		if _, ok := a.Expect.(map[string]any); !ok {
			return fmt.Errorf("assertions[%d]: expect must be a mapping for selection", i)
		}
		return nil
	case AssertViewEquals, AssertViewCount, AssertViewContains:
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}

	arg, ok := guide.ViewArg(a.View)
	if !ok {
		return fmt.Errorf("assertions[%d]: unknown view %q", i, a.View)
	}
	if arg != "" && a.Arg == "" {
		return fmt.Errorf("assertions[%d]: view %q requires arg (%s)", i, a.View, arg)
	}
	if a.Type == AssertViewCount && a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", i)
	}
	if a.Type == AssertViewContains && a.Expect == nil {
		return fmt.Errorf("assertions[%d]: expect is required for view_contains", i)
	}
	return nil
}

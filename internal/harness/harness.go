package harness

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/OkinawaYT/Michishirube2026/internal/config"
	"github.com/OkinawaYT/Michishirube2026/internal/datastore"
	"github.com/OkinawaYT/Michishirube2026/internal/guide"
	"github.com/OkinawaYT/Michishirube2026/internal/testutil"
)

// Epoch is the fixed instant every scenario runs at.
var Epoch = time.Date(2026, 10, 24, 9, 0, 0, 0, time.UTC)

// Option configures a scenario run.
type Option func(*runOptions)

type runOptions struct {
	logger    *slog.Logger
	observers []datastore.Observer
}

// WithLogger routes the guide's logs to l. Runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) { o.logger = l }
}

// WithObserver receives every load and refresh result of the run.
func WithObserver(obs datastore.Observer) Option {
	return func(o *runOptions) { o.observers = append(o.observers, obs) }
}

// Run executes a scenario against a fresh guide and evaluates its
// assertions.
//
// Each run gets its own in-memory feeds, a fake clock frozen at Epoch and
// sequential flow ids, so repeated runs produce identical traces.
//
// Returns an error only when a step cannot be executed; assertion failures
// are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := runOptions{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := config.Default()
	cfg.API.MasterURL = feedHost + testutil.MasterPath
	cfg.API.LiveURL = feedHost + testutil.LivePath

	result := NewResult()
	var mu sync.Mutex
	record := func(r datastore.Result) {
		mu.Lock()
		defer mu.Unlock()
		result.Trace = append(result.Trace, traceEventFrom(r))
	}

	guideOpts := []guide.Option{
		guide.WithHTTPClient(&http.Client{Transport: newFeedTransport(scenario)}),
		guide.WithClock(testutil.NewFakeClock(Epoch)),
		guide.WithFlowIDs(testutil.NewSequentialFlowIDs("")),
		guide.WithLogger(o.logger),
		guide.WithObserver(record),
	}
	for _, obs := range o.observers {
		guideOpts = append(guideOpts, guide.WithObserver(obs))
	}
	g := guide.New(cfg, guideOpts...)

	ctx := context.Background()
	for i, step := range scenario.Steps {
		if err := execStep(ctx, g, step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
	}

	result.Views = g.Views()
	for _, msg := range EvaluateAssertions(g, result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func execStep(ctx context.Context, g *guide.Guide, step Step) error {
	switch step.Action {
	case StepInit:
		g.Init(ctx)
	case StepRefresh:
		g.Refresh(ctx)
	case StepToggleTag:
		g.ToggleTag(step.Tag)
	case StepSearch:
		g.SetSpeakerQuery(step.Query)
	case StepFilter:
		g.SetTimetableFilter(*step.Filter)
	case StepResetFilter:
		g.ResetTimetableFilter()
	case StepOpenSession:
		for _, s := range g.Snapshot().Master.Sessions {
			if s.ID == step.ID {
				g.OpenSession(s)
				return nil
			}
		}
		return fmt.Errorf("no session with id %q", step.ID)
	case StepOpenSpeaker:
		g.OpenSpeaker(g.Speaker(step.ID))
	case StepCloseModal:
		g.CloseModal()
	case StepSetTab:
		g.SetTab(step.Tab)
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}

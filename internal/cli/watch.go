package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/OkinawaYT/Michishirube2026/internal/datastore"
	"github.com/OkinawaYT/Michishirube2026/internal/guide"
	"github.com/OkinawaYT/Michishirube2026/internal/journal"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Journal string
	Once    bool

	// GuideOptions are appended to the guide's options (for testing).
	GuideOptions []guide.Option
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return newWatchCommand(&WatchOptions{RootOptions: rootOpts})
}

func newWatchCommand(opts *WatchOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Load both feeds and keep live data fresh",
		Long: `Load master data, then live data, and refresh live data on the
configured interval until interrupted. Every load and refresh prints one
line (text) or one JSON object per line (json).

With --journal, every result is also appended to a SQLite journal that
the history command reads. Sequence numbers continue across runs.

The interval comes from refresh.live_interval or MICHISHIRUBE_POLL_INTERVAL.
The variable takes a Go duration (3m) or bare milliseconds (180000).

Exit codes:
  0 - Stopped by signal, or --once with both loads succeeding
  1 - --once and a load failed
  2 - Command error (bad config, journal cannot be opened)

Examples:
  michishirube watch
  michishirube watch --once --format json
  michishirube watch --journal ./fetches.db --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite fetch journal")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "load once and exit without polling")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr(), slog.LevelInfo)

	guideOpts := []guide.Option{
		guide.WithLogger(logger),
		guide.WithObserver(resultPrinter(opts.Format, cmd.OutOrStdout())),
	}

	// Resume numbering from the journal so history stays monotonic.
	if opts.Journal != "" {
		j, err := journal.Open(opts.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()

		last, err := j.LastSeq(cmd.Context())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		guideOpts = append(guideOpts,
			guide.WithSequence(datastore.NewSequenceAt(last)),
			guide.WithObserver(j.Observer(logger)),
		)
	}
	guideOpts = append(guideOpts, opts.GuideOptions...)

	g := guide.New(cfg, guideOpts...)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	// SIGINT/SIGTERM cancel ctx, which stops the scheduler.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	// Master then live, once.
	results := g.Init(ctx)

	if opts.Once {
		for _, r := range results {
			if !r.OK() {
				return NewExitError(ExitFailure, fmt.Sprintf("%s load failed", r.Feed))
			}
		}
		return nil
	}

	// Blocks until ctx is cancelled.
	if err := g.Start(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "refresh scheduler error", err)
	}
	logger.Info("watch stopped")
	return nil
}

// resultPrinter writes one line per result.
func resultPrinter(format string, w io.Writer) datastore.Observer {
	if format == "json" {
		enc := json.NewEncoder(w)
		return func(r datastore.Result) {
			_ = enc.Encode(journal.EntryFromResult(r))
		}
	}
	st := newStyles(w)
	return func(r datastore.Result) {
		fmt.Fprintln(w, formatEntry(st, journal.EntryFromResult(r)))
	}
}

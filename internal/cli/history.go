package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OkinawaYT/Michishirube2026/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Journal string
	Feed    string
	Limit   int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded loads and refreshes",
		Long: `List the loads and refreshes recorded by watch --journal, oldest
first.

Examples:
  michishirube history --journal ./fetches.db
  michishirube history --journal ./fetches.db --feed live --limit 20
  michishirube history --journal ./fetches.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite fetch journal (required)")
	_ = cmd.MarkFlagRequired("journal")
	cmd.Flags().StringVar(&opts.Feed, "feed", "", "only show one feed (master|live)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "only show the most recent N entries")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	switch opts.Feed {
	case "", "master", "live":
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid feed %q: must be master or live", opts.Feed))
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "limit must not be negative")
	}

	// Open would create an empty journal; a missing file is a usage error.
	if _, err := os.Stat(opts.Journal); err != nil {
		return WrapExitError(ExitCommandError, "journal not found", err)
	}

	j, err := journal.Open(opts.Journal)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	entries, err := j.Recent(cmd.Context(), journal.Filter{Feed: opts.Feed, Limit: opts.Limit})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	formatter.VerboseLog("%d entries in %s", len(entries), opts.Journal)

	if formatter.JSON() {
		return formatter.Success(entries)
	}

	w := cmd.OutOrStdout()
	st := newStyles(w)
	if len(entries) == 0 {
		fmt.Fprintln(w, st.Dim.Render("No entries."))
		return nil
	}
	for _, e := range entries {
		fmt.Fprintln(w, formatEntry(st, e))
	}
	return nil
}

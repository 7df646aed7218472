package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/OkinawaYT/Michishirube2026/internal/datastore"
	"github.com/OkinawaYT/Michishirube2026/internal/derive"
	"github.com/OkinawaYT/Michishirube2026/internal/guide"
	"github.com/OkinawaYT/Michishirube2026/internal/model"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Tags   []string
	Query  string
	Filter derive.TimetableFilter

	// GuideOptions are appended to the guide's options (for testing).
	GuideOptions []guide.Option
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return newShowCommand(&ShowOptions{RootOptions: rootOpts})
}

func newShowCommand(opts *ShowOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <view> [arg]",
		Short: "Load the feeds once and print a derived view",
		Long: `Load master and live data once and print one derived view.

Views: ` + strings.Join(guide.ViewNames(), ", ") + `

The speaker and speaker-sessions views take a speaker id, sessions-at
takes a time slot. Selection flags (--tag, --query and the timetable
filters) apply before the view is derived.

Exit codes:
  0 - View printed
  1 - The feed the view depends on failed to load (an empty view is printed)
  2 - Command error (unknown view, missing argument, bad config)

Examples:
  michishirube show speaker-names
  michishirube show sessions --tag go --tag cloud
  michishirube show timeline --venue hall-b
  michishirube show speaker p2 --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 2 {
				arg = args[1]
			}
			return runShow(opts, args[0], arg, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Tags, "tag", nil, "select a hashtag (repeatable)")
	cmd.Flags().StringVar(&opts.Query, "query", "", "speaker search text")
	cmd.Flags().StringVar(&opts.Filter.Venue, "venue", "", "timetable venue filter")
	cmd.Flags().StringVar(&opts.Filter.Location, "location", "", "timetable location filter")
	cmd.Flags().StringVar(&opts.Filter.Time, "time", "", "timetable time filter")
	cmd.Flags().StringVar(&opts.Filter.Speaker, "speaker", "", "timetable speaker-name filter")

	return cmd
}

func runShow(opts *ShowOptions, view, arg string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	argName, ok := guide.ViewArg(view)
	if !ok {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("unknown view %q: must be one of %s", view, strings.Join(guide.ViewNames(), ", ")))
	}
	if argName != "" && arg == "" {
		return NewExitError(ExitCommandError, fmt.Sprintf("view %q requires the %s argument", view, argName))
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr(), slog.LevelWarn)

	g := guide.New(cfg, append([]guide.Option{guide.WithLogger(logger)}, opts.GuideOptions...)...)
	results := g.Init(cmd.Context())

	for _, tag := range opts.Tags {
		g.ToggleTag(tag)
	}
	g.SetSpeakerQuery(opts.Query)
	g.SetTimetableFilter(opts.Filter)

	v, err := g.View(view, arg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to render view", err)
	}
	formatter.VerboseLog("view %s: %d load result(s)", view, len(results))

	if formatter.JSON() {
		if err := formatter.Success(v); err != nil {
			return err
		}
	} else {
		renderView(cmd.OutOrStdout(), v)
	}

	feed := viewFeed(view)
	for _, r := range results {
		if r.Feed == feed && !r.OK() {
			return NewExitError(ExitFailure, fmt.Sprintf("%s feed unavailable: %s", feed, r.ErrorMessage()))
		}
	}
	return nil
}

// viewFeed names the dataset a view is derived from.
func viewFeed(view string) datastore.Feed {
	switch view {
	case guide.ViewNotices, guide.ViewParking:
		return datastore.FeedLive
	default:
		return datastore.FeedMaster
	}
}

// renderView prints a view as aligned text, one record per line.
func renderView(w io.Writer, v any) {
	st := newStyles(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	none := func(n int) bool {
		if n == 0 {
			fmt.Fprintln(tw, st.Dim.Render("(none)"))
			return true
		}
		return false
	}

	switch v := v.(type) {
	case []string:
		if none(len(v)) {
			return
		}
		for _, s := range v {
			fmt.Fprintln(tw, s)
		}
	case []model.Speaker:
		if none(len(v)) {
			return
		}
		for _, sp := range v {
			writeSpeaker(tw, sp)
		}
	case model.Speaker:
		writeSpeaker(tw, v)
	case []model.Venue:
		if none(len(v)) {
			return
		}
		for _, venue := range v {
			fmt.Fprintf(tw, "%s\t%s\n", venue.ID, venue.Name)
		}
	case []model.TimelineSlot:
		if none(len(v)) {
			return
		}
		for _, slot := range v {
			kind := "single"
			if slot.IsParallel {
				kind = "parallel"
			}
			fmt.Fprintf(tw, "%s\t%s\n", slot.TimeRange, kind)
		}
	case []model.Session:
		if none(len(v)) {
			return
		}
		for _, s := range v {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				s.Time, s.VenueID, s.ID, s.Title, hashtags(s.Hashtags))
		}
	case []json.RawMessage:
		if none(len(v)) {
			return
		}
		for _, raw := range v {
			var buf bytes.Buffer
			if err := json.Compact(&buf, raw); err != nil {
				buf.Reset()
				buf.Write(raw)
			}
			fmt.Fprintln(tw, buf.String())
		}
	default:
		fmt.Fprintln(tw, v)
	}
}

func writeSpeaker(w io.Writer, sp model.Speaker) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sp.ID, sp.Name, sp.Kana, sp.Affiliation)
}

func hashtags(tags []string) string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = "#" + t
	}
	return strings.Join(out, " ")
}

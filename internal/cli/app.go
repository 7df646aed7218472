package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/OkinawaYT/Michishirube2026/internal/config"
	"github.com/OkinawaYT/Michishirube2026/internal/journal"
)

// loadConfig resolves the configuration from --config, the environment
// and defaults.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// newLogger logs to w at level, or at Debug with --verbose.
func newLogger(opts *RootOptions, w io.Writer, level slog.Level) *slog.Logger {
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// formatEntry renders one load/refresh as a single text line:
//
//	#3 09:03:00 live refresh refreshed notices=2 parking=1 changed
func formatEntry(st styles, e journal.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s %-6s %-7s %s",
		e.Seq, st.Dim.Render(e.At.Format(time.TimeOnly)), e.Feed, e.Op, st.outcome(e.Outcome))

	if e.Feed == "master" {
		fmt.Fprintf(&b, " sessions=%d speakers=%d venues=%d slots=%d",
			e.Counts.Sessions, e.Counts.Speakers, e.Counts.Venues, e.Counts.Slots)
	} else {
		fmt.Fprintf(&b, " notices=%d parking=%d", e.Counts.Notices, e.Counts.Parking)
	}
	if e.CacheAge != nil {
		fmt.Fprintf(&b, " cache_age=%g", *e.CacheAge)
	}
	if e.Changed && e.Op == "refresh" {
		b.WriteString(" changed")
	}
	if e.Error != "" {
		fmt.Fprintf(&b, " %s=%q", e.ErrorKind, e.Error)
	}
	return b.String()
}

package helpers

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/paylens/analytics/internal/query"
)

// TimeFlags holds the flag values for time range parsing.
type TimeFlags struct {
	Since string
	From  string
	To    string
}

// AddFlags adds time range flags to a FlagSet.
func (f *TimeFlags) AddFlags(flags *pflag.FlagSet) {
	flags.StringVar(&f.Since, "since", "24h", "Show results since duration (e.g. 15m, 24h)")
	flags.StringVar(&f.From, "from", "", "Start time (RFC3339, 2006-01-02, 'now' or 'now-1h')")
	flags.StringVar(&f.To, "to", "", "End time in the --from formats; open-ended when omitted with --from")
}

// Parse returns the time range selected by the flags.
// Priority:
// 1. --from and optionally --to (explicit range, open-ended without --to)
// 2. --since (relative to now)
func (f *TimeFlags) Parse() (query.TimeRange, error) {
	return f.parseAt(time.Now().UTC())
}

func (f *TimeFlags) parseAt(now time.Time) (query.TimeRange, error) {
	if f.From != "" {
		start, err := parseTime(f.From, now)
		if err != nil {
			return query.TimeRange{}, fmt.Errorf("invalid --from time: %w", err)
		}

		r := query.TimeRange{Start: start}
		if f.To != "" {
			end, err := parseTime(f.To, now)
			if err != nil {
				return query.TimeRange{}, fmt.Errorf("invalid --to time: %w", err)
			}
			if end.Before(start) {
				return query.TimeRange{}, fmt.Errorf("end time cannot be before start time")
			}
			r.End = &end
		}
		return r, nil
	}

	if f.To != "" {
		return query.TimeRange{}, fmt.Errorf("--to requires --from")
	}

	since := f.Since
	if since == "" {
		since = "24h"
	}
	duration, err := time.ParseDuration(since)
	if err != nil {
		return query.TimeRange{}, fmt.Errorf("invalid --since duration: %w", err)
	}
	if duration <= 0 {
		return query.TimeRange{}, fmt.Errorf("invalid --since duration: must be positive")
	}
	return query.TimeRange{Start: now.Add(-duration), End: &now}, nil
}

// AlignRange widens r to whole buckets of g: the start is clipped to the
// beginning of its bucket and a bounded end to the last instant of its bucket.
func AlignRange(r query.TimeRange, g query.Granularity) (query.TimeRange, error) {
	start, err := g.ClipToStart(r.Start)
	if err != nil {
		return query.TimeRange{}, err
	}
	aligned := query.TimeRange{Start: start}
	if r.End != nil {
		end, err := g.ClipToEnd(*r.End)
		if err != nil {
			return query.TimeRange{}, err
		}
		aligned.End = &end
	}
	return aligned, nil
}

// timeLayouts are tried in order after the relative forms.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime accepts "now", "now-<duration>" and the absolute timeLayouts.
// Times without a zone are read as UTC.
func parseTime(s string, now time.Time) (time.Time, error) {
	if s == "now" {
		return now, nil
	}
	if rest, ok := strings.CutPrefix(s, "now-"); ok {
		d, err := time.ParseDuration(rest)
		if err != nil || d < 0 {
			return time.Time{}, fmt.Errorf("invalid relative time %q", s)
		}
		return now.Add(-d), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q (use RFC3339, 2006-01-02 or now-1h)", s)
}

package settlement

import (
	"fmt"
	"time"
)

// Config is the immutable per-run configuration snapshot. A run reads it
// once at the start; flag or environment changes never affect a run in
// flight.
type Config struct {
	// Parallelism bounds the number of host pipelines settling concurrently.
	Parallelism int
	// RetryBackoff is the wait before the single retry of a failed store
	// operation.
	RetryBackoff time.Duration
	// PlatformAccountID owns the credit rows recording collected fees and
	// tips on the platform side.
	PlatformAccountID string
}

func (c Config) withDefaults() Config {
	if c.Parallelism <= 0 {
		c.Parallelism = 4
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 2 * time.Second
	}
	if c.PlatformAccountID == "" {
		c.PlatformAccountID = "givebase"
	}
	return c
}

// Period is a half-open settlement window [Start, End) in UTC, always a
// whole calendar month.
type Period struct {
	Start time.Time
	End   time.Time
}

// ParsePeriod parses a "2006-01" month into its settlement window.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("parse period %q: %w", s, err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}, nil
}

// PreviousMonth returns the settlement window for the calendar month before
// the one containing now. This is the default period for scheduled runs.
func PreviousMonth(now time.Time) Period {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: first.AddDate(0, -1, 0), End: first}
}

// String renders the period as "2006-01", used in run IDs and filenames.
func (p Period) String() string { return p.Start.Format("2006-01") }

// Label renders the period as "January 2006", used in descriptions shown
// to hosts.
func (p Period) Label() string { return p.Start.Format("January 2006") }

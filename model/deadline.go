package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DeadlineLayout is the accepted deadline input format (YYYY-MM-DD HH:MM).
const DeadlineLayout = "2006-01-02 15:04"

var (
	ErrDeadlineSyntax    = errors.New("invalid date format, use YYYY-MM-DD HH:MM")
	ErrDeadlineLocalTime = errors.New("date/time does not map to a single local time")
)

// DeadlineError reports why a deadline input was rejected. Match the kind
// with errors.Is against ErrDeadlineSyntax or ErrDeadlineLocalTime.
type DeadlineError struct {
	Input  string
	Detail string
	Err    error
}

func (e *DeadlineError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("deadline %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("deadline %q: %v (%s)", e.Input, e.Err, e.Detail)
}

func (e *DeadlineError) Unwrap() error {
	return e.Err
}

// ParseDeadline reads input as a wall-clock time in loc. A nil loc means
// time.Local. Times skipped or repeated by a DST transition are rejected
// with ErrDeadlineLocalTime instead of being silently shifted.
func ParseDeadline(input string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	raw := strings.TrimSpace(input)
	wall, err := time.Parse(DeadlineLayout, raw)
	if err != nil {
		return time.Time{}, &DeadlineError{Input: input, Err: ErrDeadlineSyntax}
	}

	candidates := localCandidates(wall, loc)
	switch len(candidates) {
	case 0:
		return time.Time{}, &DeadlineError{
			Input:  input,
			Detail: fmt.Sprintf("skipped by a clock change in %s", loc),
			Err:    ErrDeadlineLocalTime,
		}
	case 1:
		return candidates[0], nil
	default:
		return time.Time{}, &DeadlineError{
			Input:  input,
			Detail: fmt.Sprintf("occurs twice in %s", loc),
			Err:    ErrDeadlineLocalTime,
		}
	}
}

// localCandidates returns every instant whose wall clock in loc equals the
// wall clock of the UTC-parsed value.
func localCandidates(wall time.Time, loc *time.Location) []time.Time {
	guess := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), 0, 0, loc)

	offsets := make([]int, 0, 3)
	for _, probe := range []time.Time{guess.Add(-12 * time.Hour), guess, guess.Add(12 * time.Hour)} {
		_, off := probe.Zone()
		if !containsInt(offsets, off) {
			offsets = append(offsets, off)
		}
	}

	out := make([]time.Time, 0, 2)
	for _, off := range offsets {
		instant := wall.Add(-time.Duration(off) * time.Second).In(loc)
		if _, got := instant.Zone(); got != off {
			continue
		}
		dup := false
		for _, c := range out {
			if c.Equal(instant) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, instant)
		}
	}
	return out
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// FormatTimestamp renders times the way the task table shows them.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

package interval

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidInterval = errors.New("invalid time window")

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

const MinutesPerDay = 24 * 60

// ParseTimeOfDay parses "HH:MM" in 24h format. The whole string must
// match; trailing text is an error.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Add shifts the time by d, truncated to whole minutes.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return t + TimeOfDay(d/time.Minute)
}

// At pins the wall-clock time onto the given date.
func (t TimeOfDay) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(t)/60, int(t)%60, 0, 0, date.Location())
}

// Window is a half-open [Start, End) range within a single day.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

func NewWindow(start, end TimeOfDay) (Window, error) {
	if start < 0 || end > MinutesPerDay || start >= end {
		return Window{}, fmt.Errorf("%w: [%s, %s)", ErrInvalidInterval, start, end)
	}
	return Window{Start: start, End: end}, nil
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start, w.End)
}

func (w Window) Duration() time.Duration {
	return time.Duration(w.End-w.Start) * time.Minute
}

func (w Window) Empty() bool {
	return w.Start >= w.End
}

// Overlaps reports whether two half-open windows intersect.
func (w Window) Overlaps(other Window) bool {
	return w.Start < other.End && other.Start < w.End
}

// Contains reports whether [start, start+d) fits entirely inside w.
func (w Window) Contains(start TimeOfDay, d time.Duration) bool {
	return start >= w.Start && start.Add(d) <= w.End
}

// Subtract removes busy from w, returning zero, one, or two remainders.
// A busy interval that misses w leaves it untouched; one that covers it
// leaves nothing.
func Subtract(w, busy Window) []Window {
	if busy.End <= w.Start || busy.Start >= w.End {
		return []Window{w}
	}

	var out []Window
	if busy.Start > w.Start {
		out = append(out, Window{Start: w.Start, End: busy.Start})
	}
	if busy.End < w.End {
		out = append(out, Window{Start: busy.End, End: w.End})
	}
	return out
}

// SubtractAll folds every busy interval over the growing remainder set.
// Busy intervals may overlap each other and arrive in any order; no
// remainder is ever emitted with Start >= End.
func SubtractAll(windows []Window, busy []Window) []Window {
	remaining := windows
	for _, b := range busy {
		var next []Window
		for _, w := range remaining {
			next = append(next, Subtract(w, b)...)
		}
		remaining = next
	}
	return remaining
}

package domain

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
)

// DefaultStepMinutes is the booking grid. Candidate start times snap to this
// step regardless of service duration, so short services still land on the grid.
const DefaultStepMinutes = 30

var ErrMalformedClock = errors.New("clock time must be HH:MM")

// ClockTime is a wall-clock time of day in the facility timezone, expressed as
// minutes since midnight.
type ClockTime int

func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClock parses "HH:MM" in 24-hour notation.
func ParseClock(s string) (ClockTime, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, ErrMalformedClock
	}
	hour, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, ErrMalformedClock
	}
	minute, err := strconv.Atoi(s[3:])
	if err != nil {
		return 0, ErrMalformedClock
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, ErrMalformedClock
	}
	return NewClockTime(hour, minute), nil
}

func (t ClockTime) Hour() int   { return int(t) / 60 }
func (t ClockTime) Minute() int { return int(t) % 60 }

func (t ClockTime) Add(minutes int) ClockTime {
	return t + ClockTime(minutes)
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Interval is a half-open time range [Start, End) within a single day.
type Interval struct {
	Start ClockTime
	End   ClockTime
}

// Overlaps reports whether the two half-open intervals share any instant.
// Touching endpoints do not overlap.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// Contains reports whether iv lies fully inside the window, boundaries
// inclusive.
func (w Interval) Contains(iv Interval) bool {
	return w.Start <= iv.Start && iv.End <= w.End
}

// Slots yields candidate start times on the step grid, beginning at the window
// start. The last candidate may equal the window end; callers filter with
// Contains against the occupied interval. The sequence is finite and safe to
// range over more than once.
func (w Interval) Slots(stepMinutes int) iter.Seq[ClockTime] {
	return func(yield func(ClockTime) bool) {
		if stepMinutes <= 0 {
			return
		}
		for t := w.Start; t <= w.End; t = t.Add(stepMinutes) {
			if !yield(t) {
				return
			}
		}
	}
}

// Package timeslot models half-open time intervals within a single calendar day.
//
// Times are expressed in minutes since local midnight of the slot's date, so
// an interval is [Start, End) with 0 <= Start < End <= MinutesPerDay.
package timeslot

import (
	"errors"
	"fmt"
	"time"
)

const (
	MinutesPerDay = 24 * 60

	ClockLayout = "15:04"
	DateLayout  = "2006-01-02"
)

var (
	ErrInvalidClock    = errors.New("time must be in HH:MM format (00:00-23:59)")
	ErrInvalidDate     = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidDuration = errors.New("duration must be positive")
	ErrCrossesMidnight = errors.New("interval must end on the same day")
)

type Interval struct {
	Start int
	End   int
}

// FromStart builds the interval that begins at start and lasts durationMin minutes.
func FromStart(start, durationMin int) (Interval, error) {
	if start < 0 || start >= MinutesPerDay {
		return Interval{}, ErrInvalidClock
	}
	if durationMin <= 0 {
		return Interval{}, ErrInvalidDuration
	}
	end := start + durationMin
	if end > MinutesPerDay {
		return Interval{}, ErrCrossesMidnight
	}
	return Interval{Start: start, End: end}, nil
}

// FromClock parses "HH:MM" and builds the interval from it.
func FromClock(clock string, durationMin int) (Interval, error) {
	start, err := ParseClock(clock)
	if err != nil {
		return Interval{}, err
	}
	return FromStart(start, durationMin)
}

// Between builds [start, end) from two clock strings. An end of "24:00" is accepted
// so that a range can close at midnight.
func Between(startClock, endClock string) (Interval, error) {
	start, err := ParseClock(startClock)
	if err != nil {
		return Interval{}, err
	}
	end := MinutesPerDay
	if endClock != "24:00" {
		end, err = ParseClock(endClock)
		if err != nil {
			return Interval{}, err
		}
	}
	if end <= start {
		return Interval{}, fmt.Errorf("end %s must be after start %s", endClock, startClock)
	}
	return Interval{Start: start, End: end}, nil
}

// WholeDay covers every minute of a date.
func WholeDay() Interval {
	return Interval{Start: 0, End: MinutesPerDay}
}

// Overlaps is strict: intervals that only touch at an edge do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && i.End > other.Start
}

func (i Interval) Duration() int {
	return i.End - i.Start
}

func (i Interval) StartClock() string {
	return FormatClock(i.Start)
}

func (i Interval) EndClock() string {
	return FormatClock(i.End)
}

func (i Interval) String() string {
	return i.StartClock() + "-" + i.EndClock()
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(clock string) (int, error) {
	if len(clock) != len(ClockLayout) {
		return 0, ErrInvalidClock
	}
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return 0, ErrInvalidClock
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as "HH:MM". 1440 renders as "24:00".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate validates a calendar date in YYYY-MM-DD form.
func ParseDate(date string) (time.Time, error) {
	if len(date) != len(DateLayout) {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

package booking

import (
	"fmt"
	"time"
)

const clockLayout = "15:04"

// Policy carries every scheduling rule the engine consults. There is no
// ambient default: hosts build one (usually from internal/config) and pass
// it explicitly.
type Policy struct {
	WorkStart string // "HH:MM", start of the bookable window
	WorkEnd   string // "HH:MM", end of the bookable window

	// Weekdays on which sessions may be booked. Empty means every day.
	Weekdays []time.Weekday

	DefaultDurationMinutes int
	DefaultIntervalMinutes int // 0 means step by the slot duration

	MinAdvance time.Duration // lead time required before a session starts
	MaxAdvance time.Duration // booking horizon

	DailyCapacityHours float64 // assumed bookable hours per work day

	Location *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		WorkStart:              "06:00",
		WorkEnd:                "22:00",
		DefaultDurationMinutes: 60,
		MaxAdvance:             90 * 24 * time.Hour,
		DailyCapacityHours:     8,
		Location:               time.UTC,
	}
}

func (p Policy) location() *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.UTC
}

func (p Policy) isWorkingDay(d time.Weekday) bool {
	if len(p.Weekdays) == 0 {
		return true
	}
	for _, wd := range p.Weekdays {
		if wd == d {
			return true
		}
	}
	return false
}

// workWindow resolves the working-hours window on the given calendar day,
// in the policy's location.
func (p Policy) workWindow(date time.Time) (time.Time, time.Time, error) {
	start, err := atClock(date, p.WorkStart, p.location())
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("work start: %w", err)
	}
	end, err := atClock(date, p.WorkEnd, p.location())
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("work end: %w", err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("working hours %s-%s: %w", p.WorkStart, p.WorkEnd, ErrInvalidTimeRange)
	}
	return start, end, nil
}

// atClock pins an "HH:MM" clock reading onto date's calendar day in loc.
func atClock(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

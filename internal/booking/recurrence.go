package booking

import (
	"errors"
	"time"
)

var ErrRecurrenceMisconfigured = errors.New("recurrence rule is misconfigured")

// defaultHorizonDays bounds an expansion that has neither a count nor an
// end date.
const defaultHorizonDays = 90

// safetyHorizonYears bounds a count-terminated expansion so a rule whose
// weekday set can never match does not loop forever.
const safetyHorizonYears = 2

// ExpandRecurrence turns a rule into the concrete occurrence start times,
// strictly increasing, beginning at start. Each occurrence keeps start's
// clock time; only the calendar day advances.
//
// Weekly expansion honors Interval as every Nth week, weeks anchored to
// the Monday of start's week. Monthly expansion relies on time.AddDate
// normalization, so Jan 31 plus one month lands in early March.
func ExpandRecurrence(start time.Time, rule RecurrenceRule) ([]time.Time, error) {
	interval := rule.Interval
	if interval <= 0 {
		interval = 1
	}

	maxCount := rule.Count
	var limit time.Time
	switch {
	case rule.EndDate != nil:
		limit = endOfDay(*rule.EndDate, start.Location())
	case maxCount > 0:
		limit = start.AddDate(safetyHorizonYears, 0, 0)
	default:
		limit = start.AddDate(0, 0, defaultHorizonDays)
	}
	if maxCount <= 0 {
		maxCount = int(^uint(0) >> 1)
	}

	var out []time.Time
	switch rule.Frequency {
	case FreqDaily:
		for d := start; !d.After(limit) && len(out) < maxCount; d = d.AddDate(0, 0, interval) {
			out = append(out, d)
		}

	case FreqMonthly:
		for d := start; !d.After(limit) && len(out) < maxCount; d = d.AddDate(0, interval, 0) {
			out = append(out, d)
		}

	case FreqWeekly:
		wanted := make(map[time.Weekday]bool, len(rule.Weekdays))
		for _, wd := range rule.Weekdays {
			wanted[wd] = true
		}
		if len(wanted) == 0 {
			wanted[start.Weekday()] = true
		}

		anchor := startOfWeek(start)
		for d := start; !d.After(limit) && len(out) < maxCount; d = d.AddDate(0, 0, 1) {
			if !wanted[d.Weekday()] {
				continue
			}
			if (daysBetween(anchor, d)/7)%interval != 0 {
				continue
			}
			out = append(out, d)
		}

	default:
		return nil, ErrRecurrenceMisconfigured
	}

	return out, nil
}

// startOfWeek returns the Monday of t's week, keeping t's clock time.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// daysBetween counts whole calendar days from a to b, ignoring clock time.
// DST shifts make hour arithmetic unreliable here, so compare dates only.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}

func endOfDay(t time.Time, loc *time.Location) time.Time {
	d := t.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc)
}

package booking

import (
	"sort"
	"time"
)

// Stats is the descriptive report over a trainer's schedule for a date
// range. Reporting only; nothing here feeds back into booking decisions.
type Stats struct {
	RangeStart time.Time              `json:"range_start"`
	RangeEnd   time.Time              `json:"range_end"`
	Total      int                    `json:"total"`
	ByStatus   map[Status]int         `json:"by_status"`
	ByType     map[string]int         `json:"by_type"`
	ByWeekday  map[time.Weekday]int   `json:"by_weekday"`
	TotalHours float64                `json:"total_hours"`
	WorkDays   int                    `json:"work_days"`
	// Booked hours over assumed capacity, as a percentage.
	UtilizationRate float64 `json:"utilization_rate"`
}

// FilterByRange returns the appointments starting within [from, to],
// sorted ascending by start time. The input is not modified.
func FilterByRange(appts []Appointment, from, to time.Time) []Appointment {
	out := make([]Appointment, 0, len(appts))
	for _, a := range appts {
		if a.StartTime.Before(from) || a.StartTime.After(to) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// ForDay filters to appointments starting on day's calendar date in loc.
func ForDay(appts []Appointment, day time.Time, loc *time.Location) []Appointment {
	d := day.In(loc)
	from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return FilterByRange(appts, from, from.AddDate(0, 0, 1).Add(-time.Nanosecond))
}

// ForWeek filters to the Monday-through-Sunday week containing day.
func ForWeek(appts []Appointment, day time.Time, loc *time.Location) []Appointment {
	d := day.In(loc)
	monday := startOfWeek(time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc))
	return FilterByRange(appts, monday, monday.AddDate(0, 0, 7).Add(-time.Nanosecond))
}

// ForMonth filters to the calendar month containing day.
func ForMonth(appts []Appointment, day time.Time, loc *time.Location) []Appointment {
	d := day.In(loc)
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, loc)
	return FilterByRange(appts, first, first.AddDate(0, 1, 0).Add(-time.Nanosecond))
}

// Statistics aggregates counts, booked hours and utilization over the
// appointments that start within [rangeStart, rangeEnd]. Cancelled
// appointments are counted by status but excluded from booked hours and
// utilization.
func Statistics(appts []Appointment, rangeStart, rangeEnd time.Time, dailyCapacityHours float64) Stats {
	if dailyCapacityHours <= 0 {
		dailyCapacityHours = DefaultPolicy().DailyCapacityHours
	}

	st := Stats{
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		ByStatus:   make(map[Status]int),
		ByType:     make(map[string]int),
		ByWeekday:  make(map[time.Weekday]int),
		WorkDays:   daysBetween(rangeStart, rangeEnd) + 1,
	}

	for _, a := range FilterByRange(appts, rangeStart, rangeEnd) {
		st.Total++
		st.ByStatus[a.Status]++
		st.ByType[a.Type]++
		st.ByWeekday[a.StartTime.Weekday()]++
		if a.Status != StatusCancelled {
			st.TotalHours += float64(a.DurationMinutes) / 60
		}
	}

	if st.WorkDays > 0 {
		st.UtilizationRate = st.TotalHours / (float64(st.WorkDays) * dailyCapacityHours) * 100
	}
	return st
}

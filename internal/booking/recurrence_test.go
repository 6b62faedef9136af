package booking

import (
	"errors"
	"testing"
	"time"
)

func TestExpandRecurrence_DailyCount(t *testing.T) {
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)

	dates, err := ExpandRecurrence(start, RecurrenceRule{Frequency: FreqDaily, Count: 5})
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}
	if len(dates) != 5 {
		t.Fatalf("expected 5 dates, got %d", len(dates))
	}
	for i, d := range dates {
		want := start.AddDate(0, 0, i)
		if !d.Equal(want) {
			t.Fatalf("date %d = %s, want %s", i, d, want)
		}
	}
}

func TestExpandRecurrence_DailyInterval(t *testing.T) {
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)

	dates, err := ExpandRecurrence(start, RecurrenceRule{Frequency: FreqDaily, Interval: 3, Count: 4})
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}
	if len(dates) != 4 {
		t.Fatalf("expected 4 dates, got %d", len(dates))
	}
	for i := 1; i < len(dates); i++ {
		if got := daysBetween(dates[i-1], dates[i]); got != 3 {
			t.Fatalf("gap %d is %d days, want 3", i, got)
		}
	}
}

func TestExpandRecurrence_WeeklyWeekdaySet(t *testing.T) {
	// Monday start, Mon/Wed/Fri, six occurrences across two weeks.
	start := time.Date(2026, 9, 7, 18, 0, 0, 0, time.UTC)
	rule := RecurrenceRule{
		Frequency: FreqWeekly,
		Weekdays:  []time.Weekday{time.Monday, time.Wednesday, time.Friday},
		Count:     6,
	}

	dates, err := ExpandRecurrence(start, rule)
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}

	wantDays := []int{7, 9, 11, 14, 16, 18}
	if len(dates) != len(wantDays) {
		t.Fatalf("expected %d dates, got %d", len(wantDays), len(dates))
	}
	for i, d := range dates {
		if d.Day() != wantDays[i] || d.Month() != time.September {
			t.Fatalf("date %d = %s, want Sep %d", i, d.Format("2006-01-02"), wantDays[i])
		}
		if d.Hour() != 18 {
			t.Fatalf("date %d lost its clock time: %s", i, d)
		}
	}
}

func TestExpandRecurrence_WeeklyHonorsInterval(t *testing.T) {
	// Every second week: occurrences in week 0 and week 2, nothing in week 1.
	start := time.Date(2026, 9, 7, 18, 0, 0, 0, time.UTC) // Monday
	rule := RecurrenceRule{
		Frequency: FreqWeekly,
		Interval:  2,
		Weekdays:  []time.Weekday{time.Monday},
		Count:     3,
	}

	dates, err := ExpandRecurrence(start, rule)
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}

	wantDays := []int{7, 21, 5} // Sep 7, Sep 21, Oct 5
	if len(dates) != len(wantDays) {
		t.Fatalf("expected %d dates, got %d", len(wantDays), len(dates))
	}
	if dates[1].Day() != 21 || dates[1].Month() != time.September {
		t.Fatalf("second occurrence %s, want Sep 21", dates[1].Format("2006-01-02"))
	}
	if dates[2].Day() != 5 || dates[2].Month() != time.October {
		t.Fatalf("third occurrence %s, want Oct 5", dates[2].Format("2006-01-02"))
	}
}

func TestExpandRecurrence_WeeklyDefaultsToStartWeekday(t *testing.T) {
	start := time.Date(2026, 9, 9, 7, 30, 0, 0, time.UTC) // Wednesday

	dates, err := ExpandRecurrence(start, RecurrenceRule{Frequency: FreqWeekly, Count: 3})
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}
	if len(dates) != 3 {
		t.Fatalf("expected 3 dates, got %d", len(dates))
	}
	for i, d := range dates {
		if d.Weekday() != time.Wednesday {
			t.Fatalf("date %d is a %s, want Wednesday", i, d.Weekday())
		}
	}
}

func TestExpandRecurrence_MonthlyEndDate(t *testing.T) {
	start := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)

	dates, err := ExpandRecurrence(start, RecurrenceRule{Frequency: FreqMonthly, EndDate: &end})
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}

	// Jan, Feb, Mar, Apr: the end date itself is included.
	if len(dates) != 4 {
		t.Fatalf("expected 4 dates, got %d", len(dates))
	}
	last := dates[len(dates)-1]
	if last.Month() != time.April || last.Day() != 15 {
		t.Fatalf("last occurrence %s, want Apr 15", last.Format("2006-01-02"))
	}
}

func TestExpandRecurrence_DefaultHorizon(t *testing.T) {
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)

	dates, err := ExpandRecurrence(start, RecurrenceRule{Frequency: FreqWeekly})
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}

	// Weekly over a 90 day horizon: 13 Mondays starting at the start date.
	if len(dates) != 13 {
		t.Fatalf("expected 13 dates, got %d", len(dates))
	}
	horizon := start.AddDate(0, 0, 90)
	for _, d := range dates {
		if d.After(horizon) {
			t.Fatalf("occurrence %s beyond the 90 day horizon", d.Format("2006-01-02"))
		}
	}
}

func TestExpandRecurrence_StrictlyIncreasing(t *testing.T) {
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	rule := RecurrenceRule{
		Frequency: FreqWeekly,
		Weekdays:  []time.Weekday{time.Friday, time.Monday, time.Wednesday}, // deliberately unsorted
		Count:     9,
	}

	dates, err := ExpandRecurrence(start, rule)
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			t.Fatalf("dates not strictly increasing at %d: %s then %s", i, dates[i-1], dates[i])
		}
	}
}

func TestExpandRecurrence_MissingFrequency(t *testing.T) {
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)

	if _, err := ExpandRecurrence(start, RecurrenceRule{Count: 3}); !errors.Is(err, ErrRecurrenceMisconfigured) {
		t.Fatalf("got %v, want ErrRecurrenceMisconfigured", err)
	}
	if _, err := ExpandRecurrence(start, RecurrenceRule{Frequency: "yearly"}); !errors.Is(err, ErrRecurrenceMisconfigured) {
		t.Fatalf("got %v, want ErrRecurrenceMisconfigured", err)
	}
}

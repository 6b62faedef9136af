package booking

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

func apptAt(start time.Time, minutes int, status Status, typ string) Appointment {
	return Appointment{
		ID:              uuid.New(),
		StartTime:       start,
		EndTime:         start.Add(time.Duration(minutes) * time.Minute),
		DurationMinutes: minutes,
		Status:          status,
		Type:            typ,
	}
}

func TestStatistics_Utilization(t *testing.T) {
	rangeStart := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	rangeEnd := time.Date(2026, 9, 13, 23, 59, 59, 0, time.UTC)

	var appts []Appointment
	for i := 0; i < 10; i++ {
		day := rangeStart.AddDate(0, 0, i%7)
		appts = append(appts, apptAt(day.Add(time.Duration(10+i/7)*time.Hour), 60, StatusCompleted, "personal_training"))
	}

	st := Statistics(appts, rangeStart, rangeEnd, 8)

	if st.Total != 10 {
		t.Fatalf("total %d, want 10", st.Total)
	}
	if st.WorkDays != 7 {
		t.Fatalf("work days %d, want 7", st.WorkDays)
	}
	if st.TotalHours != 10 {
		t.Fatalf("total hours %g, want 10", st.TotalHours)
	}

	// 10h over 7 days x 8h capacity
	want := 10.0 / 56.0 * 100
	if math.Abs(st.UtilizationRate-want) > 0.01 {
		t.Fatalf("utilization %g, want %g", st.UtilizationRate, want)
	}
}

func TestStatistics_CancelledExcludedFromHours(t *testing.T) {
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	appts := []Appointment{
		apptAt(day.Add(10*time.Hour), 60, StatusCompleted, "hiit"),
		apptAt(day.Add(12*time.Hour), 90, StatusCancelled, "hiit"),
		apptAt(day.Add(14*time.Hour), 60, StatusScheduled, "yoga"),
	}

	st := Statistics(appts, day, day.Add(24*time.Hour-time.Second), 8)

	if st.Total != 3 {
		t.Fatalf("total %d, want 3", st.Total)
	}
	if st.ByStatus[StatusCancelled] != 1 {
		t.Fatalf("cancelled count %d, want 1", st.ByStatus[StatusCancelled])
	}
	if st.TotalHours != 2 {
		t.Fatalf("total hours %g, want 2 (cancelled excluded)", st.TotalHours)
	}
	if st.ByType["hiit"] != 2 || st.ByType["yoga"] != 1 {
		t.Fatalf("type breakdown %v", st.ByType)
	}
	if st.ByWeekday[time.Monday] != 3 {
		t.Fatalf("weekday breakdown %v", st.ByWeekday)
	}
}

func TestFilterByRange_SortedAndBounded(t *testing.T) {
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	appts := []Appointment{
		apptAt(day.Add(15*time.Hour), 60, StatusScheduled, ""),
		apptAt(day.Add(9*time.Hour), 60, StatusScheduled, ""),
		apptAt(day.AddDate(0, 0, 3), 60, StatusScheduled, ""), // outside
	}

	got := FilterByRange(appts, day, day.Add(24*time.Hour-time.Second))
	if len(got) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(got))
	}
	if !got[0].StartTime.Before(got[1].StartTime) {
		t.Fatal("results not sorted by start time")
	}
}

func TestForWeekAndForMonth(t *testing.T) {
	// Wednesday Sep 9 2026
	mid := time.Date(2026, 9, 9, 12, 0, 0, 0, time.UTC)
	appts := []Appointment{
		apptAt(time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC), 60, StatusScheduled, ""),   // Monday same week
		apptAt(time.Date(2026, 9, 13, 8, 0, 0, 0, time.UTC), 60, StatusScheduled, ""),  // Sunday same week
		apptAt(time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC), 60, StatusScheduled, ""),  // next Monday
		apptAt(time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC), 60, StatusScheduled, ""),  // October
	}

	week := ForWeek(appts, mid, time.UTC)
	if len(week) != 2 {
		t.Fatalf("expected 2 appointments in week, got %d", len(week))
	}

	month := ForMonth(appts, mid, time.UTC)
	if len(month) != 3 {
		t.Fatalf("expected 3 appointments in month, got %d", len(month))
	}

	day := ForDay(appts, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), time.UTC)
	if len(day) != 1 {
		t.Fatalf("expected 1 appointment on the day, got %d", len(day))
	}
}

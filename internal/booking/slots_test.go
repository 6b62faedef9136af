package booking

import (
	"errors"
	"testing"
	"time"
)

func testPolicy() Policy {
	pol := DefaultPolicy()
	pol.Location = time.UTC
	return pol
}

func TestGenerateSlots_FullDay(t *testing.T) {
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC) // a Monday

	slots, err := GenerateSlots(day, testPolicy(), 60, 60)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}

	// 06:00 through 21:00 inclusive
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	if slots[0].StartTime != "06:00" || slots[0].EndTime != "07:00" {
		t.Fatalf("first slot %s-%s, want 06:00-07:00", slots[0].StartTime, slots[0].EndTime)
	}
	if slots[15].StartTime != "21:00" || slots[15].EndTime != "22:00" {
		t.Fatalf("last slot %s-%s, want 21:00-22:00", slots[15].StartTime, slots[15].EndTime)
	}

	for i, s := range slots {
		if got := s.End.Sub(s.Start); got != time.Hour {
			t.Fatalf("slot %d length %s, want 1h", i, got)
		}
	}
}

func TestGenerateSlots_OverlappingCandidates(t *testing.T) {
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	// 60 minute sessions generated every 30 minutes: candidates overlap,
	// and the last one runs past the end of the window.
	slots, err := GenerateSlots(day, testPolicy(), 60, 30)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}

	if len(slots) != 32 {
		t.Fatalf("expected 32 slots, got %d", len(slots))
	}
	last := slots[len(slots)-1]
	if last.StartTime != "21:30" || last.EndTime != "22:30" {
		t.Fatalf("last slot %s-%s, want 21:30-22:30", last.StartTime, last.EndTime)
	}
}

func TestAvailableSlots_ConflictAndPastFiltering(t *testing.T) {
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	existing := []Appointment{
		{StartTime: at(10, 0), EndTime: at(11, 0), Status: StatusScheduled},
	}
	now := at(8, 30) // the 06:00 and 07:00 slots are over, 08:00 still running

	slots, err := AvailableSlots(day, testPolicy(), 60, 60, existing, now)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}

	for _, s := range slots {
		if !s.End.After(now) {
			t.Fatalf("slot %s already over at now=%s", s.StartTime, now)
		}
		if s.StartTime == "10:00" {
			t.Fatal("10:00 slot should be filtered, trainer is booked")
		}
	}

	// 08:00..21:00 minus the booked 10:00
	if len(slots) != 13 {
		t.Fatalf("expected 13 slots, got %d", len(slots))
	}
	if slots[0].StartTime != "08:00" {
		t.Fatalf("first available %s, want 08:00", slots[0].StartTime)
	}
}

func TestAvailableSlots_BackToBackDoesNotConflict(t *testing.T) {
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	existing := []Appointment{
		{StartTime: at(10, 0), EndTime: at(11, 0), Status: StatusScheduled},
	}

	slots, err := AvailableSlots(day, testPolicy(), 60, 60, existing, at(6, 0).Add(-time.Hour))
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}

	var has0900, has1100 bool
	for _, s := range slots {
		if s.StartTime == "09:00" {
			has0900 = true
		}
		if s.StartTime == "11:00" {
			has1100 = true
		}
	}
	if !has0900 || !has1100 {
		t.Fatalf("slots touching the booking must stay available, 09:00=%v 11:00=%v", has0900, has1100)
	}
}

func TestAvailableSlots_EmptyIsNotAnError(t *testing.T) {
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	now := day.Add(23 * time.Hour) // whole day already over

	slots, err := AvailableSlots(day, testPolicy(), 60, 60, nil, now)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %d", len(slots))
	}
}

func TestValidateAppointmentTime(t *testing.T) {
	now := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC) // Monday 09:00
	at := func(days, h, m int) time.Time {
		return time.Date(2026, 9, 7+days, h, m, 0, 0, time.UTC)
	}

	weekdaysOnly := testPolicy()
	weekdaysOnly.Weekdays = []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
	}

	tests := []struct {
		name     string
		pol      Policy
		start    time.Time
		duration int
		wantErr  error
	}{
		{"valid same day", testPolicy(), at(0, 10, 0), 60, nil},
		{"valid at window start", testPolicy(), at(1, 6, 0), 60, nil},
		{"valid last slot of day", testPolicy(), at(1, 21, 0), 60, nil},
		{"zero duration", testPolicy(), at(1, 10, 0), 0, ErrInvalidTimeRange},
		{"non working day", weekdaysOnly, at(5, 10, 0), 60, ErrOutsideWorkingHours}, // Saturday
		{"before window", testPolicy(), at(1, 5, 30), 60, ErrOutsideWorkingHours},
		{"runs past window", testPolicy(), at(1, 21, 30), 60, ErrOutsideWorkingHours},
		{"in the past", testPolicy(), at(0, 7, 0), 60, ErrPastBooking},
		{"past beats horizon check ordering", testPolicy(), at(-1, 10, 0), 60, ErrPastBooking},
		{"beyond horizon", testPolicy(), at(91, 10, 0), 60, ErrAdvanceBookingExceeded},
		// Window checks come before the past check
		{"past and outside window", testPolicy(), at(0, 5, 0), 60, ErrOutsideWorkingHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAppointmentTime(tt.start, tt.duration, now, tt.pol)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

package booking

import (
	"errors"
	"time"
)

var (
	ErrInvalidTimeRange       = errors.New("end time must be after start time")
	ErrOutsideWorkingHours    = errors.New("requested time is outside working hours")
	ErrPastBooking            = errors.New("requested time is in the past")
	ErrAdvanceBookingExceeded = errors.New("requested time is beyond the booking horizon")
)

// GenerateSlots produces the candidate slots for one calendar day. Slots
// start at the working-hours start and step by intervalMinutes; the last
// slot is the last one starting strictly before the working-hours end, so
// a slot may run past the end of the window when duration > interval.
// Downstream conflict filtering decides what is actually bookable.
func GenerateSlots(date time.Time, pol Policy, durationMinutes, intervalMinutes int) ([]TimeSlot, error) {
	if durationMinutes <= 0 {
		durationMinutes = pol.DefaultDurationMinutes
	}
	if durationMinutes <= 0 {
		return nil, ErrInvalidTimeRange
	}
	if intervalMinutes <= 0 {
		intervalMinutes = pol.DefaultIntervalMinutes
	}
	if intervalMinutes <= 0 {
		intervalMinutes = durationMinutes
	}

	workStart, workEnd, err := pol.workWindow(date)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(durationMinutes) * time.Minute
	step := time.Duration(intervalMinutes) * time.Minute

	var slots []TimeSlot
	for cur := workStart; cur.Before(workEnd); cur = cur.Add(step) {
		end := cur.Add(duration)
		slots = append(slots, TimeSlot{
			Start:           cur,
			End:             end,
			StartTime:       cur.Format(clockLayout),
			EndTime:         end.Format(clockLayout),
			DurationMinutes: durationMinutes,
		})
	}
	return slots, nil
}

// AvailableSlots filters the generated slots for a day down to the ones a
// client can still book: slots already over (end at or before now) and
// slots overlapping any of the supplied appointments are dropped.
// Cancelled appointments must be filtered out by the caller; everything
// passed in counts as busy. An empty result is a normal outcome.
func AvailableSlots(date time.Time, pol Policy, durationMinutes, intervalMinutes int, existing []Appointment, now time.Time) ([]TimeSlot, error) {
	candidates, err := GenerateSlots(date, pol, durationMinutes, intervalMinutes)
	if err != nil {
		return nil, err
	}

	available := make([]TimeSlot, 0, len(candidates))
	for _, slot := range candidates {
		if !slot.End.After(now) {
			continue
		}
		if overlapsAny(slot.Start, slot.End, existing) {
			continue
		}
		available = append(available, slot)
	}
	return available, nil
}

func overlapsAny(start, end time.Time, appts []Appointment) bool {
	for i := range appts {
		if OverlapsAppointment(start, end, &appts[i]) {
			return true
		}
	}
	return false
}

// ValidateAppointmentTime checks a requested session start against policy.
// Checks run in a fixed order and the first failure wins: working day,
// window start, window end, not in the past, within the booking horizon.
func ValidateAppointmentTime(start time.Time, durationMinutes int, now time.Time, pol Policy) error {
	if durationMinutes <= 0 {
		return ErrInvalidTimeRange
	}
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	if !pol.isWorkingDay(start.In(pol.location()).Weekday()) {
		return ErrOutsideWorkingHours
	}

	workStart, workEnd, err := pol.workWindow(start)
	if err != nil {
		return err
	}
	if start.Before(workStart) {
		return ErrOutsideWorkingHours
	}
	if end.After(workEnd) {
		return ErrOutsideWorkingHours
	}

	if start.Before(now.Add(pol.MinAdvance)) {
		return ErrPastBooking
	}

	maxAdvance := pol.MaxAdvance
	if maxAdvance <= 0 {
		maxAdvance = 90 * 24 * time.Hour
	}
	if start.After(now.Add(maxAdvance)) {
		return ErrAdvanceBookingExceeded
	}

	return nil
}

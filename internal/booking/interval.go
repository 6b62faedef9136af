package booking

import "time"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching intervals (aEnd == bStart) do not
// conflict, so back-to-back sessions are always allowed.
//
// This is the only overlap test in the engine; every conflict check goes
// through it.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// OverlapsAppointment reports whether [start, end) intersects the
// appointment's booked interval.
func OverlapsAppointment(start, end time.Time, appt *Appointment) bool {
	return Overlaps(start, end, appt.StartTime, appt.EndTime)
}

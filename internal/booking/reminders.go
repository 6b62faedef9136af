package booking

import "time"

// defaultReminderOffsets is the standard reminder ladder attached to every
// new or rescheduled appointment, largest offset first so the resulting
// list is sorted ascending by ScheduledFor.
var defaultReminderOffsets = []struct {
	kind    ReminderKind
	minutes int
}{
	{ReminderEmail, 24 * 60},
	{ReminderPush, 2 * 60},
	{ReminderPush, 30},
}

// DefaultReminders builds the reminder set for a session starting at
// start. Every reminder fires strictly before the session.
func DefaultReminders(start time.Time) []Reminder {
	out := make([]Reminder, 0, len(defaultReminderOffsets))
	for _, def := range defaultReminderOffsets {
		out = append(out, Reminder{
			Kind:          def.kind,
			OffsetMinutes: def.minutes,
			ScheduledFor:  start.Add(-time.Duration(def.minutes) * time.Minute),
		})
	}
	return out
}

// DueReminder pairs a reminder that should fire with its owning
// appointment and the reminder's position in the appointment's list.
type DueReminder struct {
	Appointment   *Appointment
	ReminderIndex int
	Reminder      Reminder
}

// DueReminders selects every unsent reminder whose ScheduledFor has
// passed, across all active appointments in the given collection. The
// caller dispatches and marks Sent; this function never mutates anything.
func DueReminders(appts []Appointment, now time.Time) []DueReminder {
	var due []DueReminder
	for i := range appts {
		appt := &appts[i]
		if !appt.Status.IsActive() {
			continue
		}
		for j, rem := range appt.Reminders {
			if rem.Sent || rem.ScheduledFor.After(now) {
				continue
			}
			due = append(due, DueReminder{
				Appointment:   appt,
				ReminderIndex: j,
				Reminder:      rem,
			})
		}
	}
	return due
}

package notify

import (
	"context"
	"log"

	"github.com/fitbook/trainer-booking/internal/booking"
)

// Dispatcher delivers one reminder to the client. Real delivery (push,
// email) lives outside this service; the worker hands due reminders to
// whatever implementation it was wired with.
type Dispatcher interface {
	Dispatch(ctx context.Context, due booking.DueReminder) error
}

// LogDispatcher writes reminders to the process log. Default wiring for
// dev environments and tests.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, due booking.DueReminder) error {
	log.Printf(
		"reminder kind=%s appointment=%s client=%s session_start=%s",
		due.Reminder.Kind,
		due.Appointment.ID,
		due.Appointment.ClientID,
		due.Appointment.StartTime.Format("2006-01-02 15:04"),
	)
	return nil
}

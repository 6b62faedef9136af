package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTrainerNotFound     = errors.New("trainer not found")
	ErrClientNotFound      = errors.New("client not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service. The
// implementation must honor the atomicity contract: SaveAppointment calls
// made inside the trainer lock are the only writers for that trainer.
type Repository interface {
	GetTrainerByID(ctx context.Context, id uuid.UUID) (*Trainer, error)
	GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// FindAppointmentsByTrainerAndRange returns the trainer's appointments
	// whose [StartTime, EndTime) interval intersects [from, to), any status.
	FindAppointmentsByTrainerAndRange(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]Appointment, error)

	// SaveAppointment inserts or fully updates one appointment row,
	// reminders included.
	SaveAppointment(ctx context.Context, appt *Appointment) error

	// FindDueReminderAppointments returns active appointments holding at
	// least one unsent reminder scheduled at or before now.
	FindDueReminderAppointments(ctx context.Context, now time.Time) ([]Appointment, error)

	// MarkReminderSent flips one reminder's sent flag in place.
	MarkReminderSent(ctx context.Context, apptID uuid.UUID, reminderIndex int) error

	// FindOverdueActive returns active appointments whose start time has
	// passed, for the no-show sweep.
	FindOverdueActive(ctx context.Context, now time.Time) ([]Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}

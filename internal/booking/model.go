package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusConfirmed   Status = "confirmed"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusRescheduled Status = "rescheduled"
	StatusNoShow      Status = "no_show"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// IsActive reports whether the appointment still occupies its time range.
// A rescheduled appointment stays active: it keeps its (new) interval and
// must still be startable, remindable and sweepable.
func (s Status) IsActive() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusRescheduled:
		return true
	}
	return false
}

type ReminderKind string

const (
	ReminderEmail ReminderKind = "email"
	ReminderPush  ReminderKind = "push"
)

// Reminder is one pending notification attached to an appointment.
// The engine only schedules and selects reminders; dispatching and
// marking Sent is the caller's job.
type Reminder struct {
	Kind          ReminderKind `json:"kind"`
	OffsetMinutes int          `json:"offset_minutes"`
	ScheduledFor  time.Time    `json:"scheduled_for"`
	Sent          bool         `json:"sent"`
}

type Trainer struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Client struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Appointment is a booked session between a trainer and a client.
// Cancellation is a status change, never a delete.
type Appointment struct {
	ID              uuid.UUID
	TrainerID       uuid.UUID
	ClientID        uuid.UUID
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
	Type            string
	Location        string
	Notes           string
	Status          Status
	Reminders       []Reminder

	// Set when the appointment was created as part of a recurring series.
	RecurrenceID    *uuid.UUID
	RecurrenceIndex int

	ActualStart *time.Time
	ActualEnd   *time.Time

	CreatedAt          time.Time
	UpdatedAt          time.Time
	CancelledAt        *time.Time
	CancellationReason string
	RescheduledAt      *time.Time
	PreviousStartTime  *time.Time
}

// TimeSlot is a candidate bookable interval. It is computed on demand for
// availability responses and never persisted.
type TimeSlot struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
}

type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
)

// RecurrenceRule describes how a recurring booking repeats. Termination is
// by Count, by EndDate (inclusive), or failing both, by a 90-day horizon
// from the start date.
type RecurrenceRule struct {
	Frequency Frequency
	Interval  int            // every Nth day/week/month, default 1
	Weekdays  []time.Weekday // weekly only; empty means the start date's weekday
	Count     int            // 0 means unbounded by count
	EndDate   *time.Time     // inclusive
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/fitbook/trainer-booking/internal/redis"
)

const (
	EventAppointmentCreated     = "APPOINTMENT_CREATED"
	EventAppointmentConfirmed   = "APPOINTMENT_CONFIRMED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventSessionStarted         = "SESSION_STARTED"
	EventSessionCompleted       = "SESSION_COMPLETED"
	EventAppointmentNoShow      = "APPOINTMENT_NO_SHOW"
	EventReminderSent           = "REMINDER_SENT"
	EventRecurrenceCreated      = "RECURRENCE_CREATED"
)

var (
	ErrSlotConflict            = errors.New("requested time conflicts with an existing appointment")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrTrainerBusy             = errors.New("trainer schedule is being modified, please retry")
)

// Service drives the appointment lifecycle. The slot math itself is pure;
// the service adds repository access, the per-trainer lock that makes
// check-then-create atomic, and the event trail.
type Service struct {
	repo   Repository
	locker redisclient.Locker
	pol    Policy
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, pol Policy) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		pol:    pol,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Policy() Policy { return s.pol }

type CreateRequest struct {
	TrainerID       uuid.UUID
	ClientID        uuid.UUID
	Start           time.Time
	DurationMinutes int
	Type            string
	Location        string
	Notes           string
}

// CheckAvailability returns the slots still bookable with this trainer on
// the given day. An empty list is a normal answer, not an error.
func (s *Service) CheckAvailability(ctx context.Context, trainerID uuid.UUID, date time.Time, durationMinutes, intervalMinutes int) ([]TimeSlot, error) {
	existing, err := s.busyAppointmentsOnDay(ctx, trainerID, date)
	if err != nil {
		return nil, err
	}
	return AvailableSlots(date, s.pol, durationMinutes, intervalMinutes, existing, s.now())
}

// CreateAppointment validates and books a single session. The conflict
// check and insert run under the trainer lock so two concurrent requests
// for overlapping times cannot both land.
func (s *Service) CreateAppointment(ctx context.Context, req CreateRequest) (*Appointment, error) {
	if _, err := s.repo.GetTrainerByID(ctx, req.TrainerID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetClientByID(ctx, req.ClientID); err != nil {
		return nil, err
	}
	return s.createOne(ctx, req, nil, 0)
}

func (s *Service) createOne(ctx context.Context, req CreateRequest, recurrenceID *uuid.UUID, recurrenceIndex int) (*Appointment, error) {
	duration := req.DurationMinutes
	if duration <= 0 {
		duration = s.pol.DefaultDurationMinutes
	}

	now := s.now()
	if err := ValidateAppointmentTime(req.Start, duration, now, s.pol); err != nil {
		return nil, err
	}
	end := req.Start.Add(time.Duration(duration) * time.Minute)

	var created *Appointment
	err := s.locker.WithTrainerLock(ctx, req.TrainerID, func(lockCtx context.Context) error {
		if err := s.ensureFree(lockCtx, req.TrainerID, req.Start, end, uuid.Nil); err != nil {
			return err
		}

		appt := &Appointment{
			ID:              uuid.New(),
			TrainerID:       req.TrainerID,
			ClientID:        req.ClientID,
			StartTime:       req.Start,
			EndTime:         end,
			DurationMinutes: duration,
			Type:            req.Type,
			Location:        req.Location,
			Notes:           req.Notes,
			Status:          StatusScheduled,
			Reminders:       DefaultReminders(req.Start),
			RecurrenceID:    recurrenceID,
			RecurrenceIndex: recurrenceIndex,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repo.SaveAppointment(lockCtx, appt); err != nil {
			return fmt.Errorf("save appointment: %w", err)
		}

		created = appt
		s.logEvent(lockCtx, appt.ID, EventAppointmentCreated, map[string]any{
			"trainer_id": req.TrainerID.String(),
			"client_id":  req.ClientID.String(),
			"start_time": req.Start,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrTrainerBusy
		}
		return nil, err
	}
	return created, nil
}

// ensureFree fails with ErrSlotConflict if any of the trainer's
// non-cancelled appointments overlaps [start, end). exclude skips the
// appointment being rescheduled.
func (s *Service) ensureFree(ctx context.Context, trainerID uuid.UUID, start, end time.Time, exclude uuid.UUID) error {
	existing, err := s.repo.FindAppointmentsByTrainerAndRange(ctx, trainerID, start, end)
	if err != nil {
		return fmt.Errorf("load trainer schedule: %w", err)
	}
	for i := range existing {
		appt := &existing[i]
		if appt.ID == exclude || appt.Status == StatusCancelled {
			continue
		}
		if OverlapsAppointment(start, end, appt) {
			return ErrSlotConflict
		}
	}
	return nil
}

type SkippedOccurrence struct {
	Date   time.Time `json:"date"`
	Reason string    `json:"reason"`
}

type RecurrenceResult struct {
	RecurrenceID uuid.UUID           `json:"recurrence_id"`
	Created      []Appointment       `json:"created"`
	Skipped      []SkippedOccurrence `json:"skipped,omitempty"`
}

// CreateRecurringAppointments expands the rule and books each occurrence
// independently. Occurrences that fail validation or conflict are reported
// in Skipped rather than aborting the series; RecurrenceIndex stays
// contiguous over the created ones.
func (s *Service) CreateRecurringAppointments(ctx context.Context, req CreateRequest, rule RecurrenceRule) (*RecurrenceResult, error) {
	if _, err := s.repo.GetTrainerByID(ctx, req.TrainerID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetClientByID(ctx, req.ClientID); err != nil {
		return nil, err
	}

	dates, err := ExpandRecurrence(req.Start, rule)
	if err != nil {
		return nil, err
	}

	recurrenceID := uuid.New()
	result := &RecurrenceResult{RecurrenceID: recurrenceID}

	index := 0
	for _, date := range dates {
		occReq := req
		occReq.Start = date
		appt, err := s.createOne(ctx, occReq, &recurrenceID, index)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedOccurrence{Date: date, Reason: err.Error()})
			continue
		}
		result.Created = append(result.Created, *appt)
		index++
	}

	s.logEvent(ctx, uuid.Nil, EventRecurrenceCreated, map[string]any{
		"recurrence_id": recurrenceID.String(),
		"created":       len(result.Created),
		"skipped":       len(result.Skipped),
	})
	return result, nil
}

// RescheduleAppointment moves an upcoming appointment to a new start. The
// appointment keeps its id, duration and recurrence link; reminders are
// rebuilt against the new start.
func (s *Service) RescheduleAppointment(ctx context.Context, id uuid.UUID, newStart time.Time) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.Status.IsActive() || appt.Status == StatusInProgress {
		return nil, ErrInvalidStatusTransition
	}

	now := s.now()
	if err := ValidateAppointmentTime(newStart, appt.DurationMinutes, now, s.pol); err != nil {
		return nil, err
	}
	newEnd := newStart.Add(time.Duration(appt.DurationMinutes) * time.Minute)

	var updated *Appointment
	err = s.locker.WithTrainerLock(ctx, appt.TrainerID, func(lockCtx context.Context) error {
		if err := s.ensureFree(lockCtx, appt.TrainerID, newStart, newEnd, appt.ID); err != nil {
			return err
		}

		prevStart := appt.StartTime
		appt.PreviousStartTime = &prevStart
		appt.RescheduledAt = &now
		appt.StartTime = newStart
		appt.EndTime = newEnd
		appt.Status = StatusRescheduled
		appt.Reminders = DefaultReminders(newStart)
		appt.UpdatedAt = now

		if err := s.repo.SaveAppointment(lockCtx, appt); err != nil {
			return fmt.Errorf("save appointment: %w", err)
		}

		updated = appt
		s.logEvent(lockCtx, appt.ID, EventAppointmentRescheduled, map[string]any{
			"previous_start": prevStart,
			"new_start":      newStart,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrTrainerBusy
		}
		return nil, err
	}
	return updated, nil
}

// ConfirmAppointment moves a scheduled (or re-scheduled) appointment to
// confirmed.
func (s *Service) ConfirmAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusScheduled && appt.Status != StatusRescheduled {
		return nil, ErrInvalidStatusTransition
	}

	appt.Status = StatusConfirmed
	appt.UpdatedAt = s.now()
	if err := s.repo.SaveAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("save appointment: %w", err)
	}

	s.logEvent(ctx, appt.ID, EventAppointmentConfirmed, map[string]any{})
	return appt, nil
}

// CancelAppointment cancels an appointment that has not finished.
// Cancelling twice is a no-op, not an error.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == StatusCancelled {
		return appt, nil
	}
	if appt.Status.IsTerminal() {
		return nil, ErrInvalidStatusTransition
	}

	now := s.now()
	appt.Status = StatusCancelled
	appt.CancelledAt = &now
	appt.CancellationReason = reason
	appt.UpdatedAt = now
	if err := s.repo.SaveAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("save appointment: %w", err)
	}

	s.logEvent(ctx, appt.ID, EventAppointmentCancelled, map[string]any{"reason": reason})
	return appt, nil
}

// StartSession moves an upcoming appointment to in_progress and stamps
// the actual start.
func (s *Service) StartSession(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.Status.IsActive() {
		return nil, ErrInvalidStatusTransition
	}

	now := s.now()
	appt.Status = StatusInProgress
	appt.ActualStart = &now
	appt.UpdatedAt = now
	if err := s.repo.SaveAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("save appointment: %w", err)
	}

	s.logEvent(ctx, appt.ID, EventSessionStarted, map[string]any{})
	return appt, nil
}

// CompleteSession closes an in-progress session and recomputes the billed
// duration from the actual start and end.
func (s *Service) CompleteSession(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusInProgress || appt.ActualStart == nil {
		return nil, ErrInvalidStatusTransition
	}

	now := s.now()
	appt.Status = StatusCompleted
	appt.ActualEnd = &now
	appt.DurationMinutes = int(math.Round(now.Sub(*appt.ActualStart).Minutes()))
	appt.UpdatedAt = now
	if err := s.repo.SaveAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("save appointment: %w", err)
	}

	s.logEvent(ctx, appt.ID, EventSessionCompleted, map[string]any{
		"duration_minutes": appt.DurationMinutes,
	})
	return appt, nil
}

// IsNoShowCandidate reports whether an appointment's start has passed
// without the session being started. The transition itself is driven by
// the sweep worker.
func IsNoShowCandidate(appt *Appointment, now time.Time) bool {
	return appt.Status.IsActive() && now.After(appt.StartTime)
}

// MarkNoShow transitions one overdue appointment to no_show.
func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !IsNoShowCandidate(appt, now) {
		return nil, ErrInvalidStatusTransition
	}

	appt.Status = StatusNoShow
	appt.UpdatedAt = now
	if err := s.repo.SaveAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("save appointment: %w", err)
	}

	s.logEvent(ctx, appt.ID, EventAppointmentNoShow, map[string]any{})
	return appt, nil
}

// SweepNoShows is intended to be called by the worker periodically. grace
// is how long past the start time an unstarted session is left alone
// before being marked a no-show.
func (s *Service) SweepNoShows(ctx context.Context, grace time.Duration) (int, error) {
	overdue, err := s.repo.FindOverdueActive(ctx, s.now().Add(-grace))
	if err != nil {
		return 0, fmt.Errorf("find overdue appointments: %w", err)
	}

	swept := 0
	for i := range overdue {
		if _, err := s.MarkNoShow(ctx, overdue[i].ID); err != nil {
			if errors.Is(err, ErrInvalidStatusTransition) {
				continue
			}
			log.Printf("failed to mark appointment %s as no-show: %v", overdue[i].ID, err)
			continue
		}
		swept++
	}
	return swept, nil
}

// DueReminders returns every reminder that should fire now, paired with
// its appointment. Dispatching and marking sent is the caller's job.
func (s *Service) DueReminders(ctx context.Context) ([]DueReminder, error) {
	now := s.now()
	appts, err := s.repo.FindDueReminderAppointments(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("find due reminders: %w", err)
	}
	return DueReminders(appts, now), nil
}

// MarkReminderSent records that one reminder was dispatched.
func (s *Service) MarkReminderSent(ctx context.Context, apptID uuid.UUID, reminderIndex int) error {
	if err := s.repo.MarkReminderSent(ctx, apptID, reminderIndex); err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	s.logEvent(ctx, apptID, EventReminderSent, map[string]any{
		"reminder_index": reminderIndex,
	})
	return nil
}

// GetAppointment retrieves one appointment by id.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

// GetStatistics aggregates a trainer's schedule over [from, to].
func (s *Service) GetStatistics(ctx context.Context, trainerID uuid.UUID, from, to time.Time) (*Stats, error) {
	appts, err := s.repo.FindAppointmentsByTrainerAndRange(ctx, trainerID, from, to.Add(time.Second))
	if err != nil {
		return nil, fmt.Errorf("load trainer schedule: %w", err)
	}
	st := Statistics(appts, from, to, s.pol.DailyCapacityHours)
	return &st, nil
}

func (s *Service) busyAppointmentsOnDay(ctx context.Context, trainerID uuid.UUID, date time.Time) ([]Appointment, error) {
	loc := s.pol.location()
	d := date.In(loc)
	dayStart := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	appts, err := s.repo.FindAppointmentsByTrainerAndRange(ctx, trainerID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("load trainer schedule: %w", err)
	}

	busy := appts[:0]
	for i := range appts {
		if appts[i].Status != StatusCancelled {
			busy = append(busy, appts[i])
		}
	}
	return busy, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	ev := EventLog{
		EventType: eventType,
		Payload:   data,
		CreatedAt: s.now(),
	}
	if appointmentID != uuid.Nil {
		apptID := appointmentID
		ev.AppointmentID = &apptID
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}

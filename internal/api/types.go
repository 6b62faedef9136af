package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fitbook/trainer-booking/internal/booking"
)

type CreateAppointmentRequest struct {
	TrainerID       string `json:"trainer_id"`
	ClientID        string `json:"client_id"`
	StartTime       string `json:"start_time"` // RFC 3339
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Type            string `json:"type,omitempty"`
	Location        string `json:"location,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

type RecurrenceRequest struct {
	Frequency string   `json:"frequency"`
	Interval  int      `json:"interval,omitempty"`
	Weekdays  []string `json:"weekdays,omitempty"`
	Count     int      `json:"count,omitempty"`
	EndDate   string   `json:"end_date,omitempty"` // 2006-01-02, inclusive
}

type CreateRecurringRequest struct {
	CreateAppointmentRequest
	Recurrence RecurrenceRequest `json:"recurrence"`
}

type RescheduleRequest struct {
	StartTime string `json:"start_time"` // RFC 3339
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type AppointmentResponse struct {
	ID                 uuid.UUID          `json:"id"`
	TrainerID          uuid.UUID          `json:"trainer_id"`
	ClientID           uuid.UUID          `json:"client_id"`
	StartTime          time.Time          `json:"start_time"`
	EndTime            time.Time          `json:"end_time"`
	DurationMinutes    int                `json:"duration_minutes"`
	Type               string             `json:"type,omitempty"`
	Location           string             `json:"location,omitempty"`
	Notes              string             `json:"notes,omitempty"`
	Status             string             `json:"status"`
	Reminders          []booking.Reminder `json:"reminders,omitempty"`
	RecurrenceID       *uuid.UUID         `json:"recurrence_id,omitempty"`
	RecurrenceIndex    int                `json:"recurrence_index"`
	PreviousStartTime  *time.Time         `json:"previous_start_time,omitempty"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty"`
}

type RecurringResponse struct {
	RecurrenceID uuid.UUID                   `json:"recurrence_id"`
	Created      []AppointmentResponse       `json:"created"`
	Skipped      []booking.SkippedOccurrence `json:"skipped,omitempty"`
}

type AvailabilityResponse struct {
	TrainerID uuid.UUID          `json:"trainer_id"`
	Date      string             `json:"date"`
	Slots     []booking.TimeSlot `json:"slots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                 a.ID,
		TrainerID:          a.TrainerID,
		ClientID:           a.ClientID,
		StartTime:          a.StartTime,
		EndTime:            a.EndTime,
		DurationMinutes:    a.DurationMinutes,
		Type:               a.Type,
		Location:           a.Location,
		Notes:              a.Notes,
		Status:             string(a.Status),
		Reminders:          a.Reminders,
		RecurrenceID:       a.RecurrenceID,
		RecurrenceIndex:    a.RecurrenceIndex,
		PreviousStartTime:  a.PreviousStartTime,
		CancelledAt:        a.CancelledAt,
		CancellationReason: a.CancellationReason,
	}
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func (r RecurrenceRequest) toRule(loc *time.Location) (booking.RecurrenceRule, error) {
	rule := booking.RecurrenceRule{
		Frequency: booking.Frequency(strings.ToLower(r.Frequency)),
		Interval:  r.Interval,
		Count:     r.Count,
	}
	for _, name := range r.Weekdays {
		wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return booking.RecurrenceRule{}, fmt.Errorf("invalid weekday %q", name)
		}
		rule.Weekdays = append(rule.Weekdays, wd)
	}
	if r.EndDate != "" {
		end, err := time.ParseInLocation("2006-01-02", r.EndDate, loc)
		if err != nil {
			return booking.RecurrenceRule{}, fmt.Errorf("invalid end_date: %w", err)
		}
		rule.EndDate = &end
	}
	return rule, nil
}

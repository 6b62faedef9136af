package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `
	id, trainer_id, client_id, start_time, end_time, duration_minutes,
	type, location, notes, status, reminders, recurrence_id, recurrence_index,
	actual_start, actual_end, created_at, updated_at,
	cancelled_at, cancellation_reason, rescheduled_at, previous_start_time`

// Helpers

func scanTrainer(row pgx.Row) (*Trainer, error) {
	var t Trainer
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Specialty,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	return &t, nil
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var reminders []byte

	err := row.Scan(
		&a.ID,
		&a.TrainerID,
		&a.ClientID,
		&a.StartTime,
		&a.EndTime,
		&a.DurationMinutes,
		&a.Type,
		&a.Location,
		&a.Notes,
		&a.Status,
		&reminders,
		&a.RecurrenceID,
		&a.RecurrenceIndex,
		&a.ActualStart,
		&a.ActualEnd,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.CancelledAt,
		&a.CancellationReason,
		&a.RescheduledAt,
		&a.PreviousStartTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	if len(reminders) > 0 {
		if err := json.Unmarshal(reminders, &a.Reminders); err != nil {
			return nil, fmt.Errorf("decode reminders for %s: %w", a.ID, err)
		}
	}
	return &a, nil
}

func (r *PgRepository) queryAppointments(ctx context.Context, sql string, args ...any) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Interface methods

func (r *PgRepository) GetTrainerByID(ctx context.Context, id uuid.UUID) (*Trainer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM trainers
		WHERE id = $1
	`, id)
	return scanTrainer(row)
}

func (r *PgRepository) GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM clients
		WHERE id = $1
	`, id)
	return scanClient(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) FindAppointmentsByTrainerAndRange(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	return r.queryAppointments(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE trainer_id = $1
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time
	`, trainerID, from, to)
}

func (r *PgRepository) SaveAppointment(ctx context.Context, appt *Appointment) error {
	reminders, err := json.Marshal(appt.Reminders)
	if err != nil {
		return fmt.Errorf("encode reminders: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (id) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			duration_minutes = EXCLUDED.duration_minutes,
			type = EXCLUDED.type,
			location = EXCLUDED.location,
			notes = EXCLUDED.notes,
			status = EXCLUDED.status,
			reminders = EXCLUDED.reminders,
			actual_start = EXCLUDED.actual_start,
			actual_end = EXCLUDED.actual_end,
			updated_at = EXCLUDED.updated_at,
			cancelled_at = EXCLUDED.cancelled_at,
			cancellation_reason = EXCLUDED.cancellation_reason,
			rescheduled_at = EXCLUDED.rescheduled_at,
			previous_start_time = EXCLUDED.previous_start_time
	`,
		appt.ID, appt.TrainerID, appt.ClientID, appt.StartTime, appt.EndTime, appt.DurationMinutes,
		appt.Type, appt.Location, appt.Notes, appt.Status, reminders, appt.RecurrenceID, appt.RecurrenceIndex,
		appt.ActualStart, appt.ActualEnd, appt.CreatedAt, appt.UpdatedAt,
		appt.CancelledAt, appt.CancellationReason, appt.RescheduledAt, appt.PreviousStartTime,
	)
	if err != nil {
		return fmt.Errorf("upsert appointment %s: %w", appt.ID, err)
	}
	return nil
}

func (r *PgRepository) FindDueReminderAppointments(ctx context.Context, now time.Time) ([]Appointment, error) {
	return r.queryAppointments(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status IN ('scheduled', 'confirmed', 'rescheduled')
		  AND EXISTS (
			SELECT 1
			FROM jsonb_array_elements(reminders) AS rem
			WHERE (rem->>'sent')::boolean = false
			  AND (rem->>'scheduled_for')::timestamptz <= $1
		  )
		ORDER BY start_time
	`, now)
}

func (r *PgRepository) MarkReminderSent(ctx context.Context, apptID uuid.UUID, reminderIndex int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET reminders = jsonb_set(reminders, ARRAY[$2::text, 'sent'], 'true'::jsonb),
		    updated_at = now()
		WHERE id = $1
		  AND jsonb_array_length(reminders) > $2
	`, apptID, reminderIndex)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) FindOverdueActive(ctx context.Context, now time.Time) ([]Appointment, error) {
	return r.queryAppointments(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status IN ('scheduled', 'confirmed', 'rescheduled')
		  AND start_time < $1
		ORDER BY start_time
	`, now)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

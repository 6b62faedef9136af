package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fitbook/trainer-booking/internal/booking"
	redisclient "github.com/fitbook/trainer-booking/internal/redis"
)

func createAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		createReq, ok := parseCreateRequest(w, req)
		if !ok {
			return
		}

		appt, err := svc.CreateAppointment(r.Context(), createReq)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func createRecurringHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRecurringRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		createReq, ok := parseCreateRequest(w, req.CreateAppointmentRequest)
		if !ok {
			return
		}

		rule, err := req.Recurrence.toRule(createReq.Start.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_recurrence", err.Error())
			return
		}

		result, err := svc.CreateRecurringAppointments(r.Context(), createReq, rule)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := RecurringResponse{
			RecurrenceID: result.RecurrenceID,
			Skipped:      result.Skipped,
		}
		for i := range result.Created {
			resp.Created = append(resp.Created, toAppointmentResponse(&result.Created[i]))
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func getAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func confirmAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return transitionHandler(svc, func(r *http.Request, svc *booking.Service, id uuid.UUID) (*booking.Appointment, error) {
		return svc.ConfirmAppointment(r.Context(), id)
	})
}

func startSessionHandler(svc *booking.Service) http.HandlerFunc {
	return transitionHandler(svc, func(r *http.Request, svc *booking.Service, id uuid.UUID) (*booking.Appointment, error) {
		return svc.StartSession(r.Context(), id)
	})
}

func completeSessionHandler(svc *booking.Service) http.HandlerFunc {
	return transitionHandler(svc, func(r *http.Request, svc *booking.Service, id uuid.UUID) (*booking.Appointment, error) {
		return svc.CompleteSession(r.Context(), id)
	})
}

func transitionHandler(svc *booking.Service, fn func(*http.Request, *booking.Service, uuid.UUID) (*booking.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := fn(r, svc, id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req CancelRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		appt, err := svc.CancelAppointment(r.Context(), id, req.Reason)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		newStart, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be RFC 3339")
			return
		}

		appt, err := svc.RescheduleAppointment(r.Context(), id, newStart)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func availabilityHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trainerID, err := uuid.Parse(chi.URLParam(r, "trainerID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_trainer_id", "trainerID must be a valid UUID")
			return
		}

		dateStr := r.URL.Query().Get("date")
		if dateStr == "" {
			writeError(w, http.StatusBadRequest, "missing_date", "date query parameter is required (2006-01-02)")
			return
		}
		date, err := time.ParseInLocation("2006-01-02", dateStr, svc.Policy().Location)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must look like 2006-01-02")
			return
		}

		duration := queryInt(r, "duration", 0)
		interval := queryInt(r, "interval", 0)

		slots, err := svc.CheckAvailability(r.Context(), trainerID, date, duration, interval)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			TrainerID: trainerID,
			Date:      dateStr,
			Slots:     slots,
		})
	}
}

func statisticsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trainerID, err := uuid.Parse(chi.URLParam(r, "trainerID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_trainer_id", "trainerID must be a valid UUID")
			return
		}

		loc := svc.Policy().Location
		from, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("from"), loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must look like 2006-01-02")
			return
		}
		to, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("to"), loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", "to must look like 2006-01-02")
			return
		}
		if to.Before(from) {
			writeError(w, http.StatusBadRequest, "invalid_range", "to must not be before from")
			return
		}

		// Extend to the end of the last day so its appointments count.
		stats, err := svc.GetStatistics(r.Context(), trainerID, from, to.AddDate(0, 0, 1).Add(-time.Second))
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, stats)
	}
}

func parseCreateRequest(w http.ResponseWriter, req CreateAppointmentRequest) (booking.CreateRequest, bool) {
	trainerID, err := uuid.Parse(req.TrainerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_trainer_id", "trainer_id must be a valid UUID")
		return booking.CreateRequest{}, false
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_client_id", "client_id must be a valid UUID")
		return booking.CreateRequest{}, false
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be RFC 3339")
		return booking.CreateRequest{}, false
	}

	return booking.CreateRequest{
		TrainerID:       trainerID,
		ClientID:        clientID,
		Start:           start,
		DurationMinutes: req.DurationMinutes,
		Type:            req.Type,
		Location:        req.Location,
		Notes:           req.Notes,
	}, true
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrTrainerNotFound):
		writeError(w, http.StatusNotFound, "trainer_not_found", err.Error())
	case errors.Is(err, booking.ErrClientNotFound):
		writeError(w, http.StatusNotFound, "client_not_found", err.Error())
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrInvalidTimeRange):
		writeError(w, http.StatusBadRequest, "invalid_time_range", err.Error())
	case errors.Is(err, booking.ErrOutsideWorkingHours):
		writeError(w, http.StatusBadRequest, "outside_working_hours", err.Error())
	case errors.Is(err, booking.ErrPastBooking):
		writeError(w, http.StatusBadRequest, "past_booking", err.Error())
	case errors.Is(err, booking.ErrAdvanceBookingExceeded):
		writeError(w, http.StatusBadRequest, "advance_booking_exceeded", err.Error())
	case errors.Is(err, booking.ErrRecurrenceMisconfigured):
		writeError(w, http.StatusBadRequest, "recurrence_misconfigured", err.Error())
	case errors.Is(err, booking.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, booking.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, booking.ErrTrainerBusy),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "trainer_busy", "trainer schedule is being modified, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/booking"
	"github.com/hackgods/clinic-scheduling/internal/consultation"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// errBadRequest marks request parsing failures that are the caller's fault.
type errBadRequest struct {
	code string
	msg  string
}

func (e *errBadRequest) Error() string { return e.msg }

func badRequest(code, format string, args ...any) error {
	return &errBadRequest{code: code, msg: fmt.Sprintf(format, args...)}
}

// decodeJSON decodes and validates the body into dst. An empty body is
// accepted when optional is set.
func decodeJSON(r *http.Request, dst any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case errors.Is(err, io.EOF) && optional:
	case err != nil:
		return badRequest("invalid_request_body", "could not parse JSON")
	}
	if err := validate.Struct(dst); err != nil {
		return badRequest("validation_failed", formatValidationErrors(err))
	}
	return nil
}

func formatValidationErrors(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "uuid":
			msgs = append(msgs, field+" must be a valid UUID")
		case "max":
			msgs = append(msgs, field+" must be at most "+fe.Param()+" characters")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, ", ")
}

var paramCodes = map[string]string{
	"doctorID":  "invalid_doctor_id",
	"patientID": "invalid_patient_id",
	"slotID":    "invalid_slot_id",
	"id":        "invalid_appointment_id",
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, badRequest(paramCodes[name], "%s must be a valid UUID", name)
	}
	return id, nil
}

func parseDate(field, raw string) (appointment.Date, error) {
	d, err := appointment.ParseDate(raw)
	if err != nil {
		return appointment.Date{}, badRequest("validation_failed", "%s must be a date in YYYY-MM-DD format", field)
	}
	return d, nil
}

func parseTime(field, raw string) (appointment.TimeOfDay, error) {
	t, err := appointment.ParseTimeOfDay(raw)
	if err != nil {
		return 0, badRequest("validation_failed", "%s must be a time in HH:MM format", field)
	}
	return t, nil
}

// errorStatus maps domain errors to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	var bad *errBadRequest
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, bad.code
	case errors.Is(err, booking.ErrReselectTime):
		return http.StatusConflict, "reselect_time"
	case errors.Is(err, booking.ErrInvalidSelection):
		return http.StatusUnprocessableEntity, "invalid_selection"
	case errors.Is(err, consultation.ErrInvalidPrescription):
		return http.StatusBadRequest, "invalid_prescription"
	case errors.Is(err, appointment.ErrInvalidRange):
		return http.StatusBadRequest, "invalid_range"
	case errors.Is(err, appointment.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, appointment.ErrOverlap):
		return http.StatusConflict, "slot_overlap"
	case errors.Is(err, appointment.ErrSlotBooked):
		return http.StatusConflict, "slot_booked"
	case errors.Is(err, appointment.ErrSlotUnavailable):
		return http.StatusConflict, "slot_unavailable"
	case errors.Is(err, appointment.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, appointment.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	}
	return http.StatusInternalServerError, "internal_error"
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	details := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("request error",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
		details = "internal server error"
	}
	writeError(w, status, code, details)
}

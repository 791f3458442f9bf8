package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/booking"
)

// bookingHorizon is how far ahead the date step looks when the caller
// gives no range.
const bookingHorizon = 30

func (h *Handler) searchDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.booking.SearchDoctors(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]DoctorResponse, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, toDoctorResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) availableDates(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuidParam(r, "doctorID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	from := appointment.DateOf(h.now())
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = parseDate("from", raw); err != nil {
			h.respondError(w, r, err)
			return
		}
	}
	to := from.AddDays(bookingHorizon)
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = parseDate("to", raw); err != nil {
			h.respondError(w, r, err)
			return
		}
	}

	dates, err := h.booking.AvailableDates(r.Context(), booking.Selection{DoctorID: doctorID}, from, to)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) availableTimes(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuidParam(r, "doctorID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	date, err := parseDate("date", chi.URLParam(r, "date"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	sel, err := h.booking.SelectDate(r.Context(), booking.Selection{DoctorID: doctorID}, date)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	slots, err := h.booking.AvailableTimes(r.Context(), sel)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotResponses(slots))
}

func (h *Handler) bookAppointment(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuidParam(r, "patientID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req BookAppointmentRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.respondError(w, r, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	sel := booking.Selection{
		DoctorID: uuid.MustParse(req.DoctorID),
		Date:     date,
		SlotID:   uuid.MustParse(req.SlotID),
	}

	appt, err := h.booking.Confirm(r.Context(), sel, patientID, req.Reason)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt, appointment.RolePatient))
}

func (h *Handler) listPatientAppointments(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuidParam(r, "patientID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	list, err := h.appointments.ListForPatient(r.Context(), patientID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailResponses(list, appointment.RolePatient))
}

func (h *Handler) patientCancel(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuidParam(r, "patientID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	apptID, err := uuidParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	detail, err := h.appointments.Get(r.Context(), apptID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if detail.PatientID != patientID {
		h.respondError(w, r, fmt.Errorf("appointment %s of patient %s: %w", apptID, patientID, appointment.ErrAppointmentNotFound))
		return
	}

	appt, err := h.appointments.Cancel(r.Context(), apptID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(*appt, appointment.RolePatient))
}

package api

import (
	"net/http"
	"strings"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

func (h *Handler) listAllAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := appointment.Filter{Query: q.Get("q")}

	if raw := strings.ToLower(q.Get("status")); raw != "" && raw != "all" {
		// patient and doctor screens call scheduled visits "upcoming"
		if raw == "upcoming" {
			raw = string(appointment.StatusScheduled)
		}
		f.Status = appointment.Status(raw)
		if !f.Status.Valid() {
			h.respondError(w, r, badRequest("validation_failed", "status must be one of scheduled, completed, cancelled"))
			return
		}
	}
	if raw := q.Get("date"); raw != "" {
		d, err := parseDate("date", raw)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		f.Date = &d
	}

	list, err := h.appointments.ListAll(r.Context(), f)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailResponses(list, appointment.RoleAdmin))
}

func (h *Handler) adminComplete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	appt, err := h.appointments.Complete(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(*appt, appointment.RoleAdmin))
}

func (h *Handler) adminCancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	appt, err := h.appointments.Cancel(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(*appt, appointment.RoleAdmin))
}

package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

func (h *Handler) listSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuidParam(r, "doctorID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	date, err := parseDate("date", r.URL.Query().Get("date"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	slots, err := h.slots.ListSlots(r.Context(), doctorID, date)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotResponses(slots))
}

func (h *Handler) addSlot(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuidParam(r, "doctorID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req CreateSlotRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.respondError(w, r, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	start, end, err := parseRange(req.StartTime, req.EndTime)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	slot, err := h.slots.AddSlot(r.Context(), doctorID, date, start, end)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSlotResponse(*slot))
}

func (h *Handler) updateSlot(w http.ResponseWriter, r *http.Request) {
	slotID, ok := h.doctorSlot(w, r)
	if !ok {
		return
	}
	var req UpdateSlotRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.respondError(w, r, err)
		return
	}
	start, end, err := parseRange(req.StartTime, req.EndTime)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	slot, err := h.slots.UpdateSlotTime(r.Context(), slotID, start, end)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotResponse(*slot))
}

func (h *Handler) setSlotBlocked(w http.ResponseWriter, r *http.Request) {
	slotID, ok := h.doctorSlot(w, r)
	if !ok {
		return
	}
	var req SetBlockedRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.respondError(w, r, err)
		return
	}

	slot, err := h.slots.SetBlocked(r.Context(), slotID, *req.Blocked)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotResponse(*slot))
}

func (h *Handler) deleteSlot(w http.ResponseWriter, r *http.Request) {
	slotID, ok := h.doctorSlot(w, r)
	if !ok {
		return
	}
	if err := h.slots.DeleteSlot(r.Context(), slotID); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// doctorSlot resolves the slot in the path and checks it belongs to the
// doctor in the path.
func (h *Handler) doctorSlot(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	doctorID, err := uuidParam(r, "doctorID")
	if err != nil {
		h.respondError(w, r, err)
		return uuid.Nil, false
	}
	slotID, err := uuidParam(r, "slotID")
	if err != nil {
		h.respondError(w, r, err)
		return uuid.Nil, false
	}
	slot, err := h.slots.Get(r.Context(), slotID)
	if err != nil {
		h.respondError(w, r, err)
		return uuid.Nil, false
	}
	if slot.DoctorID != doctorID {
		h.respondError(w, r, appointment.ErrSlotNotFound)
		return uuid.Nil, false
	}
	return slotID, true
}

func parseRange(startRaw, endRaw string) (appointment.TimeOfDay, appointment.TimeOfDay, error) {
	start, err := parseTime("start_time", startRaw)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseTime("end_time", endRaw)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func (h *Handler) listDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuidParam(r, "doctorID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var date *appointment.Date
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := parseDate("date", raw)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		date = &d
	}

	list, err := h.appointments.ListForDoctor(r.Context(), doctorID, date)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailResponses(list, appointment.RoleDoctor))
}

func (h *Handler) startConsultation(w http.ResponseWriter, r *http.Request) {
	doctorID, apptID, ok := h.doctorAppointmentIDs(w, r)
	if !ok {
		return
	}
	detail, err := h.consultation.Start(r.Context(), doctorID, apptID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailResponse(*detail, appointment.RoleDoctor))
}

func (h *Handler) completeConsultation(w http.ResponseWriter, r *http.Request) {
	doctorID, apptID, ok := h.doctorAppointmentIDs(w, r)
	if !ok {
		return
	}
	var req CompleteAppointmentRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.respondError(w, r, err)
		return
	}

	appt, err := h.consultation.CompleteWithPrescription(r.Context(), doctorID, apptID, req.Prescription)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(*appt, appointment.RoleDoctor))
}

func (h *Handler) doctorCancel(w http.ResponseWriter, r *http.Request) {
	doctorID, apptID, ok := h.doctorAppointmentIDs(w, r)
	if !ok {
		return
	}
	appt, err := h.consultation.Cancel(r.Context(), doctorID, apptID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(*appt, appointment.RoleDoctor))
}

func (h *Handler) doctorAppointmentIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	doctorID, err := uuidParam(r, "doctorID")
	if err != nil {
		h.respondError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	apptID, err := uuidParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	return doctorID, apptID, true
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/medicine"
)

// The medicine resource answers every failure with 500 and a bare
// {"error": message} body, which existing clients depend on.

type medicineError struct {
	Error string `json:"error"`
}

func (h *Handler) medicineFailed(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.log.Warn(msg,
		zap.String("request_id", GetRequestID(r.Context())),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, medicineError{Error: msg})
}

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	list, err := h.medicines.List(r.Context())
	if err != nil {
		h.medicineFailed(w, r, "Error fetching medicines", err)
		return
	}
	if list == nil {
		list = []medicine.Medicine{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.medicineFailed(w, r, "Error fetching medicine", err)
		return
	}
	m, err := h.medicines.Get(r.Context(), id)
	if err != nil {
		h.medicineFailed(w, r, "Error fetching medicine", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) createMedicine(w http.ResponseWriter, r *http.Request) {
	var m medicine.Medicine
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		h.medicineFailed(w, r, "Error creating medicine", err)
		return
	}
	if err := validate.Struct(m); err != nil {
		h.medicineFailed(w, r, "Error creating medicine", err)
		return
	}
	created, err := h.medicines.Create(r.Context(), m)
	if err != nil {
		h.medicineFailed(w, r, "Error creating medicine", err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (h *Handler) updateMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.medicineFailed(w, r, "Error updating medicine", err)
		return
	}
	var m medicine.Medicine
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		h.medicineFailed(w, r, "Error updating medicine", err)
		return
	}
	if err := validate.Struct(m); err != nil {
		h.medicineFailed(w, r, "Error updating medicine", err)
		return
	}
	m.ID = id
	updated, err := h.medicines.Update(r.Context(), m)
	if err != nil {
		h.medicineFailed(w, r, "Error updating medicine", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.medicineFailed(w, r, "Error deleting medicine", err)
		return
	}
	if err := h.medicines.Delete(r.Context(), id); err != nil {
		h.medicineFailed(w, r, "Error deleting medicine", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Medicine deleted successfully"})
}

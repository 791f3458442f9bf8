package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/booking"
	"github.com/hackgods/clinic-scheduling/internal/consultation"
	"github.com/hackgods/clinic-scheduling/internal/events"
	"github.com/hackgods/clinic-scheduling/internal/lock"
	"github.com/hackgods/clinic-scheduling/internal/medicine"
	"github.com/hackgods/clinic-scheduling/internal/prescription"
)

type testServer struct {
	handler       http.Handler
	repo          *appointment.MemoryRepository
	slots         *appointment.SlotStore
	prescriptions *prescription.MemoryStore
	doctor        appointment.Doctor
	patient       appointment.Patient
	other         appointment.Patient
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()
	repo := appointment.NewMemoryRepository()

	s := &testServer{
		repo:          repo,
		prescriptions: prescription.NewMemoryStore(),
		doctor:        appointment.Doctor{ID: uuid.New(), Name: "Dr. Sarah Johnson", Specialty: "Cardiology"},
		patient:       appointment.Patient{ID: uuid.New(), Name: "John Smith", Age: 45},
		other:         appointment.Patient{ID: uuid.New(), Name: "Emily Davis", Age: 32},
	}
	repo.AddDoctor(s.doctor)
	repo.AddPatient(s.patient)
	repo.AddPatient(s.other)

	pub := events.NewRecorder(repo)
	s.slots = appointment.NewSlotStore(repo, pub, log)
	store := appointment.NewStore(repo, s.slots, lock.NewLocal(time.Second), pub, log)

	s.handler = NewRouter(RouterConfig{
		Slots:          s.slots,
		Appointments:   store,
		Booking:        booking.NewWorkflow(repo, s.slots, store, log),
		Consultation:   consultation.NewWorkflow(store, s.prescriptions, log),
		Medicines:      medicine.NewMemoryRepository(),
		Log:            log,
		Env:            "test",
		Version:        "test",
		AllowedOrigins: []string{"*"},
		RateLimitRPS:   1000,
		Now:            func() time.Time { return time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC) },
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) addSlot(t *testing.T, date, start, end string) SlotResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/doctors/"+s.doctor.ID.String()+"/slots", CreateSlotRequest{
		Date: date, StartTime: start, EndTime: end,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[SlotResponse](t, rec)
}

func (s *testServer) book(t *testing.T, patientID uuid.UUID, slot SlotResponse) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPost, "/patients/"+patientID.String()+"/appointments", BookAppointmentRequest{
		DoctorID: s.doctor.ID.String(),
		Date:     slot.Date,
		SlotID:   slot.ID.String(),
		Reason:   "Annual checkup",
	})
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = s.do(t, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decode[ReadinessResponse](t, rec)
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, "not_configured", ready.Dependencies["postgres"])
}

func TestRequestIDPassthrough(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "trace-123", rec.Header().Get("X-Request-ID"))
}

func TestDoctorSlots(t *testing.T) {
	s := newTestServer(t)
	base := "/doctors/" + s.doctor.ID.String() + "/slots"

	slot := s.addSlot(t, "2025-01-06", "09:00", "10:30")
	assert.Equal(t, "available", slot.Status)
	assert.Equal(t, "09:00", slot.StartTime)

	tests := []struct {
		name   string
		body   CreateSlotRequest
		status int
		code   string
	}{
		{"overlap", CreateSlotRequest{"2025-01-06", "10:00", "11:00"}, http.StatusConflict, "slot_overlap"},
		{"inverted", CreateSlotRequest{"2025-01-06", "12:00", "11:00"}, http.StatusBadRequest, "invalid_range"},
		{"bad time", CreateSlotRequest{"2025-01-06", "9am", "11:00"}, http.StatusBadRequest, "validation_failed"},
		{"missing date", CreateSlotRequest{"", "12:00", "13:00"}, http.StatusBadRequest, "validation_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, base, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Error)
		})
	}

	rec := s.do(t, http.MethodPut, base+"/"+slot.ID.String(), UpdateSlotRequest{StartTime: "09:30", EndTime: "11:00"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "11:00", decode[SlotResponse](t, rec).EndTime)

	blocked := true
	rec = s.do(t, http.MethodPut, base+"/"+slot.ID.String()+"/blocked", SetBlockedRequest{Blocked: &blocked})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "blocked", decode[SlotResponse](t, rec).Status)

	rec = s.do(t, http.MethodGet, base+"?date=2025-01-06", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]SlotResponse](t, rec), 1)

	other := "/doctors/" + uuid.NewString() + "/slots/" + slot.ID.String()
	rec = s.do(t, http.MethodDelete, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "slot of another doctor")

	rec = s.do(t, http.MethodDelete, base+"/"+slot.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, base+"/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_slot_id", decode[ErrorResponse](t, rec).Error)
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t)
	slot := s.addSlot(t, "2025-01-06", "09:00", "10:30")
	s.addSlot(t, "2025-01-08", "14:00", "15:00")

	rec := s.do(t, http.MethodGet, "/booking/doctors?q=cardio", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doctors := decode[[]DoctorResponse](t, rec)
	require.Len(t, doctors, 1)
	assert.Equal(t, "Dr. Sarah Johnson", doctors[0].Name)

	rec = s.do(t, http.MethodGet, "/booking/doctors/"+s.doctor.ID.String()+"/dates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"2025-01-06", "2025-01-08"}, decode[[]string](t, rec))

	rec = s.do(t, http.MethodGet, "/booking/doctors/"+s.doctor.ID.String()+"/dates/2025-01-06/times", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	times := decode[[]SlotResponse](t, rec)
	require.Len(t, times, 1)
	assert.Equal(t, slot.ID, times[0].ID)

	rec = s.do(t, http.MethodGet, "/booking/doctors/"+s.doctor.ID.String()+"/dates/2025-01-07/times", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.book(t, s.patient.ID, slot)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	appt := decode[AppointmentResponse](t, rec)
	assert.Equal(t, "upcoming", appt.Status)
	assert.Equal(t, "09:00", appt.Time)

	rec = s.book(t, s.other.ID, slot)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "reselect_time", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodGet, "/patients/"+s.patient.ID.String()+"/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[[]AppointmentResponse](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, "Dr. Sarah Johnson", mine[0].DoctorName)

	rec = s.do(t, http.MethodPost, "/patients/"+s.other.ID.String()+"/appointments/"+appt.ID.String()+"/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "not the owner")

	rec = s.do(t, http.MethodPost, "/patients/"+s.patient.ID.String()+"/appointments/"+appt.ID.String()+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", decode[AppointmentResponse](t, rec).Status)

	rec = s.book(t, s.other.ID, slot)
	assert.Equal(t, http.StatusCreated, rec.Code, "released slot can be booked again")
}

func TestBookAppointment_BadRequests(t *testing.T) {
	s := newTestServer(t)
	slot := s.addSlot(t, "2025-01-06", "09:00", "10:00")
	path := "/patients/" + s.patient.ID.String() + "/appointments"

	rec := s.do(t, http.MethodPost, path, BookAppointmentRequest{DoctorID: "nope", Date: "2025-01-06", SlotID: slot.ID.String()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodPost, path, BookAppointmentRequest{DoctorID: s.doctor.ID.String(), Date: "2025-01-07", SlotID: slot.ID.String()})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_selection", decode[ErrorResponse](t, rec).Error)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString("{"))
	out := httptest.NewRecorder()
	s.handler.ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)
	assert.Equal(t, "invalid_request_body", decode[ErrorResponse](t, out).Error)

	rec = s.do(t, http.MethodPost, "/patients/"+uuid.NewString()+"/appointments", BookAppointmentRequest{
		DoctorID: s.doctor.ID.String(), Date: "2025-01-06", SlotID: slot.ID.String(),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code, "unknown patient")
}

func TestConsultation(t *testing.T) {
	s := newTestServer(t)
	slot := s.addSlot(t, "2025-01-06", "09:00", "10:00")
	appt := decode[AppointmentResponse](t, s.book(t, s.patient.ID, slot))
	base := "/doctors/" + s.doctor.ID.String() + "/appointments"

	rec := s.do(t, http.MethodGet, base+"?date=2025-01-06", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]AppointmentResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "upcoming", list[0].Status)
	assert.Equal(t, "John Smith", list[0].PatientName)

	rec = s.do(t, http.MethodGet, "/doctors/"+uuid.NewString()+"/appointments/"+appt.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, base+"/"+appt.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/"+appt.ID.String()+"/complete", map[string]any{
		"prescription": map[string]any{"medications": []map[string]string{{"dosage": "5mg"}}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "medication without a name")

	rec = s.do(t, http.MethodPost, base+"/"+appt.ID.String()+"/complete", CompleteAppointmentRequest{
		Prescription: &prescription.Prescription{
			Diagnosis:   "Hypertension",
			Medications: []prescription.Medication{{Name: "Amlodipine", Dosage: "5mg", Frequency: "once daily"}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "completed", decode[AppointmentResponse](t, rec).Status)

	rx, ok := s.prescriptions.ForAppointment(appt.ID)
	require.True(t, ok)
	assert.Equal(t, s.patient.ID, rx.PatientID)

	rec = s.do(t, http.MethodPost, base+"/"+appt.ID.String()+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", decode[ErrorResponse](t, rec).Error)

	slots, err := s.slots.ListSlots(context.Background(), s.doctor.ID, appointment.NewDate(2025, time.January, 6))
	require.NoError(t, err)
	assert.Equal(t, appointment.SlotBooked, slots[0].Status)
}

func TestAdmin(t *testing.T) {
	s := newTestServer(t)
	first := s.addSlot(t, "2025-01-06", "09:00", "10:00")
	second := s.addSlot(t, "2025-01-06", "10:00", "11:00")

	a1 := decode[AppointmentResponse](t, s.book(t, s.patient.ID, first))
	a2 := decode[AppointmentResponse](t, s.book(t, s.other.ID, second))

	rec := s.do(t, http.MethodPost, "/admin/appointments/"+a1.ID.String()+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/admin/appointments?status=scheduled", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]AppointmentResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, a2.ID, list[0].ID)
	assert.Equal(t, "scheduled", list[0].Status)

	rec = s.do(t, http.MethodGet, "/admin/appointments?q=emily&date=2025-01-06", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]AppointmentResponse](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/admin/appointments?status=pending", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/appointments/"+a2.ID.String()+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", decode[AppointmentResponse](t, rec).Status)

	rec = s.do(t, http.MethodPost, "/admin/appointments/"+uuid.NewString()+"/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMedicines(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/medicines", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/medicines", map[string]any{
		"name": "Paracetamol", "category": "Pain Relief", "price": 5.99, "stock": 100, "dosage": "500mg",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[medicine.Medicine](t, rec)
	assert.Equal(t, "Paracetamol", created.Name)

	rec = s.do(t, http.MethodPut, "/api/medicines/"+created.ID.String(), map[string]any{
		"name": "Paracetamol", "category": "Pain Relief", "price": 4.99, "stock": 90,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 90, decode[medicine.Medicine](t, rec).Stock)

	rec = s.do(t, http.MethodGet, "/api/medicines/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 4.99, decode[medicine.Medicine](t, rec).Price, 0.001)

	rec = s.do(t, http.MethodDelete, "/api/medicines/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Medicine deleted successfully"}`, rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/api/medicines/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Error deleting medicine"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/medicines", map[string]any{"price": 1})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Error creating medicine"}`, rec.Body.String())
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{appointment.ErrInvalidRange, http.StatusBadRequest, "invalid_range"},
		{appointment.ErrSlotNotFound, http.StatusNotFound, "not_found"},
		{appointment.ErrOverlap, http.StatusConflict, "slot_overlap"},
		{appointment.ErrSlotBooked, http.StatusConflict, "slot_booked"},
		{appointment.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable"},
		{appointment.ErrInvalidState, http.StatusConflict, "invalid_state"},
		{appointment.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{booking.ErrInvalidSelection, http.StatusUnprocessableEntity, "invalid_selection"},
		{assert.AnError, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code := errorStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

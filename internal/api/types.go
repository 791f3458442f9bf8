package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/prescription"
)

type CreateSlotRequest struct {
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

type UpdateSlotRequest struct {
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

type SetBlockedRequest struct {
	Blocked *bool `json:"blocked" validate:"required"`
}

type BookAppointmentRequest struct {
	DoctorID string `json:"doctor_id" validate:"required,uuid"`
	Date     string `json:"date" validate:"required"`
	SlotID   string `json:"slot_id" validate:"required,uuid"`
	Reason   string `json:"reason" validate:"max=500"`
}

type CompleteAppointmentRequest struct {
	Prescription *prescription.Prescription `json:"prescription"`
}

type DoctorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
}

type SlotResponse struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Status    string    `json:"status"`
}

type AppointmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	PatientID   uuid.UUID  `json:"patient_id"`
	PatientName string     `json:"patient_name,omitempty"`
	DoctorID    uuid.UUID  `json:"doctor_id"`
	DoctorName  string     `json:"doctor_name,omitempty"`
	SlotID      *uuid.UUID `json:"slot_id,omitempty"`
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	Reason      string     `json:"reason,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toDoctorResponse(d appointment.Doctor) DoctorResponse {
	return DoctorResponse{ID: d.ID, Name: d.Name, Specialty: d.Specialty}
}

func toSlotResponse(s appointment.TimeSlot) SlotResponse {
	return SlotResponse{
		ID:        s.ID,
		DoctorID:  s.DoctorID,
		Date:      s.Date.String(),
		StartTime: s.Start.String(),
		EndTime:   s.End.String(),
		Status:    string(s.Status),
	}
}

func toSlotResponses(slots []appointment.TimeSlot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSlotResponse(s))
	}
	return out
}

func toAppointmentResponse(a appointment.Appointment, role appointment.Role) AppointmentResponse {
	resp := AppointmentResponse{
		ID:        a.ID,
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		Date:      a.Date.String(),
		Time:      a.Time.String(),
		Reason:    a.Reason,
		Status:    a.Status.Label(role),
		CreatedAt: a.CreatedAt,
	}
	if a.SlotID != uuid.Nil {
		slotID := a.SlotID
		resp.SlotID = &slotID
	}
	return resp
}

func toDetailResponse(d appointment.AppointmentDetail, role appointment.Role) AppointmentResponse {
	resp := toAppointmentResponse(d.Appointment, role)
	resp.PatientName = d.PatientName
	resp.DoctorName = d.DoctorName
	return resp
}

func toDetailResponses(list []appointment.AppointmentDetail, role appointment.Role) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toDetailResponse(d, role))
	}
	return out
}

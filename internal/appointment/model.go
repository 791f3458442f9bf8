package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Label is the display name of s for the given audience. Patient and
// doctor screens call a scheduled visit "upcoming".
func (s Status) Label(role Role) string {
	if s == StatusScheduled && role != RoleAdmin {
		return "upcoming"
	}
	return string(s)
}

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotBlocked   SlotStatus = "blocked"
)

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty string
}

type Patient struct {
	ID   uuid.UUID
	Name string
	Age  int
}

type TimeSlot struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	Date      Date
	Start     TimeOfDay
	End       TimeOfDay
	Status    SlotStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s TimeSlot) Overlaps(start, end TimeOfDay) bool {
	return Overlaps(s.Start, s.End, start, end)
}

type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	SlotID    uuid.UUID // uuid.Nil once the slot row is gone
	Date      Date
	Time      TimeOfDay
	Reason    string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AppointmentDetail struct {
	Appointment
	DoctorName  string
	PatientName string
	Slot        *TimeSlot
}

// Filter narrows appointment listings. Zero values match everything.
// Query is a case-insensitive substring match on patient or doctor name.
type Filter struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	SlotID    uuid.UUID
	Status    Status
	Date      *Date
	Query     string
}

package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/events"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDoctorNotFound      = fmt.Errorf("doctor %w", ErrNotFound)
	ErrPatientNotFound     = fmt.Errorf("patient %w", ErrNotFound)
	ErrSlotNotFound        = fmt.Errorf("slot %w", ErrNotFound)
	ErrAppointmentNotFound = fmt.Errorf("appointment %w", ErrNotFound)
)

// Repository contains all storage interactions needed by the stores.
// Status updates are compare-and-swap: they match on the expected current
// status and report the *NotFound error when nothing matched.
type Repository interface {
	// WithTx runs fn atomically. Calling WithTx on the tx value joins the
	// running transaction.
	WithTx(ctx context.Context, fn func(tx Repository) error) error

	// Directory, read only
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctors(ctx context.Context, query string) ([]Doctor, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)

	// Slots
	LockDoctorDay(ctx context.Context, doctorID uuid.UUID, date Date) error
	GetSlot(ctx context.Context, id uuid.UUID) (*TimeSlot, error)
	ListSlots(ctx context.Context, doctorID uuid.UUID, from, to Date) ([]TimeSlot, error)
	InsertSlot(ctx context.Context, slot TimeSlot) (*TimeSlot, error)
	// UpdateSlotTime and DeleteSlot never touch a booked slot.
	UpdateSlotTime(ctx context.Context, id uuid.UUID, start, end TimeOfDay) (*TimeSlot, error)
	DeleteSlot(ctx context.Context, id uuid.UUID) error
	UpdateSlotStatus(ctx context.Context, id uuid.UUID, from, to SlotStatus) (*TimeSlot, error)

	// Appointments
	GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointments(ctx context.Context, f Filter) ([]AppointmentDetail, error)
	InsertAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev events.Event) error
}

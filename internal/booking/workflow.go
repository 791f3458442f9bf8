// Package booking walks a patient through doctor, date and time selection
// before committing an appointment. The workflow keeps no state between
// calls: every step is computed from the caller's Selection and the
// current store contents, so a client may restart or go back at any step.
package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

var (
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrReselectTime is returned by Confirm when the chosen slot was taken
	// in the meantime. The caller should pick another time.
	ErrReselectTime = errors.New("the selected time is no longer available, please choose another time")
)

type Step int

const (
	StepDoctor Step = iota + 1
	StepDate
	StepTime
	StepConfirm
)

func (s Step) String() string {
	switch s {
	case StepDoctor:
		return "doctor"
	case StepDate:
		return "date"
	case StepTime:
		return "time"
	case StepConfirm:
		return "confirm"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Selection is everything the patient has picked so far.
type Selection struct {
	DoctorID uuid.UUID        `json:"doctor_id,omitempty"`
	Date     appointment.Date `json:"date"`
	SlotID   uuid.UUID        `json:"slot_id,omitempty"`
}

// Step is the step the selection is waiting on.
func (s Selection) Step() Step {
	switch {
	case s.DoctorID == uuid.Nil:
		return StepDoctor
	case s.Date.IsZero():
		return StepDate
	case s.SlotID == uuid.Nil:
		return StepTime
	}
	return StepConfirm
}

// Back drops the most recent choice.
func (s Selection) Back() Selection {
	switch s.Step() {
	case StepConfirm:
		s.SlotID = uuid.Nil
	case StepTime:
		s.Date = appointment.Date{}
	case StepDate:
		s.DoctorID = uuid.Nil
	}
	return s
}

type Doctors interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*appointment.Doctor, error)
	ListDoctors(ctx context.Context, query string) ([]appointment.Doctor, error)
}

type Slots interface {
	Get(ctx context.Context, slotID uuid.UUID) (*appointment.TimeSlot, error)
	ListSlots(ctx context.Context, doctorID uuid.UUID, date appointment.Date) ([]appointment.TimeSlot, error)
	AvailableDates(ctx context.Context, doctorID uuid.UUID, from, to appointment.Date) ([]appointment.Date, error)
}

type Appointments interface {
	Create(ctx context.Context, patientID, doctorID, slotID uuid.UUID, reason string) (*appointment.Appointment, error)
}

type Workflow struct {
	doctors      Doctors
	slots        Slots
	appointments Appointments
	log          *zap.Logger
}

func NewWorkflow(doctors Doctors, slots Slots, appointments Appointments, log *zap.Logger) *Workflow {
	return &Workflow{
		doctors:      doctors,
		slots:        slots,
		appointments: appointments,
		log:          log,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSelection, fmt.Sprintf(format, args...))
}

// SearchDoctors backs step 1: doctors whose name or specialty contains query.
func (w *Workflow) SearchDoctors(ctx context.Context, query string) ([]appointment.Doctor, error) {
	doctors, err := w.doctors.ListDoctors(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search doctors: %w", err)
	}
	return doctors, nil
}

func (w *Workflow) SelectDoctor(ctx context.Context, doctorID uuid.UUID) (Selection, error) {
	if err := w.checkDoctor(ctx, doctorID); err != nil {
		return Selection{}, err
	}
	return Selection{DoctorID: doctorID}, nil
}

// AvailableDates backs step 2: days in [from, to] where the selected doctor
// still has an open slot.
func (w *Workflow) AvailableDates(ctx context.Context, sel Selection, from, to appointment.Date) ([]appointment.Date, error) {
	if err := w.checkDoctor(ctx, sel.DoctorID); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, invalid("date range %s..%s is empty", from, to)
	}
	return w.slots.AvailableDates(ctx, sel.DoctorID, from, to)
}

func (w *Workflow) SelectDate(ctx context.Context, sel Selection, date appointment.Date) (Selection, error) {
	if err := w.checkDoctor(ctx, sel.DoctorID); err != nil {
		return Selection{}, err
	}
	open, err := w.openSlots(ctx, sel.DoctorID, date)
	if err != nil {
		return Selection{}, err
	}
	if len(open) == 0 {
		return Selection{}, invalid("no available time on %s", date)
	}
	return Selection{DoctorID: sel.DoctorID, Date: date}, nil
}

// AvailableTimes backs step 3: open slots of the selected doctor and date.
func (w *Workflow) AvailableTimes(ctx context.Context, sel Selection) ([]appointment.TimeSlot, error) {
	if err := w.checkDoctor(ctx, sel.DoctorID); err != nil {
		return nil, err
	}
	if sel.Date.IsZero() {
		return nil, invalid("no date selected")
	}
	return w.openSlots(ctx, sel.DoctorID, sel.Date)
}

func (w *Workflow) SelectTime(ctx context.Context, sel Selection, slotID uuid.UUID) (Selection, error) {
	open, err := w.AvailableTimes(ctx, sel)
	if err != nil {
		return Selection{}, err
	}
	for _, slot := range open {
		if slot.ID == slotID {
			return Selection{DoctorID: sel.DoctorID, Date: sel.Date, SlotID: slotID}, nil
		}
	}
	return Selection{}, invalid("slot %s is not an available time on %s", slotID, sel.Date)
}

// Confirm commits the booking. Nothing is written before this step, so an
// abandoned selection leaves no trace.
func (w *Workflow) Confirm(ctx context.Context, sel Selection, patientID uuid.UUID, reason string) (*appointment.Appointment, error) {
	if sel.Step() != StepConfirm {
		return nil, invalid("selection is incomplete, waiting on %s", sel.Step())
	}
	if err := w.checkDoctor(ctx, sel.DoctorID); err != nil {
		return nil, err
	}

	slot, err := w.slots.Get(ctx, sel.SlotID)
	if err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			return nil, invalid("slot %s no longer exists", sel.SlotID)
		}
		return nil, err
	}
	if slot.DoctorID != sel.DoctorID || slot.Date != sel.Date {
		return nil, invalid("slot %s does not belong to the selected doctor and date", sel.SlotID)
	}

	appt, err := w.appointments.Create(ctx, patientID, sel.DoctorID, sel.SlotID, reason)
	if err != nil {
		if errors.Is(err, appointment.ErrSlotUnavailable) {
			w.log.Info("booking lost slot, asking for a new time",
				zap.Stringer("slot_id", sel.SlotID),
				zap.Stringer("patient_id", patientID),
			)
			return nil, fmt.Errorf("%w: %w", ErrReselectTime, err)
		}
		return nil, err
	}
	return appt, nil
}

func (w *Workflow) checkDoctor(ctx context.Context, doctorID uuid.UUID) error {
	if doctorID == uuid.Nil {
		return invalid("no doctor selected")
	}
	if _, err := w.doctors.GetDoctor(ctx, doctorID); err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			return invalid("doctor %s does not exist", doctorID)
		}
		return fmt.Errorf("load doctor: %w", err)
	}
	return nil
}

func (w *Workflow) openSlots(ctx context.Context, doctorID uuid.UUID, date appointment.Date) ([]appointment.TimeSlot, error) {
	slots, err := w.slots.ListSlots(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	open := slots[:0:0]
	for _, slot := range slots {
		if slot.Status == appointment.SlotAvailable {
			open = append(open, slot)
		}
	}
	return open, nil
}

package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/events"
	"github.com/hackgods/clinic-scheduling/internal/lock"
)

var ErrInvalidTransition = errors.New("invalid appointment status transition")

// Store owns appointment records and drives the bound slot through
// SlotStore's transitions in the same transaction.
type Store struct {
	repo   Repository
	slots  *SlotStore
	locker lock.Locker
	pub    events.Publisher
	log    *zap.Logger
}

func NewStore(repo Repository, slots *SlotStore, locker lock.Locker, pub events.Publisher, log *zap.Logger) *Store {
	return &Store{
		repo:   repo,
		slots:  slots,
		locker: locker,
		pub:    pub,
		log:    log,
	}
}

// Create books slotID for the patient. The slot reservation and the
// appointment insert commit together; two callers racing for one slot get
// exactly one appointment and one ErrSlotUnavailable.
func (s *Store) Create(ctx context.Context, patientID, doctorID, slotID uuid.UUID, reason string) (*Appointment, error) {
	if _, err := s.repo.GetPatient(ctx, patientID); err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	var created *Appointment

	err := s.locker.WithSlotLock(ctx, slotID, func(lockCtx context.Context) error {
		return s.repo.WithTx(lockCtx, func(tx Repository) error {
			slot, err := tx.GetSlot(lockCtx, slotID)
			if err != nil {
				return err
			}
			if slot.DoctorID != doctorID {
				return fmt.Errorf("%w for doctor %s", ErrSlotNotFound, doctorID)
			}

			reserved, err := s.slots.reserveTx(lockCtx, tx, slotID)
			if err != nil {
				return err
			}

			appt, err := tx.InsertAppointment(lockCtx, Appointment{
				ID:        uuid.New(),
				PatientID: patientID,
				DoctorID:  doctorID,
				SlotID:    reserved.ID,
				Date:      reserved.Date,
				Time:      reserved.Start,
				Reason:    reason,
				Status:    StatusScheduled,
			})
			if err != nil {
				return fmt.Errorf("insert appointment: %w", err)
			}
			created = appt
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, fmt.Errorf("%w: %w", ErrSlotUnavailable, err)
		}
		return nil, err
	}

	s.log.Info("appointment created",
		zap.Stringer("appointment_id", created.ID),
		zap.Stringer("slot_id", slotID),
		zap.Stringer("patient_id", patientID),
	)
	s.publish(ctx, events.AppointmentCreated, created)
	return created, nil
}

// Complete finalizes a scheduled appointment. The slot stays booked.
func (s *Store) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var updated *Appointment
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		var err error
		updated, err = transition(ctx, tx, id, StatusCompleted)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.AppointmentCompleted, updated)
	return updated, nil
}

// Cancel ends a scheduled appointment and frees its slot for rebooking.
func (s *Store) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var updated *Appointment
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		var err error
		updated, err = transition(ctx, tx, id, StatusCancelled)
		if err != nil {
			return err
		}
		if updated.SlotID == uuid.Nil {
			return nil
		}
		if _, err := s.slots.releaseTx(ctx, tx, updated.SlotID); err != nil {
			return fmt.Errorf("release slot %s: %w", updated.SlotID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.AppointmentCancelled, updated)
	return updated, nil
}

func transition(ctx context.Context, tx Repository, id uuid.UUID, to Status) (*Appointment, error) {
	current, err := tx.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, to)
	}

	updated, err := tx.UpdateAppointmentStatus(ctx, id, StatusScheduled, to)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: appointment changed concurrently", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	return updated, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return detail, nil
}

func (s *Store) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	return s.ListAll(ctx, Filter{PatientID: patientID})
}

// ListForDoctor lists the doctor's appointments, on one day when date is set.
func (s *Store) ListForDoctor(ctx context.Context, doctorID uuid.UUID, date *Date) ([]AppointmentDetail, error) {
	return s.ListAll(ctx, Filter{DoctorID: doctorID, Date: date})
}

func (s *Store) ListAll(ctx context.Context, f Filter) ([]AppointmentDetail, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("unknown status filter %q", f.Status)
	}
	list, err := s.repo.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return list, nil
}

func (s *Store) publish(ctx context.Context, eventType string, a *Appointment) {
	ev := events.New(eventType, a.ID, map[string]any{
		"patient_id": a.PatientID.String(),
		"doctor_id":  a.DoctorID.String(),
		"slot_id":    a.SlotID.String(),
		"date":       a.Date.String(),
		"time":       a.Time.String(),
		"status":     string(a.Status),
	})
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Warn("publish appointment event failed",
			zap.String("event_type", eventType),
			zap.Stringer("appointment_id", a.ID),
			zap.Error(err),
		)
	}
}

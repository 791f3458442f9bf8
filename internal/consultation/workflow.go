// Package consultation is the doctor-side flow that closes an appointment,
// either by completing it with an optional prescription or by cancelling it.
package consultation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/prescription"
)

var ErrInvalidPrescription = errors.New("invalid prescription")

type Appointments interface {
	Get(ctx context.Context, id uuid.UUID) (*appointment.AppointmentDetail, error)
	Complete(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
}

type Workflow struct {
	appointments  Appointments
	prescriptions prescription.Store
	log           *zap.Logger
}

func NewWorkflow(appointments Appointments, prescriptions prescription.Store, log *zap.Logger) *Workflow {
	return &Workflow{
		appointments:  appointments,
		prescriptions: prescriptions,
		log:           log,
	}
}

// Start loads the appointment the doctor is about to see. Appointments of
// other doctors are reported as not found.
func (w *Workflow) Start(ctx context.Context, doctorID, appointmentID uuid.UUID) (*appointment.AppointmentDetail, error) {
	detail, err := w.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if detail.DoctorID != doctorID {
		return nil, fmt.Errorf("appointment %s of doctor %s: %w", appointmentID, doctorID, appointment.ErrAppointmentNotFound)
	}
	return detail, nil
}

// CompleteWithPrescription saves the prescription, when there is one, and
// only then completes the appointment. A failed save leaves the appointment
// scheduled.
func (w *Workflow) CompleteWithPrescription(ctx context.Context, doctorID, appointmentID uuid.UUID, p *prescription.Prescription) (*appointment.Appointment, error) {
	detail, err := w.Start(ctx, doctorID, appointmentID)
	if err != nil {
		return nil, err
	}
	if detail.Status != appointment.StatusScheduled {
		return nil, fmt.Errorf("%w: appointment %s is %s", appointment.ErrInvalidTransition, appointmentID, detail.Status)
	}

	if p != nil {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPrescription, err)
		}
		rx := *p
		if rx.ID == uuid.Nil {
			rx.ID = uuid.New()
		}
		rx.AppointmentID = detail.ID
		rx.DoctorID = detail.DoctorID
		rx.PatientID = detail.PatientID
		rx.IssuedAt = time.Now().UTC()

		if err := w.prescriptions.Save(ctx, rx); err != nil {
			w.log.Error("prescription not saved, appointment left scheduled",
				zap.Stringer("appointment_id", appointmentID),
				zap.Error(err),
			)
			return nil, fmt.Errorf("save prescription: %w", err)
		}
	}

	done, err := w.appointments.Complete(ctx, appointmentID)
	if err != nil {
		if p != nil {
			w.log.Warn("prescription saved but appointment not completed",
				zap.Stringer("appointment_id", appointmentID),
				zap.Error(err),
			)
		}
		return nil, err
	}
	return done, nil
}

func (w *Workflow) Cancel(ctx context.Context, doctorID, appointmentID uuid.UUID) (*appointment.Appointment, error) {
	if _, err := w.Start(ctx, doctorID, appointmentID); err != nil {
		return nil, err
	}
	return w.appointments.Cancel(ctx, appointmentID)
}

// Package prescription stores the prescription a doctor writes when closing
// a consultation.
package prescription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrEmpty = errors.New("prescription has no diagnosis and no medications")

type Medication struct {
	Name         string `json:"name" validate:"required"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions"`
}

type Prescription struct {
	ID            uuid.UUID    `json:"id"`
	AppointmentID uuid.UUID    `json:"appointment_id"`
	DoctorID      uuid.UUID    `json:"doctor_id"`
	PatientID     uuid.UUID    `json:"patient_id"`
	Diagnosis     string       `json:"diagnosis"`
	Medications   []Medication `json:"medications" validate:"dive"`
	Notes         string       `json:"notes,omitempty"`
	IssuedAt      time.Time    `json:"issued_at"`
}

func (p Prescription) Validate() error {
	if strings.TrimSpace(p.Diagnosis) == "" && len(p.Medications) == 0 {
		return ErrEmpty
	}
	for i, m := range p.Medications {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("medication %d has no name", i+1)
		}
	}
	return nil
}

// Store persists prescriptions. Save must be durable when it returns nil.
type Store interface {
	Save(ctx context.Context, p Prescription) error
}

// MemoryStore keeps prescriptions in process, keyed by appointment.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Prescription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[uuid.UUID]Prescription)}
}

func (m *MemoryStore) Save(ctx context.Context, p Prescription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.AppointmentID] = p
	return nil
}

func (m *MemoryStore) ForAppointment(appointmentID uuid.UUID) (Prescription, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.items[appointmentID]
	return p, ok
}

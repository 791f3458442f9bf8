package prescription

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Prescription
		wantErr bool
	}{
		{"diagnosis only", Prescription{Diagnosis: "Hypertension"}, false},
		{"medications only", Prescription{Medications: []Medication{{Name: "Amlodipine", Dosage: "5mg"}}}, false},
		{"empty", Prescription{Diagnosis: "  "}, true},
		{"unnamed medication", Prescription{Diagnosis: "Flu", Medications: []Medication{{Dosage: "500mg"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	p := Prescription{ID: uuid.New(), AppointmentID: uuid.New(), Diagnosis: "Migraine"}

	require.NoError(t, s.Save(context.Background(), p))

	got, ok := s.ForAppointment(p.AppointmentID)
	require.True(t, ok)
	assert.Equal(t, "Migraine", got.Diagnosis)

	_, ok = s.ForAppointment(uuid.New())
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Save(ctx, p), context.Canceled)
}

func TestObjectName(t *testing.T) {
	doctor := uuid.MustParse("8d7f1c2e-4b1a-4f5e-9c3d-2a6b7e8f9a01")
	appt := uuid.MustParse("0c9e8d7f-6a5b-4c3d-8e2f-1a0b9c8d7e6f")
	assert.Equal(t,
		"8d7f1c2e-4b1a-4f5e-9c3d-2a6b7e8f9a01/0c9e8d7f-6a5b-4c3d-8e2f-1a0b9c8d7e6f.json",
		ObjectName(Prescription{DoctorID: doctor, AppointmentID: appt}),
	)
}

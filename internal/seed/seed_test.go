package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/events"
)

func TestGenerate(t *testing.T) {
	monday := appointment.NewDate(2025, time.January, 6)
	ds := Generate(Options{Doctors: 3, Patients: 5, Days: 7, From: monday, Seed: 42})

	require.Len(t, ds.Doctors, 3)
	require.Len(t, ds.Patients, 5)
	require.NotEmpty(t, ds.Slots)

	for _, d := range ds.Doctors {
		assert.Contains(t, Specialties, d.Specialty)
	}
	for _, s := range ds.Slots {
		assert.NotEqual(t, time.Sunday, s.Date.Weekday())
		assert.True(t, s.Start < s.End)
		assert.True(t, s.End <= dayEnd)
		assert.Equal(t, appointment.SlotAvailable, s.Status)
	}
}

func TestLoadMemory(t *testing.T) {
	monday := appointment.NewDate(2025, time.January, 6)
	ds := Generate(Options{Doctors: 2, Patients: 2, Days: 3, From: monday, Seed: 7})

	repo := appointment.NewMemoryRepository()
	slots := appointment.NewSlotStore(repo, events.Nop{}, zap.NewNop())

	// overlap checks would reject a bad grid
	require.NoError(t, LoadMemory(context.Background(), repo, slots, ds))

	doctors, err := repo.ListDoctors(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, doctors, 2)

	dates, err := slots.AvailableDates(context.Background(), ds.Doctors[0].ID, monday, monday.AddDays(2))
	require.NoError(t, err)
	assert.Len(t, dates, 3)
}

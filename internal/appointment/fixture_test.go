package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/events"
	"github.com/hackgods/clinic-scheduling/internal/lock"
)

var (
	monday  = NewDate(2025, time.January, 6)
	tuesday = NewDate(2025, time.January, 7)
)

type fixture struct {
	repo    *MemoryRepository
	slots   *SlotStore
	store   *Store
	doctor  Doctor
	patient Patient
	other   Patient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := NewMemoryRepository()
	pub := events.NewRecorder(repo)
	log := zap.NewNop()

	f := &fixture{
		repo:    repo,
		doctor:  Doctor{ID: uuid.New(), Name: "Dr. Sarah Johnson", Specialty: "Cardiology"},
		patient: Patient{ID: uuid.New(), Name: "John Smith", Age: 45},
		other:   Patient{ID: uuid.New(), Name: "Emily Davis", Age: 32},
	}
	repo.AddDoctor(f.doctor)
	repo.AddPatient(f.patient)
	repo.AddPatient(f.other)

	f.slots = NewSlotStore(repo, pub, log)
	f.store = NewStore(repo, f.slots, lock.NewLocal(time.Second), pub, log)
	return f
}

func hm(t *testing.T, s string) TimeOfDay {
	t.Helper()
	v, err := ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func (f *fixture) addSlot(t *testing.T, date Date, start, end string) *TimeSlot {
	t.Helper()
	slot, err := f.slots.AddSlot(context.Background(), f.doctor.ID, date, hm(t, start), hm(t, end))
	require.NoError(t, err)
	return slot
}

func (f *fixture) slot(t *testing.T, id uuid.UUID) TimeSlot {
	t.Helper()
	slot, err := f.repo.GetSlot(context.Background(), id)
	require.NoError(t, err)
	return *slot
}

// assertInvariants checks the slot/appointment invariants over the whole
// repository: booked slots carry exactly one live appointment, other slots
// none, scheduled appointments point at booked slots, and no two slots of
// a doctor overlap on the same day.
func (f *fixture) assertInvariants(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	f.repo.mu.RLock()
	slots := make([]TimeSlot, 0, len(f.repo.state.slots))
	for _, s := range f.repo.state.slots {
		slots = append(slots, s)
	}
	f.repo.mu.RUnlock()

	for i, a := range slots {
		for _, b := range slots[i+1:] {
			if a.DoctorID == b.DoctorID && a.Date == b.Date {
				assert.False(t, a.Overlaps(b.Start, b.End), "slots %s and %s overlap", a.ID, b.ID)
			}
		}

		list, err := f.repo.ListAppointments(ctx, Filter{SlotID: a.ID})
		require.NoError(t, err)
		live := 0
		for _, appt := range list {
			if appt.Status != StatusCancelled {
				live++
			}
		}
		if a.Status == SlotBooked {
			assert.Equal(t, 1, live, "booked slot %s", a.ID)
		} else {
			assert.Equal(t, 0, live, "%s slot %s", a.Status, a.ID)
		}
	}

	all, err := f.repo.ListAppointments(ctx, Filter{Status: StatusScheduled})
	require.NoError(t, err)
	for _, appt := range all {
		slot, err := f.repo.GetSlot(ctx, appt.SlotID)
		require.NoError(t, err)
		assert.Equal(t, SlotBooked, slot.Status)
	}
}

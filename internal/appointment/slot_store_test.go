package appointment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/events"
)

func TestAddSlot_Success(t *testing.T) {
	f := newFixture(t)

	slot := f.addSlot(t, monday, "09:00", "10:30")

	assert.NotEqual(t, uuid.Nil, slot.ID)
	assert.Equal(t, f.doctor.ID, slot.DoctorID)
	assert.Equal(t, monday, slot.Date)
	assert.Equal(t, SlotAvailable, slot.Status)

	evs := f.repo.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.SlotCreated, evs[0].Type)
	assert.Equal(t, slot.ID, evs[0].AggregateID)
}

func TestAddSlot_InvalidRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.slots.AddSlot(ctx, f.doctor.ID, monday, hm(t, "10:00"), hm(t, "10:00"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = f.slots.AddSlot(ctx, f.doctor.ID, monday, hm(t, "11:00"), hm(t, "10:00"))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestAddSlot_UnknownDoctor(t *testing.T) {
	f := newFixture(t)

	_, err := f.slots.AddSlot(context.Background(), uuid.New(), monday, hm(t, "09:00"), hm(t, "10:00"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

// Scenario D
func TestAddSlot_Overlap(t *testing.T) {
	f := newFixture(t)
	f.addSlot(t, monday, "09:00", "10:30")

	_, err := f.slots.AddSlot(context.Background(), f.doctor.ID, monday, hm(t, "09:30"), hm(t, "10:00"))
	assert.ErrorIs(t, err, ErrOverlap)

	// adjacent ranges and other days are fine
	f.addSlot(t, monday, "10:30", "11:00")
	f.addSlot(t, tuesday, "09:30", "10:00")
	f.assertInvariants(t)
}

func TestListSlots_OrderedByStart(t *testing.T) {
	f := newFixture(t)
	f.addSlot(t, monday, "14:00", "15:30")
	f.addSlot(t, monday, "09:00", "10:30")
	f.addSlot(t, monday, "11:00", "12:30")
	f.addSlot(t, tuesday, "08:00", "09:00")

	slots, err := f.slots.ListSlots(context.Background(), f.doctor.ID, monday)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, "09:00", slots[0].Start.String())
	assert.Equal(t, "11:00", slots[1].Start.String())
	assert.Equal(t, "14:00", slots[2].Start.String())
}

func TestUpdateSlotTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.addSlot(t, monday, "09:00", "10:00")
	f.addSlot(t, monday, "11:00", "12:00")

	updated, err := f.slots.UpdateSlotTime(ctx, first.ID, hm(t, "09:30"), hm(t, "10:30"))
	require.NoError(t, err)
	assert.Equal(t, "09:30", updated.Start.String())
	assert.Equal(t, "10:30", updated.End.String())

	_, err = f.slots.UpdateSlotTime(ctx, first.ID, hm(t, "10:00"), hm(t, "11:30"))
	assert.ErrorIs(t, err, ErrOverlap)

	_, err = f.slots.UpdateSlotTime(ctx, first.ID, hm(t, "10:00"), hm(t, "09:00"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = f.slots.UpdateSlotTime(ctx, uuid.New(), hm(t, "13:00"), hm(t, "14:00"))
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestUpdateSlotTime_Booked(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(t, monday, "09:00", "10:00")

	_, err := f.store.Create(context.Background(), f.patient.ID, f.doctor.ID, slot.ID, "checkup")
	require.NoError(t, err)

	_, err = f.slots.UpdateSlotTime(context.Background(), slot.ID, hm(t, "13:00"), hm(t, "14:00"))
	assert.ErrorIs(t, err, ErrSlotBooked)
	assert.Equal(t, "09:00", f.slot(t, slot.ID).Start.String())
}

func TestDeleteSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(t, monday, "09:00", "10:00")

	require.NoError(t, f.slots.DeleteSlot(ctx, slot.ID))

	_, err := f.slots.Get(ctx, slot.ID)
	assert.ErrorIs(t, err, ErrSlotNotFound)
	assert.ErrorIs(t, f.slots.DeleteSlot(ctx, slot.ID), ErrSlotNotFound)

	// the freed range can be reused
	f.addSlot(t, monday, "09:00", "10:00")
}

// Scenario C
func TestDeleteSlot_Booked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(t, monday, "09:00", "10:00")

	appt, err := f.store.Create(ctx, f.patient.ID, f.doctor.ID, slot.ID, "checkup")
	require.NoError(t, err)

	err = f.slots.DeleteSlot(ctx, slot.ID)
	assert.ErrorIs(t, err, ErrSlotBooked)

	assert.Equal(t, SlotBooked, f.slot(t, slot.ID).Status)
	got, err := f.store.Get(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, got.Status)
	f.assertInvariants(t)
}

func TestDeleteSlot_KeepsCancelledHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(t, monday, "09:00", "10:00")

	appt, err := f.store.Create(ctx, f.patient.ID, f.doctor.ID, slot.ID, "")
	require.NoError(t, err)
	_, err = f.store.Cancel(ctx, appt.ID)
	require.NoError(t, err)

	require.NoError(t, f.slots.DeleteSlot(ctx, slot.ID))

	got, err := f.store.Get(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, got.SlotID)
	assert.Nil(t, got.Slot)
	assert.Equal(t, monday, got.Date)
}

func TestSetBlocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(t, tuesday, "11:00", "12:30")

	blocked, err := f.slots.SetBlocked(ctx, slot.ID, true)
	require.NoError(t, err)
	assert.Equal(t, SlotBlocked, blocked.Status)

	again, err := f.slots.SetBlocked(ctx, slot.ID, true)
	require.NoError(t, err)
	assert.Equal(t, SlotBlocked, again.Status)

	_, err = f.store.Create(ctx, f.patient.ID, f.doctor.ID, slot.ID, "")
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	open, err := f.slots.SetBlocked(ctx, slot.ID, false)
	require.NoError(t, err)
	assert.Equal(t, SlotAvailable, open.Status)

	_, err = f.store.Create(ctx, f.patient.ID, f.doctor.ID, slot.ID, "")
	require.NoError(t, err)

	_, err = f.slots.SetBlocked(ctx, slot.ID, true)
	assert.ErrorIs(t, err, ErrSlotBooked)
	f.assertInvariants(t)
}

func TestReserveRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(t, monday, "09:00", "10:00")

	_, err := f.slots.Release(ctx, slot.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	reserved, err := f.slots.Reserve(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, SlotBooked, reserved.Status)

	_, err = f.slots.Reserve(ctx, slot.ID)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	released, err := f.slots.Release(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, SlotAvailable, released.Status)

	_, err = f.slots.Reserve(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestAvailableDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wednesday := tuesday.AddDays(1)

	f.addSlot(t, monday, "09:00", "10:00")
	f.addSlot(t, monday, "11:00", "12:00")
	blocked := f.addSlot(t, tuesday, "09:00", "10:00")
	f.addSlot(t, wednesday, "09:00", "10:00")
	f.addSlot(t, wednesday.AddDays(7), "09:00", "10:00")

	_, err := f.slots.SetBlocked(ctx, blocked.ID, true)
	require.NoError(t, err)

	dates, err := f.slots.AvailableDates(ctx, f.doctor.ID, monday, monday.AddDays(6))
	require.NoError(t, err)
	assert.Equal(t, []Date{monday, wednesday}, dates)
}

func TestMemoryRepository_RollsBackFailedTx(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.addSlot(t, monday, "09:00", "10:00")

	err := f.repo.WithTx(ctx, func(tx Repository) error {
		if _, err := tx.UpdateSlotStatus(ctx, slot.ID, SlotAvailable, SlotBooked); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, SlotAvailable, f.slot(t, slot.ID).Status)
}

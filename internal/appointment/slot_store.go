package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/events"
)

var (
	ErrInvalidRange    = errors.New("slot end time must be after start time")
	ErrOverlap         = errors.New("slot overlaps an existing slot")
	ErrSlotBooked      = errors.New("slot is booked")
	ErrSlotUnavailable = errors.New("slot is not available")
	ErrInvalidState    = errors.New("slot is not booked")
)

// SlotStore is the only writer of slot status.
type SlotStore struct {
	repo Repository
	pub  events.Publisher
	log  *zap.Logger
}

func NewSlotStore(repo Repository, pub events.Publisher, log *zap.Logger) *SlotStore {
	return &SlotStore{
		repo: repo,
		pub:  pub,
		log:  log,
	}
}

func validRange(start, end TimeOfDay) error {
	if !start.Valid() || !end.Valid() || end <= start {
		return fmt.Errorf("%w: %s-%s", ErrInvalidRange, start, end)
	}
	return nil
}

// ListSlots returns every slot of the doctor on date, any status, by start time.
func (s *SlotStore) ListSlots(ctx context.Context, doctorID uuid.UUID, date Date) ([]TimeSlot, error) {
	slots, err := s.repo.ListSlots(ctx, doctorID, date, date)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

func (s *SlotStore) Get(ctx context.Context, slotID uuid.UUID) (*TimeSlot, error) {
	slot, err := s.repo.GetSlot(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return slot, nil
}

// AvailableDates lists the days in [from, to] with at least one available slot.
func (s *SlotStore) AvailableDates(ctx context.Context, doctorID uuid.UUID, from, to Date) ([]Date, error) {
	slots, err := s.repo.ListSlots(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	var dates []Date
	for _, slot := range slots {
		if slot.Status != SlotAvailable {
			continue
		}
		if n := len(dates); n > 0 && dates[n-1] == slot.Date {
			continue
		}
		dates = append(dates, slot.Date)
	}
	return dates, nil
}

func (s *SlotStore) AddSlot(ctx context.Context, doctorID uuid.UUID, date Date, start, end TimeOfDay) (*TimeSlot, error) {
	if err := validRange(start, end); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetDoctor(ctx, doctorID); err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	var created *TimeSlot
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		if err := tx.LockDoctorDay(ctx, doctorID, date); err != nil {
			return err
		}
		if err := checkOverlap(ctx, tx, doctorID, date, start, end, uuid.Nil); err != nil {
			return err
		}

		slot, err := tx.InsertSlot(ctx, TimeSlot{
			ID:       uuid.New(),
			DoctorID: doctorID,
			Date:     date,
			Start:    start,
			End:      end,
			Status:   SlotAvailable,
		})
		if err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
		created = slot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.SlotCreated, created)
	return created, nil
}

// UpdateSlotTime moves an unbooked slot to a new range on the same day.
func (s *SlotStore) UpdateSlotTime(ctx context.Context, slotID uuid.UUID, start, end TimeOfDay) (*TimeSlot, error) {
	if err := validRange(start, end); err != nil {
		return nil, err
	}

	var updated *TimeSlot
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		slot, err := tx.GetSlot(ctx, slotID)
		if err != nil {
			return err
		}
		if slot.Status == SlotBooked {
			return ErrSlotBooked
		}
		if err := tx.LockDoctorDay(ctx, slot.DoctorID, slot.Date); err != nil {
			return err
		}
		if err := checkOverlap(ctx, tx, slot.DoctorID, slot.Date, start, end, slot.ID); err != nil {
			return err
		}

		updated, err = tx.UpdateSlotTime(ctx, slotID, start, end)
		if errors.Is(err, ErrNotFound) {
			// booked between the read and the write
			return ErrSlotBooked
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.SlotUpdated, updated)
	return updated, nil
}

func (s *SlotStore) DeleteSlot(ctx context.Context, slotID uuid.UUID) error {
	var deleted *TimeSlot
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		slot, err := tx.GetSlot(ctx, slotID)
		if err != nil {
			return err
		}
		if slot.Status == SlotBooked {
			return ErrSlotBooked
		}
		if err := tx.DeleteSlot(ctx, slotID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrSlotBooked
			}
			return err
		}
		deleted = slot
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.SlotDeleted, deleted)
	return nil
}

// SetBlocked toggles a slot between available and blocked.
func (s *SlotStore) SetBlocked(ctx context.Context, slotID uuid.UUID, blocked bool) (*TimeSlot, error) {
	from, to := SlotBlocked, SlotAvailable
	if blocked {
		from, to = SlotAvailable, SlotBlocked
	}

	var updated *TimeSlot
	changed := false
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		slot, err := tx.GetSlot(ctx, slotID)
		if err != nil {
			return err
		}
		switch slot.Status {
		case SlotBooked:
			return ErrSlotBooked
		case to:
			updated = slot
			return nil
		}

		updated, err = tx.UpdateSlotStatus(ctx, slotID, from, to)
		if errors.Is(err, ErrNotFound) {
			return ErrSlotBooked
		}
		changed = err == nil
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publish(ctx, events.SlotUpdated, updated)
	}
	return updated, nil
}

// Reserve flips an available slot to booked. Only appointment creation
// should call it, so that every booked slot has an appointment.
func (s *SlotStore) Reserve(ctx context.Context, slotID uuid.UUID) (*TimeSlot, error) {
	var slot *TimeSlot
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		var err error
		slot, err = s.reserveTx(ctx, tx, slotID)
		return err
	})
	return slot, err
}

// Release returns a booked slot to available.
func (s *SlotStore) Release(ctx context.Context, slotID uuid.UUID) (*TimeSlot, error) {
	var slot *TimeSlot
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		var err error
		slot, err = s.releaseTx(ctx, tx, slotID)
		return err
	})
	return slot, err
}

func (s *SlotStore) reserveTx(ctx context.Context, tx Repository, slotID uuid.UUID) (*TimeSlot, error) {
	slot, err := tx.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Status != SlotAvailable {
		return nil, fmt.Errorf("%w: slot is %s", ErrSlotUnavailable, slot.Status)
	}

	reserved, err := tx.UpdateSlotStatus(ctx, slotID, SlotAvailable, SlotBooked)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("reserve slot: %w", err)
	}
	return reserved, nil
}

func (s *SlotStore) releaseTx(ctx context.Context, tx Repository, slotID uuid.UUID) (*TimeSlot, error) {
	slot, err := tx.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Status != SlotBooked {
		return nil, fmt.Errorf("%w: slot is %s", ErrInvalidState, slot.Status)
	}

	released, err := tx.UpdateSlotStatus(ctx, slotID, SlotBooked, SlotAvailable)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("release slot: %w", err)
	}
	return released, nil
}

// checkOverlap rejects [start, end) if it intersects any other slot of the
// doctor on date. except is skipped so a slot can be moved within itself.
func checkOverlap(ctx context.Context, tx Repository, doctorID uuid.UUID, date Date, start, end TimeOfDay, except uuid.UUID) error {
	existing, err := tx.ListSlots(ctx, doctorID, date, date)
	if err != nil {
		return fmt.Errorf("list slots: %w", err)
	}
	for _, other := range existing {
		if other.ID == except {
			continue
		}
		if other.Overlaps(start, end) {
			return fmt.Errorf("%w: %s %s-%s", ErrOverlap, date, other.Start, other.End)
		}
	}
	return nil
}

func (s *SlotStore) publish(ctx context.Context, eventType string, slot *TimeSlot) {
	ev := events.New(eventType, slot.ID, map[string]any{
		"doctor_id":  slot.DoctorID.String(),
		"date":       slot.Date.String(),
		"start_time": slot.Start.String(),
		"end_time":   slot.End.String(),
		"status":     string(slot.Status),
	})
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Warn("publish slot event failed",
			zap.String("event_type", eventType),
			zap.Stringer("slot_id", slot.ID),
			zap.Error(err),
		)
	}
}

package appointment

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/events"
)

// MemoryRepository keeps everything in process. Reads share a read lock and
// see a consistent snapshot; WithTx holds the write lock for the whole
// callback and restores the previous state if it fails.
type MemoryRepository struct {
	mu    sync.RWMutex
	state *memState
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{state: newMemState()}
}

func (m *MemoryRepository) AddDoctor(d Doctor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.doctors[d.ID] = d
}

func (m *MemoryRepository) AddPatient(p Patient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.patients[p.ID] = p
}

// Events returns a copy of the recorded event log.
func (m *MemoryRepository) Events() []events.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]events.Event(nil), m.state.events...)
}

func (m *MemoryRepository) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(memTx{m.state}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *MemoryRepository) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetDoctor(ctx, id)
}

func (m *MemoryRepository) ListDoctors(ctx context.Context, query string) ([]Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.ListDoctors(ctx, query)
}

func (m *MemoryRepository) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetPatient(ctx, id)
}

func (m *MemoryRepository) LockDoctorDay(ctx context.Context, doctorID uuid.UUID, date Date) error {
	return nil
}

func (m *MemoryRepository) GetSlot(ctx context.Context, id uuid.UUID) (*TimeSlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetSlot(ctx, id)
}

func (m *MemoryRepository) ListSlots(ctx context.Context, doctorID uuid.UUID, from, to Date) ([]TimeSlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.ListSlots(ctx, doctorID, from, to)
}

func (m *MemoryRepository) InsertSlot(ctx context.Context, slot TimeSlot) (*TimeSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.InsertSlot(ctx, slot)
}

func (m *MemoryRepository) UpdateSlotTime(ctx context.Context, id uuid.UUID, start, end TimeOfDay) (*TimeSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.UpdateSlotTime(ctx, id, start, end)
}

func (m *MemoryRepository) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.DeleteSlot(ctx, id)
}

func (m *MemoryRepository) UpdateSlotStatus(ctx context.Context, id uuid.UUID, from, to SlotStatus) (*TimeSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.UpdateSlotStatus(ctx, id, from, to)
}

func (m *MemoryRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetAppointment(ctx, id)
}

func (m *MemoryRepository) ListAppointments(ctx context.Context, f Filter) ([]AppointmentDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.ListAppointments(ctx, f)
}

func (m *MemoryRepository) InsertAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.InsertAppointment(ctx, a)
}

func (m *MemoryRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.UpdateAppointmentStatus(ctx, id, from, to)
}

func (m *MemoryRepository) InsertEvent(ctx context.Context, ev events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.InsertEvent(ctx, ev)
}

// memTx is the view handed to WithTx callbacks. The write lock is already
// held by the enclosing WithTx.
type memTx struct {
	*memState
}

func (t memTx) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	return fn(t)
}

type memState struct {
	doctors      map[uuid.UUID]Doctor
	patients     map[uuid.UUID]Patient
	slots        map[uuid.UUID]TimeSlot
	appointments map[uuid.UUID]Appointment
	events       []events.Event
}

func newMemState() *memState {
	return &memState{
		doctors:      make(map[uuid.UUID]Doctor),
		patients:     make(map[uuid.UUID]Patient),
		slots:        make(map[uuid.UUID]TimeSlot),
		appointments: make(map[uuid.UUID]Appointment),
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		doctors:      make(map[uuid.UUID]Doctor, len(s.doctors)),
		patients:     make(map[uuid.UUID]Patient, len(s.patients)),
		slots:        make(map[uuid.UUID]TimeSlot, len(s.slots)),
		appointments: make(map[uuid.UUID]Appointment, len(s.appointments)),
		events:       append([]events.Event(nil), s.events...),
	}
	for k, v := range s.doctors {
		c.doctors[k] = v
	}
	for k, v := range s.patients {
		c.patients[k] = v
	}
	for k, v := range s.slots {
		c.slots[k] = v
	}
	for k, v := range s.appointments {
		c.appointments[k] = v
	}
	return c
}

func (s *memState) GetDoctor(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := s.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return &d, nil
}

func (s *memState) ListDoctors(_ context.Context, query string) ([]Doctor, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Doctor
	for _, d := range s.doctors {
		if q == "" || containsFold(d.Name, q) || containsFold(d.Specialty, q) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *memState) GetPatient(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := s.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (s *memState) LockDoctorDay(context.Context, uuid.UUID, Date) error {
	return nil
}

func (s *memState) GetSlot(_ context.Context, id uuid.UUID) (*TimeSlot, error) {
	slot, ok := s.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	return &slot, nil
}

func (s *memState) ListSlots(_ context.Context, doctorID uuid.UUID, from, to Date) ([]TimeSlot, error) {
	var out []TimeSlot
	for _, slot := range s.slots {
		if slot.DoctorID != doctorID || slot.Date.Before(from) || slot.Date.After(to) {
			continue
		}
		out = append(out, slot)
	}
	sortSlots(out)
	return out, nil
}

func (s *memState) InsertSlot(_ context.Context, slot TimeSlot) (*TimeSlot, error) {
	now := time.Now().UTC()
	slot.CreatedAt = now
	slot.UpdatedAt = now
	s.slots[slot.ID] = slot
	return &slot, nil
}

func (s *memState) UpdateSlotTime(_ context.Context, id uuid.UUID, start, end TimeOfDay) (*TimeSlot, error) {
	slot, ok := s.slots[id]
	if !ok || slot.Status == SlotBooked {
		return nil, ErrSlotNotFound
	}
	slot.Start = start
	slot.End = end
	slot.UpdatedAt = time.Now().UTC()
	s.slots[id] = slot
	return &slot, nil
}

func (s *memState) DeleteSlot(_ context.Context, id uuid.UUID) error {
	slot, ok := s.slots[id]
	if !ok || slot.Status == SlotBooked {
		return ErrSlotNotFound
	}
	delete(s.slots, id)
	// appointments keep only a weak reference
	for aid, a := range s.appointments {
		if a.SlotID == id {
			a.SlotID = uuid.Nil
			s.appointments[aid] = a
		}
	}
	return nil
}

func (s *memState) UpdateSlotStatus(_ context.Context, id uuid.UUID, from, to SlotStatus) (*TimeSlot, error) {
	slot, ok := s.slots[id]
	if !ok || slot.Status != from {
		return nil, ErrSlotNotFound
	}
	slot.Status = to
	slot.UpdatedAt = time.Now().UTC()
	s.slots[id] = slot
	return &slot, nil
}

func (s *memState) GetAppointment(_ context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	a, ok := s.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	d := s.detail(a)
	return &d, nil
}

func (s *memState) ListAppointments(_ context.Context, f Filter) ([]AppointmentDetail, error) {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	var out []AppointmentDetail
	for _, a := range s.appointments {
		if f.PatientID != uuid.Nil && a.PatientID != f.PatientID {
			continue
		}
		if f.DoctorID != uuid.Nil && a.DoctorID != f.DoctorID {
			continue
		}
		if f.SlotID != uuid.Nil && a.SlotID != f.SlotID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Date != nil && a.Date != *f.Date {
			continue
		}
		d := s.detail(a)
		if q != "" && !containsFold(d.PatientName, q) && !containsFold(d.DoctorName, q) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return appointmentLess(out[i].Appointment, out[j].Appointment)
	})
	return out, nil
}

func (s *memState) InsertAppointment(_ context.Context, a Appointment) (*Appointment, error) {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.appointments[a.ID] = a
	return &a, nil
}

func (s *memState) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	a, ok := s.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now().UTC()
	s.appointments[id] = a
	return &a, nil
}

func (s *memState) InsertEvent(_ context.Context, ev events.Event) error {
	s.events = append(s.events, ev)
	return nil
}

func (s *memState) detail(a Appointment) AppointmentDetail {
	d := AppointmentDetail{Appointment: a}
	if doc, ok := s.doctors[a.DoctorID]; ok {
		d.DoctorName = doc.Name
	}
	if p, ok := s.patients[a.PatientID]; ok {
		d.PatientName = p.Name
	}
	if slot, ok := s.slots[a.SlotID]; ok {
		d.Slot = &slot
	}
	return d
}

// containsFold reports whether s contains lowerSub, which must already be
// lower case.
func containsFold(s, lowerSub string) bool {
	return strings.Contains(strings.ToLower(s), lowerSub)
}

func sortSlots(slots []TimeSlot) {
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if c := a.Date.Compare(b.Date); c != 0 {
			return c < 0
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.ID.String() < b.ID.String()
	})
}

func appointmentLess(a, b Appointment) bool {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c < 0
	}
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return a.ID.String() < b.ID.String()
}

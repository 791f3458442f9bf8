package main

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type openSlot struct {
	ID       uuid.UUID
	DoctorID uuid.UUID
	Date     string
}

type fixtures struct {
	patients []uuid.UUID
	slots    []openSlot
}

func (f *fixtures) randomPatient(rng *rand.Rand) uuid.UUID {
	return f.patients[rng.Intn(len(f.patients))]
}

func (f *fixtures) randomSlot(rng *rand.Rand) openSlot {
	return f.slots[rng.Intn(len(f.slots))]
}

func loadFixtures(ctx context.Context, pool *pgxpool.Pool, patientLimit, slotLimit int) (*fixtures, error) {
	rows, err := pool.Query(ctx, `SELECT id FROM patients ORDER BY id LIMIT $1`, patientLimit)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	patients, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scan patients: %w", err)
	}

	rows, err = pool.Query(ctx, `
		SELECT id, doctor_id, slot_date
		FROM time_slots
		WHERE status = 'available' AND slot_date >= CURRENT_DATE
		ORDER BY slot_date, start_time
		LIMIT $1
	`, slotLimit)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	slots, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (openSlot, error) {
		var (
			s    openSlot
			date pgtype.Date
		)
		err := row.Scan(&s.ID, &s.DoctorID, &date)
		s.Date = date.Time.Format("2006-01-02")
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan slots: %w", err)
	}

	if len(patients) == 0 || len(slots) == 0 {
		return nil, fmt.Errorf("need patients and open slots, found %d and %d (run cmd/seed first)", len(patients), len(slots))
	}
	return &fixtures{patients: patients, slots: slots}, nil
}

type booking struct {
	ID        uuid.UUID
	PatientID uuid.UUID
}

// ledger remembers what the simulator booked: live bookings for the cancel
// workers and the win count per slot.
type ledger struct {
	mu   sync.Mutex
	live []booking
	wins map[uuid.UUID]int
}

func newLedger() *ledger {
	return &ledger{wins: make(map[uuid.UUID]int)}
}

func (l *ledger) won(slotID uuid.UUID, b booking) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.live = append(l.live, b)
	l.wins[slotID]++
}

// take pops a random live booking.
func (l *ledger) take(rng *rand.Rand) (booking, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.live)
	if n == 0 {
		return booking{}, false
	}
	i := rng.Intn(n)
	b := l.live[i]
	l.live[i] = l.live[n-1]
	l.live = l.live[:n-1]
	return b, true
}

func (l *ledger) doubleWins() []uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []uuid.UUID
	for id, n := range l.wins {
		if n > 1 {
			out = append(out, id)
		}
	}
	return out
}

// verifyInvariants checks the one-booking-per-slot rule in the database
// after the run.
func verifyInvariants(ctx context.Context, pool *pgxpool.Pool) error {
	var doubled, orphaned, dangling int
	err := pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM (
				SELECT slot_id FROM appointments
				WHERE status = 'scheduled' AND slot_id IS NOT NULL
				GROUP BY slot_id HAVING count(*) > 1
			) d),
			(SELECT count(*) FROM time_slots s
				WHERE s.status = 'booked' AND NOT EXISTS (
					SELECT 1 FROM appointments a
					WHERE a.slot_id = s.id AND a.status <> 'cancelled'
				)),
			(SELECT count(*) FROM appointments a
				JOIN time_slots s ON s.id = a.slot_id
				WHERE a.status = 'scheduled' AND s.status <> 'booked')
	`).Scan(&doubled, &orphaned, &dangling)
	if err != nil {
		return fmt.Errorf("check invariants: %w", err)
	}
	if doubled+orphaned+dangling > 0 {
		return fmt.Errorf("%d slots with two scheduled appointments, %d booked slots without appointment, %d scheduled appointments on unbooked slots",
			doubled, orphaned, dangling)
	}
	return nil
}

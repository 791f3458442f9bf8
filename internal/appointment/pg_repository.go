package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-scheduling/internal/events"
)

const uniqueViolation = "23505"

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool, q: pool}
}

func (r *PgRepository) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&PgRepository{pool: r.pool, q: tx, inTx: true})
	})
}

// Helpers

const slotColumns = `id, doctor_id, slot_date, start_time, end_time, status, created_at, updated_at`

const appointmentColumns = `a.id, a.patient_id, a.doctor_id, a.slot_id, a.scheduled_date, a.scheduled_time,
	a.reason, a.status, a.created_at, a.updated_at`

func pgDate(d Date) pgtype.Date {
	return pgtype.Date{Time: d.Time(), Valid: true}
}

func pgTime(t TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t) * 60 * 1_000_000, Valid: true}
}

func fromPgTime(t pgtype.Time) TimeOfDay {
	return TimeOfDay(t.Microseconds / (60 * 1_000_000))
}

func scanSlot(row pgx.Row) (*TimeSlot, error) {
	var s TimeSlot
	var date pgtype.Date
	var start, end pgtype.Time

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&date,
		&start,
		&end,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	s.Date = DateOf(date.Time)
	s.Start = fromPgTime(start)
	s.End = fromPgTime(end)
	return &s, nil
}

func scanAppointment(row pgx.Row, extra ...any) (*Appointment, error) {
	var a Appointment
	var slotID *uuid.UUID
	var date pgtype.Date
	var at pgtype.Time

	dest := append([]any{
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&slotID,
		&date,
		&at,
		&a.Reason,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	}, extra...)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	if slotID != nil {
		a.SlotID = *slotID
	}
	a.Date = DateOf(date.Time)
	a.Time = fromPgTime(at)
	return &a, nil
}

func scanDetail(row pgx.Row) (*AppointmentDetail, error) {
	var d AppointmentDetail
	var slotID *uuid.UUID
	var slotDate pgtype.Date
	var slotStart, slotEnd pgtype.Time
	var slotStatus *SlotStatus

	a, err := scanAppointment(row,
		&d.DoctorName,
		&d.PatientName,
		&slotID,
		&slotDate,
		&slotStart,
		&slotEnd,
		&slotStatus,
	)
	if err != nil {
		return nil, err
	}

	d.Appointment = *a
	if slotID != nil && slotStatus != nil {
		d.Slot = &TimeSlot{
			ID:       *slotID,
			DoctorID: a.DoctorID,
			Date:     DateOf(slotDate.Time),
			Start:    fromPgTime(slotStart),
			End:      fromPgTime(slotEnd),
			Status:   *slotStatus,
		}
	}
	return &d, nil
}

// Directory

func (r *PgRepository) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	var d Doctor
	err := r.q.QueryRow(ctx, `
		SELECT id, name, specialty
		FROM doctors
		WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.Specialty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *PgRepository) ListDoctors(ctx context.Context, query string) ([]Doctor, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, name, specialty
		FROM doctors
		WHERE $1 = ''
		   OR strpos(lower(name), lower($1)) > 0
		   OR strpos(lower(specialty), lower($1)) > 0
		ORDER BY name, id
	`, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialty); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := r.q.QueryRow(ctx, `
		SELECT id, name, age
		FROM patients
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Age)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Slots

// LockDoctorDay takes a transaction scoped advisory lock so that range
// checks for one doctor and day run one at a time.
func (r *PgRepository) LockDoctorDay(ctx context.Context, doctorID uuid.UUID, date Date) error {
	if !r.inTx {
		return errors.New("LockDoctorDay requires a transaction")
	}
	key := doctorID.String() + "/" + date.String()
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("lock doctor day: %w", err)
	}
	return nil
}

func (r *PgRepository) GetSlot(ctx context.Context, id uuid.UUID) (*TimeSlot, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM time_slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) ListSlots(ctx context.Context, doctorID uuid.UUID, from, to Date) ([]TimeSlot, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+slotColumns+`
		FROM time_slots
		WHERE doctor_id = $1
		  AND slot_date BETWEEN $2 AND $3
		ORDER BY slot_date, start_time, id
	`, doctorID, pgDate(from), pgDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TimeSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *PgRepository) InsertSlot(ctx context.Context, slot TimeSlot) (*TimeSlot, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO time_slots (id, doctor_id, slot_date, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING `+slotColumns,
		slot.ID, slot.DoctorID, pgDate(slot.Date), pgTime(slot.Start), pgTime(slot.End), slot.Status)
	return scanSlot(row)
}

func (r *PgRepository) UpdateSlotTime(ctx context.Context, id uuid.UUID, start, end TimeOfDay) (*TimeSlot, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE time_slots
		SET start_time = $2,
		    end_time = $3,
		    updated_at = now()
		WHERE id = $1
		  AND status <> 'booked'
		RETURNING `+slotColumns,
		id, pgTime(start), pgTime(end))
	return scanSlot(row)
}

func (r *PgRepository) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM time_slots
		WHERE id = $1
		  AND status <> 'booked'
	`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *PgRepository) UpdateSlotStatus(ctx context.Context, id uuid.UUID, from, to SlotStatus) (*TimeSlot, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE time_slots
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+slotColumns,
		id, to, from)
	return scanSlot(row)
}

// Appointments

const detailSelect = `
	SELECT ` + appointmentColumns + `,
	       d.name, p.name,
	       s.id, s.slot_date, s.start_time, s.end_time, s.status
	FROM appointments a
	JOIN doctors d ON d.id = a.doctor_id
	JOIN patients p ON p.id = a.patient_id
	LEFT JOIN time_slots s ON s.id = a.slot_id`

func (r *PgRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	row := r.q.QueryRow(ctx, detailSelect+`
		WHERE a.id = $1
	`, id)
	return scanDetail(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, f Filter) ([]AppointmentDetail, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f.PatientID != uuid.Nil {
		add("a.patient_id = $%d", f.PatientID)
	}
	if f.DoctorID != uuid.Nil {
		add("a.doctor_id = $%d", f.DoctorID)
	}
	if f.SlotID != uuid.Nil {
		add("a.slot_id = $%d", f.SlotID)
	}
	if f.Status != "" {
		add("a.status = $%d", f.Status)
	}
	if f.Date != nil {
		add("a.scheduled_date = $%d", pgDate(*f.Date))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, q)
		n := len(args)
		where = append(where, fmt.Sprintf("(strpos(lower(d.name), lower($%d)) > 0 OR strpos(lower(p.name), lower($%d)) > 0)", n, n))
	}

	sql := detailSelect
	if len(where) > 0 {
		sql += "\n\tWHERE " + strings.Join(where, " AND ")
	}
	sql += "\n\tORDER BY a.scheduled_date, a.scheduled_time, a.id"

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *PgRepository) InsertAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO appointments AS a (id, patient_id, doctor_id, slot_id, scheduled_date, scheduled_time, reason, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+appointmentColumns,
		a.ID, a.PatientID, a.DoctorID, a.SlotID, pgDate(a.Date), pgTime(a.Time), a.Reason, a.Status)
	created, err := scanAppointment(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		// appointments_one_scheduled_per_slot
		return nil, ErrSlotUnavailable
	}
	return created, err
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE appointments AS a
		SET status = $2,
		    updated_at = now()
		WHERE a.id = $1
		  AND a.status = $3
		RETURNING `+appointmentColumns,
		id, to, from)
	return scanAppointment(row)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev events.Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = r.q.Exec(ctx, `
		INSERT INTO event_logs (id, event_type, aggregate_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ev.ID, ev.Type, ev.AggregateID, payload, ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

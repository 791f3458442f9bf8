// Package seed generates fake clinic data: doctors, patients and a grid of
// non-overlapping slots per doctor.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

var Specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var (
	dayStart = appointment.NewTimeOfDay(9, 0)
	dayEnd   = appointment.NewTimeOfDay(17, 0)
)

type Options struct {
	Doctors  int
	Patients int
	Days     int
	From     appointment.Date
	Seed     uint64 // 0 picks a random seed
}

type Dataset struct {
	Doctors  []appointment.Doctor
	Patients []appointment.Patient
	Slots    []appointment.TimeSlot
}

func Generate(opts Options) Dataset {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	f := gofakeit.New(seed)

	var ds Dataset
	for i := 0; i < opts.Doctors; i++ {
		d := appointment.Doctor{
			ID:        uuid.New(),
			Name:      "Dr. " + f.Name(),
			Specialty: Specialties[f.Number(0, len(Specialties)-1)],
		}
		ds.Doctors = append(ds.Doctors, d)
		ds.Slots = append(ds.Slots, doctorSlots(f, d.ID, opts.From, opts.Days)...)
	}
	for i := 0; i < opts.Patients; i++ {
		ds.Patients = append(ds.Patients, appointment.Patient{
			ID:   uuid.New(),
			Name: f.Name(),
			Age:  f.Number(1, 95),
		})
	}
	return ds
}

// doctorSlots lays out one working day after another, skipping Sundays.
// Each doctor keeps one slot length and an optional break between slots.
func doctorSlots(f *gofakeit.Faker, doctorID uuid.UUID, from appointment.Date, days int) []appointment.TimeSlot {
	length := appointment.TimeOfDay([]int{30, 60, 90}[f.Number(0, 2)])
	gap := appointment.TimeOfDay([]int{0, 15, 30}[f.Number(0, 2)])

	var out []appointment.TimeSlot
	for day := 0; day < days; day++ {
		date := from.AddDays(day)
		if date.Weekday() == time.Sunday {
			continue
		}
		for start := dayStart; start+length <= dayEnd; start += length + gap {
			out = append(out, appointment.TimeSlot{
				ID:       uuid.New(),
				DoctorID: doctorID,
				Date:     date,
				Start:    start,
				End:      start + length,
				Status:   appointment.SlotAvailable,
			})
		}
	}
	return out
}

// LoadMemory copies ds into an in-memory repository. Slots go through
// SlotStore so they are range and overlap checked like any other slot.
func LoadMemory(ctx context.Context, repo *appointment.MemoryRepository, slots *appointment.SlotStore, ds Dataset) error {
	for _, d := range ds.Doctors {
		repo.AddDoctor(d)
	}
	for _, p := range ds.Patients {
		repo.AddPatient(p)
	}
	for _, s := range ds.Slots {
		if _, err := slots.AddSlot(ctx, s.DoctorID, s.Date, s.Start, s.End); err != nil {
			return fmt.Errorf("add slot %s %s-%s: %w", s.Date, s.Start, s.End, err)
		}
	}
	return nil
}

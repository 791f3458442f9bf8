package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logger"
	"github.com/hackgods/clinic-scheduling/internal/seed"
)

const batchSize = 500

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	zlog, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if cfg.PostgresDSN == "" {
		zlog.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		zlog.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	ctx = context.Background()
	if err := db.Migrate(ctx, pool); err != nil {
		zlog.Fatal("migrate", zap.Error(err))
	}

	opts := seed.Options{
		Doctors:  envInt("SEED_DOCTORS", 100),
		Patients: envInt("SEED_PATIENTS", 9000),
		Days:     envInt("SEED_DAYS", 7),
		From:     appointment.DateOf(time.Now()).AddDays(1),
	}
	zlog.Info("seed starting",
		zap.Int("doctors", opts.Doctors),
		zap.Int("patients", opts.Patients),
		zap.Int("days", opts.Days),
	)

	ds := seed.Generate(opts)

	if err := insertDoctors(ctx, pool, ds.Doctors); err != nil {
		zlog.Fatal("seed doctors", zap.Error(err))
	}
	zlog.Info("doctors seeded", zap.Int("count", len(ds.Doctors)))

	if err := inBatches(ctx, pool, len(ds.Patients), func(tx pgx.Tx, i int) error {
		p := ds.Patients[i]
		_, err := tx.Exec(ctx, `
			INSERT INTO patients (id, name, age)
			VALUES ($1, $2, $3)
		`, p.ID, p.Name, p.Age)
		return err
	}, func(done int) {
		zlog.Info("patients seeded", zap.Int("done", done), zap.Int("total", len(ds.Patients)))
	}); err != nil {
		zlog.Fatal("seed patients", zap.Error(err))
	}

	if err := inBatches(ctx, pool, len(ds.Slots), func(tx pgx.Tx, i int) error {
		s := ds.Slots[i]
		_, err := tx.Exec(ctx, `
			INSERT INTO time_slots (id, doctor_id, slot_date, start_time, end_time, status)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, s.ID, s.DoctorID, pgtype.Date{Time: s.Date.Time(), Valid: true}, pgClock(s.Start), pgClock(s.End), string(s.Status))
		return err
	}, func(done int) {
		zlog.Info("slots seeded", zap.Int("done", done), zap.Int("total", len(ds.Slots)))
	}); err != nil {
		zlog.Fatal("seed slots", zap.Error(err))
	}

	zlog.Info("seed complete")
}

func insertDoctors(ctx context.Context, pool *pgxpool.Pool, doctors []appointment.Doctor) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, d := range doctors {
			_, err := tx.Exec(ctx, `
				INSERT INTO doctors (id, name, specialty)
				VALUES ($1, $2, $3)
			`, d.ID, d.Name, d.Specialty)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// inBatches runs insert for indexes [0, count) committing every batchSize rows.
func inBatches(ctx context.Context, pool *pgxpool.Pool, count int, insert func(tx pgx.Tx, i int) error, progress func(done int)) error {
	for offset := 0; offset < count; offset += batchSize {
		end := min(offset+batchSize, count)

		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			for i := offset; i < end; i++ {
				if err := insert(tx, i); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		progress(end)
	}
	return nil
}

func pgClock(t appointment.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t) * int64(time.Minute/time.Microsecond), Valid: true}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

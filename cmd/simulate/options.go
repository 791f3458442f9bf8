package main

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/config"
)

// mix is the share of each operation kind; shares are normalized to sum to 1.
type mix struct {
	Book   float64
	Cancel float64
	Read   float64
}

type options struct {
	BaseURL      string
	Duration     time.Duration
	Workers      int
	Mix          mix
	PatientLimit int
	SlotLimit    int
	PostgresDSN  string
}

func loadOptions(base config.Config) (options, error) {
	o := options{
		BaseURL:  envOr("SIM_API_BASE_URL", "http://localhost:8080", parseString),
		Duration: envOr("SIM_DURATION", 30*time.Second, time.ParseDuration),
		Workers:  envOr("SIM_WORKERS", 10, strconv.Atoi),
		Mix: mix{
			Book:   envOr("SIM_BOOKING_RATIO", 0.6, parseFloat),
			Cancel: envOr("SIM_CANCEL_RATIO", 0.0, parseFloat),
			Read:   envOr("SIM_READ_RATIO", 0.4, parseFloat),
		},
		PatientLimit: envOr("SIM_PATIENT_LIMIT", 4000, strconv.Atoi),
		// few slots keep the workers colliding
		SlotLimit:   envOr("SIM_SLOT_LIMIT", 200, strconv.Atoi),
		PostgresDSN: base.PostgresDSN,
	}

	switch {
	case o.PostgresDSN == "":
		return o, errors.New("POSTGRES_DSN is required")
	case o.Workers <= 0:
		return o, errors.New("SIM_WORKERS must be positive")
	case o.Duration <= 0:
		return o, errors.New("SIM_DURATION must be positive")
	case o.Mix.Book < 0 || o.Mix.Cancel < 0 || o.Mix.Read < 0:
		return o, errors.New("operation ratios must not be negative")
	}

	sum := o.Mix.Book + o.Mix.Cancel + o.Mix.Read
	if sum == 0 {
		return o, errors.New("at least one operation ratio must be set")
	}
	o.Mix = mix{Book: o.Mix.Book / sum, Cancel: o.Mix.Cancel / sum, Read: o.Mix.Read / sum}
	return o, nil
}

// envOr parses key with parse, falling back to def when unset or malformed.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func parseString(s string) (string, error) { return s, nil }

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

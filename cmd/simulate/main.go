// Command simulate races booking confirms from many workers against a small
// set of open slots and verifies that no slot ends up with two bookings.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logger"
)

func main() {
	base, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	zlog, err := logger.New(base.LogLevel, base.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	opts, err := loadOptions(base)
	if err != nil {
		zlog.Fatal("invalid simulator options", zap.Error(err))
	}
	zlog.Info("simulator starting",
		zap.String("api", opts.BaseURL),
		zap.Duration("duration", opts.Duration),
		zap.Int("workers", opts.Workers),
		zap.Float64("book", opts.Mix.Book),
		zap.Float64("cancel", opts.Mix.Cancel),
		zap.Float64("read", opts.Mix.Read),
	)

	loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(loadCtx, opts.PostgresDSN)
	if err != nil {
		zlog.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	fx, err := loadFixtures(loadCtx, pool, opts.PatientLimit, opts.SlotLimit)
	if err != nil {
		zlog.Fatal("load fixtures", zap.Error(err))
	}
	zlog.Info("fixtures loaded", zap.Int("patients", len(fx.patients)), zap.Int("slots", len(fx.slots)))

	r := &runner{
		opts:   opts,
		fx:     fx,
		http:   &http.Client{Timeout: 10 * time.Second},
		stats:  newRecorder(),
		ledger: newLedger(),
		log:    zlog,
	}
	r.run()
	r.stats.print(os.Stdout, opts, len(fx.slots))

	ok := true
	// A slot can be won again after a cancel, so counting wins only
	// proves something on booking-only runs.
	if opts.Mix.Cancel == 0 {
		if twice := r.ledger.doubleWins(); len(twice) > 0 {
			zlog.Error("slots booked more than once", zap.Int("count", len(twice)), zap.Stringers("slot_ids", twice))
			ok = false
		}
	}
	if err := verifyInvariants(context.Background(), pool); err != nil {
		zlog.Error("store invariant violated", zap.Error(err))
		ok = false
	}
	if !ok {
		os.Exit(1)
	}
	zlog.Info("no double bookings detected")
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type runner struct {
	opts   options
	fx     *fixtures
	http   *http.Client
	stats  *recorder
	ledger *ledger
	log    *zap.Logger
}

func (r *runner) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.opts.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < r.opts.Workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r.loop(ctx, rand.New(rand.NewSource(seed)))
		}(time.Now().UnixNano() + int64(i))
	}
	wg.Wait()
	r.log.Info("simulation finished", zap.Duration("elapsed", r.opts.Duration))
}

func (r *runner) loop(ctx context.Context, rng *rand.Rand) {
	for ctx.Err() == nil {
		p := rng.Float64()
		switch {
		case p < r.opts.Mix.Book:
			r.book(ctx, rng)
		case p < r.opts.Mix.Book+r.opts.Mix.Cancel:
			r.cancel(ctx, rng)
		case rng.Intn(2) == 0:
			r.readTimes(ctx, rng)
		default:
			r.readPatient(ctx, rng)
		}
	}
}

// call performs one request and records its outcome under op. A context
// deadline hit at the end of the run is not counted.
func (r *runner) call(ctx context.Context, op, method, path string, body any, classify func(int) outcome) (int, []byte) {
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			r.log.Error("encode request", zap.String("op", op), zap.Error(err))
			return 0, nil
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.opts.BaseURL+path, payload)
	if err != nil {
		r.log.Error("build request", zap.String("op", op), zap.Error(err))
		return 0, nil
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := r.http.Do(req)
	elapsed := time.Since(started)
	if err != nil {
		if ctx.Err() == nil {
			r.stats.add(op, failed, elapsed)
		}
		return 0, nil
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	r.stats.add(op, classify(resp.StatusCode), elapsed)
	return resp.StatusCode, data
}

func (r *runner) book(ctx context.Context, rng *rand.Rand) {
	slot := r.fx.randomSlot(rng)
	patient := r.fx.randomPatient(rng)

	status, data := r.call(ctx, "book", http.MethodPost,
		fmt.Sprintf("/patients/%s/appointments", patient),
		map[string]string{
			"doctor_id": slot.DoctorID.String(),
			"date":      slot.Date,
			"slot_id":   slot.ID.String(),
			"reason":    "simulated visit",
		},
		expect(http.StatusCreated, http.StatusConflict))
	if status != http.StatusCreated {
		return
	}

	var created struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(data, &created); err != nil || created.ID == uuid.Nil {
		r.log.Warn("booking response without id", zap.Stringer("slot_id", slot.ID))
		return
	}
	r.ledger.won(slot.ID, booking{ID: created.ID, PatientID: patient})
}

func (r *runner) cancel(ctx context.Context, rng *rand.Rand) {
	b, ok := r.ledger.take(rng)
	if !ok {
		return
	}
	r.call(ctx, "cancel", http.MethodPost,
		fmt.Sprintf("/patients/%s/appointments/%s/cancel", b.PatientID, b.ID),
		nil, expect(http.StatusOK, http.StatusConflict))
}

func (r *runner) readTimes(ctx context.Context, rng *rand.Rand) {
	slot := r.fx.randomSlot(rng)
	// 422 means the day filled up, which is a valid answer
	r.call(ctx, "available_times", http.MethodGet,
		fmt.Sprintf("/booking/doctors/%s/dates/%s/times", slot.DoctorID, slot.Date),
		nil, expect(http.StatusOK, http.StatusUnprocessableEntity))
}

func (r *runner) readPatient(ctx context.Context, rng *rand.Rand) {
	r.call(ctx, "patient_appointments", http.MethodGet,
		fmt.Sprintf("/patients/%s/appointments", r.fx.randomPatient(rng)),
		nil, expect(http.StatusOK, 0))
}

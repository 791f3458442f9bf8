package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"
)

type outcome int

const (
	succeeded outcome = iota
	conflicted
	failed
)

// expect classifies ok as success and lost as conflict; anything else fails.
// Pass 0 for lost when the operation cannot conflict.
func expect(ok, lost int) func(int) outcome {
	return func(code int) outcome {
		switch {
		case code == ok:
			return succeeded
		case lost != 0 && code == lost:
			return conflicted
		default:
			return failed
		}
	}
}

type opStats struct {
	counts    [3]int
	latencies []time.Duration
}

type recorder struct {
	mu    sync.Mutex
	order []string
	ops   map[string]*opStats
}

func newRecorder() *recorder {
	return &recorder{ops: make(map[string]*opStats)}
}

func (r *recorder) add(op string, o outcome, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.ops[op]
	if !ok {
		s = &opStats{}
		r.ops[op] = s
		r.order = append(r.order, op)
	}
	s.counts[o]++
	s.latencies = append(s.latencies, d)
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p int) time.Duration {
	i := len(sorted) * p / 100
	if i >= len(sorted) {
		i = len(sorted) - 1
	}
	return sorted[i]
}

func (r *recorder) print(w io.Writer, o options, slots int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule := strings.Repeat("=", 72)
	fmt.Fprintf(w, "\n%s\nbooking race report\n%s\n", rule, rule)
	fmt.Fprintf(w, "duration %s, %d workers, %d contended slots\n\n", o.Duration, o.Workers, slots)

	for _, op := range r.order {
		s := r.ops[op]
		total := len(s.latencies)
		if total == 0 {
			continue
		}
		sorted := slices.Clone(s.latencies)
		slices.Sort(sorted)

		var sum time.Duration
		for _, d := range sorted {
			sum += d
		}
		pct := func(n int) float64 { return float64(n) / float64(total) * 100 }

		fmt.Fprintf(w, "%s: %d requests\n", op, total)
		fmt.Fprintf(w, "  ok %d (%.1f%%)  conflict %d (%.1f%%)  error %d (%.1f%%)\n",
			s.counts[succeeded], pct(s.counts[succeeded]),
			s.counts[conflicted], pct(s.counts[conflicted]),
			s.counts[failed], pct(s.counts[failed]))
		fmt.Fprintf(w, "  latency avg %s  min %s  p50 %s  p95 %s  p99 %s  max %s\n\n",
			round(sum/time.Duration(total)), round(sorted[0]),
			round(percentile(sorted, 50)), round(percentile(sorted, 95)), round(percentile(sorted, 99)),
			round(sorted[total-1]))
	}
}

func round(d time.Duration) time.Duration { return d.Round(100 * time.Microsecond) }

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	readinessTimeout = 2 * time.Second
	probeTimeout     = time.Second
)

// probe checks one dependency. A failing critical probe makes the service
// unready; any other failure only degrades it.
type probe struct {
	name     string
	critical bool
	ping     func(ctx context.Context) error
}

type HealthHandler struct {
	probes  []probe
	skipped []string
	env     string
	version string
}

// NewHealthHandler probes whichever of Postgres and Redis are configured.
// Only booking needs Redis, so a Redis outage degrades without failing.
func NewHealthHandler(pgPool *pgxpool.Pool, rdb *redis.Client, env, version string) *HealthHandler {
	h := &HealthHandler{env: env, version: version}
	if pgPool != nil {
		h.probes = append(h.probes, probe{name: "postgres", critical: true, ping: pgPool.Ping})
	} else {
		h.skipped = append(h.skipped, "postgres")
	}
	if rdb != nil {
		h.probes = append(h.probes, probe{name: "redis", ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	} else {
		h.skipped = append(h.skipped, "redis")
	}
	return h
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{Status: "ok", Version: h.version, Env: h.env})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := ReadinessResponse{
		Status:       "ok",
		Version:      h.version,
		Env:          h.env,
		Dependencies: make(map[string]string, len(h.probes)+len(h.skipped)),
	}
	for _, name := range h.skipped {
		resp.Dependencies[name] = "not_configured"
	}

	for _, p := range h.probes {
		probeCtx, probeCancel := context.WithTimeout(ctx, probeTimeout)
		err := p.ping(probeCtx)
		probeCancel()

		if err == nil {
			resp.Dependencies[p.name] = "ok"
			continue
		}
		resp.Dependencies[p.name] = "down"
		switch {
		case p.critical:
			resp.Status = "error"
		case resp.Status == "ok":
			resp.Status = "degraded"
		}
	}

	code := http.StatusOK
	if resp.Status == "error" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

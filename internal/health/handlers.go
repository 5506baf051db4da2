package health

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/shopcore/internal/common"
)

// Checker probes the dependencies readiness cares about.
type Checker struct {
	PingRedis   func(ctx context.Context) error
	PingCatalog func(ctx context.Context) error
}

// Routes mounts the health endpoints on the router.
func (c *Checker) Routes(r chi.Router) {
	r.Get("/healthz", c.Live)
	r.Get("/readyz", c.Ready)
}

// Live reports process liveness.
func (c *Checker) Live(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the service can serve traffic: Redis must answer and
// the catalog service must be reachable.
func (c *Checker) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if c.PingRedis != nil {
		if err := c.PingRedis(ctx); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}
	if c.PingCatalog != nil {
		if err := c.PingCatalog(ctx); err != nil {
			checks["catalog"] = err.Error()
			healthy = false
		} else {
			checks["catalog"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	common.JSON(w, status, map[string]any{"status": statusWord(healthy), "checks": checks})
}

func statusWord(healthy bool) string {
	if healthy {
		return "ok"
	}
	return "degraded"
}

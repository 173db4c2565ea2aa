package healthprobe

import (
	"net/http"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// Checker provides liveness and readiness probes.
type Checker struct {
	startTime time.Time
	ready     atomic.Bool
}

// New creates a new Checker.
func New() *Checker {
	return &Checker{
		startTime: time.Now(),
	}
}

// SetReady marks the application as ready (or not) to serve traffic.
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

type probeResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Message       string  `json:"message,omitempty"`
}

// Health is the liveness handler. It returns 200 whenever the process runs.
func (c *Checker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeProbe(w, http.StatusOK, probeResponse{
			Status:        "healthy",
			UptimeSeconds: time.Since(c.startTime).Seconds(),
		})
	}
}

// Ready is the readiness handler: 200 once SetReady(true) was called,
// 503 before that.
func (c *Checker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !c.ready.Load() {
			writeProbe(w, http.StatusServiceUnavailable, probeResponse{
				Status:  "not_ready",
				Message: "application is starting",
			})
			return
		}

		writeProbe(w, http.StatusOK, probeResponse{
			Status:        "ready",
			UptimeSeconds: time.Since(c.startTime).Seconds(),
		})
	}
}

func writeProbe(w http.ResponseWriter, code int, resp probeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

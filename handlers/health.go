package handlers

import (
	"net/http"
	"time"

	"scavengarr/services/scrape"
)

// HealthHandler reports process liveness plus the per-adapter breaker states.
type HealthHandler struct {
	Breakers *scrape.BreakerRegistry
	Version  string
	started  time.Time
}

func NewHealthHandler(breakers *scrape.BreakerRegistry, version string) *HealthHandler {
	return &HealthHandler{Breakers: breakers, Version: version, started: time.Now()}
}

type healthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	UptimeS  int64             `json:"uptimeSeconds"`
	Adapters []scrape.Snapshot `json:"adapters"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, healthResponse{
		Status:   "ok",
		Version:  h.Version,
		UptimeS:  int64(time.Since(h.started).Seconds()),
		Adapters: h.Breakers.Snapshots(),
	})
}

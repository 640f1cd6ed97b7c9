package server

import (
	"encoding/json"
	"net/http"
	"time"
)

type handlers struct {
	probe Probe
}

// handleHealthz responds to liveness probes. The process being able to
// answer is the whole check; connection state belongs to readiness.
func (h *handlers) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadyz reports ready only when both collaborator connections are up.
func (h *handlers) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	checks := []struct {
		name string
		ok   func() bool
	}{
		{"irc", h.probe.IRCReady},
		{"slack", h.probe.SlackReady},
	}
	for _, check := range checks {
		if !check.ok() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status": "not_ready",
				"failed": check.name,
			})
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// handleStatus returns a small JSON snapshot for dashboards.
func (h *handlers) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"uptime_seconds":  int(time.Since(h.probe.Started).Seconds()),
		"irc_connected":   h.probe.IRCReady(),
		"slack_connected": h.probe.SlackReady(),
		"mapped_channels": h.probe.Channels,
	})
}

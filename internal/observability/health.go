package observability

import (
	"encoding/json"
	"net/http"
	"time"
)

// Snapshot carries the registry and relay state the HTTP surface reports.
// It is produced by a callback to avoid an import cycle with the packages
// that own the state.
type Snapshot struct {
	ConnectedClients []string
	RelayConnected   bool
	RelayConnectedAt time.Time
}

// SnapshotFunc returns the current service state
type SnapshotFunc func() Snapshot

// HealthStatus is the /health response body
type HealthStatus struct {
	Status           string  `json:"status"`
	Service          string  `json:"service"`
	ConnectedClients int     `json:"connected_clients"`
	RelayConnected   bool    `json:"relay_connected"`
	Timestamp        float64 `json:"timestamp"`
}

// StatsStatus is the /stats response body
type StatsStatus struct {
	ConnectedClients int      `json:"connected_clients"`
	ClientList       []string `json:"client_list"`
	RelayConnected   bool     `json:"relay_connected"`
	RelayConnectTime float64  `json:"relay_connection_time,omitempty"`
	AvailableVoices  []string `json:"available_voices"`
	Timestamp        float64  `json:"timestamp"`
}

// HealthCheckHandler handles liveness requests
func HealthCheckHandler(snapshot SnapshotFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := snapshot()
		status := HealthStatus{
			Status:           "healthy",
			Service:          "tts-gateway",
			ConnectedClients: len(snap.ConnectedClients),
			RelayConnected:   snap.RelayConnected,
			Timestamp:        float64(time.Now().UnixNano()) / float64(time.Second),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(status)
	}
}

// StatsHandler handles service statistics requests
func StatsHandler(snapshot SnapshotFunc, voices []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := snapshot()
		stats := StatsStatus{
			ConnectedClients: len(snap.ConnectedClients),
			ClientList:       snap.ConnectedClients,
			RelayConnected:   snap.RelayConnected,
			AvailableVoices:  voices,
			Timestamp:        float64(time.Now().UnixNano()) / float64(time.Second),
		}
		if !snap.RelayConnectedAt.IsZero() {
			stats.RelayConnectTime = float64(snap.RelayConnectedAt.UnixNano()) / float64(time.Second)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(stats)
	}
}

// ReadinessHandler reports whether the synthesis engine is usable.
// The check is supplied as a function to avoid importing the engine package.
type ReadyCheckFunc func() error

func ReadinessHandler(engineCheck ReadyCheckFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{
			"status":  "ready",
			"service": "tts-gateway",
		}

		w.Header().Set("Content-Type", "application/json")
		if engineCheck != nil {
			if err := engineCheck(); err != nil {
				status["status"] = "not_ready"
				status["message"] = err.Error()
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(status)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(status)
	}
}

// Package relay owns the single long-lived connection to the upstream
// control plane. The relay originates synthesis requests on behalf of
// clients it does not itself render audio to.
package relay

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/sanskritvaak/tts-gateway/internal/observability"
)

// Conn is the socket surface the relay needs. *websocket.Conn satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Relay holds at most one live upstream link. Connecting a new upstream
// invalidates the previous one (last-writer-wins).
type Relay struct {
	mu          sync.Mutex
	conn        Conn
	connectedAt time.Time
	logger      zerolog.Logger
}

// New creates a relay with no upstream connected.
func New(logger zerolog.Logger) *Relay {
	return &Relay{logger: logger}
}

// Connect records a new upstream link, closing any previous one.
func (r *Relay) Connect(conn Conn) {
	r.mu.Lock()
	old := r.conn
	r.conn = conn
	r.connectedAt = time.Now()
	r.mu.Unlock()

	if old != nil {
		old.Close()
		r.logger.Warn().Msg("Replaced existing upstream relay connection")
	}
	observability.SetRelayConnected(true)
	r.logger.Info().Msg("Upstream relay connected")
}

// Disconnect drops the link if conn is still the current one. Passing nil
// drops unconditionally.
func (r *Relay) Disconnect(conn Conn) {
	r.mu.Lock()
	if conn != nil && r.conn != conn {
		// A newer link already replaced this one; nothing to do.
		r.mu.Unlock()
		return
	}
	current := r.conn
	r.conn = nil
	r.connectedAt = time.Time{}
	r.mu.Unlock()

	if current != nil {
		current.Close()
		observability.SetRelayConnected(false)
		r.logger.Info().Msg("Upstream relay disconnected")
	}
}

// Send serializes a control event to the upstream. Returns false (dropping
// the link) on failure or when no upstream is connected; never throws into
// the caller.
func (r *Relay) Send(event any) bool {
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to encode relay event")
		return false
	}

	// The lock is held across the write: there is a single upstream link, so
	// serializing writers here costs nothing and keeps the socket safe.
	r.mu.Lock()
	conn := r.conn
	if conn == nil {
		r.mu.Unlock()
		r.logger.Warn().Msg("Upstream relay not connected")
		return false
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		r.conn = nil
		r.connectedAt = time.Time{}
		r.mu.Unlock()

		conn.Close()
		observability.SetRelayConnected(false)
		observability.RecordError("send_failure", "relay")
		r.logger.Error().Err(err).Msg("Relay send failed, dropping link")
		return false
	}
	r.mu.Unlock()
	return true
}

// Connected reports whether an upstream link is live.
func (r *Relay) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

// ConnectedAt returns when the current link was established, or the zero
// time when disconnected.
func (r *Relay) ConnectedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connectedAt
}

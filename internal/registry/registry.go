// Package registry owns the set of active downstream client connections.
// Each connection is registered on handshake and removed on disconnect,
// protocol error, send failure, or idle sweep.
package registry

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/sanskritvaak/tts-gateway/internal/observability"
)

// Conn is the socket surface the registry needs. *websocket.Conn satisfies
// it; tests substitute fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// entry tracks one live client connection. Its mutex serializes sends and
// sweep-close on the same socket; unrelated clients never contend.
type entry struct {
	conn         Conn
	connectedAt  time.Time
	lastActivity time.Time
	mu           sync.Mutex
}

// Registry is the connection registry. All methods are safe for concurrent
// use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	logger  zerolog.Logger
}

// New creates an empty registry.
func New(logger zerolog.Logger) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

// Register records a new client connection. If the client id is already
// present, the stale connection is evicted and closed atomically before the
// new one is recorded, so an id never maps to two live sockets.
func (r *Registry) Register(clientID string, conn Conn) {
	now := time.Now()

	r.mu.Lock()
	stale, replaced := r.entries[clientID]
	r.entries[clientID] = &entry{
		conn:         conn,
		connectedAt:  now,
		lastActivity: now,
	}
	total := len(r.entries)
	r.mu.Unlock()

	if replaced {
		stale.mu.Lock()
		stale.conn.Close()
		stale.mu.Unlock()
		observability.RecordDisconnect()
		r.logger.Warn().Str("client_id", clientID).Msg("Evicted stale connection for reconnecting client")
	}

	observability.RecordConnect()
	r.logger.Info().Str("client_id", clientID).Int("total_clients", total).Msg("Client connected")
}

// Unregister removes a client and closes its socket, reporting whether an
// entry was removed. When conn is non-nil the entry is removed only while it
// still holds that socket, so a client that re-registered in the meantime
// keeps its fresh connection. Passing nil removes unconditionally.
// Idempotent; safe to call from any failure path.
func (r *Registry) Unregister(clientID string, conn Conn) bool {
	r.mu.Lock()
	e, ok := r.entries[clientID]
	if ok && conn != nil && e.conn != conn {
		// A newer connection already replaced this one; leave it alone.
		r.mu.Unlock()
		return false
	}
	if ok {
		delete(r.entries, clientID)
	}
	total := len(r.entries)
	r.mu.Unlock()

	if !ok {
		return false
	}

	// Wait for any in-flight send on this socket before closing it.
	e.mu.Lock()
	e.conn.Close()
	e.mu.Unlock()
	observability.RecordDisconnect()
	r.logger.Info().Str("client_id", clientID).Int("total_clients", total).Msg("Client disconnected")
	return true
}

// Touch records inbound activity for a client.
func (r *Registry) Touch(clientID string) {
	r.mu.RLock()
	e, ok := r.entries[clientID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	e.mu.Lock()
	e.lastActivity = time.Now()
	e.mu.Unlock()
}

// SendControl serializes a control event and sends it to the named client.
// Returns false (after unregistering the client) on send failure or unknown
// id; it never propagates an error to the caller.
func (r *Registry) SendControl(clientID string, event any) bool {
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Error().Err(err).Str("client_id", clientID).Msg("Failed to encode control event")
		return false
	}
	return r.send(clientID, websocket.TextMessage, data)
}

// SendFrame sends a binary audio frame to the named client. Same
// failure/cleanup contract as SendControl.
func (r *Registry) SendFrame(clientID string, frame []byte) bool {
	return r.send(clientID, websocket.BinaryMessage, frame)
}

func (r *Registry) send(clientID string, messageType int, data []byte) bool {
	r.mu.RLock()
	e, ok := r.entries[clientID]
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn().Str("client_id", clientID).Msg("Send to unknown client")
		return false
	}

	e.mu.Lock()
	err := e.conn.WriteMessage(messageType, data)
	if err == nil {
		e.lastActivity = time.Now()
	}
	e.mu.Unlock()

	if err != nil {
		r.logger.Error().Err(err).Str("client_id", clientID).Msg("Send failed, unregistering client")
		observability.RecordError("send_failure", "registry")
		r.Unregister(clientID, e.conn)
		return false
	}
	return true
}

// Clients returns the connected client ids in stable order.
func (r *Registry) Clients() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Count returns the number of connected clients.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// SweepIdle unregisters every client whose last activity is older than
// threshold. Per-entry locking means an in-flight send on the same client
// finishes before its socket is closed, and sends to other clients are
// never delayed.
func (r *Registry) SweepIdle(threshold time.Duration) int {
	cutoff := time.Now().Add(-threshold)

	type stale struct {
		id   string
		conn Conn
	}

	r.mu.RLock()
	var idle []stale
	for id, e := range r.entries {
		e.mu.Lock()
		lastActivity := e.lastActivity
		e.mu.Unlock()
		if lastActivity.Before(cutoff) {
			idle = append(idle, stale{id: id, conn: e.conn})
		}
	}
	r.mu.RUnlock()

	// Passing the observed socket means a client that reconnected between
	// the scan and the eviction is not touched.
	swept := 0
	for _, s := range idle {
		if !r.Unregister(s.id, s.conn) {
			continue
		}
		swept++
		observability.RecordSweep()
		r.logger.Info().Str("client_id", s.id).Msg("Cleaned up idle client")
	}
	return swept
}

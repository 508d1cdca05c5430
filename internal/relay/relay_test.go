package relay

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	failWith error
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.messages = append(f.messages, cp)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestConnect_ReplacesOldLink(t *testing.T) {
	r := New(zerolog.Nop())

	old := &fakeConn{}
	r.Connect(old)
	if !r.Connected() {
		t.Fatal("Expected relay to be connected")
	}

	fresh := &fakeConn{}
	r.Connect(fresh)

	if !old.isClosed() {
		t.Error("Expected previous link to be closed")
	}
	if !r.Connected() {
		t.Error("Expected relay to remain connected after replacement")
	}

	if !r.Send(map[string]string{"type": "health_response"}) {
		t.Error("Expected send on fresh link to succeed")
	}
	if len(old.messages) != 0 {
		t.Error("Old link received a message after replacement")
	}
	if len(fresh.messages) != 1 {
		t.Errorf("Expected 1 message on fresh link, got %d", len(fresh.messages))
	}
}

func TestSend_NotConnected(t *testing.T) {
	r := New(zerolog.Nop())
	if r.Send(map[string]string{"type": "pong"}) {
		t.Error("Expected send without a link to fail")
	}
}

func TestSend_FailureDropsLink(t *testing.T) {
	r := New(zerolog.Nop())
	conn := &fakeConn{failWith: errors.New("connection reset")}
	r.Connect(conn)

	if r.Send(map[string]string{"type": "pong"}) {
		t.Error("Expected send to fail")
	}
	if r.Connected() {
		t.Error("Expected link to be dropped after send failure")
	}
	if !conn.isClosed() {
		t.Error("Expected failed socket to be closed")
	}
}

func TestSend_SerializesJSON(t *testing.T) {
	r := New(zerolog.Nop())
	conn := &fakeConn{}
	r.Connect(conn)

	if !r.Send(map[string]any{"type": "connected_clients", "clients": []string{"c1"}}) {
		t.Fatal("Expected send to succeed")
	}

	var decoded map[string]any
	if err := json.Unmarshal(conn.messages[0], &decoded); err != nil {
		t.Fatalf("Payload is not JSON: %v", err)
	}
	if decoded["type"] != "connected_clients" {
		t.Errorf("Unexpected payload: %v", decoded)
	}
}

func TestDisconnect_OnlyDropsCurrentLink(t *testing.T) {
	r := New(zerolog.Nop())
	old := &fakeConn{}
	r.Connect(old)
	fresh := &fakeConn{}
	r.Connect(fresh)

	// The read loop of the replaced connection reports its disconnect late;
	// it must not tear down the fresh link.
	r.Disconnect(old)
	if !r.Connected() {
		t.Error("Disconnect of a stale link dropped the current one")
	}

	r.Disconnect(fresh)
	if r.Connected() {
		t.Error("Expected relay to be disconnected")
	}
	if !r.ConnectedAt().IsZero() {
		t.Error("Expected zero ConnectedAt after disconnect")
	}
}

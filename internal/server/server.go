// Package server owns the WebSocket transport: it upgrades HTTP
// connections, binds them to the registry or the relay slot, and pumps
// inbound control messages into the router. All protocol semantics live
// in the router; this package only moves bytes and connection lifecycle.
package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/sanskritvaak/tts-gateway/internal/observability"
	"github.com/sanskritvaak/tts-gateway/internal/protocol"
	"github.com/sanskritvaak/tts-gateway/internal/router"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Clients connect from browser pages and native apps alike;
		// origin policy is enforced upstream.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// ClientWSPath is the prefix of the direct-client endpoint; the client id
// is the remainder of the URL path.
const ClientWSPath = "/ws/client/"

// HandleClientWS serves one direct client connection. The client picks its
// own id in the URL path; reconnecting under the same id evicts the stale
// connection.
func HandleClientWS(rt *router.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := strings.TrimPrefix(r.URL.Path, ClientWSPath)
		if clientID == "" || strings.Contains(clientID, "/") {
			http.Error(w, "Client id required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written its own error response.
			logger := observability.GetLogger()
			logger.Warn().Err(err).Str("client_id", clientID).Msg("WebSocket upgrade failed")
			return
		}

		logger := observability.WithClientID(clientID)
		logger.Info().Str("remote_addr", r.RemoteAddr).Msg("Client connected")

		reg := rt.Registry()
		reg.Register(clientID, conn)
		// Scoped to this socket: if the client reconnected and evicted us,
		// the replacement entry is left untouched.
		defer reg.Unregister(clientID, conn)

		reg.SendControl(clientID, protocol.NewConnected(clientID))

		for {
			messageType, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					logger.Warn().Err(err).Msg("WebSocket read error")
				}
				logger.Info().Msg("Client disconnected")
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			rt.HandleClientMessage(r.Context(), clientID, raw)
		}
	}
}

// HandleRelayWS serves the single upstream relay connection. A new relay
// connection replaces the previous one; the relay never carries audio, only
// control messages.
func HandleRelayWS(rt *router.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger := observability.GetLogger()
			logger.Warn().Err(err).Msg("Relay WebSocket upgrade failed")
			return
		}

		logger := observability.GetLogger()
		logger.Info().Str("remote_addr", r.RemoteAddr).Msg("Relay connected")

		rel := rt.Relay()
		rel.Connect(conn)
		defer rel.Disconnect(conn)

		for {
			messageType, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					logger.Warn().Err(err).Msg("Relay read error")
				}
				logger.Info().Msg("Relay disconnected")
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			rt.HandleRelayMessage(r.Context(), raw)
		}
	}
}

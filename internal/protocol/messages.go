// Package protocol defines the control-channel message vocabulary. Inbound
// JSON is decoded into a tagged union keyed by the "type" field; outbound
// events are typed structs that serialize with their tag and a UNIX
// timestamp.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies an inbound control message.
type Kind string

const (
	KindUnknown     Kind = ""
	KindHealthCheck Kind = "health_check"
	KindGetVoices   Kind = "get_voices"
	KindStreamTTS   Kind = "stream_tts"
	KindPing        Kind = "ping"
	KindStatus      Kind = "status"

	// Relay-only kinds
	KindTTSRequest          Kind = "tts_request"
	KindGetConnectedClients Kind = "get_connected_clients"
)

// StreamTTSRequest is the payload of a client-originated stream request.
type StreamTTSRequest struct {
	Text         string
	Voice        string
	PlayStepsInS float64
}

// TTSRequest is the payload of a relay-originated request. ClientID names
// the destination client connection, not the relay itself.
type TTSRequest struct {
	ClientID     string
	Text         string
	Voice        string
	PlayStepsInS float64
	RequestID    string
}

// Inbound is the decoded form of one control message. Exactly the payload
// matching Kind is non-nil.
type Inbound struct {
	Kind       Kind
	StreamTTS  *StreamTTSRequest
	TTSRequest *TTSRequest
}

// envelope mirrors the wire shape of all inbound messages.
type envelope struct {
	Type         string   `json:"type"`
	Text         string   `json:"text"`
	Voice        string   `json:"voice"`
	PlayStepsInS *float64 `json:"play_steps_in_s"`
	ClientID     string   `json:"client_id"`
	RequestID    string   `json:"request_id"`
}

// Decode parses one control message. Malformed JSON returns an error; a
// well-formed message with an unrecognized type decodes to KindUnknown so
// callers can ignore it without failing the connection.
func Decode(raw []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Inbound{}, fmt.Errorf("malformed control message: %w", err)
	}

	steps := 0.0
	if env.PlayStepsInS != nil {
		steps = *env.PlayStepsInS
	}

	switch Kind(env.Type) {
	case KindHealthCheck, KindGetVoices, KindPing, KindStatus, KindGetConnectedClients:
		return Inbound{Kind: Kind(env.Type)}, nil
	case KindStreamTTS:
		return Inbound{
			Kind: KindStreamTTS,
			StreamTTS: &StreamTTSRequest{
				Text:         env.Text,
				Voice:        env.Voice,
				PlayStepsInS: steps,
			},
		}, nil
	case KindTTSRequest:
		return Inbound{
			Kind: KindTTSRequest,
			TTSRequest: &TTSRequest{
				ClientID:     env.ClientID,
				Text:         env.Text,
				Voice:        env.Voice,
				PlayStepsInS: steps,
				RequestID:    env.RequestID,
			},
		}, nil
	default:
		return Inbound{Kind: KindUnknown}, nil
	}
}

// now returns the UNIX timestamp every outbound event carries.
func now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// Connected greets a client after its connection is registered.
type Connected struct {
	Type     string  `json:"type"`
	Ts       float64 `json:"timestamp"`
	ClientID string  `json:"client_id"`
	Server   string  `json:"server"`
}

func NewConnected(clientID string) Connected {
	return Connected{Type: "connected", Ts: now(), ClientID: clientID, Server: "tts-gateway"}
}

// HealthResponse answers a client health_check.
type HealthResponse struct {
	Type            string   `json:"type"`
	Ts              float64  `json:"timestamp"`
	Status          string   `json:"status"`
	AvailableVoices []string `json:"available_voices"`
}

func NewHealthResponse(voices []string) HealthResponse {
	return HealthResponse{Type: "health_response", Ts: now(), Status: "healthy", AvailableVoices: voices}
}

// RelayHealthResponse answers a relay health_check; it additionally reports
// the number of connected clients.
type RelayHealthResponse struct {
	Type             string   `json:"type"`
	Ts               float64  `json:"timestamp"`
	Status           string   `json:"status"`
	ConnectedClients int      `json:"connected_clients"`
	AvailableVoices  []string `json:"available_voices"`
}

func NewRelayHealthResponse(connectedClients int, voices []string) RelayHealthResponse {
	return RelayHealthResponse{
		Type:             "health_response",
		Ts:               now(),
		Status:           "healthy",
		ConnectedClients: connectedClients,
		AvailableVoices:  voices,
	}
}

// VoicesResponse answers get_voices.
type VoicesResponse struct {
	Type         string            `json:"type"`
	Ts           float64           `json:"timestamp"`
	Voices       []string          `json:"voices"`
	Descriptions map[string]string `json:"descriptions"`
}

func NewVoicesResponse(voices []string, descriptions map[string]string) VoicesResponse {
	return VoicesResponse{Type: "voices_response", Ts: now(), Voices: voices, Descriptions: descriptions}
}

// StreamStart announces an accepted stream request before the first frame.
type StreamStart struct {
	Type              string  `json:"type"`
	Ts                float64 `json:"timestamp"`
	RequestID         string  `json:"request_id"`
	Text              string  `json:"text"`
	Voice             string  `json:"voice"`
	EstimatedDuration float64 `json:"estimated_duration"`
	EstimatedChunks   int     `json:"estimated_chunks,omitempty"`
	SampleRate        int     `json:"sample_rate,omitempty"`
}

func NewStreamStart(requestID, text, voice string, estimatedDuration float64) StreamStart {
	return StreamStart{
		Type:              "stream_start",
		Ts:                now(),
		RequestID:         requestID,
		Text:              text,
		Voice:             voice,
		EstimatedDuration: estimatedDuration,
	}
}

// StreamComplete is the terminal event of a successful stream.
type StreamComplete struct {
	Type           string  `json:"type"`
	Ts             float64 `json:"timestamp"`
	RequestID      string  `json:"request_id"`
	TotalChunks    int     `json:"total_chunks"`
	ActualDuration float64 `json:"actual_duration,omitempty"`
}

func NewStreamComplete(requestID string, totalChunks int) StreamComplete {
	return StreamComplete{Type: "stream_complete", Ts: now(), RequestID: requestID, TotalChunks: totalChunks}
}

// ErrorEvent reports a validation or mid-stream failure. A mid-stream error
// is terminal for its request; frames already delivered are not retracted.
type ErrorEvent struct {
	Type      string  `json:"type"`
	Ts        float64 `json:"timestamp"`
	RequestID string  `json:"request_id,omitempty"`
	Message   string  `json:"message"`
}

func NewErrorEvent(requestID, message string) ErrorEvent {
	return ErrorEvent{Type: "error", Ts: now(), RequestID: requestID, Message: message}
}

// Pong answers ping.
type Pong struct {
	Type string  `json:"type"`
	Ts   float64 `json:"timestamp"`
}

func NewPong() Pong {
	return Pong{Type: "pong", Ts: now()}
}

// StatusResponse answers status.
type StatusResponse struct {
	Type       string  `json:"type"`
	Ts         float64 `json:"timestamp"`
	Connected  bool    `json:"connected"`
	ServerTime float64 `json:"server_time"`
}

func NewStatusResponse() StatusResponse {
	t := now()
	return StatusResponse{Type: "status_response", Ts: t, Connected: true, ServerTime: t}
}

// ConnectedClients answers the relay's get_connected_clients.
type ConnectedClients struct {
	Type    string   `json:"type"`
	Ts      float64  `json:"timestamp"`
	Clients []string `json:"clients"`
}

func NewConnectedClients(clients []string) ConnectedClients {
	return ConnectedClients{Type: "connected_clients", Ts: now(), Clients: clients}
}

// Package router dispatches inbound control messages, starts synthesis
// pipelines, and fans their output back to the correct destination.
package router

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/sanskritvaak/tts-gateway/internal/config"
	"github.com/sanskritvaak/tts-gateway/internal/engine"
	"github.com/sanskritvaak/tts-gateway/internal/observability"
	"github.com/sanskritvaak/tts-gateway/internal/pipeline"
	"github.com/sanskritvaak/tts-gateway/internal/protocol"
	"github.com/sanskritvaak/tts-gateway/internal/registry"
	"github.com/sanskritvaak/tts-gateway/internal/relay"
	"github.com/sanskritvaak/tts-gateway/internal/voice"
)

// Router is the façade between the control channels and the synthesis
// pipeline. One router serves all connections.
type Router struct {
	cfg    *config.Config
	eng    engine.Engine
	reg    *registry.Registry
	rel    *relay.Relay
	logger zerolog.Logger
}

// New constructs a router over explicit collaborators.
func New(cfg *config.Config, eng engine.Engine, reg *registry.Registry, rel *relay.Relay, logger zerolog.Logger) *Router {
	return &Router{cfg: cfg, eng: eng, reg: reg, rel: rel, logger: logger}
}

// Registry exposes the connection registry for the transport layer.
func (rt *Router) Registry() *registry.Registry { return rt.reg }

// Relay exposes the upstream relay for the transport layer.
func (rt *Router) Relay() *relay.Relay { return rt.rel }

// Snapshot reports current connection state for the HTTP surface.
func (rt *Router) Snapshot() observability.Snapshot {
	return observability.Snapshot{
		ConnectedClients: rt.reg.Clients(),
		RelayConnected:   rt.rel.Connected(),
		RelayConnectedAt: rt.rel.ConnectedAt(),
	}
}

// HandleClientMessage processes one control message from a direct client
// connection. A failure here never terminates the connection: validation
// errors are answered with an error event and unknown messages are ignored.
func (rt *Router) HandleClientMessage(ctx context.Context, clientID string, raw []byte) {
	rt.reg.Touch(clientID)

	msg, err := protocol.Decode(raw)
	if err != nil {
		rt.logger.Warn().Err(err).Str("client_id", clientID).Msg("Ignoring malformed message")
		observability.RecordError("protocol", "router")
		return
	}

	switch msg.Kind {
	case protocol.KindHealthCheck:
		rt.reg.SendControl(clientID, protocol.NewHealthResponse(voice.List()))

	case protocol.KindGetVoices:
		rt.reg.SendControl(clientID, protocol.NewVoicesResponse(voice.List(), voice.Descriptions()))

	case protocol.KindPing:
		rt.reg.SendControl(clientID, protocol.NewPong())

	case protocol.KindStatus:
		rt.reg.SendControl(clientID, protocol.NewStatusResponse())

	case protocol.KindStreamTTS:
		rt.handleStreamTTS(ctx, clientID, msg.StreamTTS)

	default:
		rt.logger.Debug().Str("client_id", clientID).Msg("Ignoring unknown message type")
	}
}

// HandleRelayMessage processes one control message from the upstream relay.
func (rt *Router) HandleRelayMessage(ctx context.Context, raw []byte) {
	msg, err := protocol.Decode(raw)
	if err != nil {
		rt.logger.Warn().Err(err).Msg("Ignoring malformed relay message")
		observability.RecordError("protocol", "router")
		return
	}

	switch msg.Kind {
	case protocol.KindHealthCheck:
		rt.rel.Send(protocol.NewRelayHealthResponse(rt.reg.Count(), voice.List()))

	case protocol.KindGetConnectedClients:
		rt.rel.Send(protocol.NewConnectedClients(rt.reg.Clients()))

	case protocol.KindTTSRequest:
		rt.handleRelayRequest(ctx, msg.TTSRequest)

	default:
		rt.logger.Debug().Msg("Ignoring unknown relay message type")
	}
}

func (rt *Router) handleStreamTTS(ctx context.Context, clientID string, req *protocol.StreamTTSRequest) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		rt.reg.SendControl(clientID, protocol.NewErrorEvent("", "Text required"))
		observability.RecordError("validation", "router")
		return
	}

	request := rt.buildRequest("", text, req.Voice, req.PlayStepsInS, clientID)

	start := protocol.NewStreamStart(request.ID, text, request.Voice, estimateDurationByChars(text))
	if !rt.reg.SendControl(clientID, start) {
		rt.logger.Warn().Str("client_id", clientID).Msg("Could not announce stream start")
		return
	}

	// Generation is long-running; it must not block this connection's read
	// loop or any other connection.
	go rt.runStream(ctx, request, false)
}

func (rt *Router) handleRelayRequest(ctx context.Context, req *protocol.TTSRequest) {
	if req.ClientID == "" {
		rt.logger.Error().Msg("Relay request missing client_id")
		observability.RecordError("validation", "router")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		rt.reg.SendControl(req.ClientID, protocol.NewErrorEvent(req.RequestID, "Text required"))
		observability.RecordError("validation", "router")
		return
	}

	request := rt.buildRequest(req.RequestID, text, req.Voice, req.PlayStepsInS, req.ClientID)

	estimated := estimateDurationByWords(text)
	start := protocol.NewStreamStart(request.ID, text, request.Voice, estimated)
	start.EstimatedChunks = estimatedChunks(estimated, request.Step)
	start.SampleRate = rt.eng.SampleRate()
	if !rt.reg.SendControl(req.ClientID, start) {
		rt.logger.Warn().Str("client_id", req.ClientID).Msg("Could not announce stream start to relayed client")
		return
	}

	go rt.runStream(ctx, request, true)
}

// buildRequest resolves defaults and the voice descriptor into an immutable
// request. Unknown voices silently fall back to the default descriptor.
func (rt *Router) buildRequest(requestID, text, voiceKey string, stepSeconds float64, origin string) pipeline.Request {
	if requestID == "" {
		requestID = observability.NewRequestID()
	}
	resolvedVoice, description := voice.Describe(voiceKey)

	step := rt.cfg.DefaultStep()
	if stepSeconds > 0 {
		step = time.Duration(stepSeconds * float64(time.Second))
	}

	return pipeline.Request{
		ID:          requestID,
		Text:        text,
		Voice:       resolvedVoice,
		Description: description,
		Step:        step,
		Origin:      origin,
	}
}

// runStream executes one pipeline and delivers its terminal event. Pipeline
// failures are isolated to this request: the connection, the registry and
// the relay all stay up.
func (rt *Router) runStream(ctx context.Context, req pipeline.Request, fromRelay bool) {
	logger := observability.WithRequestID(req.ID)
	p := pipeline.New(req, rt.eng, rt.cfg.MaxChunkWords, rt.cfg.FrameQueueSize, rt.logger)

	total, err := p.Run(ctx, clientDest{reg: rt.reg, clientID: req.Origin})
	switch {
	case err == nil:
		complete := protocol.NewStreamComplete(req.ID, total)
		if fromRelay {
			complete.ActualDuration = float64(total) * req.Step.Seconds()
		}
		rt.reg.SendControl(req.Origin, complete)

	case errors.Is(err, pipeline.ErrDestinationGone):
		// The client is already unregistered; nothing left to notify.
		logger.Warn().Str("client_id", req.Origin).Int("frames_delivered", total).Msg("Client gone mid-stream")

	default:
		rt.reg.SendControl(req.Origin, protocol.NewErrorEvent(req.ID, err.Error()))
	}
}

// Synthesize runs the batch variant: the whole text rendered as one
// self-contained container, for callers that want an artifact instead of a
// live stream.
func (rt *Router) Synthesize(ctx context.Context, text, voiceKey string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, pipeline.ErrEmptyText
	}
	req := rt.buildRequest("", text, voiceKey, 0, "batch")
	p := pipeline.New(req, rt.eng, rt.cfg.MaxChunkWords, rt.cfg.FrameQueueSize, rt.logger)
	return p.Batch(ctx)
}

// clientDest routes a pipeline's frames to one registered client.
type clientDest struct {
	reg      *registry.Registry
	clientID string
}

func (d clientDest) SendFrame(frame []byte) bool {
	return d.reg.SendFrame(d.clientID, frame)
}

// estimateDurationByChars approximates speech duration for direct-client
// requests: characters / 2.5, floored at one second. A UX hint only.
func estimateDurationByChars(text string) float64 {
	seconds := float64(utf8.RuneCountInString(text)) / 2.5
	if seconds < 1.0 {
		return 1.0
	}
	return seconds
}

// estimateDurationByWords approximates speech duration for relayed
// requests at a normal speaking rate of 150 words per minute.
func estimateDurationByWords(text string) float64 {
	words := len(strings.Fields(text))
	seconds := float64(words) / 150.0 * 60.0
	if seconds < 1.0 {
		return 1.0
	}
	return seconds
}

func estimatedChunks(durationSeconds float64, step time.Duration) int {
	if step <= 0 {
		return 1
	}
	chunks := int(durationSeconds / step.Seconds())
	if chunks < 1 {
		return 1
	}
	return chunks
}

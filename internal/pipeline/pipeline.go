// Package pipeline orchestrates one synthesis request: chunk the text, drive
// the engine chunk by chunk, encode each produced segment into a playable
// frame, and forward frames in generation order while the engine is still
// running.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/sanskritvaak/tts-gateway/internal/audio"
	"github.com/sanskritvaak/tts-gateway/internal/engine"
	"github.com/sanskritvaak/tts-gateway/internal/observability"
	"github.com/sanskritvaak/tts-gateway/internal/text"
)

// batchSilenceGap is the silence inserted between chunks in batch mode.
const batchSilenceGap = 100 * time.Millisecond

var (
	// ErrEmptyText is returned when a request reaches the pipeline with no
	// synthesizable words.
	ErrEmptyText = errors.New("text required")

	// ErrDestinationGone is returned when the destination stops accepting
	// frames mid-stream.
	ErrDestinationGone = errors.New("destination disconnected")
)

// State tracks the pipeline through its lifecycle.
type State int32

const (
	StateCreated State = iota
	StateChunking
	StateGenerating
	StateStreaming
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateChunking:
		return "chunking"
	case StateGenerating:
		return "generating"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Request describes one synthesis request. Immutable once created; owned
// exclusively by its Pipeline.
type Request struct {
	ID          string
	Text        string
	Voice       string // resolved voice key
	Description string // voice style description fed to the engine
	Step        time.Duration
	Origin      string // destination client id
}

// Frame is one self-contained encoded audio fragment. Sequence numbers per
// request start at 1 and are gapless.
type Frame struct {
	RequestID  string
	Sequence   int
	Payload    []byte
	SampleRate int
}

// Destination receives a stream's frames. Send reports delivery failure by
// returning false; it never panics or blocks indefinitely.
type Destination interface {
	SendFrame(frame []byte) bool
}

// Pipeline runs one request through chunking, generation and streaming.
type Pipeline struct {
	req       Request
	eng       engine.Engine
	maxWords  int
	queueSize int
	logger    zerolog.Logger
	metrics   *observability.StreamMetrics
	state     atomic.Int32
}

// New creates a pipeline for one request.
func New(req Request, eng engine.Engine, maxWords, queueSize int, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		req:       req,
		eng:       eng,
		maxWords:  maxWords,
		queueSize: queueSize,
		logger:    logger.With().Str("request_id", req.ID).Logger(),
		metrics:   observability.NewStreamMetrics(req.ID),
	}
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
}

// Run streams the request to dest. It returns the number of frames
// delivered and a terminal error, if any. Frames already delivered are never
// retracted: on error the destination must treat the stream as possibly
// truncated.
//
// The generation producer always runs to termination before Run returns,
// on every exit path. A destination failure cancels the producer's context;
// generation already in flight inside the engine finishes in the background
// of that cancellation and is discarded.
func (p *Pipeline) Run(ctx context.Context, dest Destination) (int, error) {
	p.setState(StateChunking)
	chunks := text.Chunk(p.req.Text, p.maxWords)
	if len(chunks) == 0 {
		p.fail("validation", ErrEmptyText)
		return 0, ErrEmptyText
	}
	p.logger.Info().Int("chunks", len(chunks)).Msg("Text chunked")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan Frame, p.queueSize)
	errCh := make(chan error, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(frames)
		p.produce(ctx, chunks, frames, errCh)
	}()
	// The producer is joined before Run returns, even when the consumer
	// bails out early.
	defer wg.Wait()

	p.setState(StateStreaming)
	delivered := 0
	for frame := range frames {
		if !dest.SendFrame(frame.Payload) {
			cancel()
			for range frames {
				// Drain so the producer can finish and close the channel.
			}
			p.fail("destination_gone", ErrDestinationGone)
			return delivered, ErrDestinationGone
		}
		delivered++
		p.metrics.RecordFrame(len(frame.Payload))
		p.logger.Debug().Int("sequence", frame.Sequence).Int("bytes", len(frame.Payload)).Msg("Frame delivered")
	}

	select {
	case err := <-errCh:
		p.fail("engine", err)
		return delivered, err
	default:
	}

	if err := ctx.Err(); err != nil {
		p.fail("cancelled", err)
		return delivered, err
	}

	p.setState(StateCompleted)
	p.metrics.RecordEnd(true)
	p.logger.Info().Int("total_chunks", delivered).Msg("Streaming complete")
	return delivered, nil
}

// produce generates audio for each text chunk in order and pushes encoded
// frames. The frame channel is bounded; when the destination drains slowly
// the producer blocks rather than dropping frames, since sequence numbers
// must stay gapless.
func (p *Pipeline) produce(ctx context.Context, chunks []string, frames chan<- Frame, errCh chan<- error) {
	p.setState(StateGenerating)
	sampleRate := p.eng.SampleRate()
	sequence := 0

	for i, chunk := range chunks {
		p.logger.Debug().Int("chunk", i+1).Int("of", len(chunks)).Msg("Generating chunk")

		segments, errs := p.eng.Generate(ctx, chunk, p.req.Description, p.req.Step)
		for segment := range segments {
			if segment.Empty() {
				// End-of-stream marker for this chunk; no frame.
				continue
			}

			sequence++
			frame := Frame{
				RequestID:  p.req.ID,
				Sequence:   sequence,
				Payload:    audio.EncodeWAV(segment.Samples, sampleRate),
				SampleRate: sampleRate,
			}

			select {
			case frames <- frame:
			case <-ctx.Done():
				drainSegments(segments)
				return
			}
		}

		if err := <-errs; err != nil {
			errCh <- err
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// drainSegments consumes the remainder of an engine segment channel so the
// engine's generation goroutine is never leaked.
func drainSegments(segments <-chan engine.Segment) {
	for range segments {
	}
}

// Batch runs the same chunked generation but concatenates all audio,
// inserting a short silence between chunks, into one self-contained
// container instead of streaming frames.
func (p *Pipeline) Batch(ctx context.Context) ([]byte, error) {
	p.setState(StateChunking)
	chunks := text.Chunk(p.req.Text, p.maxWords)
	if len(chunks) == 0 {
		p.fail("validation", ErrEmptyText)
		return nil, ErrEmptyText
	}

	p.setState(StateGenerating)
	sampleRate := p.eng.SampleRate()
	chunkAudio := make([][]float32, 0, len(chunks))

	for _, chunk := range chunks {
		segments, errs := p.eng.Generate(ctx, chunk, p.req.Description, p.req.Step)

		var samples []float32
		for segment := range segments {
			samples = append(samples, segment.Samples...)
		}
		if err := <-errs; err != nil {
			p.fail("engine", err)
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			p.fail("cancelled", err)
			return nil, err
		}
		chunkAudio = append(chunkAudio, samples)
	}

	combined := audio.ConcatWithSilence(chunkAudio, sampleRate, batchSilenceGap)
	p.setState(StateCompleted)
	p.metrics.RecordEnd(true)
	p.logger.Info().
		Int("chunks", len(chunks)).
		Dur("duration", audio.Duration(len(combined), sampleRate)).
		Msg("Batch synthesis complete")
	return audio.EncodeWAV(combined, sampleRate), nil
}

func (p *Pipeline) fail(errorType string, err error) {
	p.setState(StateFailed)
	p.metrics.RecordEnd(false)
	p.metrics.RecordError(errorType, "pipeline")
	p.logger.Error().Err(err).Str("error_type", errorType).Msg("Pipeline failed")
}

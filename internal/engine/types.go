// Package engine defines the contract with the speech-synthesis backend.
// The gateway consumes synthesis as a capability: text and a voice
// description go in, raw audio segments come out incrementally while
// generation is still running.
package engine

import (
	"context"
	"time"
)

// Segment is one incrementally produced piece of raw audio. A zero-length
// segment is an explicit end-of-stream marker and carries no audio.
type Segment struct {
	Samples []float32
}

// Empty reports whether the segment is an end-of-stream marker.
func (s Segment) Empty() bool {
	return len(s.Samples) == 0
}

// Engine is the contract for incremental speech synthesis.
//
// Generate starts producing audio for text conditioned on the voice
// description, emitting roughly step worth of audio per segment. The segment
// channel is closed when generation finishes; at most one error is delivered
// on the error channel after that. Implementations must stop producing when
// ctx is cancelled, and must always close the segment channel so callers can
// drain it to completion.
type Engine interface {
	Generate(ctx context.Context, text, description string, step time.Duration) (<-chan Segment, <-chan error)

	// SampleRate reports the rate of the samples this engine emits, in Hz.
	SampleRate() int
}

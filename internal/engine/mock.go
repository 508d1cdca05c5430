package engine

import (
	"context"
	"math"
	"strings"
	"time"
)

// MockEngine synthesizes a placeholder tone instead of speech. It emits
// step-sized segments whose total duration tracks the word count of the
// input at a normal speaking rate, then a zero-length end-of-stream marker.
// Used in tests and when no engine command is configured.
type MockEngine struct {
	Rate    int
	Latency time.Duration // optional per-segment delay to mimic generation time
}

// NewMockEngine creates a mock engine emitting at the given sample rate.
func NewMockEngine(sampleRate int) *MockEngine {
	return &MockEngine{Rate: sampleRate}
}

func (m *MockEngine) SampleRate() int {
	return m.Rate
}

func (m *MockEngine) Generate(ctx context.Context, text, description string, step time.Duration) (<-chan Segment, <-chan error) {
	segments := make(chan Segment)
	errs := make(chan error, 1)

	go func() {
		defer close(segments)
		defer close(errs)

		words := len(strings.Fields(text))
		totalSeconds := float64(words) / 150.0 * 60.0
		if totalSeconds < 1.0 {
			totalSeconds = 1.0
		}
		segmentCount := int(math.Ceil(totalSeconds / step.Seconds()))
		samplesPerSegment := int(step.Seconds() * float64(m.Rate))

		for i := 0; i < segmentCount; i++ {
			if m.Latency > 0 {
				select {
				case <-time.After(m.Latency):
				case <-ctx.Done():
					return
				}
			}

			samples := make([]float32, samplesPerSegment)
			for j := range samples {
				n := i*samplesPerSegment + j
				samples[j] = 0.1 * float32(math.Sin(2*math.Pi*220*float64(n)/float64(m.Rate)))
			}

			select {
			case segments <- Segment{Samples: samples}:
			case <-ctx.Done():
				return
			}
		}

		// end-of-stream marker
		select {
		case segments <- Segment{}:
		case <-ctx.Done():
		}
	}()

	return segments, errs
}

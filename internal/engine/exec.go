package engine

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sanskritvaak/tts-gateway/internal/resilience"
)

// ExecEngine drives a synthesis backend running as a subprocess. The request
// is written to stdin as one JSON object; the backend answers with one JSON
// line per produced segment carrying base64 little-endian float32 samples.
//
// The subprocess is assumed non-reentrant: invocations are serialized, one
// in-flight generation at a time.
type ExecEngine struct {
	cmd        []string
	sampleRate int
	retry      *resilience.RetryConfig
	mu         sync.Mutex
}

type execRequest struct {
	Text        string `json:"text"`
	Description string `json:"description"`
	SampleRate  int    `json:"sample_rate"`
	StepMillis  int64  `json:"step_ms"`
}

type execResponse struct {
	SamplesBase64 string `json:"samples_base64"`
	Final         bool   `json:"final"`
}

// NewExecEngine creates an engine backed by the given command line.
// startRetry bounds retries of subprocess start; nil uses defaults.
func NewExecEngine(command string, sampleRate int, startRetry *resilience.RetryConfig) (*ExecEngine, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, fmt.Errorf("engine command empty")
	}
	if startRetry == nil {
		startRetry = resilience.DefaultRetryConfig()
	}
	return &ExecEngine{cmd: args, sampleRate: sampleRate, retry: startRetry}, nil
}

// SampleRate reports the configured output rate.
func (e *ExecEngine) SampleRate() int {
	return e.sampleRate
}

// Generate runs one synthesis invocation. The segment channel closes when the
// subprocess finishes or ctx is cancelled.
func (e *ExecEngine) Generate(ctx context.Context, text, description string, step time.Duration) (<-chan Segment, <-chan error) {
	e.mu.Lock()
	segments := make(chan Segment)
	errs := make(chan error, 1)

	go func() {
		defer close(segments)
		defer close(errs)
		defer e.mu.Unlock()

		payload, err := json.Marshal(execRequest{
			Text:        text,
			Description: description,
			SampleRate:  e.sampleRate,
			StepMillis:  step.Milliseconds(),
		})
		if err != nil {
			errs <- err
			return
		}

		// exec.Cmd is single-use, so each start attempt builds a fresh one
		var cmd *exec.Cmd
		var stdin io.WriteCloser
		var stdout io.ReadCloser
		startErr := resilience.Retry(func() error {
			cmd = exec.CommandContext(ctx, e.cmd[0], e.cmd[1:]...)
			var err error
			if stdin, err = cmd.StdinPipe(); err != nil {
				return err
			}
			if stdout, err = cmd.StdoutPipe(); err != nil {
				return err
			}
			return cmd.Start()
		}, e.retry, nil)
		if startErr != nil {
			errs <- fmt.Errorf("start engine: %w", startErr)
			return
		}

		if _, err := stdin.Write(payload); err != nil {
			errs <- err
			cmd.Wait()
			return
		}
		stdin.Close()

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var resp execResponse
			if err := json.Unmarshal(line, &resp); err != nil {
				errs <- fmt.Errorf("decode engine output: %w", err)
				cmd.Wait()
				return
			}
			samples, err := decodeSamples(resp.SamplesBase64)
			if err != nil {
				errs <- fmt.Errorf("decode engine samples: %w", err)
				cmd.Wait()
				return
			}

			select {
			case segments <- Segment{Samples: samples}:
			case <-ctx.Done():
				cmd.Wait()
				return
			}

			if resp.Final {
				break
			}
		}

		if err := cmd.Wait(); err != nil {
			if ctx.Err() == nil {
				errs <- fmt.Errorf("engine exited: %w", err)
			}
			return
		}
		if scanErr := scanner.Err(); scanErr != nil {
			errs <- scanErr
		}
	}()

	return segments, errs
}

// decodeSamples converts a base64 little-endian float32 payload into samples.
func decodeSamples(encoded string) ([]float32, error) {
	if encoded == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("sample payload length %d not a multiple of 4", len(raw))
	}
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		samples[i] = math.Float32frombits(bits)
	}
	return samples, nil
}

package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection metrics
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tts_gateway_active_connections",
		Help: "Number of active client WebSocket connections",
	})

	totalConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_gateway_connections_total",
		Help: "Total number of client connections accepted",
	})

	sweptConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_gateway_connections_swept_total",
		Help: "Total number of client connections evicted by the idle sweeper",
	})

	relayConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tts_gateway_relay_connected",
		Help: "Whether the upstream relay link is connected (0 or 1)",
	})

	// Stream metrics
	streamsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tts_gateway_streams_total",
		Help: "Total number of synthesis streams",
	}, []string{"status"})

	streamDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tts_gateway_stream_duration_seconds",
		Help:    "Wall-clock duration of synthesis streams in seconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	framesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_gateway_frames_total",
		Help: "Total number of audio frames delivered",
	})

	audioBytesOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_gateway_audio_bytes_total",
		Help: "Total encoded audio bytes sent to destinations",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tts_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})
)

// StreamMetrics tracks metrics for a single synthesis stream
type StreamMetrics struct {
	requestID string
	startTime time.Time
	mu        sync.Mutex
}

// NewStreamMetrics creates a metrics tracker for one stream
func NewStreamMetrics(requestID string) *StreamMetrics {
	return &StreamMetrics{
		requestID: requestID,
		startTime: time.Now(),
	}
}

// RecordFrame records one delivered audio frame
func (m *StreamMetrics) RecordFrame(bytes int) {
	framesTotal.Inc()
	audioBytesOut.Add(float64(bytes))
}

// RecordEnd records stream completion
func (m *StreamMetrics) RecordEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	streamDuration.Observe(time.Since(m.startTime).Seconds())

	status := "success"
	if !success {
		status = "error"
	}
	streamsTotal.WithLabelValues(status).Inc()
}

// RecordError records an error
func (m *StreamMetrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordConnect records a client connection being registered
func RecordConnect() {
	activeConnections.Inc()
	totalConnections.Inc()
}

// RecordDisconnect records a client connection being removed
func RecordDisconnect() {
	activeConnections.Dec()
}

// RecordSweep records an idle eviction
func RecordSweep() {
	sweptConnections.Inc()
}

// SetRelayConnected updates the relay link gauge
func SetRelayConnected(connected bool) {
	if connected {
		relayConnected.Set(1)
	} else {
		relayConnected.Set(0)
	}
}

// RecordError records an error outside any stream
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the TTS gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Public base URL for this service (e.g. https://xxx.fly.dev when fronted by a proxy).
	// Used only for logging the WebSocket endpoints; clients connect to
	// wss://<this-host>/ws/client/{id} and the control plane to wss://<this-host>/ws/relay.
	GatewayURL string `envconfig:"GATEWAY_URL" default:""`

	// Synthesis configuration
	MaxChunkWords      int     `envconfig:"MAX_CHUNK_WORDS" default:"20"`       // Word bound per generation unit (Indic Parler recommendation)
	DefaultStepSeconds float64 `envconfig:"DEFAULT_STEP_SECONDS" default:"0.5"` // Audio seconds per incremental emission
	SampleRate         int     `envconfig:"SAMPLE_RATE" default:"44100"`        // Engine output sample rate in Hz
	FrameQueueSize     int     `envconfig:"FRAME_QUEUE_SIZE" default:"16"`      // Encoded frames buffered between producer and sender

	// Engine subprocess configuration
	EngineCommand      string `envconfig:"ENGINE_COMMAND" default:""`          // Command invoked per generation (empty selects the mock engine)
	EngineStartRetries int    `envconfig:"ENGINE_START_RETRIES" default:"3"`   // Attempts to start the engine subprocess
	EngineStartBackoff int    `envconfig:"ENGINE_START_BACKOFF" default:"100"` // Initial start backoff in milliseconds

	// Connection lifecycle configuration
	IdleTimeout   time.Duration `envconfig:"IDLE_TIMEOUT" default:"10s"`   // Inactivity before a client is swept
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"30s"` // Period of the idle sweeper

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.MaxChunkWords <= 0 {
		return fmt.Errorf("MAX_CHUNK_WORDS must be positive, got %d", c.MaxChunkWords)
	}
	if c.DefaultStepSeconds <= 0 {
		return fmt.Errorf("DEFAULT_STEP_SECONDS must be positive, got %f", c.DefaultStepSeconds)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	if c.FrameQueueSize <= 0 {
		return fmt.Errorf("FRAME_QUEUE_SIZE must be positive, got %d", c.FrameQueueSize)
	}
	return nil
}

// DefaultStep returns the default streaming step as a duration
func (c *Config) DefaultStep() time.Duration {
	return time.Duration(c.DefaultStepSeconds * float64(time.Second))
}

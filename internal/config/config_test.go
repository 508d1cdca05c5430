package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}

	if cfg.MaxChunkWords != 20 {
		t.Errorf("Expected default MaxChunkWords 20, got %d", cfg.MaxChunkWords)
	}

	if cfg.DefaultStepSeconds != 0.5 {
		t.Errorf("Expected default DefaultStepSeconds 0.5, got %f", cfg.DefaultStepSeconds)
	}

	if cfg.SampleRate != 44100 {
		t.Errorf("Expected default SampleRate 44100, got %d", cfg.SampleRate)
	}

	if cfg.FrameQueueSize != 16 {
		t.Errorf("Expected default FrameQueueSize 16, got %d", cfg.FrameQueueSize)
	}

	if cfg.IdleTimeout != 10*time.Second {
		t.Errorf("Expected default IdleTimeout 10s, got %v", cfg.IdleTimeout)
	}

	if cfg.SweepInterval != 30*time.Second {
		t.Errorf("Expected default SweepInterval 30s, got %v", cfg.SweepInterval)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	os.Setenv("MAX_CHUNK_WORDS", "12")
	os.Setenv("IDLE_TIMEOUT", "5s")
	defer os.Unsetenv("MAX_CHUNK_WORDS")
	defer os.Unsetenv("IDLE_TIMEOUT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.MaxChunkWords != 12 {
		t.Errorf("Expected MaxChunkWords 12, got %d", cfg.MaxChunkWords)
	}

	if cfg.IdleTimeout != 5*time.Second {
		t.Errorf("Expected IdleTimeout 5s, got %v", cfg.IdleTimeout)
	}
}

func TestLoadFromEnv_SkipsDotenv(t *testing.T) {
	os.Setenv("SAMPLE_RATE", "16000")
	defer os.Unsetenv("SAMPLE_RATE")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.SampleRate != 16000 {
		t.Errorf("Expected SampleRate 16000, got %d", cfg.SampleRate)
	}
}

func TestLoad_RejectsInvalidBounds(t *testing.T) {
	os.Setenv("MAX_CHUNK_WORDS", "0")
	defer os.Unsetenv("MAX_CHUNK_WORDS")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for MAX_CHUNK_WORDS=0")
	}
}

func TestDefaultStep(t *testing.T) {
	cfg := &Config{DefaultStepSeconds: 0.5}
	if cfg.DefaultStep() != 500*time.Millisecond {
		t.Errorf("Expected 500ms step, got %v", cfg.DefaultStep())
	}
}

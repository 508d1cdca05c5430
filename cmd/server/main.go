package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanskritvaak/tts-gateway/internal/config"
	"github.com/sanskritvaak/tts-gateway/internal/engine"
	"github.com/sanskritvaak/tts-gateway/internal/observability"
	"github.com/sanskritvaak/tts-gateway/internal/registry"
	"github.com/sanskritvaak/tts-gateway/internal/relay"
	"github.com/sanskritvaak/tts-gateway/internal/resilience"
	"github.com/sanskritvaak/tts-gateway/internal/router"
	"github.com/sanskritvaak/tts-gateway/internal/server"
	"github.com/sanskritvaak/tts-gateway/internal/voice"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Int("sample_rate", cfg.SampleRate).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("TTS Gateway Service starting")

	// Select the synthesis engine. An empty command means no backend is
	// installed; the mock engine keeps the whole pipeline exercisable.
	var eng engine.Engine
	if cfg.EngineCommand != "" {
		retryCfg := &resilience.RetryConfig{
			MaxAttempts:       cfg.EngineStartRetries,
			InitialBackoff:    time.Duration(cfg.EngineStartBackoff) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            true,
		}
		execEng, err := engine.NewExecEngine(cfg.EngineCommand, cfg.SampleRate, retryCfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid engine command")
		}
		eng = execEng
		logger.Info().Str("command", cfg.EngineCommand).Msg("Using subprocess synthesis engine")
	} else {
		eng = engine.NewMockEngine(cfg.SampleRate)
		logger.Warn().Msg("No engine command configured, using mock synthesis engine")
	}

	reg := registry.New(logger)
	rel := relay.New(logger)
	rt := router.New(cfg, eng, reg, rel, logger)

	// Create HTTP server
	mux := http.NewServeMux()

	// WebSocket endpoints
	mux.HandleFunc(server.ClientWSPath, server.HandleClientWS(rt))
	mux.HandleFunc("/ws/relay", server.HandleRelayWS(rt))

	// Health check and statistics endpoints
	mux.HandleFunc("/health", observability.HealthCheckHandler(rt.Snapshot))
	mux.HandleFunc("/stats", observability.StatsHandler(rt.Snapshot, voice.List()))

	// Readiness: the engine is constructed eagerly, so readiness only
	// confirms the process is serving.
	mux.HandleFunc("/ready", observability.ReadinessHandler(nil))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Periodically drop clients that have gone silent.
	sweeperDone := make(chan struct{})
	go runIdleSweeper(reg, cfg.SweepInterval, cfg.IdleTimeout, sweeperDone)

	// Create HTTP server with timeouts. WebSocket connections are hijacked
	// during the upgrade, so the read/write timeouts only bound the plain
	// HTTP endpoints.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s%s{client_id}", cfg.Port, server.ClientWSPath)).
			Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	close(sweeperDone)

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

// runIdleSweeper drops clients whose last activity is older than the idle
// threshold. Runs until done is closed.
func runIdleSweeper(reg *registry.Registry, interval, threshold time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			reg.SweepIdle(threshold)
		case <-done:
			return
		}
	}
}

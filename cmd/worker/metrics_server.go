package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alert-relay/internal/observability/tracing"
	"alert-relay/internal/repository"
	"alert-relay/pkg/config"
)

// HealthResponse represents a simple health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ChannelHealthResponse represents the delivery health of all configured
// messaging channels.
type ChannelHealthResponse struct {
	Healthy  bool            `json:"healthy"`
	Channels []ChannelStatus `json:"channels"`
}

// ChannelStatus represents the persisted delivery state of one channel.
type ChannelStatus struct {
	ID            int64      `json:"id"`
	Project       string     `json:"project"`
	DisplayName   string     `json:"display_name"`
	Backend       string     `json:"backend"`
	Healthy       bool       `json:"healthy"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	ErrorType     *string    `json:"error_type,omitempty"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	StatusCode    *int       `json:"status_code,omitempty"`
}

// startMetricsServer starts the operational HTTP server.
//
// Endpoints:
//   - GET /metrics - Prometheus metrics endpoint
//   - GET /health - Simple liveness probe (always returns 200 OK)
//   - GET /health/channels - Per-channel delivery state from the persisted
//     failure snapshots
//
// Environment variables:
//   - METRICS_PORT: Port to listen on (default: 9090)
//
// When ctx is canceled the server shuts down gracefully within 5 seconds;
// shutdown errors are logged but do not block process termination.
func startMetricsServer(ctx context.Context, logger *slog.Logger, configs repository.ServiceConfigRepository) *http.Server {
	port := config.GetEnvInt("METRICS_PORT", 9090)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/health/channels", channelHealthHandler(configs))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      tracing.Middleware(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info("metrics server shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		} else {
			logger.Info("metrics server stopped")
		}
	}()

	return server
}

// healthHandler handles GET /health requests (liveness probe).
// Always returns 200 OK with {"status": "healthy"}.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{Status: "healthy"})
}

// channelHealthHandler creates a handler for GET /health/channels.
// Returns 200 OK when every configured channel's last delivery succeeded,
// 503 Service Unavailable when any channel carries a failure snapshot.
func channelHealthHandler(configs repository.ServiceConfigRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := configs.List(r.Context())
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "failed to load channel state",
			})
			return
		}

		channels := make([]ChannelStatus, 0, len(list))
		healthy := true
		for _, cfg := range list {
			status := ChannelStatus{
				ID:            cfg.ID,
				Project:       cfg.ProjectName,
				DisplayName:   cfg.DisplayName,
				Backend:       cfg.Backend,
				Healthy:       cfg.Healthy(),
				LastFailureAt: cfg.LastFailureAt,
				ErrorType:     cfg.LastFailureErrorType,
				ErrorMessage:  cfg.LastFailureErrorMessage,
				StatusCode:    cfg.LastFailureStatusCode,
			}
			if !status.Healthy {
				healthy = false
			}
			channels = append(channels, status)
		}

		statusCode := http.StatusOK
		if !healthy {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(ChannelHealthResponse{
			Healthy:  healthy,
			Channels: channels,
		})
	}
}

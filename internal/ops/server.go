package ops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erinlkolp/erin-slack-notes-bot/internal/repository"
	"github.com/erinlkolp/erin-slack-notes-bot/pkg/logger"
)

// CheckStatus describes one dependency probe.
type CheckStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthResponse is the payload served on /health.
type HealthResponse struct {
	Status    string        `json:"status"`
	Timestamp string        `json:"timestamp"`
	Uptime    string        `json:"uptime"`
	Checks    []CheckStatus `json:"checks"`
}

// Server exposes the /health and /metrics endpoints.
type Server struct {
	connector  repository.Connector
	socketUp   func() bool
	log        *logger.Logger
	startTime  time.Time
	httpServer *http.Server
}

// NewServer creates the operational endpoint server. socketUp reports
// the current Socket Mode connection state.
func NewServer(port int, connector repository.Connector, socketUp func() bool, log *logger.Logger) *Server {
	s := &Server{
		connector: connector,
		socketUp:  socketUp,
		log:       log,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	return s
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Infof("🏥 Health endpoint on http://localhost%s/health", s.httpServer.Addr)
	s.log.Infof("📊 Metrics endpoint on http://localhost%s/metrics", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ops server failed: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := []CheckStatus{
		s.checkDatabase(ctx),
		s.checkSocket(),
	}

	unhealthy := 0
	for _, c := range checks {
		if c.Status != "healthy" {
			unhealthy++
		}
	}

	overallStatus := "healthy"
	if unhealthy > 0 {
		overallStatus = "degraded"
	}
	if unhealthy > len(checks)/2 {
		overallStatus = "unhealthy"
	}

	response := HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    fmt.Sprintf("%.0fs", time.Since(s.startTime).Seconds()),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// checkDatabase opens one short-lived connection the same way the
// repository does for its operations.
func (s *Server) checkDatabase(ctx context.Context) CheckStatus {
	start := time.Now()

	db, err := s.connector.Connect(ctx)
	latency := time.Since(start)

	if err != nil {
		return CheckStatus{
			Name:    "mysql",
			Status:  "unhealthy",
			Error:   err.Error(),
			Latency: latency.String(),
		}
	}
	db.Close()

	return CheckStatus{
		Name:    "mysql",
		Status:  "healthy",
		Latency: latency.String(),
	}
}

func (s *Server) checkSocket() CheckStatus {
	if s.socketUp() {
		return CheckStatus{
			Name:   "slack_socket",
			Status: "healthy",
		}
	}

	return CheckStatus{
		Name:   "slack_socket",
		Status: "unhealthy",
		Error:  "socket mode disconnected",
	}
}

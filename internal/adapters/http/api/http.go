// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/opstrack/opstrack/internal/domain/report"
	"github.com/opstrack/opstrack/internal/domain/tracker"
)

// Status is the service state exposed on the status endpoint.
type Status struct {
	Connected      bool   `json:"connected"`
	Tracking       bool   `json:"tracking"`
	SessionID      string `json:"sessionId,omitempty"`
	TrackedPlayers int    `json:"trackedPlayers"`
	OnlinePlayers  int    `json:"onlinePlayers"`
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// StartSession begins tracking. Fails when the feed is not connected.
	StartSession(ctx context.Context) error

	// StopSession stamps the session end and finalizes tracked state.
	StopSession(ctx context.Context) error

	// AddPlayers subscribes identities to the roster.
	AddPlayers(ctx context.Context, ids []string) (tracker.SubscriptionResult, error)

	// PersonalReport builds the report for one identity.
	PersonalReport(ctx context.Context, characterID string) (*report.PersonalReport, error)

	// SessionReport builds the full session report.
	SessionReport(ctx context.Context) (*report.SessionReport, error)

	// Status reports the current service state.
	Status(ctx context.Context) Status
}

// Server wires HTTP routes for the tracker API.
type Server struct {
	healthHandler  *HealthHandler
	sessionHandler *SessionHandler
	rosterHandler  *RosterHandler
	reportHandler  *ReportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(deps),
		sessionHandler: NewSessionHandler(deps),
		rosterHandler:  NewRosterHandler(deps),
		reportHandler:  NewReportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/status", MetricsMiddleware(s.healthHandler.HandleStatus, "status"))
	mux.HandleFunc("/session/start", MetricsMiddleware(s.sessionHandler.HandleStart, "session_start"))
	mux.HandleFunc("/session/stop", MetricsMiddleware(s.sessionHandler.HandleStop, "session_stop"))
	mux.HandleFunc("/roster", MetricsMiddleware(s.rosterHandler.HandleSubscribe, "roster"))
	mux.HandleFunc("/report/session", MetricsMiddleware(s.reportHandler.HandleSession, "report_session"))
	mux.HandleFunc("/report/player/", MetricsMiddleware(s.reportHandler.HandlePlayer, "report_player"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// ReportHandler handles report generation requests.
type ReportHandler struct {
	deps Dependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps Dependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleSession handles GET /report/session requests.
func (h *ReportHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	rep, err := h.deps.SessionReport(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "report_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandlePlayer handles GET /report/player/{characterID} requests.
func (h *ReportHandler) HandlePlayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	characterID := strings.TrimPrefix(r.URL.Path, "/report/player/")
	if characterID == "" || strings.Contains(characterID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_character_id", ErrBadRequest)
		return
	}

	rep, err := h.deps.PersonalReport(r.Context(), characterID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "report_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

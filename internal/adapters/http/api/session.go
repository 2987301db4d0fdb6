// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// SessionHandler handles session control requests.
type SessionHandler struct {
	deps Dependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps Dependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// HandleStart handles POST /session/start requests.
func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	if err := h.deps.StartSession(r.Context()); err != nil {
		writeError(w, http.StatusConflict, "session_start_rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// HandleStop handles POST /session/stop requests.
func (h *SessionHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	if err := h.deps.StopSession(r.Context()); err != nil {
		writeError(w, http.StatusConflict, "session_stop_rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

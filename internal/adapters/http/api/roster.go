// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// RosterHandler handles roster subscription requests.
type RosterHandler struct {
	deps Dependencies
}

// NewRosterHandler creates a new roster handler.
func NewRosterHandler(deps Dependencies) *RosterHandler {
	return &RosterHandler{deps: deps}
}

// rosterRequest mirrors the POST /roster body.
type rosterRequest struct {
	Characters []string `json:"characters"`
}

func (r rosterRequest) validate() error {
	if len(r.Characters) == 0 {
		return fmt.Errorf("%w: missing characters", ErrBadRequest)
	}
	return nil
}

type rosterResponse struct {
	Added          []string `json:"added"`
	AlreadyTracked []string `json:"alreadyTracked"`
	Batches        int      `json:"batches"`
}

// HandleSubscribe handles POST /roster requests.
func (h *RosterHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var req rosterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}

	res, err := h.deps.AddPlayers(r.Context(), req.Characters)
	if err != nil {
		writeError(w, http.StatusBadGateway, "subscription_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, rosterResponse{
		Added:          res.Added,
		AlreadyTracked: res.AlreadyTracked,
		Batches:        res.Batches,
	})
}

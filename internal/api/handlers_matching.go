package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/confera/matching-service/internal/api/respond"
	"github.com/confera/matching-service/internal/services"
)

// MatchingHandler is a thin HTTP transport over MatchingService.
type MatchingHandler struct {
	svc *services.MatchingService
}

func NewMatchingHandler(svc *services.MatchingService) *MatchingHandler {
	return &MatchingHandler{svc: svc}
}

// RunMatching POST /api/events/{eventId}/matching/run
func (h *MatchingHandler) RunMatching(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]
	created, err := h.svc.RunMatching(r.Context(), eventID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"eventId":        eventID,
		"matchesCreated": len(created),
		"matches":        created,
	})
}

// ListMatches GET /api/events/{eventId}/matches?participantId=
// Returns the caller's projection; counterpart identity stays hidden until
// mutual acceptance.
func (h *MatchingHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]
	participantID := r.URL.Query().Get("participantId")
	if participantID == "" {
		respond.WriteBadRequest(w, "participantId query parameter is required")
		return
	}
	views, err := h.svc.MatchesFor(r.Context(), eventID, participantID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"matches": views, "count": len(views)})
}

// RespondToMatch POST /api/matches/{matchId}/respond
func (h *MatchingHandler) RespondToMatch(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]
	var req struct {
		ParticipantID string `json:"participantId"`
		Accept        *bool  `json:"accept"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.ParticipantID == "" {
		respond.WriteBadRequest(w, "participantId is required")
		return
	}
	if req.Accept == nil {
		respond.WriteBadRequest(w, "accept is required")
		return
	}
	updated, err := h.svc.Respond(r.Context(), matchID, req.ParticipantID, *req.Accept)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, updated)
}

// ExpireMatches POST /api/events/{eventId}/matches/expire
// Manual trigger for the sweep the relay worker runs on a timer.
func (h *MatchingHandler) ExpireMatches(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]
	n, err := h.svc.ExpireMatches(r.Context(), eventID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"eventId": eventID, "expired": n})
}

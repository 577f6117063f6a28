package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/confera/matching-service/internal/api/respond"
	"github.com/confera/matching-service/internal/model"
	"github.com/confera/matching-service/internal/services"
)

// ParticipantHandler is a thin HTTP transport over ParticipantService.
type ParticipantHandler struct {
	svc *services.ParticipantService
}

func NewParticipantHandler(svc *services.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{svc: svc}
}

// Register POST /api/events/{eventId}/participants
func (h *ParticipantHandler) Register(w http.ResponseWriter, r *http.Request) {
	var p model.Participant
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	p.EventID = mux.Vars(r)["eventId"]
	out, err := h.svc.Register(r.Context(), &p)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// Get GET /api/events/{eventId}/participants/{participantId}
func (h *ParticipantHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	p, err := h.svc.Get(r.Context(), vars["eventId"], vars["participantId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// Update PUT /api/events/{eventId}/participants/{participantId}
func (h *ParticipantHandler) Update(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var p model.Participant
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	p.EventID = vars["eventId"]
	p.ParticipantID = vars["participantId"]
	out, err := h.svc.Update(r.Context(), &p)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Withdraw DELETE /api/events/{eventId}/participants/{participantId}
func (h *ParticipantHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.Withdraw(r.Context(), vars["eventId"], vars["participantId"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Roster GET /api/events/{eventId}/participants?viewerId=
// Applies the human visibility rules from the viewer's perspective.
func (h *ParticipantHandler) Roster(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]
	viewerID := r.URL.Query().Get("viewerId")
	if viewerID == "" {
		respond.WriteBadRequest(w, "viewerId query parameter is required")
		return
	}
	roster, err := h.svc.Roster(r.Context(), eventID, viewerID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"participants": roster, "count": len(roster)})
}

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	respond "github.com/confera/matching-service/internal/api/respond"
	"github.com/confera/matching-service/internal/model"
	"github.com/confera/matching-service/internal/store"
)

// EventHandler manages the event records that anchor rosters, matches and
// zones.
type EventHandler struct {
	store store.Store
}

func NewEventHandler(s store.Store) *EventHandler { return &EventHandler{store: s} }

// Create POST /api/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title     string    `json:"title"`
		StartTime time.Time `json:"startTime"`
		EndTime   time.Time `json:"endTime"`
		Tier      string    `json:"tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.Title == "" {
		respond.WriteBadRequest(w, "title is required")
		return
	}
	if !req.EndTime.After(req.StartTime) {
		respond.WriteBadRequest(w, "endTime must be after startTime")
		return
	}
	if req.Tier == "" {
		req.Tier = "free"
	}
	ev := &model.Event{
		EventID:   uuid.New().String(),
		Title:     req.Title,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		Tier:      req.Tier,
		Status:    "ACTIVE",
	}
	out, err := h.store.Events().Create(r.Context(), ev)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// Get GET /api/events/{eventId}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ev, err := h.store.Events().GetByID(r.Context(), mux.Vars(r)["eventId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, ev)
}

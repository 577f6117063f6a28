package api

import (
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/confera/matching-service/internal/api/respond"
	"github.com/confera/matching-service/internal/services"
)

// ZoneHandler is a thin HTTP transport over ZoneService.
type ZoneHandler struct {
	svc *services.ZoneService
}

func NewZoneHandler(svc *services.ZoneService) *ZoneHandler { return &ZoneHandler{svc: svc} }

// RunClustering POST /api/events/{eventId}/zones/run?force=1
// Without force a fresh-enough zone set is returned as-is.
func (h *ZoneHandler) RunClustering(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]
	force := r.URL.Query().Get("force") == "1" || r.URL.Query().Get("force") == "true"
	zones, err := h.svc.RunClustering(r.Context(), eventID, force)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"zones": zones, "count": len(zones)})
}

// ListZones GET /api/events/{eventId}/zones
func (h *ZoneHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventId"]
	zones, err := h.svc.Zones(r.Context(), eventID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"zones": zones, "count": len(zones)})
}

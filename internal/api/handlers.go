package api

import (
	"encoding/json"
	"net/http"

	"city-chase/internal/pursuit"
)

// writeJSON marshals v with the right headers. Encoding errors after the
// header is sent are unrecoverable, so they are ignored.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleGetState returns the full render-facing match state.
func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":   h.engine.GetStats(),
		"players": h.engine.Players(),
		"agents":  h.engine.Agents(),
	})
}

// handleGetStats returns the summary plus journal counters.
func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sim":     h.engine.GetStats(),
		"journal": h.engine.Journal().GetStats(),
	})
}

// handleGetRoster returns per-personality agent counts and the budget.
func (h *routerHandlers) handleGetRoster(w http.ResponseWriter, r *http.Request) {
	roster := h.engine.Roster()
	counts := make(map[string]int, 4)
	for _, p := range pursuit.AllPersonalities() {
		counts[p.String()] = roster.Count(p)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"counts": counts,
		"total":  roster.Total(),
		"budget": h.engine.Budget(),
	})
}

// handleGetPhase returns the current pursuit phase.
func (h *routerHandlers) handleGetPhase(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.GetStats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"phase":   stats.Phase,
		"simTime": stats.SimTime,
	})
}

// handleGetTiers returns the full escalation ladder for inspection.
func (h *routerHandlers) handleGetTiers(w http.ResponseWriter, r *http.Request) {
	tiers := make([]pursuit.Tier, 0, pursuit.TierCount())
	for i := 0; i < pursuit.TierCount(); i++ {
		tiers = append(tiers, pursuit.TierAt(i))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tiers": tiers})
}

// handleMinimap renders one diagnostic PNG frame.
func (h *routerHandlers) handleMinimap(w http.ResponseWriter, r *http.Request) {
	if h.minimap == nil {
		http.Error(w, "minimap disabled", http.StatusNotFound)
		return
	}
	frame, err := h.minimap.RenderPNG(h.engine.GetStats(), h.engine.Players(), h.engine.Agents())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(frame)
}

// handleReset restarts the match.
func (h *routerHandlers) handleReset(w http.ResponseWriter, r *http.Request) {
	h.engine.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

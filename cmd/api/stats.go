package main

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/holotable/arena/internal/game"
	"github.com/holotable/arena/internal/stats"
)

// POST /api/stats/record
func handleStatsRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player string                 `json:"player"`
		Result *game.ResolutionResult `json:"result"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Player == "" || req.Result == nil {
		http.Error(w, "missing player or result", http.StatusBadRequest)
		return
	}
	stats.Record(req.Player, req.Result)
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/stats/{player}
func handleStatsGet(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["player"]
	writeJSON(w, http.StatusOK, stats.Get(player))
}

// GET /api/stats/best-today
func handleBestToday(w http.ResponseWriter, r *http.Request) {
	best, ok := stats.BestToday()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, best)
}

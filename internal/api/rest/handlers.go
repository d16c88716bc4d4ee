package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/gridiron/internal/service"
)

// HealthCheck is one named dependency probe.
type HealthCheck func(ctx context.Context) error

// Handler contains dependencies for the read handlers
type Handler struct {
	players *service.PlayerService
	games   *service.GameService
	teams   *service.TeamService
	checks  map[string]HealthCheck
}

// NewHandler creates a new handler
func NewHandler(players *service.PlayerService, games *service.GameService, teams *service.TeamService, checks map[string]HealthCheck) *Handler {
	return &Handler{players: players, games: games, teams: teams, checks: checks}
}

// HealthCheck reports each dependency. Any failure answers 503.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	respondJSON(w, status, map[string]interface{}{
		"status":       state,
		"service":      "gridiron",
		"dependencies": deps,
	})
}

// GetGame returns a processed game and both teams' box scores.
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.games.GetGame(r.Context(), mux.Vars(r)["gameKey"])
	if err != nil {
		respondLookupError(w, "Game not found", err)
		return
	}
	respondJSON(w, http.StatusOK, game)
}

// GetTeamPlayers returns every player recorded for a team.
func (h *Handler) GetTeamPlayers(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]
	players, err := h.players.ListTeamPlayers(r.Context(), team)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch players", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"team":    team,
		"players": players,
		"count":   len(players),
	})
}

// GetTeamSeason returns a team's season totals.
func (h *Handler) GetTeamSeason(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	season, err := strconv.Atoi(vars["season"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid season", err)
		return
	}

	stats, err := h.teams.GetTeamSeason(r.Context(), vars["team"], season)
	if err != nil {
		respondLookupError(w, "Team season not found", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetPlayer returns a player's career record.
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	team, jersey, ok := playerParams(w, r)
	if !ok {
		return
	}

	profile, err := h.players.GetPlayer(r.Context(), team, jersey)
	if err != nil {
		respondLookupError(w, "Player not found", err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// GetPlayerSeason returns one season accumulator.
func (h *Handler) GetPlayerSeason(w http.ResponseWriter, r *http.Request) {
	team, jersey, ok := playerParams(w, r)
	if !ok {
		return
	}
	season, err := strconv.Atoi(mux.Vars(r)["season"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid season", err)
		return
	}

	stats, err := h.players.GetSeason(r.Context(), team, jersey, season)
	if err != nil {
		respondLookupError(w, "Player season not found", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetPlayerGame returns one game-tier record.
func (h *Handler) GetPlayerGame(w http.ResponseWriter, r *http.Request) {
	team, jersey, ok := playerParams(w, r)
	if !ok {
		return
	}

	stats, err := h.players.GetGameStats(r.Context(), team, jersey, mux.Vars(r)["gameKey"])
	if err != nil {
		respondLookupError(w, "Player game not found", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// ResetPlayer handles DELETE /api/v1/admin/players/{team}/{jersey}
func (h *Handler) ResetPlayer(w http.ResponseWriter, r *http.Request) {
	team, jersey, ok := playerParams(w, r)
	if !ok {
		return
	}

	if err := h.players.ResetPlayer(r.Context(), team, jersey); err != nil {
		respondLookupError(w, "Player not found", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Player reset",
		"teamName":     team,
		"jerseyNumber": jersey,
	})
}

func playerParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	vars := mux.Vars(r)
	jersey, err := strconv.Atoi(vars["jersey"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid jersey number", err)
		return "", 0, false
	}
	return vars["team"], jersey, true
}

// respondLookupError answers 404 for missing documents and 500 otherwise.
func respondLookupError(w http.ResponseWriter, notFound string, err error) {
	if errors.Is(err, service.ErrNotFound) {
		respondError(w, http.StatusNotFound, notFound, nil)
		return
	}
	respondError(w, http.StatusInternalServerError, "Failed to fetch data", err)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

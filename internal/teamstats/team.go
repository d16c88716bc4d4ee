// Package teamstats derives team box-score totals for a game, either from the
// clips directly or from the player deltas the analyzers produced, and
// accumulates them per season behind the same game ledger players use.
package teamstats

import (
	"fmt"

	"github.com/fortuna/gridiron/internal/rollup"
	"github.com/fortuna/gridiron/internal/stats"
)

// Points per scoring play.
const (
	TouchdownPoints = 6
	FieldGoalPoints = 3
	PatPoints       = 1
	SafetyPoints    = 2
)

// TeamGameStats is one team's box score for one game.
type TeamGameStats struct {
	TeamName string `json:"teamName"`
	GameKey  string `json:"gameKey,omitempty"`

	Points              int `json:"points" op:"add"`
	PointsAllowed       int `json:"pointsAllowed" op:"add"`
	Touchdowns          int `json:"touchdowns" op:"add"`
	PassingTouchdowns   int `json:"passingTouchdowns" op:"add"`
	RushingTouchdowns   int `json:"rushingTouchdowns" op:"add"`
	ReturnTouchdowns    int `json:"returnTouchdowns" op:"add"`
	DefensiveTouchdowns int `json:"defensiveTouchdowns" op:"add"`
	FieldGoalsMade      int `json:"fieldGoalsMade" op:"add"`
	FieldGoalsAttempted int `json:"fieldGoalsAttempted" op:"add"`
	PatMade             int `json:"patMade" op:"add"`
	PatAttempted        int `json:"patAttempted" op:"add"`
	Safeties            int `json:"safeties" op:"add"`

	PassAttempts    int `json:"passAttempts" op:"add"`
	PassCompletions int `json:"passCompletions" op:"add"`
	PassingYards    int `json:"passingYards" op:"add"`
	RushingAttempts int `json:"rushingAttempts" op:"add"`
	RushingYards    int `json:"rushingYards" op:"add"`
	SacksMade       int `json:"sacksMade" op:"add"`
	SacksAllowed    int `json:"sacksAllowed" op:"add"`
	SackYardsLost   int `json:"sackYardsLost" op:"add"`

	TurnoversCommitted  int `json:"turnoversCommitted" op:"add"`
	TurnoversForced     int `json:"turnoversForced" op:"add"`
	InterceptionsThrown int `json:"interceptionsThrown" op:"add"`
	FumblesLost         int `json:"fumblesLost" op:"add"`

	Punts       int `json:"punts" op:"add"`
	PuntYards   int `json:"puntYards" op:"add"`
	ReturnYards int `json:"returnYards" op:"add"`
	Penalties   int `json:"penalties" op:"add"`

	Wins   int `json:"wins" op:"add"`
	Losses int `json:"losses" op:"add"`
	Ties   int `json:"ties" op:"add"`

	TotalYards           int `json:"totalYards" op:"derived"`
	TurnoverDifferential int `json:"turnoverDifferential" op:"derived"`
}

// Derive recomputes the derived totals.
func (t *TeamGameStats) Derive() {
	t.TotalYards = t.PassingYards + t.RushingYards
	t.TurnoverDifferential = t.TurnoversForced - t.TurnoversCommitted
}

// Game holds both teams' box scores for one game, keyed by team name.
type Game map[string]*TeamGameStats

func (g Game) team(name string) *TeamGameStats {
	t, ok := g[name]
	if !ok {
		t = &TeamGameStats{TeamName: name}
		g[name] = t
	}
	return t
}

// Finalize fills the fields that depend on the opponent: points allowed, the
// game result and turnover differential.
func (g Game) Finalize(home, away string) {
	h, a := g.team(home), g.team(away)
	h.PointsAllowed, a.PointsAllowed = a.Points, h.Points
	h.Wins, h.Losses, h.Ties = 0, 0, 0
	a.Wins, a.Losses, a.Ties = 0, 0, 0
	switch {
	case h.Points > a.Points:
		h.Wins, a.Losses = 1, 1
	case h.Points < a.Points:
		h.Losses, a.Wins = 1, 1
	default:
		h.Ties, a.Ties = 1, 1
	}
	h.Derive()
	a.Derive()
}

// TeamSeasonStats is a team's season accumulator.
type TeamSeasonStats struct {
	TeamName    string        `json:"teamName"`
	Season      int           `json:"season"`
	Ledger      rollup.Ledger `json:"processedGames"`
	GamesPlayed int           `json:"gamesPlayed"`
	Totals      TeamGameStats `json:"totals"`
}

// Apply folds one game into the season unless the game is already in the
// ledger. It returns the updated copy and whether it changed.
func Apply(season *TeamSeasonStats, game *TeamGameStats) (*TeamSeasonStats, bool, error) {
	if game.GameKey == "" {
		return season, false, fmt.Errorf("team %s: game stats without a game key", game.TeamName)
	}
	if season.Ledger.Contains(game.GameKey) {
		return season, false, nil
	}

	out := *season
	out.Ledger = season.Ledger.Add(game.GameKey)
	out.GamesPlayed++
	if err := stats.Accumulate(&out.Totals, game); err != nil {
		return season, false, err
	}
	out.Totals.TeamName = season.TeamName
	out.Totals.GameKey = ""
	out.Totals.Derive()
	return &out, true, nil
}

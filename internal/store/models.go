package store

import (
	"encoding/json"
	"time"

	"github.com/fortuna/gridiron/internal/rollup"
	"github.com/fortuna/gridiron/internal/roster"
	"github.com/fortuna/gridiron/internal/teamstats"
)

// GameRecord is one processed game.
type GameRecord struct {
	GameKey     string          `json:"gameKey"`
	Date        string          `json:"date"`
	Season      int             `json:"season"`
	HomeTeam    string          `json:"homeTeam"`
	AwayTeam    string          `json:"awayTeam"`
	HomeScore   int             `json:"homeScore"`
	AwayScore   int             `json:"awayScore"`
	Clips       int             `json:"clips"`
	BatchID     string          `json:"batchId"`
	Summary     json.RawMessage `json:"summary,omitempty"`
	ProcessedAt time.Time       `json:"processedAt"`
}

// GameDetail is a game with both teams' box scores.
type GameDetail struct {
	*GameRecord
	Teams []*teamstats.TeamGameStats `json:"teams"`
}

// PlayerWrite is every document that changes for one player in one game.
// It is written in a single transaction.
type PlayerWrite struct {
	Record *roster.PlayerRecord
	Career *rollup.TotalStats
	Season *rollup.SeasonStats
	Game   *rollup.GameStats
}

// TeamWrite is one team's game box score and updated season totals.
type TeamWrite struct {
	Game   *teamstats.TeamGameStats
	Season *teamstats.TeamSeasonStats
}

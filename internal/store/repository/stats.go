package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/gridiron/internal/rollup"
	"github.com/fortuna/gridiron/internal/roster"
	"github.com/fortuna/gridiron/internal/store"
)

// StatsRepository handles a player's game and season tiers.
type StatsRepository struct {
	db *store.Database
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *store.Database) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetSeason returns a player's season accumulator, or nil when none exists.
func (r *StatsRepository) GetSeason(ctx context.Context, team string, jersey, season int) (*rollup.SeasonStats, error) {
	query := `
		SELECT processed_games, games_played, stats
		FROM player_season_stats
		WHERE team_name = $1 AND jersey_number = $2 AND season = $3
	`

	out := &rollup.SeasonStats{Key: roster.Key{Team: team, Jersey: jersey}, Season: season}
	var ledger pq.StringArray
	var statsJSON []byte
	err := r.db.DB().QueryRowContext(ctx, query, team, jersey, season).Scan(&ledger, &out.GamesPlayed, &statsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying season stats: %w", err)
	}

	out.Ledger = rollup.Ledger(ledger)
	if err := json.Unmarshal(statsJSON, &out.Blocks); err != nil {
		return nil, fmt.Errorf("decode season stats: %w", err)
	}
	return out, nil
}

// GetGame returns a player's stats for one game, or nil when none exist.
func (r *StatsRepository) GetGame(ctx context.Context, team string, jersey int, gameKey string) (*rollup.GameStats, error) {
	query := `
		SELECT season, stats
		FROM player_game_stats
		WHERE team_name = $1 AND jersey_number = $2 AND game_key = $3
	`

	out := &rollup.GameStats{Key: roster.Key{Team: team, Jersey: jersey}, GameKey: gameKey}
	var statsJSON []byte
	err := r.db.DB().QueryRowContext(ctx, query, team, jersey, gameKey).Scan(&out.Season, &statsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying game stats: %w", err)
	}
	if err := json.Unmarshal(statsJSON, &out.Blocks); err != nil {
		return nil, fmt.Errorf("decode game stats: %w", err)
	}
	return out, nil
}

func (r *StatsRepository) saveSeasonTx(ctx context.Context, tx *sql.Tx, s *rollup.SeasonStats) error {
	statsJSON, err := json.Marshal(s.Blocks)
	if err != nil {
		return fmt.Errorf("marshal season stats: %w", err)
	}

	query := `
		INSERT INTO player_season_stats (team_name, jersey_number, season, processed_games, games_played, stats, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		ON CONFLICT (team_name, jersey_number, season) DO UPDATE SET
			processed_games = EXCLUDED.processed_games,
			games_played = EXCLUDED.games_played,
			stats = EXCLUDED.stats,
			updated_at = NOW()
	`
	if _, err := tx.ExecContext(ctx, query, s.Team, s.Jersey, s.Season, pq.Array([]string(s.Ledger)), s.GamesPlayed, statsJSON); err != nil {
		return fmt.Errorf("upsert season stats: %w", err)
	}
	return nil
}

func (r *StatsRepository) saveGameTx(ctx context.Context, tx *sql.Tx, g *rollup.GameStats) error {
	statsJSON, err := json.Marshal(g.Blocks)
	if err != nil {
		return fmt.Errorf("marshal game stats: %w", err)
	}

	query := `
		INSERT INTO player_game_stats (team_name, jersey_number, game_key, season, stats, updated_at)
		VALUES ($1,$2,$3,$4,$5,NOW())
		ON CONFLICT (team_name, jersey_number, game_key) DO UPDATE SET
			season = EXCLUDED.season,
			stats = EXCLUDED.stats,
			updated_at = NOW()
	`
	if _, err := tx.ExecContext(ctx, query, g.Team, g.Jersey, g.GameKey, g.Season, statsJSON); err != nil {
		return fmt.Errorf("upsert game stats: %w", err)
	}
	return nil
}

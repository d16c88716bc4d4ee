package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/gridiron/internal/rollup"
	"github.com/fortuna/gridiron/internal/store"
	"github.com/fortuna/gridiron/internal/teamstats"
)

// TeamRepository handles team game and season documents.
type TeamRepository struct {
	db *store.Database
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *store.Database) *TeamRepository {
	return &TeamRepository{db: db}
}

// GetSeason returns a team's season totals, or nil when none exist.
func (r *TeamRepository) GetSeason(ctx context.Context, team string, season int) (*teamstats.TeamSeasonStats, error) {
	query := `
		SELECT processed_games, games_played, totals
		FROM team_season_stats
		WHERE team_name = $1 AND season = $2
	`

	out := &teamstats.TeamSeasonStats{TeamName: team, Season: season}
	var ledger pq.StringArray
	var totals []byte
	err := r.db.DB().QueryRowContext(ctx, query, team, season).Scan(&ledger, &out.GamesPlayed, &totals)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying team season: %w", err)
	}

	out.Ledger = rollup.Ledger(ledger)
	if err := json.Unmarshal(totals, &out.Totals); err != nil {
		return nil, fmt.Errorf("decode team totals: %w", err)
	}
	return out, nil
}

// ListGame returns both teams' box scores for a game.
func (r *TeamRepository) ListGame(ctx context.Context, gameKey string) ([]*teamstats.TeamGameStats, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT stats FROM team_game_stats WHERE game_key = $1 ORDER BY team_name
	`, gameKey)
	if err != nil {
		return nil, fmt.Errorf("querying team game stats: %w", err)
	}
	defer rows.Close()

	var out []*teamstats.TeamGameStats
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		t := &teamstats.TeamGameStats{}
		if err := json.Unmarshal(raw, t); err != nil {
			return nil, fmt.Errorf("decode team game stats: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Save writes a team's game box score and season totals in one transaction.
func (r *TeamRepository) Save(ctx context.Context, w store.TeamWrite) error {
	gameJSON, err := json.Marshal(w.Game)
	if err != nil {
		return fmt.Errorf("marshal team game stats: %w", err)
	}
	totals, err := json.Marshal(w.Season.Totals)
	if err != nil {
		return fmt.Errorf("marshal team totals: %w", err)
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO team_game_stats (team_name, game_key, stats, updated_at)
			VALUES ($1,$2,$3,NOW())
			ON CONFLICT (team_name, game_key) DO UPDATE SET stats = EXCLUDED.stats, updated_at = NOW()
		`, w.Game.TeamName, w.Game.GameKey, gameJSON)
		if err != nil {
			return fmt.Errorf("upsert team game stats: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO team_season_stats (team_name, season, processed_games, games_played, totals, updated_at)
			VALUES ($1,$2,$3,$4,$5,NOW())
			ON CONFLICT (team_name, season) DO UPDATE SET
				processed_games = EXCLUDED.processed_games,
				games_played = EXCLUDED.games_played,
				totals = EXCLUDED.totals,
				updated_at = NOW()
		`, w.Season.TeamName, w.Season.Season, pq.Array([]string(w.Season.Ledger)), w.Season.GamesPlayed, totals)
		if err != nil {
			return fmt.Errorf("upsert team season stats: %w", err)
		}
		return nil
	})
}

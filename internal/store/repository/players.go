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
	"github.com/fortuna/gridiron/internal/stats"
	"github.com/fortuna/gridiron/internal/store"
)

// PlayerRepository handles player documents. The players row also carries the
// career ledger, so the record and its career tier always change together.
type PlayerRepository struct {
	db *store.Database
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *store.Database) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = `team_name, jersey_number, display_name, positions, primary_position,
	stats, processed_games, games_played, created_at, updated_at`

type playerRow struct {
	record roster.PlayerRecord
	ledger pq.StringArray
	games  int
}

// Get returns the player record, or nil when the player is unknown.
func (r *PlayerRepository) Get(ctx context.Context, team string, jersey int) (*roster.PlayerRecord, error) {
	row, err := r.get(ctx, team, jersey)
	if err != nil || row == nil {
		return nil, err
	}
	return &row.record, nil
}

// GetCareer returns the career tier stored on the player row, or nil when the
// player is unknown.
func (r *PlayerRepository) GetCareer(ctx context.Context, team string, jersey int) (*rollup.TotalStats, error) {
	row, err := r.get(ctx, team, jersey)
	if err != nil || row == nil {
		return nil, err
	}
	return &rollup.TotalStats{
		Key: row.record.Key(),
		Accumulator: rollup.Accumulator{
			Ledger:      rollup.Ledger(row.ledger),
			GamesPlayed: row.games,
			Blocks:      row.record.Stats,
		},
	}, nil
}

func (r *PlayerRepository) get(ctx context.Context, team string, jersey int) (*playerRow, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE team_name = $1 AND jersey_number = $2`

	row, err := scanPlayer(r.db.DB().QueryRowContext(ctx, query, team, jersey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying player %s#%d: %w", team, jersey, err)
	}
	return row, nil
}

// ListByTeam returns a team's players ordered by jersey number.
func (r *PlayerRepository) ListByTeam(ctx context.Context, team string) ([]*roster.PlayerRecord, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE team_name = $1 ORDER BY jersey_number`

	rows, err := r.db.DB().QueryContext(ctx, query, team)
	if err != nil {
		return nil, fmt.Errorf("querying players: %w", err)
	}
	defer rows.Close()

	var players []*roster.PlayerRecord
	for rows.Next() {
		row, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, &row.record)
	}
	return players, rows.Err()
}

// Reset deletes a player and all of their tier documents. It reports whether
// the player existed.
func (r *PlayerRepository) Reset(ctx context.Context, team string, jersey int) (bool, error) {
	var deleted int64
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"player_game_stats", "player_season_stats"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE team_name = $1 AND jersey_number = $2`, team, jersey); err != nil {
				return fmt.Errorf("reset %s: %w", table, err)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM players WHERE team_name = $1 AND jersey_number = $2`, team, jersey)
		if err != nil {
			return fmt.Errorf("reset player: %w", err)
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted > 0, err
}

func (r *PlayerRepository) saveTx(ctx context.Context, tx *sql.Tx, p *roster.PlayerRecord, career *rollup.TotalStats) error {
	statsJSON, err := json.Marshal(p.Stats)
	if err != nil {
		return fmt.Errorf("marshal player stats: %w", err)
	}
	var ledger []string
	games := 0
	if career != nil {
		ledger = career.Ledger
		games = career.GamesPlayed
	}

	positions := make([]string, len(p.Positions))
	for i, pos := range p.Positions {
		positions[i] = string(pos)
	}

	query := `
		INSERT INTO players (` + playerColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (team_name, jersey_number) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			positions = EXCLUDED.positions,
			stats = EXCLUDED.stats,
			processed_games = EXCLUDED.processed_games,
			games_played = EXCLUDED.games_played,
			updated_at = EXCLUDED.updated_at
	`
	_, err = tx.ExecContext(ctx, query,
		p.TeamName, p.JerseyNumber, p.DisplayName, pq.Array(positions), string(p.PrimaryPosition),
		statsJSON, pq.Array(ledger), games, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert player %s: %w", p.Key(), err)
	}
	return nil
}

func scanPlayer(scanner interface {
	Scan(dest ...interface{}) error
}) (*playerRow, error) {
	row := &playerRow{}
	p := &row.record
	var positions pq.StringArray
	var primary string
	var statsJSON []byte

	err := scanner.Scan(
		&p.TeamName, &p.JerseyNumber, &p.DisplayName, &positions, &primary,
		&statsJSON, &row.ledger, &row.games, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.PrimaryPosition = stats.Position(primary)
	p.Positions = make([]stats.Position, len(positions))
	for i, pos := range positions {
		p.Positions[i] = stats.Position(pos)
	}
	if err := json.Unmarshal(statsJSON, &p.Stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	if p.Stats == nil {
		p.Stats = stats.Blocks{}
	}
	return row, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/gridiron/internal/store"
)

// GameRepository handles processed game rows.
type GameRepository struct {
	db *store.Database
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *store.Database) *GameRepository {
	return &GameRepository{db: db}
}

const gameColumns = `game_key, game_date, season, home_team, away_team, home_score, away_score,
	clip_count, batch_id, summary, processed_at`

// Save upserts a game row. Reprocessing overwrites the previous row.
func (r *GameRepository) Save(ctx context.Context, g *store.GameRecord) error {
	query := `
		INSERT INTO games (` + gameColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (game_key) DO UPDATE SET
			game_date = EXCLUDED.game_date,
			season = EXCLUDED.season,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			clip_count = EXCLUDED.clip_count,
			batch_id = EXCLUDED.batch_id,
			summary = EXCLUDED.summary,
			processed_at = EXCLUDED.processed_at
	`

	var summary interface{}
	if len(g.Summary) > 0 {
		summary = []byte(g.Summary)
	}
	var batch interface{}
	if g.BatchID != "" {
		batch = g.BatchID
	}

	_, err := r.db.DB().ExecContext(ctx, query,
		g.GameKey, g.Date, g.Season, g.HomeTeam, g.AwayTeam, g.HomeScore, g.AwayScore,
		g.Clips, batch, summary, g.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert game %s: %w", g.GameKey, err)
	}
	return nil
}

// Get returns a game row, or nil when the game has not been processed.
func (r *GameRepository) Get(ctx context.Context, gameKey string) (*store.GameRecord, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE game_key = $1`

	g, err := scanGame(r.db.DB().QueryRowContext(ctx, query, gameKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying game: %w", err)
	}
	return g, nil
}

// ListSince returns games processed at or after since, newest first.
func (r *GameRepository) ListSince(ctx context.Context, since time.Time, limit int) ([]*store.GameRecord, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE processed_at >= $1 ORDER BY processed_at DESC LIMIT $2`

	rows, err := r.db.DB().QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	var games []*store.GameRecord
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func scanGame(scanner interface {
	Scan(dest ...interface{}) error
}) (*store.GameRecord, error) {
	g := &store.GameRecord{}
	var batch sql.NullString
	var summary []byte
	err := scanner.Scan(
		&g.GameKey, &g.Date, &g.Season, &g.HomeTeam, &g.AwayTeam, &g.HomeScore, &g.AwayScore,
		&g.Clips, &batch, &summary, &g.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	g.BatchID = batch.String
	g.Summary = summary
	return g, nil
}

// Package repository implements the Postgres-backed document store.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/gridiron/internal/rollup"
	"github.com/fortuna/gridiron/internal/roster"
	"github.com/fortuna/gridiron/internal/store"
	"github.com/fortuna/gridiron/internal/teamstats"
)

// Repositories groups the per-table repositories behind the store surface
// the ingest service and the API use.
type Repositories struct {
	db      *store.Database
	Players *PlayerRepository
	Stats   *StatsRepository
	Games   *GameRepository
	Teams   *TeamRepository
}

// New creates every repository over one connection pool.
func New(db *store.Database) *Repositories {
	return &Repositories{
		db:      db,
		Players: NewPlayerRepository(db),
		Stats:   NewStatsRepository(db),
		Games:   NewGameRepository(db),
		Teams:   NewTeamRepository(db),
	}
}

func (r *Repositories) GetPlayer(ctx context.Context, team string, jersey int) (*roster.PlayerRecord, error) {
	return r.Players.Get(ctx, team, jersey)
}

func (r *Repositories) GetCareer(ctx context.Context, team string, jersey int) (*rollup.TotalStats, error) {
	return r.Players.GetCareer(ctx, team, jersey)
}

func (r *Repositories) GetSeason(ctx context.Context, team string, jersey, season int) (*rollup.SeasonStats, error) {
	return r.Stats.GetSeason(ctx, team, jersey, season)
}

func (r *Repositories) GetGameStats(ctx context.Context, team string, jersey int, gameKey string) (*rollup.GameStats, error) {
	return r.Stats.GetGame(ctx, team, jersey, gameKey)
}

func (r *Repositories) GetTeamSeason(ctx context.Context, team string, season int) (*teamstats.TeamSeasonStats, error) {
	return r.Teams.GetSeason(ctx, team, season)
}

func (r *Repositories) ListPlayers(ctx context.Context, team string) ([]*roster.PlayerRecord, error) {
	return r.Players.ListByTeam(ctx, team)
}

func (r *Repositories) ResetPlayer(ctx context.Context, team string, jersey int) (bool, error) {
	return r.Players.Reset(ctx, team, jersey)
}

func (r *Repositories) SaveGame(ctx context.Context, g *store.GameRecord) error {
	return r.Games.Save(ctx, g)
}

// GetGame returns the game row with both teams' box scores, or nil.
func (r *Repositories) GetGame(ctx context.Context, gameKey string) (*store.GameDetail, error) {
	g, err := r.Games.Get(ctx, gameKey)
	if err != nil || g == nil {
		return nil, err
	}
	teams, err := r.Teams.ListGame(ctx, gameKey)
	if err != nil {
		return nil, err
	}
	return &store.GameDetail{GameRecord: g, Teams: teams}, nil
}

func (r *Repositories) SaveTeam(ctx context.Context, w store.TeamWrite) error {
	return r.Teams.Save(ctx, w)
}

// SavePlayer writes the player row, the season tier and the game tier in one
// transaction.
func (r *Repositories) SavePlayer(ctx context.Context, w store.PlayerWrite) error {
	if w.Record == nil {
		return fmt.Errorf("save player: nil record")
	}
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := r.Players.saveTx(ctx, tx, w.Record, w.Career); err != nil {
			return err
		}
		if w.Season != nil {
			if err := r.Stats.saveSeasonTx(ctx, tx, w.Season); err != nil {
				return err
			}
		}
		if w.Game != nil {
			if err := r.Stats.saveGameTx(ctx, tx, w.Game); err != nil {
				return err
			}
		}
		return nil
	})
}

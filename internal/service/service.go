// Package service answers read queries over the stored player, game and
// team documents for the API layer.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/fortuna/gridiron/internal/rollup"
	"github.com/fortuna/gridiron/internal/roster"
	"github.com/fortuna/gridiron/internal/store"
	"github.com/fortuna/gridiron/internal/teamstats"
)

// ErrNotFound is returned when the requested document does not exist.
var ErrNotFound = errors.New("not found")

// Reader is the query surface of the store.
type Reader interface {
	GetPlayer(ctx context.Context, team string, jersey int) (*roster.PlayerRecord, error)
	GetCareer(ctx context.Context, team string, jersey int) (*rollup.TotalStats, error)
	GetSeason(ctx context.Context, team string, jersey, season int) (*rollup.SeasonStats, error)
	GetGameStats(ctx context.Context, team string, jersey int, gameKey string) (*rollup.GameStats, error)
	GetTeamSeason(ctx context.Context, team string, season int) (*teamstats.TeamSeasonStats, error)
	ListPlayers(ctx context.Context, team string) ([]*roster.PlayerRecord, error)
	ResetPlayer(ctx context.Context, team string, jersey int) (bool, error)
	GetGame(ctx context.Context, gameKey string) (*store.GameDetail, error)
}

// Cache is a JSON read-through cache. RedisCache implements it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

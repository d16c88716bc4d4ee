// Package memstore is an in-memory document store with the same surface as
// the Postgres repositories. The CLI's dry runs and the tests use it.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/fortuna/gridiron/internal/rollup"
	"github.com/fortuna/gridiron/internal/roster"
	"github.com/fortuna/gridiron/internal/store"
	"github.com/fortuna/gridiron/internal/teamstats"
)

type seasonKey struct {
	key    roster.Key
	season int
}

type gameKey struct {
	key  roster.Key
	game string
}

type teamSeasonKey struct {
	team   string
	season int
}

// Store keeps copies of every document it is given and hands out copies.
type Store struct {
	mu          sync.RWMutex
	players     map[roster.Key]*roster.PlayerRecord
	careers     map[roster.Key]*rollup.TotalStats
	seasons     map[seasonKey]*rollup.SeasonStats
	gameStats   map[gameKey]*rollup.GameStats
	games       map[string]*store.GameRecord
	teamGames   map[string]map[string]*teamstats.TeamGameStats
	teamSeasons map[teamSeasonKey]*teamstats.TeamSeasonStats
}

func New() *Store {
	return &Store{
		players:     map[roster.Key]*roster.PlayerRecord{},
		careers:     map[roster.Key]*rollup.TotalStats{},
		seasons:     map[seasonKey]*rollup.SeasonStats{},
		gameStats:   map[gameKey]*rollup.GameStats{},
		games:       map[string]*store.GameRecord{},
		teamGames:   map[string]map[string]*teamstats.TeamGameStats{},
		teamSeasons: map[teamSeasonKey]*teamstats.TeamSeasonStats{},
	}
}

func (s *Store) GetPlayer(_ context.Context, team string, jersey int) (*roster.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[roster.Key{Team: team, Jersey: jersey}]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (s *Store) GetCareer(_ context.Context, team string, jersey int) (*rollup.TotalStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.careers[roster.Key{Team: team, Jersey: jersey}]
	if !ok {
		return nil, nil
	}
	return &rollup.TotalStats{Key: c.Key, Accumulator: copyAcc(c.Accumulator)}, nil
}

func (s *Store) GetSeason(_ context.Context, team string, jersey, season int) (*rollup.SeasonStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.seasons[seasonKey{roster.Key{Team: team, Jersey: jersey}, season}]
	if !ok {
		return nil, nil
	}
	return &rollup.SeasonStats{Key: v.Key, Season: v.Season, Accumulator: copyAcc(v.Accumulator)}, nil
}

func (s *Store) GetGameStats(_ context.Context, team string, jersey int, game string) (*rollup.GameStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.gameStats[gameKey{roster.Key{Team: team, Jersey: jersey}, game}]
	if !ok {
		return nil, nil
	}
	out := *g
	out.Blocks = g.Blocks.Clone()
	return &out, nil
}

func (s *Store) GetTeamSeason(_ context.Context, team string, season int) (*teamstats.TeamSeasonStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teamSeasons[teamSeasonKey{team, season}]
	if !ok {
		return nil, nil
	}
	out := *t
	out.Ledger = append(rollup.Ledger(nil), t.Ledger...)
	return &out, nil
}

func (s *Store) ListPlayers(_ context.Context, team string) ([]*roster.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*roster.PlayerRecord
	for k, p := range s.players {
		if k.Team == team {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JerseyNumber < out[j].JerseyNumber })
	return out, nil
}

func (s *Store) ResetPlayer(_ context.Context, team string, jersey int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := roster.Key{Team: team, Jersey: jersey}
	_, existed := s.players[key]
	delete(s.players, key)
	delete(s.careers, key)
	for k := range s.seasons {
		if k.key == key {
			delete(s.seasons, k)
		}
	}
	for k := range s.gameStats {
		if k.key == key {
			delete(s.gameStats, k)
		}
	}
	return existed, nil
}

func (s *Store) SaveGame(_ context.Context, g *store.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := *g
	s.games[g.GameKey] = &out
	return nil
}

func (s *Store) GetGame(_ context.Context, key string) (*store.GameDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[key]
	if !ok {
		return nil, nil
	}
	rec := *g
	detail := &store.GameDetail{GameRecord: &rec}
	for _, t := range s.teamGames[key] {
		cp := *t
		detail.Teams = append(detail.Teams, &cp)
	}
	sort.Slice(detail.Teams, func(i, j int) bool { return detail.Teams[i].TeamName < detail.Teams[j].TeamName })
	return detail, nil
}

// SavePlayer stores every document of the write or none of them.
func (s *Store) SavePlayer(_ context.Context, w store.PlayerWrite) error {
	if w.Record == nil {
		return errors.New("save player: nil record")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := w.Record.Key()
	s.players[key] = w.Record.Clone()
	if w.Career != nil {
		s.careers[key] = &rollup.TotalStats{Key: key, Accumulator: copyAcc(w.Career.Accumulator)}
	}
	if w.Season != nil {
		s.seasons[seasonKey{key, w.Season.Season}] = &rollup.SeasonStats{
			Key: key, Season: w.Season.Season, Accumulator: copyAcc(w.Season.Accumulator),
		}
	}
	if w.Game != nil {
		g := *w.Game
		g.Blocks = w.Game.Blocks.Clone()
		s.gameStats[gameKey{key, g.GameKey}] = &g
	}
	return nil
}

func (s *Store) SaveTeam(_ context.Context, w store.TeamWrite) error {
	if w.Game == nil || w.Season == nil {
		return errors.New("save team: incomplete write")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	game := *w.Game
	byTeam, ok := s.teamGames[game.GameKey]
	if !ok {
		byTeam = map[string]*teamstats.TeamGameStats{}
		s.teamGames[game.GameKey] = byTeam
	}
	byTeam[game.TeamName] = &game

	season := *w.Season
	season.Ledger = append(rollup.Ledger(nil), w.Season.Ledger...)
	s.teamSeasons[teamSeasonKey{season.TeamName, season.Season}] = &season
	return nil
}

func copyAcc(a rollup.Accumulator) rollup.Accumulator {
	return rollup.Accumulator{
		Ledger:      append(rollup.Ledger(nil), a.Ledger...),
		GamesPlayed: a.GamesPlayed,
		Blocks:      a.Blocks.Clone(),
	}
}

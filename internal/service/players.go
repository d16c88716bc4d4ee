package service

import (
	"context"
	"fmt"

	"github.com/fortuna/gridiron/internal/rollup"
	"github.com/fortuna/gridiron/internal/roster"
)

// PlayerService handles player queries
type PlayerService struct {
	reader Reader
}

// NewPlayerService creates a new player service
func NewPlayerService(reader Reader) *PlayerService {
	return &PlayerService{reader: reader}
}

// PlayerProfile is a player's record together with its career ledger.
type PlayerProfile struct {
	*roster.PlayerRecord
	GamesPlayed    int      `json:"gamesPlayed"`
	ProcessedGames []string `json:"processedGames"`
}

// GetPlayer returns the player's career record.
func (s *PlayerService) GetPlayer(ctx context.Context, team string, jersey int) (*PlayerProfile, error) {
	record, err := s.reader.GetPlayer(ctx, team, jersey)
	if err != nil {
		return nil, fmt.Errorf("fetching player: %w", err)
	}
	if record == nil {
		return nil, ErrNotFound
	}

	profile := &PlayerProfile{PlayerRecord: record, ProcessedGames: []string{}}
	career, err := s.reader.GetCareer(ctx, team, jersey)
	if err != nil {
		return nil, fmt.Errorf("fetching career: %w", err)
	}
	if career != nil {
		profile.GamesPlayed = career.GamesPlayed
		profile.ProcessedGames = append(profile.ProcessedGames, career.Ledger...)
	}
	return profile, nil
}

// ListTeamPlayers returns every player recorded for a team.
func (s *PlayerService) ListTeamPlayers(ctx context.Context, team string) ([]*roster.PlayerRecord, error) {
	players, err := s.reader.ListPlayers(ctx, team)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	if players == nil {
		players = []*roster.PlayerRecord{}
	}
	return players, nil
}

// GetSeason returns one season accumulator for a player.
func (s *PlayerService) GetSeason(ctx context.Context, team string, jersey, season int) (*rollup.SeasonStats, error) {
	stats, err := s.reader.GetSeason(ctx, team, jersey, season)
	if err != nil {
		return nil, fmt.Errorf("fetching season: %w", err)
	}
	if stats == nil {
		return nil, ErrNotFound
	}
	return stats, nil
}

// GetGameStats returns the player's box score for one game.
func (s *PlayerService) GetGameStats(ctx context.Context, team string, jersey int, gameKey string) (*rollup.GameStats, error) {
	stats, err := s.reader.GetGameStats(ctx, team, jersey, gameKey)
	if err != nil {
		return nil, fmt.Errorf("fetching game stats: %w", err)
	}
	if stats == nil {
		return nil, ErrNotFound
	}
	return stats, nil
}

// ResetPlayer deletes a player's record and all of its stat tiers.
func (s *PlayerService) ResetPlayer(ctx context.Context, team string, jersey int) error {
	found, err := s.reader.ResetPlayer(ctx, team, jersey)
	if err != nil {
		return fmt.Errorf("resetting player: %w", err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

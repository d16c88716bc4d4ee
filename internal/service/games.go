package service

import (
	"context"
	"fmt"

	"github.com/fortuna/gridiron/internal/store"
)

// GameService handles game queries
type GameService struct {
	reader Reader
}

// NewGameService creates a new game service
func NewGameService(reader Reader) *GameService {
	return &GameService{reader: reader}
}

// GetGame returns the game row with both teams' box scores.
func (s *GameService) GetGame(ctx context.Context, gameKey string) (*store.GameDetail, error) {
	game, err := s.reader.GetGame(ctx, gameKey)
	if err != nil {
		return nil, fmt.Errorf("fetching game: %w", err)
	}
	if game == nil {
		return nil, ErrNotFound
	}
	return game, nil
}

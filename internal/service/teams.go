package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/engine"
	"github.com/fortuna/gridiron/internal/teamstats"
)

const teamSeasonTTL = 10 * time.Minute

// TeamService serves team season totals, cached when a Cache is set.
type TeamService struct {
	reader Reader
	cache  Cache
	log    *logrus.Entry
}

// NewTeamService creates a team service. cache may be nil.
func NewTeamService(reader Reader, cache Cache, log *logrus.Entry) *TeamService {
	return &TeamService{reader: reader, cache: cache, log: log.WithField("component", "team_service")}
}

func teamSeasonKey(team string, season int) string {
	return fmt.Sprintf("gridiron:team_season:%s:%d", team, season)
}

// GetTeamSeason returns a team's season totals.
func (s *TeamService) GetTeamSeason(ctx context.Context, team string, season int) (*teamstats.TeamSeasonStats, error) {
	key := teamSeasonKey(team, season)
	if s.cache != nil {
		var cached teamstats.TeamSeasonStats
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.log.WithError(err).Warn("team season cache read failed")
		} else if hit {
			return &cached, nil
		}
	}

	stats, err := s.reader.GetTeamSeason(ctx, team, season)
	if err != nil {
		return nil, fmt.Errorf("fetching team season: %w", err)
	}
	if stats == nil {
		return nil, ErrNotFound
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, stats, teamSeasonTTL); err != nil {
			s.log.WithError(err).Warn("team season cache write failed")
		}
	}
	return stats, nil
}

// BroadcastGame drops the cached seasons of both teams in a processed game.
func (s *TeamService) BroadcastGame(summary *engine.Summary) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	keys := []string{
		teamSeasonKey(summary.HomeTeam, summary.Season),
		teamSeasonKey(summary.AwayTeam, summary.Season),
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.WithError(err).WithField("game_key", summary.GameKey).Warn("team season cache invalidation failed")
	}
}

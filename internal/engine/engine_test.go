package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/gridiron/internal/clip"
	"github.com/fortuna/gridiron/internal/logger"
	"github.com/fortuna/gridiron/internal/rollup"
	"github.com/fortuna/gridiron/internal/roster"
	"github.com/fortuna/gridiron/internal/stats"
	"github.com/fortuna/gridiron/internal/store"
	"github.com/fortuna/gridiron/internal/store/memstore"
)

const passingTouchdown = `{
	"gameKey": "2024-09-07-A-B", "date": "2024-09-07", "homeTeam": "TeamA", "awayTeam": "TeamB",
	"finalScore": {"home": 0, "away": 6},
	"Clips": [
		{"clipKey": 1, "offensiveSide": "Away", "down": 2, "yardsToGo": 7, "playType": "PASS", "gainedYards": 25,
		 "carrier1": {"jerseyNumber": 12, "position": "QB"}, "carrier2": {"jerseyNumber": 80, "position": "WR"},
		 "significantPlayTags": ["TOUCHDOWN"]},
		{"clipKey": 2, "offensiveSide": "Home", "down": 1, "yardsToGo": 10, "playType": "RUN", "gainedYards": 4,
		 "carrier1": {"jerseyNumber": 22, "position": "RB"}, "tackler1": {"jerseyNumber": 55, "position": "LB"}}
	]
}`

func game(t *testing.T, doc string) *clip.Game {
	t.Helper()
	payload, err := clip.DecodeBytes([]byte(doc))
	require.NoError(t, err)
	g, err := clip.Normalize(payload)
	require.NoError(t, err)
	return g
}

func newEngine() *Engine {
	now := time.Date(2024, 9, 8, 12, 0, 0, 0, time.UTC)
	return New(Config{Workers: 2, Now: func() time.Time { return now }}, logger.Discard())
}

// persist writes a result the way the ingest service does.
func persist(t *testing.T, s *memstore.Store, res *Result) {
	t.Helper()
	ctx := context.Background()
	for _, u := range res.PlayerUpdates {
		require.NoError(t, s.SavePlayer(ctx, store.PlayerWrite{Record: u.Record, Career: u.Career, Season: u.Season, Game: u.Game}))
	}
	for _, u := range res.TeamUpdates {
		require.NoError(t, s.SaveTeam(ctx, store.TeamWrite{Game: u.Game, Season: u.Season}))
	}
}

func TestProcessPassingTouchdown(t *testing.T) {
	s := memstore.New()
	res, err := newEngine().Process(context.Background(), game(t, passingTouchdown), s)
	require.NoError(t, err)
	persist(t, s, res)

	assert.Equal(t, 4, res.Summary.PlayersSucceeded)
	assert.Zero(t, res.Summary.PlayersFailed)
	assert.Zero(t, res.Summary.LedgerNoops)
	assert.Empty(t, res.Summary.Discrepancies)
	assert.NotEmpty(t, res.Summary.BatchID)
	assert.Equal(t, 6, res.Summary.AwayScore)

	qb, err := s.GetPlayer(context.Background(), "TeamB", 12)
	require.NoError(t, err)
	require.NotNil(t, qb)
	assert.Equal(t, stats.QB, qb.PrimaryPosition)

	block := qb.Stats[stats.QB].(*stats.QuarterbackStats)
	assert.Equal(t, 1, block.PassingAttempts)
	assert.Equal(t, 1, block.PassingCompletions)
	assert.Equal(t, 25, block.PassingYards)
	assert.Equal(t, 1, block.PassingTouchdowns)
	assert.Equal(t, 25, block.LongestPass)
	assert.Equal(t, 1, block.GamesPlayed)

	career, err := s.GetCareer(context.Background(), "TeamB", 12)
	require.NoError(t, err)
	assert.Equal(t, rollup.Ledger{"2024-09-07-A-B"}, career.Ledger)

	season, err := s.GetTeamSeason(context.Background(), "TeamB", 2024)
	require.NoError(t, err)
	require.NotNil(t, season)
	assert.Equal(t, 6, season.Totals.Points)
	assert.Equal(t, 1, season.Totals.Wins)
}

func TestReprocessIsANoop(t *testing.T) {
	s := memstore.New()
	e := newEngine()
	g := game(t, passingTouchdown)

	first, err := e.Process(context.Background(), g, s)
	require.NoError(t, err)
	persist(t, s, first)
	before, err := s.GetSeason(context.Background(), "TeamB", 12, 2024)
	require.NoError(t, err)

	second, err := e.Process(context.Background(), g, s)
	require.NoError(t, err)
	persist(t, s, second)

	assert.Equal(t, len(second.PlayerUpdates), second.Summary.LedgerNoops)
	for _, u := range second.PlayerUpdates {
		assert.True(t, u.Result.GameRecordWritten)
		assert.True(t, u.Result.Noop(), u.Key.String())
	}
	for _, u := range second.TeamUpdates {
		assert.False(t, u.SeasonUpdated)
	}

	after, err := s.GetSeason(context.Background(), "TeamB", 12, 2024)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	qb, err := s.GetPlayer(context.Background(), "TeamB", 12)
	require.NoError(t, err)
	assert.Equal(t, 1, qb.Stats[stats.QB].(*stats.QuarterbackStats).PassingTouchdowns)
}

func TestSecondGameAccumulates(t *testing.T) {
	s := memstore.New()
	e := newEngine()

	first, err := e.Process(context.Background(), game(t, passingTouchdown), s)
	require.NoError(t, err)
	persist(t, s, first)

	next := game(t, passingTouchdown)
	next.Context.GameKey = "2024-09-14-A-B"
	second, err := e.Process(context.Background(), next, s)
	require.NoError(t, err)
	persist(t, s, second)

	qb, err := s.GetPlayer(context.Background(), "TeamB", 12)
	require.NoError(t, err)
	block := qb.Stats[stats.QB].(*stats.QuarterbackStats)
	assert.Equal(t, 2, block.PassingTouchdowns)
	assert.Equal(t, 50, block.PassingYards)
	assert.Equal(t, 2, block.GamesPlayed)

	game1, err := s.GetGameStats(context.Background(), "TeamB", 12, "2024-09-07-A-B")
	require.NoError(t, err)
	assert.Equal(t, 25, game1.Blocks[stats.QB].(*stats.QuarterbackStats).PassingYards)
}

type flakyState struct {
	*memstore.Store
	fail roster.Key
}

func (f flakyState) GetSeason(ctx context.Context, team string, jersey, season int) (*rollup.SeasonStats, error) {
	if (roster.Key{Team: team, Jersey: jersey}) == f.fail {
		return nil, errors.New("connection reset")
	}
	return f.Store.GetSeason(ctx, team, jersey, season)
}

func TestPlayerFailureDoesNotAbortOthers(t *testing.T) {
	state := flakyState{Store: memstore.New(), fail: roster.Key{Team: "TeamB", Jersey: 80}}

	res, err := newEngine().Process(context.Background(), game(t, passingTouchdown), state)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Summary.PlayersSucceeded)
	assert.Equal(t, 1, res.Summary.PlayersFailed)
	require.Len(t, res.Summary.Errors, 1)
	assert.Equal(t, 80, res.Summary.Errors[0].Jersey)
	assert.Contains(t, res.Summary.Errors[0].Error, "connection reset")
	assert.Len(t, res.PlayerUpdates, 3)
	assert.Len(t, res.TeamUpdates, 2)
}

func TestProcessReportsScoreMismatch(t *testing.T) {
	g := game(t, passingTouchdown)
	g.Context.FinalScore = &clip.Score{Home: 0, Away: 7}

	res, err := newEngine().Process(context.Background(), g, memstore.New())
	require.NoError(t, err)
	require.Len(t, res.Summary.Discrepancies, 1)
	assert.Equal(t, "finalScore", res.Summary.Discrepancies[0].Field)
}

func TestProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newEngine().Process(ctx, game(t, passingTouchdown), memstore.New())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummaryFail(t *testing.T) {
	s := Summary{PlayersSucceeded: 2}
	s.Fail(roster.Key{Team: "TeamA", Jersey: 1}, errors.New("write failed"))
	assert.Equal(t, 1, s.PlayersSucceeded)
	assert.Equal(t, 1, s.PlayersFailed)
	require.Len(t, s.Errors, 1)
	assert.Equal(t, "write failed", s.Errors[0].Error)
}

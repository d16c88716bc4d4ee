package rollup

import (
	"testing"

	"github.com/fortuna/gridiron/internal/roster"
	"github.com/fortuna/gridiron/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var qb12 = roster.Key{Team: "TeamB", Jersey: 12}

func qbGame(attempts, yards, longest int) stats.Blocks {
	return stats.Blocks{stats.QB: &stats.QuarterbackStats{
		Base:               stats.Base{GamesPlayed: 1},
		PassingAttempts:    attempts,
		PassingCompletions: attempts,
		PassingYards:       yards,
		LongestPass:        longest,
	}}
}

func TestRollupIsIdempotent(t *testing.T) {
	delta := qbGame(3, 60, 30)

	once, res, err := Rollup(qb12, delta, "g1", 2024, Tiers{})
	require.NoError(t, err)
	assert.Equal(t, Result{GameRecordWritten: true, SeasonRecordUpdated: true, CareerRecordUpdated: true}, res)

	twice, res, err := Rollup(qb12, delta, "g1", 2024, once)
	require.NoError(t, err)
	assert.True(t, res.GameRecordWritten)
	assert.True(t, res.Noop())

	assert.Equal(t, once.Season, twice.Season)
	assert.Equal(t, once.Career, twice.Career)
	assert.Equal(t, 1, twice.Season.GamesPlayed)
	assert.Equal(t, Ledger{"g1"}, twice.Career.Ledger)
}

func TestRollupIsAdditiveAndOrderIndependent(t *testing.T) {
	g1 := qbGame(3, 60, 30)
	g2 := qbGame(5, 40, 12)

	var forward Tiers
	var err error
	forward, _, err = Rollup(qb12, g1, "g1", 2024, forward)
	require.NoError(t, err)
	forward, _, err = Rollup(qb12, g2, "g2", 2024, forward)
	require.NoError(t, err)

	var backward Tiers
	backward, _, err = Rollup(qb12, g2, "g2", 2024, backward)
	require.NoError(t, err)
	backward, _, err = Rollup(qb12, g1, "g1", 2024, backward)
	require.NoError(t, err)

	for _, tier := range []*SeasonStats{forward.Season, backward.Season} {
		qb := tier.Blocks[stats.QB].(*stats.QuarterbackStats)
		assert.Equal(t, 8, qb.PassingAttempts)
		assert.Equal(t, 100, qb.PassingYards)
		assert.Equal(t, 30, qb.LongestPass)
		assert.Equal(t, 2, qb.GamesPlayed)
		assert.Equal(t, 2, tier.GamesPlayed)
	}
	assert.Equal(t, forward.Career.Blocks, backward.Career.Blocks)
	assert.ElementsMatch(t, forward.Career.Ledger, backward.Career.Ledger)
}

func TestRollupSeasonAndCareerLedgersAreIndependent(t *testing.T) {
	// Career already has the game (for example after a season reset), season
	// does not: only the season tier moves.
	current := Tiers{
		Career: &TotalStats{Key: qb12, Accumulator: Accumulator{Ledger: Ledger{"g1"}, GamesPlayed: 1, Blocks: qbGame(3, 60, 30)}},
	}

	next, res, err := Rollup(qb12, qbGame(3, 60, 30), "g1", 2024, current)
	require.NoError(t, err)
	assert.True(t, res.SeasonRecordUpdated)
	assert.False(t, res.CareerRecordUpdated)
	assert.Equal(t, 1, next.Career.GamesPlayed)
	assert.Equal(t, 60, next.Career.Blocks[stats.QB].(*stats.QuarterbackStats).PassingYards)
}

func TestGameTierIsOverwritten(t *testing.T) {
	first, _, err := Rollup(qb12, qbGame(3, 60, 30), "g1", 2024, Tiers{})
	require.NoError(t, err)

	corrected, _, err := Rollup(qb12, qbGame(4, 70, 30), "g1", 2024, first)
	require.NoError(t, err)
	assert.Equal(t, 70, corrected.Game.Blocks[stats.QB].(*stats.QuarterbackStats).PassingYards)
	assert.Equal(t, 60, corrected.Season.Blocks[stats.QB].(*stats.QuarterbackStats).PassingYards)
}

func TestLedgerAddIsDuplicateFree(t *testing.T) {
	l := Ledger{"a"}.Add("b").Add("a")
	assert.Equal(t, Ledger{"a", "b"}, l)
}

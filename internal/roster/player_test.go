package roster

import (
	"testing"
	"time"

	"github.com/fortuna/gridiron/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 9, 8, 12, 0, 0, 0, time.UTC)

func TestMergeCreatesRecord(t *testing.T) {
	key := Key{Team: "TeamB", Jersey: 12}
	delta := &stats.QuarterbackStats{Base: stats.Base{GamesPlayed: 1}, PassingAttempts: 1, PassingCompletions: 1, PassingYards: 25}

	rec, err := Merge(key, nil, delta, now)
	require.NoError(t, err)

	assert.Equal(t, "TeamB", rec.TeamName)
	assert.Equal(t, 12, rec.JerseyNumber)
	assert.Equal(t, "#12", rec.DisplayName)
	assert.Equal(t, stats.QB, rec.PrimaryPosition)
	assert.Equal(t, []stats.Position{stats.QB}, rec.Positions)
	assert.Equal(t, 100.0, rec.Stats[stats.QB].(*stats.QuarterbackStats).CompletionPct)
}

func TestMergeNeverChangesPrimaryPosition(t *testing.T) {
	key := Key{Team: "TeamA", Jersey: 22}
	rec, err := Merge(key, nil, &stats.RunningBackStats{}, now)
	require.NoError(t, err)

	rec, err = Merge(key, rec, &stats.WideReceiverStats{ReceivingLine: stats.ReceivingLine{Receptions: 4}}, now)
	require.NoError(t, err)
	rec, err = Merge(key, rec, &stats.WideReceiverStats{ReceivingLine: stats.ReceivingLine{Receptions: 4}}, now)
	require.NoError(t, err)

	assert.Equal(t, stats.RB, rec.PrimaryPosition)
	assert.ElementsMatch(t, []stats.Position{stats.RB, stats.WR}, rec.Positions)
	assert.Equal(t, 8, rec.Stats[stats.WR].(*stats.WideReceiverStats).Receptions)
}

func TestMergeDoesNotMutateExisting(t *testing.T) {
	key := Key{Team: "TeamA", Jersey: 3}
	first, err := Merge(key, nil, &stats.KickerStats{PatAttempts: 1, PatMade: 1}, now)
	require.NoError(t, err)

	second, err := Merge(key, first, &stats.KickerStats{PatAttempts: 2, PatMade: 1}, now)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Stats[stats.K].(*stats.KickerStats).PatAttempts)
	assert.Equal(t, 3, second.Stats[stats.K].(*stats.KickerStats).PatAttempts)
}

func TestMergeAllUsesDisplayOrderForPrimary(t *testing.T) {
	key := Key{Team: "TeamA", Jersey: 5}
	rec, err := MergeAll(key, nil, stats.Blocks{
		stats.WR: &stats.WideReceiverStats{},
		stats.RB: &stats.RunningBackStats{},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, stats.RB, rec.PrimaryPosition)
	assert.Len(t, rec.Stats, 2)
}

func TestTouchAddsPositionsWithoutStats(t *testing.T) {
	key := Key{Team: "TeamA", Jersey: 50}
	rec := Touch(key, nil, stats.Blocks{stats.LB: &stats.LinebackerStats{DefenseLine: stats.DefenseLine{Tackles: 9}}}, now)
	require.NotNil(t, rec)
	assert.Equal(t, stats.LB, rec.PrimaryPosition)
	assert.Equal(t, 0, rec.Stats[stats.LB].(*stats.LinebackerStats).Tackles)
}

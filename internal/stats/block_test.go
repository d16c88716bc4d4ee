package stats

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeAddsCountsAndKeepsLongest(t *testing.T) {
	first := &QuarterbackStats{Base: Base{GamesPlayed: 1}, PassingAttempts: 10, PassingCompletions: 6, PassingYards: 80, LongestPass: 40}
	second := &QuarterbackStats{Base: Base{GamesPlayed: 1}, PassingAttempts: 10, PassingCompletions: 9, PassingYards: 120, LongestPass: 25}

	merged, err := Merge(first, second)
	require.NoError(t, err)

	qb := merged.(*QuarterbackStats)
	assert.Equal(t, 2, qb.GamesPlayed)
	assert.Equal(t, 20, qb.PassingAttempts)
	assert.Equal(t, 15, qb.PassingCompletions)
	assert.Equal(t, 200, qb.PassingYards)
	assert.Equal(t, 40, qb.LongestPass)
	assert.Equal(t, 75.0, qb.CompletionPct)
	assert.Equal(t, 10.0, qb.YardsPerAttempt)

	assert.Equal(t, 10, first.PassingAttempts, "inputs are not modified")
}

func TestMergeRecomputesDerivedFields(t *testing.T) {
	// A stale derived value on either side must not leak into the result.
	a := &KickerStats{FieldGoalAttempts: 2, FieldGoalsMade: 1, FieldGoalPct: 99}
	b := &KickerStats{FieldGoalAttempts: 2, FieldGoalsMade: 2, FieldGoalPct: 42}

	merged, err := Merge(a, b)
	require.NoError(t, err)
	assert.Equal(t, 75.0, merged.(*KickerStats).FieldGoalPct)
}

func TestMergeIntoNilTakesDelta(t *testing.T) {
	delta := &RunningBackStats{RushingLine: RushingLine{RushingAttempts: 3, FrontRushYards: 13, BackRushYards: 3}}

	merged, err := Merge(nil, delta)
	require.NoError(t, err)

	rb := merged.(*RunningBackStats)
	assert.Equal(t, 10, rb.RushingYards)
	assert.Equal(t, 3.33, rb.YardsPerCarry)
	assert.NotSame(t, delta, rb)
}

func TestMergePositionMismatch(t *testing.T) {
	_, err := Merge(&RunningBackStats{}, &WideReceiverStats{})
	assert.ErrorIs(t, err, ErrPositionMismatch)
}

func TestBlocksMergeKeepsPositionsIsolated(t *testing.T) {
	current := Blocks{
		RB: &RunningBackStats{RushingLine: RushingLine{RushingAttempts: 5, FrontRushYards: 30}},
		WR: &WideReceiverStats{ReceivingLine: ReceivingLine{Receptions: 2, ReceivingYards: 18}},
	}
	delta := Blocks{
		RB: &RunningBackStats{RushingLine: RushingLine{RushingAttempts: 1, FrontRushYards: 4}},
	}

	merged, err := current.Merge(delta)
	require.NoError(t, err)

	assert.Equal(t, 6, merged[RB].(*RunningBackStats).RushingAttempts)
	assert.Equal(t, 34, merged[RB].(*RunningBackStats).RushingYards)

	wr := merged[WR].(*WideReceiverStats)
	assert.Equal(t, 2, wr.Receptions)
	assert.Equal(t, 18, wr.ReceivingYards)
	assert.Equal(t, 0, wr.RushingAttempts)
}

func TestSeedSetsGamesPlayed(t *testing.T) {
	for _, p := range Positions {
		b := Seed(p)
		require.NotNil(t, b, p)
		assert.Equal(t, p, b.Position())
		assert.Equal(t, 1, GamesPlayed(b))
	}
}

func TestKickerBands(t *testing.T) {
	k := &KickerStats{}
	k.AddFieldGoal(19, true)
	k.AddFieldGoal(40, true)
	k.AddFieldGoal(49, false)
	k.AddFieldGoal(55, true)

	assert.Equal(t, 4, k.FieldGoalAttempts)
	assert.Equal(t, 3, k.FieldGoalsMade)
	assert.Equal(t, 1, k.Made1To19)
	assert.Equal(t, 2, k.Attempts40To49)
	assert.Equal(t, 1, k.Made40To49)
	assert.Equal(t, 1, k.Made50Plus)
	assert.Equal(t, 55, k.LongestFieldGoal)
}

func TestBlocksJSONDecodesConcreteTypes(t *testing.T) {
	in := Blocks{
		LB: &LinebackerStats{Base: Base{GamesPlayed: 3}, DefenseLine: DefenseLine{Tackles: 14, Sacks: 1.5}},
		P:  &PunterStats{Punts: 4, PuntYards: 170},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Blocks
	require.NoError(t, json.Unmarshal(data, &out))

	lb, ok := out[LB].(*LinebackerStats)
	require.True(t, ok)
	assert.Equal(t, 14, lb.Tackles)
	assert.Equal(t, 1.5, lb.Sacks)
	assert.Equal(t, 42.5, out[P].(*PunterStats).AveragePunt)
}

func TestFieldsFlattensEmbeddedLines(t *testing.T) {
	fields := Fields(&WideReceiverStats{
		RushingLine:     RushingLine{FrontRushYards: 7},
		ReceivingLine:   ReceivingLine{Receptions: 3},
		PassDownFumbles: 1,
	})

	assert.Equal(t, 7.0, fields["frontRushYard"])
	assert.Equal(t, 3.0, fields["receptions"])
	assert.Equal(t, 1.0, fields["passDownFumbles"])
	assert.Contains(t, fields, "gamesPlayed")
}

func TestParsePositionAliases(t *testing.T) {
	tests := map[string]Position{
		"qb": QB, " CB ": DB, "fs": DB, "OLB": LB, "de": DL, "OT": OL, "hb": RB, "PK": K,
	}
	for raw, want := range tests {
		got, err := ParsePosition(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParsePosition("coach")
	assert.Error(t, err)
}

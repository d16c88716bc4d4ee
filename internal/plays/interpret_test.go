package plays

import (
	"testing"

	"github.com/fortuna/gridiron/internal/clip"
	"github.com/stretchr/testify/assert"
)

func tags(values ...string) []*string {
	out := make([]*string, 0, len(values)+1)
	for i := range values {
		out = append(out, &values[i])
	}
	return append(out, nil)
}

func TestTouchdownKindFollowsPlayType(t *testing.T) {
	tests := []struct {
		playType clip.PlayType
		want     TouchdownKind
	}{
		{clip.Pass, ReceivingTouchdown},
		{clip.Run, RushingTouchdown},
		{clip.Return, ReturnTouchdown},
		{clip.None, OtherTouchdown},
	}
	for _, tt := range tests {
		o := Interpret(tags("TOUCHDOWN"), tt.playType)
		assert.True(t, o.IsTouchdown)
		assert.Equal(t, tt.want, o.TouchdownKind, tt.playType)
	}

	assert.Equal(t, NoTouchdown, Interpret(tags("SACK"), clip.Pass).TouchdownKind)
}

func TestFumbleLost(t *testing.T) {
	tests := []struct {
		name string
		tags []*string
		lost bool
	}{
		{"recovered by defense", tags("FUMBLE", "FUMBLE_RECOVERED_BY_DEFENSE"), true},
		{"turnover tag", tags("FUMBLE", "TURNOVER"), true},
		{"offense kept it", tags("FUMBLE", "FUMBLE_RECOVERED_BY_OFFENSE"), false},
		{"conflicting recovery tags", tags("FUMBLE", "FUMBLE_RECOVERED_BY_DEFENSE", "FUMBLE_RECOVERED_BY_OFFENSE"), false},
		{"no recovery recorded", tags("FUMBLE"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Interpret(tt.tags, clip.Run)
			assert.True(t, o.IsFumble)
			assert.Equal(t, tt.lost, o.IsFumbleLost)
			assert.Equal(t, tt.lost, o.IsTurnover)
		})
	}
}

func TestInterceptionIsTurnover(t *testing.T) {
	o := Interpret(tags("INTERCEPT"), clip.NoPass)
	assert.True(t, o.IsInterception)
	assert.True(t, o.IsTurnover)
}

func TestUnknownAndAliasedTags(t *testing.T) {
	o := Interpret(tags(" tfl ", "field goal good", "BLOCKED_KICK", "penalty_on_offense"), clip.Run)
	assert.True(t, o.IsTackleForLoss)
	assert.True(t, o.IsFieldGoalGood)
	assert.True(t, o.IsPenaltyOffense)
	assert.False(t, o.IsTurnover)
}

func TestSpecialTeamsReturn(t *testing.T) {
	assert.True(t, Interpret(tags("PUNT"), clip.Return).IsSpecialTeamsReturn())
	assert.False(t, Interpret(tags("KICKOFF", "FUMBLE_RECOVERED_BY_DEFENSE"), clip.Return).IsSpecialTeamsReturn())
}

func TestTurnoverTouchdownBelongsToDefense(t *testing.T) {
	tests := []struct {
		name     string
		tags     []*string
		playType clip.PlayType
	}{
		{"pick six on the pass clip", tags("INTERCEPT", "TOUCHDOWN"), clip.Pass},
		{"pick six on an incompletion", tags("INTERCEPT", "TOUCHDOWN"), clip.NoPass},
		{"interception return", tags("INTERCEPT", "TOUCHDOWN"), clip.Return},
		{"scoop and score", tags("FUMBLE", "FUMBLE_RECOVERED_BY_DEFENSE", "TOUCHDOWN"), clip.Run},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, DefensiveTouchdown, Interpret(tt.tags, tt.playType).TouchdownKind)
		})
	}

	kept := Interpret(tags("FUMBLE", "FUMBLE_RECOVERED_BY_OFFENSE", "TOUCHDOWN"), clip.Run)
	assert.Equal(t, RushingTouchdown, kept.TouchdownKind)
}

func TestDownKey(t *testing.T) {
	str := func(s string) *string { return &s }
	g := &clip.Game{Clips: []clip.Clip{
		{ClipKey: "1", PlayType: clip.NoPass, OffensiveTeam: "TeamA", Tags: []*string{str("INTERCEPT")}},
		{ClipKey: "2", PlayType: clip.Return, OffensiveTeam: "TeamA", Tags: []*string{str("INTERCEPT")}},
		{ClipKey: "3", PlayType: clip.Punt, OffensiveTeam: "TeamB"},
		{ClipKey: "4", PlayType: clip.Return, OffensiveTeam: "TeamB", Tags: []*string{str("PUNT")}},
	}}

	assert.Equal(t, "1", DownKey(g, 0))
	assert.Equal(t, "1", DownKey(g, 1), "the interception return joins the interception")
	assert.Equal(t, "4", DownKey(g, 3), "a punt return stays its own down")
}

package clip

import (
	"strings"
	"testing"

	"github.com/fortuna/gridiron/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
	"gameKey": "2024-09-07-A-B",
	"date": "2024-09-07",
	"homeTeam": "TeamA",
	"awayTeam": "TeamB",
	"Clips": [
		{
			"clipKey": 1,
			"offensiveSide": "Away",
			"quarter": "1",
			"down": 1,
			"yardsToGo": 10,
			"playType": "PASS",
			"gainedYards": 25,
			"carrier1": {"jerseyNumber": 12, "position": "QB"},
			"carrier2": {"jerseyNumber": "81", "position": "wr"},
			"tackler1": {"jerseyNumber": 24, "position": "CB"},
			"significantPlayTags": ["TOUCHDOWN", null, null]
		},
		{
			"clipKey": "2",
			"offensiveSide": "home",
			"playType": "FG",
			"gainedYards": null,
			"endPosition": {"zone": "Opponent", "yardLine": 0}
		}
	]
}`

func TestNormalizeResolvesTeams(t *testing.T) {
	payload, err := Decode(strings.NewReader(samplePayload))
	require.NoError(t, err)

	game, err := Normalize(payload)
	require.NoError(t, err)

	assert.Equal(t, 2024, game.Context.Season)
	require.Len(t, game.Clips, 2)

	first := game.Clips[0]
	assert.Equal(t, "1", first.ClipKey)
	assert.Equal(t, "TeamB", first.OffensiveTeam)
	assert.Equal(t, "TeamA", first.DefensiveTeam)
	assert.Equal(t, 1, first.Quarter)
	assert.Equal(t, Pass, first.PlayType)
	assert.Equal(t, &Participant{JerseyNumber: 81, Position: stats.WR}, first.Carrier2)
	assert.Equal(t, stats.DB, first.Tackler1.Position)
	assert.Nil(t, first.Tackler2)
	require.Len(t, first.Tags, 3)

	second := game.Clips[1]
	assert.Equal(t, "TeamA", second.OffensiveTeam)
	assert.Equal(t, "TeamB", second.DefensiveTeam)
	assert.Equal(t, FieldGoal, second.PlayType)
	assert.Equal(t, 0, second.GainedYards)
	assert.Equal(t, &Spot{Zone: Opponent, YardLine: 0}, second.End)
}

func TestNormalizeFatalErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload GamePayload
		field   string
	}{
		{"missing home", GamePayload{GameKey: "g", Date: "2024-01-01", AwayTeam: "B", Clips: []RawClip{}}, "homeTeam"},
		{"missing away", GamePayload{GameKey: "g", Date: "2024-01-01", HomeTeam: "A", Clips: []RawClip{}}, "awayTeam"},
		{"missing clips", GamePayload{GameKey: "g", Date: "2024-01-01", HomeTeam: "A", AwayTeam: "B"}, "Clips"},
		{"missing key", GamePayload{Date: "2024-01-01", HomeTeam: "A", AwayTeam: "B", Clips: []RawClip{}}, "gameKey"},
		{"bad date", GamePayload{GameKey: "g", Date: "soon", HomeTeam: "A", AwayTeam: "B", Clips: []RawClip{}}, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(&tt.payload)
			require.ErrorIs(t, err, ErrInvalidPayload)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestNormalizeAcceptsEmptyClipList(t *testing.T) {
	game, err := Normalize(&GamePayload{GameKey: "g", Date: "2023-10-01", HomeTeam: "A", AwayTeam: "B", Clips: []RawClip{}})
	require.NoError(t, err)
	assert.Empty(t, game.Clips)
}

func TestParseSeasonLayouts(t *testing.T) {
	for _, date := range []string{"2022-11-05", "2022-11-05T18:00:00Z", "2022-11-05T18:00Z", "11/05/2022"} {
		season, err := ParseSeason(date)
		require.NoError(t, err, date)
		assert.Equal(t, 2022, season, date)
	}
}

func TestParsePlayType(t *testing.T) {
	assert.Equal(t, FieldGoal, ParsePlayType("fg"))
	assert.Equal(t, FieldGoal, ParsePlayType("FIELD_GOAL"))
	assert.Equal(t, NoPass, ParsePlayType("NOPASS"))
	assert.Equal(t, None, ParsePlayType("kneel"))
}

func TestNextDownSkipsSubEvents(t *testing.T) {
	game := &Game{Clips: []Clip{{ClipKey: "7"}, {ClipKey: "7"}, {ClipKey: "8", Down: 1}}}

	next := game.NextDown(0)
	require.NotNil(t, next)
	assert.Equal(t, "8", next.ClipKey)
	assert.Nil(t, game.NextDown(2))
}

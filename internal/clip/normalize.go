package clip

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fortuna/gridiron/internal/stats"
)

// ErrInvalidPayload marks a batch that cannot be processed at all.
var ErrInvalidPayload = errors.New("invalid game payload")

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04Z",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
}

// ParseSeason extracts the season year from a game date.
func ParseSeason(date string) (int, error) {
	date = strings.TrimSpace(date)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Year(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized date %q", date)
}

// Normalize validates a payload and resolves every clip's offensive and
// defensive team names. It has no side effects.
func Normalize(p *GamePayload) (*Game, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}

	home := strings.TrimSpace(p.HomeTeam)
	away := strings.TrimSpace(p.AwayTeam)
	switch {
	case home == "":
		return nil, fmt.Errorf("%w: missing homeTeam", ErrInvalidPayload)
	case away == "":
		return nil, fmt.Errorf("%w: missing awayTeam", ErrInvalidPayload)
	case p.Clips == nil:
		return nil, fmt.Errorf("%w: missing Clips", ErrInvalidPayload)
	case strings.TrimSpace(p.GameKey) == "":
		return nil, fmt.Errorf("%w: missing gameKey", ErrInvalidPayload)
	case home == away:
		return nil, fmt.Errorf("%w: homeTeam and awayTeam are both %q", ErrInvalidPayload, home)
	}

	season, err := ParseSeason(p.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	game := &Game{
		Context: GameContext{
			GameKey:    strings.TrimSpace(p.GameKey),
			Date:       p.Date,
			Season:     season,
			HomeTeam:   home,
			AwayTeam:   away,
			FinalScore: p.FinalScore,
		},
		Clips: make([]Clip, 0, len(p.Clips)),
	}

	for i, raw := range p.Clips {
		game.Clips = append(game.Clips, normalizeClip(i, raw, home, away))
	}
	return game, nil
}

func normalizeClip(i int, raw RawClip, home, away string) Clip {
	side := ParseSide(raw.OffensiveSide)
	offense, defense := away, home
	if side == Home {
		offense, defense = home, away
	}

	key := string(raw.ClipKey)
	if key == "" {
		key = fmt.Sprintf("#%d", i)
	}

	tags := raw.Tags
	if tags == nil {
		tags = raw.SignificantPlays
	}

	c := Clip{
		Index:          i,
		ClipKey:        key,
		OffensiveSide:  side,
		OffensiveTeam:  offense,
		DefensiveTeam:  defense,
		Quarter:        int(raw.Quarter),
		Down:           int(raw.Down),
		YardsToGo:      int(raw.YardsToGo),
		PlayType:       ParsePlayType(raw.PlayType),
		IsSpecialTeams: raw.IsSpecialTeams,
		Start:          spot(raw.StartPosition),
		End:            spot(raw.EndPosition),
		GainedYards:    int(raw.GainedYards),
		Carrier1:       participant(raw.Carrier1),
		Carrier2:       participant(raw.Carrier2),
		Tackler1:       participant(raw.Tackler1),
		Tackler2:       participant(raw.Tackler2),
		Tags:           tags,
	}
	return c
}

func spot(raw *rawSpot) *Spot {
	if raw == nil {
		return nil
	}
	zone := Own
	if strings.EqualFold(strings.TrimSpace(raw.Zone), string(Opponent)) {
		zone = Opponent
	}
	return &Spot{Zone: zone, YardLine: int(raw.YardLine)}
}

// participant drops empty slots and players whose position is not one of the
// tracked groups.
func participant(raw *rawPlayer) *Participant {
	if raw == nil || strings.TrimSpace(raw.Position) == "" {
		return nil
	}
	pos, err := stats.ParsePosition(raw.Position)
	if err != nil {
		return nil
	}
	return &Participant{JerseyNumber: int(raw.JerseyNumber), Position: pos}
}

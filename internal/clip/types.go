package clip

import (
	"strings"

	"github.com/fortuna/gridiron/internal/stats"
)

// PlayType classifies what happened on a down.
type PlayType string

const (
	Pass      PlayType = "PASS"
	NoPass    PlayType = "NOPASS"
	Run       PlayType = "RUN"
	Sack      PlayType = "SACK"
	Punt      PlayType = "PUNT"
	FieldGoal PlayType = "FIELDGOAL"
	PAT       PlayType = "PAT"
	Return    PlayType = "RETURN"
	None      PlayType = "NONE"
)

var playTypes = map[string]PlayType{
	"PASS":       Pass,
	"NOPASS":     NoPass,
	"INCOMPLETE": NoPass,
	"RUN":        Run,
	"SACK":       Sack,
	"PUNT":       Punt,
	"FIELDGOAL":  FieldGoal,
	"FG":         FieldGoal,
	"PAT":        PAT,
	"XP":         PAT,
	"RETURN":     Return,
	"NONE":       None,
}

// ParsePlayType maps a raw label onto a PlayType. Unknown labels become None
// so analyzers skip the clip.
func ParsePlayType(raw string) PlayType {
	key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), "_", ""))
	if pt, ok := playTypes[key]; ok {
		return pt
	}
	return None
}

// Side is the relative team reference used on the wire.
type Side string

const (
	Home Side = "Home"
	Away Side = "Away"
)

// ParseSide returns Home for any spelling of "home" and Away otherwise.
func ParseSide(raw string) Side {
	if strings.EqualFold(strings.TrimSpace(raw), string(Home)) {
		return Home
	}
	return Away
}

// Zone is the half of the field a yard line is measured in.
type Zone string

const (
	Own      Zone = "own"
	Opponent Zone = "opponent"
)

// Spot is a field position.
type Spot struct {
	Zone     Zone `json:"zone"`
	YardLine int  `json:"yardLine"`
}

// Participant identifies a player by jersey and position group.
type Participant struct {
	JerseyNumber int            `json:"jerseyNumber"`
	Position     stats.Position `json:"position"`
}

// Score is the final score reported with an upload.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Clip is one normalized down. OffensiveTeam and DefensiveTeam are absolute
// team names resolved from the relative OffensiveSide.
type Clip struct {
	Index          int          `json:"index"`
	ClipKey        string       `json:"clipKey"`
	OffensiveSide  Side         `json:"offensiveSide"`
	OffensiveTeam  string       `json:"offensiveTeam"`
	DefensiveTeam  string       `json:"defensiveTeam"`
	Quarter        int          `json:"quarter"`
	Down           int          `json:"down"`
	YardsToGo      int          `json:"yardsToGo"`
	PlayType       PlayType     `json:"playType"`
	IsSpecialTeams bool         `json:"isSpecialTeams"`
	Start          *Spot        `json:"startPosition,omitempty"`
	End            *Spot        `json:"endPosition,omitempty"`
	GainedYards    int          `json:"gainedYards"`
	Carrier1       *Participant `json:"carrier1,omitempty"`
	Carrier2       *Participant `json:"carrier2,omitempty"`
	Tackler1       *Participant `json:"tackler1,omitempty"`
	Tackler2       *Participant `json:"tackler2,omitempty"`
	Tags           []*string    `json:"significantPlayTags"`
}

// Carriers returns the two carrier slots. In a PASS clip the first slot is
// the passer and the second the receiver.
func (c *Clip) Carriers() [2]*Participant {
	return [2]*Participant{c.Carrier1, c.Carrier2}
}

// Tacklers returns the two tackler slots.
func (c *Clip) Tacklers() [2]*Participant {
	return [2]*Participant{c.Tackler1, c.Tackler2}
}

// TacklerCount is the number of distinct tacklers recorded.
func (c *Clip) TacklerCount() int {
	switch {
	case c.Tackler1 == nil && c.Tackler2 == nil:
		return 0
	case c.Tackler1 == nil || c.Tackler2 == nil:
		return 1
	case *c.Tackler1 == *c.Tackler2:
		return 1
	}
	return 2
}

// ReturnTeam is the team in possession at the end of a RETURN clip. A RETURN
// keeps the offensiveSide of the team that kicked or turned the ball over, so
// the returner always belongs to the clip's defensive team.
func (c *Clip) ReturnTeam() string {
	return c.DefensiveTeam
}

// TacklingTeam is the side that can make a tackle on the clip. On a RETURN
// that is the offensive team, covering the returner.
func (c *Clip) TacklingTeam() string {
	if c.PlayType == Return {
		return c.OffensiveTeam
	}
	return c.DefensiveTeam
}

// GameContext identifies a game and its two teams.
type GameContext struct {
	GameKey    string `json:"gameKey"`
	Date       string `json:"date"`
	Season     int    `json:"season"`
	HomeTeam   string `json:"homeTeam"`
	AwayTeam   string `json:"awayTeam"`
	FinalScore *Score `json:"finalScore,omitempty"`
}

// Opponent returns the other team of the game.
func (g GameContext) Opponent(team string) string {
	if team == g.HomeTeam {
		return g.AwayTeam
	}
	return g.HomeTeam
}

// Game is a normalized, immutable batch of clips for one game.
type Game struct {
	Context GameContext
	Clips   []Clip
}

// NextDown returns the first clip after index i that belongs to a different
// down (different clip key), or nil.
func (g *Game) NextDown(i int) *Clip {
	key := g.Clips[i].ClipKey
	for j := i + 1; j < len(g.Clips); j++ {
		if g.Clips[j].ClipKey != key {
			return &g.Clips[j]
		}
	}
	return nil
}

// DownTags returns the tags of every clip that shares clip i's key, in order.
// A down split into sub-events (a sack, then a fumble return) only tells the
// whole story when read together.
func (g *Game) DownTags(i int) []*string {
	key := g.Clips[i].ClipKey
	var out []*string
	for j := range g.Clips {
		if g.Clips[j].ClipKey == key {
			out = append(out, g.Clips[j].Tags...)
		}
	}
	return out
}

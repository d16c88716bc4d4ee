package teamstats

import (
	"fmt"
	"math"
	"sort"

	"github.com/fortuna/gridiron/internal/clip"
	"github.com/fortuna/gridiron/internal/plays"
	"github.com/fortuna/gridiron/internal/roster"
	"github.com/fortuna/gridiron/internal/stats"
)

// downCredit remembers which team counters a down already produced, so a
// down split across several clips is counted once.
type downCredit map[string]struct{}

func (d downCredit) once(clipKey, team, counter string) bool {
	k := clipKey + "\x00" + team + "\x00" + counter
	if _, done := d[k]; done {
		return false
	}
	d[k] = struct{}{}
	return true
}

// FromClips derives both teams' box scores by scanning the clips. The
// offense is credited with yardage and scores, the defense with turnovers
// forced, safeties and return yards.
func FromClips(game *clip.Game) Game {
	ctx := game.Context
	out := Game{}
	out.team(ctx.HomeTeam).GameKey = ctx.GameKey
	out.team(ctx.AwayTeam).GameKey = ctx.GameKey
	credit := downCredit{}

	for i := range game.Clips {
		c := &game.Clips[i]
		o := plays.Of(c)
		off, def := out.team(c.OffensiveTeam), out.team(c.DefensiveTeam)
		key := plays.DownKey(game, i)

		switch c.PlayType {
		case clip.Pass:
			off.PassAttempts++
			if !o.IsInterception {
				off.PassCompletions++
				off.PassingYards += c.GainedYards
			}
		case clip.NoPass:
			off.PassAttempts++
		case clip.Run:
			off.RushingAttempts++
			off.RushingYards += c.GainedYards
		case clip.Sack:
			if credit.once(key, off.TeamName, "sack") {
				off.SacksAllowed++
				def.SacksMade++
				if c.GainedYards < 0 {
					off.SackYardsLost += -c.GainedYards
				}
			}
		case clip.Punt:
			off.Punts++
			off.PuntYards += c.GainedYards
		case clip.FieldGoal:
			off.FieldGoalsAttempted++
			if o.IsFieldGoalGood {
				off.FieldGoalsMade++
				off.Points += FieldGoalPoints
			}
		case clip.PAT:
			off.PatAttempted++
			if o.IsPatGood {
				off.PatMade++
				off.Points += PatPoints
			}
		case clip.Return:
			def.ReturnYards += c.GainedYards
		case clip.None:
			if o.IsPenaltyOffense && credit.once(key, off.TeamName, "penalty") {
				off.Penalties++
			}
			if o.IsPenaltyDefense && credit.once(key, def.TeamName, "penalty") {
				def.Penalties++
			}
		}

		if o.IsTouchdown && credit.once(key, "", "touchdown") {
			scoreTouchdown(off, def, c, o)
		}
		if o.IsSafety && credit.once(key, "", "safety") {
			scorer := out.team(c.TacklingTeam())
			scorer.Safeties++
			scorer.Points += SafetyPoints
		}
		if o.IsTurnover && credit.once(key, off.TeamName, "turnover") {
			off.TurnoversCommitted++
			def.TurnoversForced++
			switch {
			case o.IsInterception:
				off.InterceptionsThrown++
			default:
				off.FumblesLost++
			}
		}
	}

	out.Finalize(ctx.HomeTeam, ctx.AwayTeam)
	return out
}

func scoreTouchdown(off, def *TeamGameStats, c *clip.Clip, o plays.Outcome) {
	switch o.TouchdownKind {
	case plays.ReceivingTouchdown:
		off.PassingTouchdowns++
	case plays.RushingTouchdown:
		off.RushingTouchdowns++
	case plays.ReturnTouchdown, plays.DefensiveTouchdown:
		// The returning side is the clip's defense.
		if o.TouchdownKind == plays.DefensiveTouchdown {
			def.DefensiveTouchdowns++
		} else {
			def.ReturnTouchdowns++
		}
		def.Touchdowns++
		def.Points += TouchdownPoints
		return
	}
	off.Touchdowns++
	off.Points += TouchdownPoints
}

// FromPlayers derives box scores by summing the analyzers' player blocks.
func FromPlayers(ctx clip.GameContext, players map[roster.Key]stats.Blocks) Game {
	out := Game{}
	out.team(ctx.HomeTeam).GameKey = ctx.GameKey
	out.team(ctx.AwayTeam).GameKey = ctx.GameKey

	keys := make([]roster.Key, 0, len(players))
	for k := range players {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Team != keys[j].Team {
			return keys[i].Team < keys[j].Team
		}
		return keys[i].Jersey < keys[j].Jersey
	})

	sacks := map[string]float64{}
	for _, key := range keys {
		t := out.team(key.Team)
		for _, block := range players[key] {
			switch b := block.(type) {
			case *stats.QuarterbackStats:
				t.PassAttempts += b.PassingAttempts
				t.PassCompletions += b.PassingCompletions
				t.PassingYards += b.PassingYards
				t.PassingTouchdowns += b.PassingTouchdowns
				t.InterceptionsThrown += b.Interceptions
				t.SacksAllowed += b.Sacks
				t.SackYardsLost += b.SackYardsLost
				t.RushingAttempts += b.RushingAttempts
				t.RushingYards += b.RushingYards
				t.RushingTouchdowns += b.RushingTouchdowns
			case *stats.RunningBackStats:
				addCarrier(t, &b.RushingLine, &b.ReturnLine)
			case *stats.WideReceiverStats:
				addCarrier(t, &b.RushingLine, &b.ReturnLine)
			case *stats.TightEndStats:
				addCarrier(t, &b.RushingLine, &b.ReturnLine)
			case *stats.KickerStats:
				t.FieldGoalsAttempted += b.FieldGoalAttempts
				t.FieldGoalsMade += b.FieldGoalsMade
				t.PatAttempted += b.PatAttempts
				t.PatMade += b.PatMade
			case *stats.PunterStats:
				t.Punts += b.Punts
				t.PuntYards += b.PuntYards
			case *stats.OffensiveLineStats:
				t.Penalties += b.Penalties
			case *stats.DefensiveLineStats:
				sacks[key.Team] += addDefender(t, &b.DefenseLine)
			case *stats.LinebackerStats:
				sacks[key.Team] += addDefender(t, &b.DefenseLine)
			case *stats.DefensiveBackStats:
				sacks[key.Team] += addDefender(t, &b.DefenseLine)
			}
		}
	}

	for team, s := range sacks {
		out.team(team).SacksMade = int(math.Round(s))
	}
	for _, t := range out {
		t.Touchdowns = t.PassingTouchdowns + t.RushingTouchdowns + t.ReturnTouchdowns + t.DefensiveTouchdowns
		t.Points = TouchdownPoints*t.Touchdowns + FieldGoalPoints*t.FieldGoalsMade + PatPoints*t.PatMade + SafetyPoints*t.Safeties
	}

	out.Finalize(ctx.HomeTeam, ctx.AwayTeam)
	return out
}

func addCarrier(t *TeamGameStats, rush *stats.RushingLine, ret *stats.ReturnLine) {
	t.RushingAttempts += rush.RushingAttempts
	t.RushingYards += rush.FrontRushYards - rush.BackRushYards
	t.RushingTouchdowns += rush.RushingTouchdowns
	t.ReturnYards += ret.ReturnYards
	t.ReturnTouchdowns += ret.ReturnTouchdowns
}

func addDefender(t *TeamGameStats, d *stats.DefenseLine) float64 {
	t.DefensiveTouchdowns += d.DefensiveTouchdowns
	t.Safeties += d.Safeties
	t.ReturnYards += d.InterceptionYards + d.FumbleRecoveryYards
	return d.Sacks
}

// Discrepancy is one field on which the two derivations disagree.
type Discrepancy struct {
	Team      string `json:"team"`
	Field     string `json:"field"`
	FromClips int    `json:"fromClips"`
	FromPlays int    `json:"fromPlayers"`
}

func (d Discrepancy) String() string {
	return fmt.Sprintf("%s %s: clips=%d players=%d", d.Team, d.Field, d.FromClips, d.FromPlays)
}

// Reconcile compares the fields both derivations can compute. Clip-only
// fields such as turnovers and penalties on defensive fouls are not
// compared.
func Reconcile(fromClips, fromPlayers Game) []Discrepancy {
	fields := []struct {
		name string
		get  func(*TeamGameStats) int
	}{
		{"points", func(t *TeamGameStats) int { return t.Points }},
		{"passAttempts", func(t *TeamGameStats) int { return t.PassAttempts }},
		{"passCompletions", func(t *TeamGameStats) int { return t.PassCompletions }},
		{"passingYards", func(t *TeamGameStats) int { return t.PassingYards }},
		{"passingTouchdowns", func(t *TeamGameStats) int { return t.PassingTouchdowns }},
		{"rushingAttempts", func(t *TeamGameStats) int { return t.RushingAttempts }},
		{"rushingYards", func(t *TeamGameStats) int { return t.RushingYards }},
		{"rushingTouchdowns", func(t *TeamGameStats) int { return t.RushingTouchdowns }},
		{"fieldGoalsMade", func(t *TeamGameStats) int { return t.FieldGoalsMade }},
		{"fieldGoalsAttempted", func(t *TeamGameStats) int { return t.FieldGoalsAttempted }},
		{"patMade", func(t *TeamGameStats) int { return t.PatMade }},
		{"patAttempted", func(t *TeamGameStats) int { return t.PatAttempted }},
		{"punts", func(t *TeamGameStats) int { return t.Punts }},
		{"puntYards", func(t *TeamGameStats) int { return t.PuntYards }},
	}

	teams := make([]string, 0, len(fromClips))
	for name := range fromClips {
		teams = append(teams, name)
	}
	sort.Strings(teams)

	var out []Discrepancy
	for _, name := range teams {
		a := fromClips[name]
		b, ok := fromPlayers[name]
		if !ok {
			b = &TeamGameStats{TeamName: name}
		}
		for _, f := range fields {
			if av, bv := f.get(a), f.get(b); av != bv {
				out = append(out, Discrepancy{Team: name, Field: f.name, FromClips: av, FromPlays: bv})
			}
		}
	}
	return out
}

// CheckFinalScore compares derived points with a reported final score.
func CheckFinalScore(ctx clip.GameContext, g Game) []Discrepancy {
	if ctx.FinalScore == nil {
		return nil
	}
	var out []Discrepancy
	if home := g[ctx.HomeTeam]; home != nil && home.Points != ctx.FinalScore.Home {
		out = append(out, Discrepancy{Team: ctx.HomeTeam, Field: "finalScore", FromClips: home.Points, FromPlays: ctx.FinalScore.Home})
	}
	if away := g[ctx.AwayTeam]; away != nil && away.Points != ctx.FinalScore.Away {
		out = append(out, Discrepancy{Team: ctx.AwayTeam, Field: "finalScore", FromClips: away.Points, FromPlays: ctx.FinalScore.Away})
	}
	return out
}

package analyzer

import (
	"github.com/fortuna/gridiron/internal/clip"
	"github.com/fortuna/gridiron/internal/stats"
)

// snapAndEndZone converts the line-of-scrimmage gain recorded on a field
// goal clip into the actual kick distance: 10 yards of end zone plus a
// 7 yard snap.
const snapAndEndZone = 17

// FieldGoalDistance is the kick distance for a field goal clip.
func FieldGoalDistance(gainedYards int) int {
	return gainedYards + snapAndEndZone
}

type kBlock = *stats.KickerStats

// Kicker counts field goals by distance band, extra points and kickoffs.
func Kicker() Analyzer {
	return &fold[kBlock]{
		pos:   stats.K,
		roles: []Role{Carrier},
		team:  kickingTeam,
		rules: map[clip.PlayType]rule[kBlock]{
			clip.FieldGoal: func(b kBlock, p *Play) {
				if !p.Once("fg") {
					return
				}
				b.AddFieldGoal(FieldGoalDistance(p.Clip.GainedYards), p.Outcome.IsFieldGoalGood)
			},
			clip.PAT: func(b kBlock, p *Play) {
				if !p.Once("pat") {
					return
				}
				b.PatAttempts++
				if p.Outcome.IsPatGood {
					b.PatMade++
				}
			},
		},
		every: func(b kBlock, p *Play) {
			if !p.Outcome.IsKickoff || !p.Once("kickoff") {
				return
			}
			b.Kickoffs++
			if p.Outcome.IsTouchback {
				b.KickoffTouchbacks++
			}
		},
	}
}

type pBlock = *stats.PunterStats

// Punter counts punts, yardage, touchbacks and kicks downed inside the 20.
func Punter() Analyzer {
	return &fold[pBlock]{
		pos:   stats.P,
		roles: []Role{Carrier},
		team:  kickingTeam,
		rules: map[clip.PlayType]rule[pBlock]{
			clip.Punt: punt,
		},
	}
}

func punt(b pBlock, p *Play) {
	if !p.Once("punt") {
		return
	}
	c := p.Clip
	b.Punts++
	b.PuntYards += c.GainedYards
	if c.GainedYards > b.LongestPunt {
		b.LongestPunt = c.GainedYards
	}

	switch {
	case p.Outcome.IsTouchback || (c.End != nil && c.End.YardLine == 0):
		b.Touchbacks++
	case c.End != nil && c.End.Zone == clip.Opponent && c.End.YardLine >= 1 && c.End.YardLine <= 20:
		b.Inside20++
	}
}

type olBlock = *stats.OffensiveLineStats

// OffensiveLine credits penalties and sacks allowed to linemen listed on the
// clip.
func OffensiveLine() Analyzer {
	return &fold[olBlock]{
		pos:   stats.OL,
		roles: []Role{Carrier},
		team:  offenseTeam,
		rules: map[clip.PlayType]rule[olBlock]{
			clip.None: func(b olBlock, p *Play) {
				if p.Outcome.IsPenaltyOffense && p.Once("penalty") {
					b.Penalties++
				}
			},
			clip.Sack: func(b olBlock, p *Play) {
				if p.Outcome.IsSack && p.Once("sackAllowed") {
					b.SacksAllowed++
				}
			},
		},
	}
}

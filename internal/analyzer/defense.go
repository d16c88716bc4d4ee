package analyzer

import (
	"github.com/fortuna/gridiron/internal/clip"
	"github.com/fortuna/gridiron/internal/plays"
	"github.com/fortuna/gridiron/internal/stats"
)

// DefensiveLine credits tackles, sacks (also counted as tackles for loss),
// forced fumbles, pass breakups and turnover returns.
func DefensiveLine() Analyzer {
	return defenseAnalyzer(stats.DL, true, func(b *stats.DefensiveLineStats) *stats.DefenseLine { return &b.DefenseLine })
}

// Linebacker uses the defensive line rules.
func Linebacker() Analyzer {
	return defenseAnalyzer(stats.LB, true, func(b *stats.LinebackerStats) *stats.DefenseLine { return &b.DefenseLine })
}

// DefensiveBack uses the defensive line rules, except that a sack is not
// also a tackle for loss.
func DefensiveBack() Analyzer {
	return defenseAnalyzer(stats.DB, false, func(b *stats.DefensiveBackStats) *stats.DefenseLine { return &b.DefenseLine })
}

func defenseAnalyzer[B stats.Block](pos stats.Position, sackIsTFL bool, line func(B) *stats.DefenseLine) Analyzer {
	tackle := func(b B, p *Play) {
		if p.Role == Tackler {
			tackleRules(line(b), p, sackIsTFL)
		}
	}
	return &fold[B]{
		pos:   pos,
		roles: []Role{Tackler, Carrier},
		team:  defenseTeam,
		rules: map[clip.PlayType]rule[B]{
			clip.Pass:   tackle,
			clip.NoPass: tackle,
			clip.Run:    tackle,
			clip.Sack:   tackle,
			clip.Return: func(b B, p *Play) {
				if p.Role == Carrier {
					turnoverReturn(line(b), p)
				}
			},
		},
		every: func(b B, p *Play) {
			if p.Role == Tackler {
				tagRules(line(b), p)
			}
		},
		keep: involved,
	}
}

// involved reports whether a defender's appearance can earn any credit.
// Ball carriers only count on returns. Coverage players tackling a kick
// returner are not recorded unless a tag credits them.
func involved(p *Play) bool {
	c := p.Clip
	if p.Role == Carrier {
		return c.PlayType == clip.Return
	}
	switch c.PlayType {
	case clip.Pass, clip.NoPass, clip.Run, clip.Sack:
		return true
	}
	o := p.Outcome
	if o.IsTackleForLoss {
		return true
	}
	return p.Slot == 1 && (o.IsSafety || (o.IsFumble && c.PlayType != clip.Return))
}

// tackleRules handles the play-type specific credits for a tackler.
func tackleRules(d *stats.DefenseLine, p *Play, sackIsTFL bool) {
	c := p.Clip
	o := p.Outcome

	if c.PlayType != clip.NoPass && !o.IsInterception && p.Once("tackle") {
		d.Tackles++
	}

	if (c.PlayType == clip.Sack || o.IsSack) && p.Once("sack") {
		if c.TacklerCount() > 1 {
			d.Sacks += 0.5
		} else {
			d.Sacks++
		}
		if sackIsTFL && p.Once("tfl") {
			d.TacklesForLoss++
		}
	}

	if c.PlayType == clip.NoPass && p.Slot == 1 && !o.IsInterception && p.Once("passDefended") {
		d.PassesDefended++
	}

	if p.Returned || p.Slot != 1 {
		return
	}

	// A turnover with no return clip is credited to the primary tackler
	// with no return yards.
	if (c.PlayType == clip.Pass || c.PlayType == clip.NoPass) && o.IsInterception && p.Once("interception") {
		d.Interceptions++
	}
	if o.TouchdownKind == plays.DefensiveTouchdown && p.Once("defensiveTouchdown") {
		d.DefensiveTouchdowns++
	}
}

// tagRules handles the tag-gated credits that apply on any play type.
func tagRules(d *stats.DefenseLine, p *Play) {
	o := p.Outcome
	if o.IsTackleForLoss && p.Once("tfl") {
		d.TacklesForLoss++
	}
	if o.IsFumble && p.Slot == 1 && p.Clip.PlayType != clip.Return && p.Once("forcedFumble") {
		d.ForcedFumbles++
	}
	if o.IsSafety && p.Slot == 1 && p.Once("safety") {
		d.Safeties++
	}
}

// turnoverReturn credits a defender carrying the ball on a RETURN clip.
func turnoverReturn(d *stats.DefenseLine, p *Play) {
	o := p.Outcome
	gain := p.Clip.GainedYards

	switch {
	case o.IsInterception:
		if p.Once("interception") {
			d.Interceptions++
		}
		if p.Once("interceptionYards") {
			d.InterceptionYards += gain
			if gain > d.LongestInterceptionReturn {
				d.LongestInterceptionReturn = gain
			}
		}
	case o.IsFumbleRecoveredByDefense:
		if p.Once("fumbleRecovery") {
			d.FumbleRecoveries++
			d.FumbleRecoveryYards += gain
		}
	default:
		return
	}

	if o.IsTouchdown && p.Once("defensiveTouchdown") {
		d.DefensiveTouchdowns++
	}
}

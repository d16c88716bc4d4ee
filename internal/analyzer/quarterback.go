package analyzer

import (
	"github.com/fortuna/gridiron/internal/clip"
	"github.com/fortuna/gridiron/internal/plays"
	"github.com/fortuna/gridiron/internal/stats"
)

type qb = *stats.QuarterbackStats

// Quarterback counts passing, sacks taken, and designed or scramble runs.
// Passing rules apply only when the QB is the passer in carrier slot 1.
func Quarterback() Analyzer {
	return &fold[qb]{
		pos:   stats.QB,
		roles: []Role{Carrier},
		team:  offenseTeam,
		rules: map[clip.PlayType]rule[qb]{
			clip.Pass:   qbPass,
			clip.NoPass: qbIncomplete,
			clip.Sack:   qbSack,
			clip.Run:    qbRun,
		},
		every: qbFumble,
	}
}

func qbPass(b qb, p *Play) {
	if p.Slot != 1 {
		return
	}
	b.PassingAttempts++
	if p.Outcome.IsInterception {
		b.Interceptions++
		return
	}

	gain := p.Clip.GainedYards
	b.PassingCompletions++
	b.PassingYards += gain
	if gain > b.LongestPass {
		b.LongestPass = gain
	}
	if p.Outcome.TouchdownKind == plays.ReceivingTouchdown {
		b.PassingTouchdowns++
	}
}

func qbIncomplete(b qb, p *Play) {
	if p.Slot != 1 {
		return
	}
	b.PassingAttempts++
	if p.Outcome.IsInterception {
		b.Interceptions++
	}
}

func qbSack(b qb, p *Play) {
	if !p.Once("sack") {
		return
	}
	b.Sacks++
	if p.Clip.GainedYards < 0 {
		b.SackYardsLost += -p.Clip.GainedYards
	}
}

func qbRun(b qb, p *Play) {
	gain := p.Clip.GainedYards
	b.RushingAttempts++
	b.RushingYards += gain
	if gain > b.LongestRush {
		b.LongestRush = gain
	}
	if p.Outcome.TouchdownKind == plays.RushingTouchdown {
		b.RushingTouchdowns++
	}
}

func qbFumble(b qb, p *Play) {
	countFumble(&b.FumbleLine, p)
}

// countFumble credits a fumble to the ball carrier once per down.
func countFumble(f *stats.FumbleLine, p *Play) bool {
	if !p.Outcome.IsFumble || p.Role != Carrier {
		return false
	}
	// On a PASS the receiver in slot 2 is the one holding the ball.
	if p.Clip.PlayType == clip.Pass && p.Clip.Carrier2 != nil && p.Slot == 1 {
		return false
	}
	if !p.Once("fumble") {
		return false
	}
	f.Fumbles++
	if p.Down.IsFumbleLost {
		f.FumblesLost++
	}
	return true
}

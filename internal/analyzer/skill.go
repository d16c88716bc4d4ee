package analyzer

import (
	"github.com/fortuna/gridiron/internal/clip"
	"github.com/fortuna/gridiron/internal/plays"
	"github.com/fortuna/gridiron/internal/stats"
)

func rushCarry(r *stats.RushingLine, p *Play) {
	c := p.Clip
	gain := c.GainedYards

	r.RushingAttempts++
	if (p.Outcome.IsTackleForLoss || p.Outcome.IsSafety) && gain < 0 {
		r.BackRushYards += -gain
	} else {
		r.FrontRushYards += gain
	}
	if gain > r.LongestRush {
		r.LongestRush = gain
	}
	if p.Outcome.TouchdownKind == plays.RushingTouchdown {
		r.RushingTouchdowns++
	}
	if p.FirstDown() {
		r.RushingFirstDowns++
	}
}

// catchPass credits the receiver in carrier slot 2.
func catchPass(r *stats.ReceivingLine, p *Play) {
	if p.Slot != 2 {
		return
	}
	r.Targets++
	if p.Outcome.IsInterception {
		return
	}

	gain := p.Clip.GainedYards
	r.Receptions++
	r.ReceivingYards += gain
	if gain > r.LongestReception {
		r.LongestReception = gain
	}
	if p.Outcome.TouchdownKind == plays.ReceivingTouchdown {
		r.ReceivingTouchdowns++
	}
	if p.FirstDown() {
		r.ReceivingFirstDowns++
	}
}

func missedTarget(r *stats.ReceivingLine, p *Play) {
	if p.Slot == 2 {
		r.Targets++
	}
}

// kickReturn credits kickoff and punt returns. Turnover returns are left to
// the defensive analyzers.
func kickReturn(r *stats.ReturnLine, p *Play) {
	if !p.Outcome.IsSpecialTeamsReturn() || !p.Once("return") {
		return
	}
	gain := p.Clip.GainedYards
	r.ReturnAttempts++
	r.ReturnYards += gain
	if gain > r.LongestReturn {
		r.LongestReturn = gain
	}
	if p.Outcome.TouchdownKind == plays.ReturnTouchdown {
		r.ReturnTouchdowns++
	}
}

func skillRules[B stats.Block](lines func(B) (*stats.RushingLine, *stats.ReceivingLine, *stats.ReturnLine)) map[clip.PlayType]rule[B] {
	return map[clip.PlayType]rule[B]{
		clip.Run: func(b B, p *Play) {
			rush, _, _ := lines(b)
			rushCarry(rush, p)
		},
		clip.Pass: func(b B, p *Play) {
			_, rec, _ := lines(b)
			catchPass(rec, p)
		},
		clip.NoPass: func(b B, p *Play) {
			_, rec, _ := lines(b)
			missedTarget(rec, p)
		},
		clip.Return: func(b B, p *Play) {
			_, _, ret := lines(b)
			kickReturn(ret, p)
		},
	}
}

type rbBlock = *stats.RunningBackStats

// RunningBack counts carries, receptions, kick returns and fumbles.
func RunningBack() Analyzer {
	return &fold[rbBlock]{
		pos:   stats.RB,
		roles: []Role{Carrier},
		team:  offenseTeam,
		rules: skillRules(func(b rbBlock) (*stats.RushingLine, *stats.ReceivingLine, *stats.ReturnLine) {
			return &b.RushingLine, &b.ReceivingLine, &b.ReturnLine
		}),
		every: func(b rbBlock, p *Play) { countFumble(&b.FumbleLine, p) },
	}
}

type teBlock = *stats.TightEndStats

// TightEnd follows the running back rules.
func TightEnd() Analyzer {
	return &fold[teBlock]{
		pos:   stats.TE,
		roles: []Role{Carrier},
		team:  offenseTeam,
		rules: skillRules(func(b teBlock) (*stats.RushingLine, *stats.ReceivingLine, *stats.ReturnLine) {
			return &b.RushingLine, &b.ReceivingLine, &b.ReturnLine
		}),
		every: func(b teBlock, p *Play) { countFumble(&b.FumbleLine, p) },
	}
}

type wrBlock = *stats.WideReceiverStats

// WideReceiver follows the running back rules and also splits fumbles by
// whether they came on a pass or a run down.
func WideReceiver() Analyzer {
	return &fold[wrBlock]{
		pos:   stats.WR,
		roles: []Role{Carrier},
		team:  offenseTeam,
		rules: skillRules(func(b wrBlock) (*stats.RushingLine, *stats.ReceivingLine, *stats.ReturnLine) {
			return &b.RushingLine, &b.ReceivingLine, &b.ReturnLine
		}),
		every: wrFumble,
	}
}

func wrFumble(b wrBlock, p *Play) {
	if !countFumble(&b.FumbleLine, p) {
		return
	}
	lost := p.Down.IsFumbleLost
	switch p.Clip.PlayType {
	case clip.Pass, clip.NoPass:
		b.PassDownFumbles++
		if lost {
			b.PassDownFumblesLost++
		}
	case clip.Run:
		b.RunDownFumbles++
		if lost {
			b.RunDownFumblesLost++
		}
	}
}

// Package plays turns a clip's significant-play tags into outcome flags.
// Every analyzer and the team aggregator read play outcomes through Interpret
// so touchdown attribution is decided in one place.
package plays

import (
	"strings"

	"github.com/fortuna/gridiron/internal/clip"
)

// Tag is a significant-play marker.
type Tag string

const (
	Touchdown                Tag = "TOUCHDOWN"
	Intercept                Tag = "INTERCEPT"
	Fumble                   Tag = "FUMBLE"
	FumbleRecoveredByOffense Tag = "FUMBLE_RECOVERED_BY_OFFENSE"
	FumbleRecoveredByDefense Tag = "FUMBLE_RECOVERED_BY_DEFENSE"
	SackTag                  Tag = "SACK"
	TackleForLoss            Tag = "TACKLE_FOR_LOSS"
	Turnover                 Tag = "TURNOVER"
	Kickoff                  Tag = "KICKOFF"
	PuntTag                  Tag = "PUNT"
	FieldGoalGood            Tag = "FIELD_GOAL_GOOD"
	PatGood                  Tag = "PAT_GOOD"
	Safety                   Tag = "SAFETY"
	PenaltyOffense           Tag = "PENALTY_OFFENSE"
	PenaltyDefense           Tag = "PENALTY_DEFENSE"
	Touchback                Tag = "TOUCHBACK"
)

var tagAliases = map[string]Tag{
	"TD":                  Touchdown,
	"INTERCEPTION":        Intercept,
	"INT":                 Intercept,
	"TFL":                 TackleForLoss,
	"FG_GOOD":             FieldGoalGood,
	"EXTRA_POINT_GOOD":    PatGood,
	"PENALTY_ON_OFFENSE":  PenaltyOffense,
	"PENALTY_ON_DEFENSE":  PenaltyDefense,
	"OFFENSIVE_PENALTY":   PenaltyOffense,
	"DEFENSIVE_PENALTY":   PenaltyDefense,
	"FUMBLE_RECOVERY_DEF": FumbleRecoveredByDefense,
	"FUMBLE_RECOVERY_OFF": FumbleRecoveredByOffense,
	"KICK_OFF":            Kickoff,
}

// TouchdownKind says who a touchdown is credited to.
type TouchdownKind string

const (
	NoTouchdown        TouchdownKind = ""
	ReceivingTouchdown TouchdownKind = "receiving"
	RushingTouchdown   TouchdownKind = "rushing"
	ReturnTouchdown    TouchdownKind = "return"
	// DefensiveTouchdown is scored by the side that took the ball away,
	// whether on the turnover clip itself or on its return.
	DefensiveTouchdown TouchdownKind = "defensive"
	OtherTouchdown     TouchdownKind = "other"
)

// Outcome is the semantic reading of one clip.
type Outcome struct {
	IsTouchdown                bool
	TouchdownKind              TouchdownKind
	IsInterception             bool
	IsFumble                   bool
	IsFumbleRecoveredByOffense bool
	IsFumbleRecoveredByDefense bool
	IsFumbleLost               bool
	IsSack                     bool
	IsTackleForLoss            bool
	IsTurnover                 bool
	IsFieldGoalGood            bool
	IsPatGood                  bool
	IsSafety                   bool
	IsKickoff                  bool
	IsPunt                     bool
	IsTouchback                bool
	IsPenaltyOffense           bool
	IsPenaltyDefense           bool
}

// IsSpecialTeamsReturn reports whether a RETURN clip is a kick or punt
// return rather than a turnover return.
func (o Outcome) IsSpecialTeamsReturn() bool {
	return (o.IsKickoff || o.IsPunt) && !o.IsInterception && !o.IsFumbleRecoveredByDefense
}

// ParseTag normalizes a raw tag. Unknown tags are returned with ok false.
func ParseTag(raw string) (Tag, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "_")
	if t, ok := tagAliases[key]; ok {
		return t, true
	}
	switch t := Tag(key); t {
	case Touchdown, Intercept, Fumble, FumbleRecoveredByOffense, FumbleRecoveredByDefense,
		SackTag, TackleForLoss, Turnover, Kickoff, PuntTag, FieldGoalGood, PatGood, Safety,
		PenaltyOffense, PenaltyDefense, Touchback:
		return t, true
	}
	return "", false
}

// Interpret reads the tag slots of a clip. Nil slots and unknown tags are
// ignored.
func Interpret(tags []*string, playType clip.PlayType) Outcome {
	var o Outcome
	for _, raw := range tags {
		if raw == nil {
			continue
		}
		tag, ok := ParseTag(*raw)
		if !ok {
			continue
		}
		switch tag {
		case Touchdown:
			o.IsTouchdown = true
		case Intercept:
			o.IsInterception = true
		case Fumble:
			o.IsFumble = true
		case FumbleRecoveredByOffense:
			o.IsFumbleRecoveredByOffense = true
		case FumbleRecoveredByDefense:
			o.IsFumbleRecoveredByDefense = true
		case SackTag:
			o.IsSack = true
		case TackleForLoss:
			o.IsTackleForLoss = true
		case Turnover:
			o.IsTurnover = true
		case Kickoff:
			o.IsKickoff = true
		case PuntTag:
			o.IsPunt = true
		case FieldGoalGood:
			o.IsFieldGoalGood = true
		case PatGood:
			o.IsPatGood = true
		case Safety:
			o.IsSafety = true
		case PenaltyOffense:
			o.IsPenaltyOffense = true
		case PenaltyDefense:
			o.IsPenaltyDefense = true
		case Touchback:
			o.IsTouchback = true
		}
	}

	// A fumble is lost when the defense ends up with the ball and no tag says
	// the offense got it back.
	o.IsFumbleLost = o.IsFumble &&
		(o.IsFumbleRecoveredByDefense || o.IsTurnover) &&
		!o.IsFumbleRecoveredByOffense

	defenseRecovered := o.IsFumbleRecoveredByDefense && !o.IsFumbleRecoveredByOffense
	o.IsTurnover = o.IsTurnover || o.IsInterception || o.IsFumbleLost || defenseRecovered

	if o.IsTouchdown {
		o.TouchdownKind = touchdownKind(playType)
		if o.IsInterception || defenseRecovered {
			o.TouchdownKind = DefensiveTouchdown
		}
	}
	return o
}

func touchdownKind(pt clip.PlayType) TouchdownKind {
	switch pt {
	case clip.Pass:
		return ReceivingTouchdown
	case clip.Run:
		return RushingTouchdown
	case clip.Return:
		return ReturnTouchdown
	}
	return OtherTouchdown
}

// DownKey groups clip i with the other sub-events of its down. Sub-events
// normally share a clip key. A turnover RETURN filed under its own key right
// after the turnover, by the same offensive side, joins the turnover's down.
func DownKey(g *clip.Game, i int) string {
	c := &g.Clips[i]
	if c.PlayType != clip.Return || i == 0 {
		return c.ClipKey
	}
	prev := &g.Clips[i-1]
	if prev.ClipKey == c.ClipKey || prev.OffensiveTeam != c.OffensiveTeam || !Of(prev).IsTurnover {
		return c.ClipKey
	}
	return DownKey(g, i-1)
}

// Of interprets a clip.
func Of(c *clip.Clip) Outcome {
	return Interpret(c.Tags, c.PlayType)
}

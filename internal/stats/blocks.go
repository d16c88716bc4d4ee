package stats

// Field merge policies are declared with the op struct tag:
//
//	op:"add"     counts and yardages, summed on merge
//	op:"max"     longest-X fields, the larger value wins
//	op:"derived" ratios and totals recomputed by Derive, never merged
//
// Fields without an op tag are ignored by Merge.

// Base carries the fields every position block shares.
type Base struct {
	GamesPlayed int `json:"gamesPlayed" op:"add"`
}

func (b *Base) base() *Base { return b }

// RushingLine is the carry section of a ball carrier's block. Yards are split
// into normal gains (front) and yards lost on plays flagged tackle-for-loss or
// safety (back); RushingYards is front minus back.
type RushingLine struct {
	RushingAttempts   int     `json:"rushingAttempts" op:"add"`
	FrontRushYards    int     `json:"frontRushYard" op:"add"`
	BackRushYards     int     `json:"backRushYard" op:"add"`
	RushingTouchdowns int     `json:"rushingTouchdowns" op:"add"`
	RushingFirstDowns int     `json:"rushingFirstDowns" op:"add"`
	LongestRush       int     `json:"longestRush" op:"max"`
	RushingYards      int     `json:"rushingYards" op:"derived"`
	YardsPerCarry     float64 `json:"yardsPerCarry" op:"derived"`
}

func (r *RushingLine) derive() {
	r.RushingYards = r.FrontRushYards - r.BackRushYards
	r.YardsPerCarry = ratio(r.RushingYards, r.RushingAttempts)
}

// ReceivingLine is the pass-catching section of a ball carrier's block.
type ReceivingLine struct {
	Targets             int     `json:"targets" op:"add"`
	Receptions          int     `json:"receptions" op:"add"`
	ReceivingYards      int     `json:"receivingYards" op:"add"`
	ReceivingTouchdowns int     `json:"receivingTouchdowns" op:"add"`
	ReceivingFirstDowns int     `json:"receivingFirstDowns" op:"add"`
	LongestReception    int     `json:"longestReception" op:"max"`
	YardsPerReception   float64 `json:"yardsPerReception" op:"derived"`
	CatchPct            float64 `json:"catchPct" op:"derived"`
}

func (r *ReceivingLine) derive() {
	r.YardsPerReception = ratio(r.ReceivingYards, r.Receptions)
	r.CatchPct = pct(r.Receptions, r.Targets)
}

// ReturnLine covers kickoff and punt returns.
type ReturnLine struct {
	ReturnAttempts   int     `json:"returnAttempts" op:"add"`
	ReturnYards      int     `json:"returnYards" op:"add"`
	ReturnTouchdowns int     `json:"returnTouchdowns" op:"add"`
	LongestReturn    int     `json:"longestReturn" op:"max"`
	YardsPerReturn   float64 `json:"yardsPerReturn" op:"derived"`
}

func (r *ReturnLine) derive() {
	r.YardsPerReturn = ratio(r.ReturnYards, r.ReturnAttempts)
}

// FumbleLine counts fumbles by the ball carrier and how many were lost.
type FumbleLine struct {
	Fumbles     int `json:"fumbles" op:"add"`
	FumblesLost int `json:"fumblesLost" op:"add"`
}

// DefenseLine is shared by the three defensive position groups.
type DefenseLine struct {
	Tackles                   int     `json:"tackles" op:"add"`
	Sacks                     float64 `json:"sacks" op:"add"`
	TacklesForLoss            int     `json:"tacklesForLoss" op:"add"`
	ForcedFumbles             int     `json:"forcedFumbles" op:"add"`
	FumbleRecoveries          int     `json:"fumbleRecoveries" op:"add"`
	FumbleRecoveryYards       int     `json:"fumbleRecoveryYards" op:"add"`
	PassesDefended            int     `json:"passesDefended" op:"add"`
	Interceptions             int     `json:"interceptions" op:"add"`
	InterceptionYards         int     `json:"interceptionYards" op:"add"`
	LongestInterceptionReturn int     `json:"longestInterceptionReturn" op:"max"`
	DefensiveTouchdowns       int     `json:"defensiveTouchdowns" op:"add"`
	Safeties                  int     `json:"safeties" op:"add"`
}

// QuarterbackStats is the QB block.
type QuarterbackStats struct {
	Base
	PassingAttempts    int `json:"passingAttempts" op:"add"`
	PassingCompletions int `json:"passingCompletions" op:"add"`
	PassingYards       int `json:"passingYards" op:"add"`
	PassingTouchdowns  int `json:"passingTouchdowns" op:"add"`
	Interceptions      int `json:"interceptions" op:"add"`
	LongestPass        int `json:"longestPass" op:"max"`
	Sacks              int `json:"sacks" op:"add"`
	SackYardsLost      int `json:"sackYardsLost" op:"add"`
	RushingAttempts    int `json:"rushingAttempts" op:"add"`
	RushingYards       int `json:"rushingYards" op:"add"`
	RushingTouchdowns  int `json:"rushingTouchdowns" op:"add"`
	LongestRush        int `json:"longestRush" op:"max"`
	FumbleLine

	CompletionPct   float64 `json:"completionPct" op:"derived"`
	YardsPerAttempt float64 `json:"yardsPerAttempt" op:"derived"`
	YardsPerCarry   float64 `json:"yardsPerCarry" op:"derived"`
}

func (*QuarterbackStats) Position() Position { return QB }

func (s *QuarterbackStats) Derive() {
	s.CompletionPct = pct(s.PassingCompletions, s.PassingAttempts)
	s.YardsPerAttempt = ratio(s.PassingYards, s.PassingAttempts)
	s.YardsPerCarry = ratio(s.RushingYards, s.RushingAttempts)
}

// RunningBackStats is the RB block.
type RunningBackStats struct {
	Base
	RushingLine
	ReceivingLine
	ReturnLine
	FumbleLine
}

func (*RunningBackStats) Position() Position { return RB }

func (s *RunningBackStats) Derive() {
	s.RushingLine.derive()
	s.ReceivingLine.derive()
	s.ReturnLine.derive()
}

// WideReceiverStats is the WR block. Fumbles are additionally split by the
// kind of down they happened on.
type WideReceiverStats struct {
	Base
	RushingLine
	ReceivingLine
	ReturnLine
	FumbleLine
	PassDownFumbles     int `json:"passDownFumbles" op:"add"`
	PassDownFumblesLost int `json:"passDownFumblesLost" op:"add"`
	RunDownFumbles      int `json:"runDownFumbles" op:"add"`
	RunDownFumblesLost  int `json:"runDownFumblesLost" op:"add"`
}

func (*WideReceiverStats) Position() Position { return WR }

func (s *WideReceiverStats) Derive() {
	s.RushingLine.derive()
	s.ReceivingLine.derive()
	s.ReturnLine.derive()
}

// TightEndStats is the TE block.
type TightEndStats struct {
	Base
	RushingLine
	ReceivingLine
	ReturnLine
	FumbleLine
}

func (*TightEndStats) Position() Position { return TE }

func (s *TightEndStats) Derive() {
	s.RushingLine.derive()
	s.ReceivingLine.derive()
	s.ReturnLine.derive()
}

// KickerStats is the K block. Field goals are bucketed by actual kick
// distance.
type KickerStats struct {
	Base
	FieldGoalAttempts int `json:"fieldGoalAttempts" op:"add"`
	FieldGoalsMade    int `json:"fieldGoalsMade" op:"add"`
	LongestFieldGoal  int `json:"longestFieldGoal" op:"max"`

	Attempts1To19  int `json:"fgAttempts1To19" op:"add"`
	Made1To19      int `json:"fgMade1To19" op:"add"`
	Attempts20To29 int `json:"fgAttempts20To29" op:"add"`
	Made20To29     int `json:"fgMade20To29" op:"add"`
	Attempts30To39 int `json:"fgAttempts30To39" op:"add"`
	Made30To39     int `json:"fgMade30To39" op:"add"`
	Attempts40To49 int `json:"fgAttempts40To49" op:"add"`
	Made40To49     int `json:"fgMade40To49" op:"add"`
	Attempts50Plus int `json:"fgAttempts50Plus" op:"add"`
	Made50Plus     int `json:"fgMade50Plus" op:"add"`

	PatAttempts int `json:"patAttempts" op:"add"`
	PatMade     int `json:"patMade" op:"add"`

	Kickoffs          int `json:"kickoffs" op:"add"`
	KickoffTouchbacks int `json:"kickoffTouchbacks" op:"add"`

	FieldGoalPct float64 `json:"fieldGoalPct" op:"derived"`
	PatPct       float64 `json:"patPct" op:"derived"`
}

func (*KickerStats) Position() Position { return K }

func (s *KickerStats) Derive() {
	s.FieldGoalPct = pct(s.FieldGoalsMade, s.FieldGoalAttempts)
	s.PatPct = pct(s.PatMade, s.PatAttempts)
}

// AddFieldGoal records one attempt at the given distance in its band.
func (s *KickerStats) AddFieldGoal(distance int, made bool) {
	s.FieldGoalAttempts++
	if made {
		s.FieldGoalsMade++
		if distance > s.LongestFieldGoal {
			s.LongestFieldGoal = distance
		}
	}

	attempts, makes := s.band(distance)
	*attempts++
	if made {
		*makes++
	}
}

func (s *KickerStats) band(distance int) (*int, *int) {
	switch {
	case distance < 20:
		return &s.Attempts1To19, &s.Made1To19
	case distance < 30:
		return &s.Attempts20To29, &s.Made20To29
	case distance < 40:
		return &s.Attempts30To39, &s.Made30To39
	case distance < 50:
		return &s.Attempts40To49, &s.Made40To49
	default:
		return &s.Attempts50Plus, &s.Made50Plus
	}
}

// PunterStats is the P block.
type PunterStats struct {
	Base
	Punts       int `json:"punts" op:"add"`
	PuntYards   int `json:"puntYards" op:"add"`
	LongestPunt int `json:"longestPunt" op:"max"`
	Touchbacks  int `json:"touchbacks" op:"add"`
	Inside20    int `json:"inside20" op:"add"`

	AveragePunt  float64 `json:"averagePunt" op:"derived"`
	TouchbackPct float64 `json:"touchbackPct" op:"derived"`
	Inside20Pct  float64 `json:"inside20Pct" op:"derived"`
}

func (*PunterStats) Position() Position { return P }

func (s *PunterStats) Derive() {
	s.AveragePunt = ratio(s.PuntYards, s.Punts)
	s.TouchbackPct = pct(s.Touchbacks, s.Punts)
	s.Inside20Pct = pct(s.Inside20, s.Punts)
}

// OffensiveLineStats is the OL block.
type OffensiveLineStats struct {
	Base
	Penalties    int `json:"penalties" op:"add"`
	SacksAllowed int `json:"sacksAllowed" op:"add"`
}

func (*OffensiveLineStats) Position() Position { return OL }

func (*OffensiveLineStats) Derive() {}

// DefensiveLineStats is the DL block.
type DefensiveLineStats struct {
	Base
	DefenseLine
}

func (*DefensiveLineStats) Position() Position { return DL }

func (*DefensiveLineStats) Derive() {}

// LinebackerStats is the LB block.
type LinebackerStats struct {
	Base
	DefenseLine
}

func (*LinebackerStats) Position() Position { return LB }

func (*LinebackerStats) Derive() {}

// DefensiveBackStats is the DB block.
type DefensiveBackStats struct {
	Base
	DefenseLine
}

func (*DefensiveBackStats) Position() Position { return DB }

func (*DefensiveBackStats) Derive() {}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return round(float64(num) / float64(den))
}

func pct(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return round(100 * float64(num) / float64(den))
}

// round keeps two decimals so derived values compare cleanly across tiers.
func round(v float64) float64 {
	if v < 0 {
		return -float64(int64(-v*100+0.5)) / 100
	}
	return float64(int64(v*100+0.5)) / 100
}

package stats

import (
	"fmt"
	"strings"
)

// Position is one of the ten tracked football positions.
type Position string

const (
	QB Position = "QB"
	RB Position = "RB"
	WR Position = "WR"
	TE Position = "TE"
	K  Position = "K"
	P  Position = "P"
	OL Position = "OL"
	DL Position = "DL"
	LB Position = "LB"
	DB Position = "DB"
)

// Positions lists every position in display order.
var Positions = []Position{QB, RB, WR, TE, K, P, OL, DL, LB, DB}

var aliases = map[string]Position{
	"QB": QB,
	"RB": RB, "HB": RB, "FB": RB, "TB": RB,
	"WR": WR, "SE": WR, "FL": WR, "SLOT": WR,
	"TE": TE,
	"K": K, "PK": K,
	"P": P,
	"OL": OL, "C": OL, "G": OL, "T": OL, "OG": OL, "OT": OL, "LT": OL, "LG": OL, "RG": OL, "RT": OL,
	"DL": DL, "DE": DL, "DT": DL, "NT": DL, "NG": DL,
	"LB": LB, "OLB": LB, "ILB": LB, "MLB": LB,
	"DB": DB, "CB": DB, "S": DB, "FS": DB, "SS": DB,
}

// ParsePosition normalizes a raw position label, accepting common depth chart
// abbreviations (CB, FS, DE, OT, ...) and mapping them onto the ten groups.
func ParsePosition(raw string) (Position, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if p, ok := aliases[key]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown position %q", raw)
}

// IsDefense reports whether players at p are credited to the defensive team.
func (p Position) IsDefense() bool {
	return p == DL || p == LB || p == DB
}

func (p Position) String() string { return string(p) }

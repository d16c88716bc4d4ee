package clip

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// GamePayload is the upload format for one game.
type GamePayload struct {
	GameKey    string    `json:"gameKey"`
	Date       string    `json:"date"`
	HomeTeam   string    `json:"homeTeam"`
	AwayTeam   string    `json:"awayTeam"`
	FinalScore *Score    `json:"finalScore,omitempty"`
	Clips      []RawClip `json:"Clips"`
}

// RawClip is a clip as uploaded. Numeric fields tolerate strings and nulls.
type RawClip struct {
	ClipKey          flexString `json:"clipKey"`
	OffensiveSide    string     `json:"offensiveSide"`
	Quarter          flexInt    `json:"quarter"`
	Down             flexInt    `json:"down"`
	YardsToGo        flexInt    `json:"yardsToGo"`
	PlayType         string     `json:"playType"`
	IsSpecialTeams   bool       `json:"isSpecialTeams"`
	StartPosition    *rawSpot   `json:"startPosition"`
	EndPosition      *rawSpot   `json:"endPosition"`
	GainedYards      flexInt    `json:"gainedYards"`
	Carrier1         *rawPlayer `json:"carrier1"`
	Carrier2         *rawPlayer `json:"carrier2"`
	Tackler1         *rawPlayer `json:"tackler1"`
	Tackler2         *rawPlayer `json:"tackler2"`
	Tags             []*string  `json:"significantPlayTags"`
	SignificantPlays []*string  `json:"significantPlays"`
}

type rawSpot struct {
	Zone     string  `json:"zone"`
	YardLine flexInt `json:"yardLine"`
}

type rawPlayer struct {
	JerseyNumber flexInt `json:"jerseyNumber"`
	Position     string  `json:"position"`
}

// Decode reads a game payload.
func Decode(r io.Reader) (*GamePayload, error) {
	var p GamePayload
	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decoding payload: %v", ErrInvalidPayload, err)
	}
	return &p, nil
}

// DecodeBytes is Decode for an in-memory document.
func DecodeBytes(data []byte) (*GamePayload, error) {
	return Decode(bytes.NewReader(data))
}

// flexInt accepts a JSON number, a numeric string, or null.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	*f = flexInt(parseInt(data))
	return nil
}

func parseInt(data []byte) int {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return 0
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*f = ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*f = flexString(str)
	default:
		*f = flexString(s)
	}
	return nil
}

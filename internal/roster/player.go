package roster

import (
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/gridiron/internal/stats"
)

// Key identifies a player within a team.
type Key struct {
	Team   string `json:"teamName"`
	Jersey int    `json:"jerseyNumber"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%d", k.Team, k.Jersey)
}

// PlayerRecord is the persistent player document. Stats holds one block per
// position played and always mirrors the player's career totals.
type PlayerRecord struct {
	TeamName        string           `json:"teamName"`
	JerseyNumber    int              `json:"jerseyNumber"`
	DisplayName     string           `json:"displayName"`
	Positions       []stats.Position `json:"positions"`
	PrimaryPosition stats.Position   `json:"primaryPosition"`
	Stats           stats.Blocks     `json:"stats"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Key returns the record's identity.
func (p *PlayerRecord) Key() Key {
	return Key{Team: p.TeamName, Jersey: p.JerseyNumber}
}

// HasPosition reports whether pos is in the player's position set.
func (p *PlayerRecord) HasPosition(pos stats.Position) bool {
	for _, have := range p.Positions {
		if have == pos {
			return true
		}
	}
	return false
}

// NewPlayerRecord creates an empty record whose primary position is the
// first one the player was seen at.
func NewPlayerRecord(key Key, primary stats.Position, now time.Time) *PlayerRecord {
	return &PlayerRecord{
		TeamName:        key.Team,
		JerseyNumber:    key.Jersey,
		DisplayName:     fmt.Sprintf("#%d", key.Jersey),
		Positions:       []stats.Position{},
		PrimaryPosition: primary,
		Stats:           stats.Blocks{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Clone deep copies the record.
func (p *PlayerRecord) Clone() *PlayerRecord {
	out := *p
	out.Positions = append([]stats.Position(nil), p.Positions...)
	out.Stats = p.Stats.Clone()
	return &out
}

// Merge folds one position's delta into a player record and returns the
// updated copy. A nil existing record is created with the delta's position
// as primary. The primary position is never changed after creation.
func Merge(key Key, existing *PlayerRecord, delta stats.Block, now time.Time) (*PlayerRecord, error) {
	if delta == nil {
		return nil, errors.New("merge player: nil delta")
	}
	pos := delta.Position()

	var out *PlayerRecord
	if existing == nil {
		out = NewPlayerRecord(key, pos, now)
	} else {
		out = existing.Clone()
	}

	merged, err := stats.Merge(out.Stats[pos], delta)
	if err != nil {
		return nil, fmt.Errorf("merge player %s: %w", key, err)
	}
	out.Stats[pos] = merged
	out.addPosition(pos)
	out.UpdatedAt = now
	return out, nil
}

// MergeAll applies every position of a game's blocks in display order. A
// player created here takes the first of those positions as primary.
func MergeAll(key Key, existing *PlayerRecord, delta stats.Blocks, now time.Time) (*PlayerRecord, error) {
	out := existing
	for _, pos := range delta.Positions() {
		var err error
		out, err = Merge(key, out, delta[pos], now)
		if err != nil {
			return nil, err
		}
	}
	if out == nil {
		return nil, fmt.Errorf("merge player %s: empty delta", key)
	}
	return out, nil
}

// Touch makes sure a record exists and lists every position in delta without
// changing any stat. It is used when a game is already in the career ledger.
func Touch(key Key, existing *PlayerRecord, delta stats.Blocks, now time.Time) *PlayerRecord {
	positions := delta.Positions()
	var out *PlayerRecord
	switch {
	case existing != nil:
		out = existing.Clone()
	case len(positions) > 0:
		out = NewPlayerRecord(key, positions[0], now)
	default:
		return nil
	}
	for _, pos := range positions {
		if _, ok := out.Stats[pos]; !ok {
			out.Stats[pos] = stats.NewBlock(pos)
		}
		out.addPosition(pos)
	}
	return out
}

func (p *PlayerRecord) addPosition(pos stats.Position) {
	if !p.HasPosition(pos) {
		p.Positions = append(p.Positions, pos)
	}
}

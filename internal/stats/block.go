package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrPositionMismatch is returned when two blocks of different positions are
// merged.
var ErrPositionMismatch = errors.New("stat block position mismatch")

// Block is one position's set of accumulated numeric fields.
type Block interface {
	Position() Position
	// Derive recomputes every ratio and total from the base counters.
	Derive()
	base() *Base
}

// NewBlock returns the zeroed block for a position, or nil for an unknown one.
func NewBlock(p Position) Block {
	switch p {
	case QB:
		return &QuarterbackStats{}
	case RB:
		return &RunningBackStats{}
	case WR:
		return &WideReceiverStats{}
	case TE:
		return &TightEndStats{}
	case K:
		return &KickerStats{}
	case P:
		return &PunterStats{}
	case OL:
		return &OffensiveLineStats{}
	case DL:
		return &DefensiveLineStats{}
	case LB:
		return &LinebackerStats{}
	case DB:
		return &DefensiveBackStats{}
	}
	return nil
}

// Seed returns the zeroed block for a player first seen in a game.
func Seed(p Position) Block {
	b := NewBlock(p)
	if b != nil {
		b.base().GamesPlayed = 1
	}
	return b
}

// GamesPlayed reads the shared games-played counter of a block.
func GamesPlayed(b Block) int {
	if b == nil {
		return 0
	}
	return b.base().GamesPlayed
}

// Merge folds src into dst and returns the result without modifying either.
// A nil dst takes src verbatim. Additive fields are summed, extremal fields
// keep the larger value, and derived fields are recomputed afterwards.
func Merge(dst, src Block) (Block, error) {
	if src == nil {
		return nil, errors.New("merge: nil delta")
	}
	if dst == nil {
		out := Clone(src)
		out.Derive()
		return out, nil
	}
	if dst.Position() != src.Position() {
		return nil, fmt.Errorf("merge %s into %s: %w", src.Position(), dst.Position(), ErrPositionMismatch)
	}

	out := Clone(dst)
	if err := Accumulate(out, src); err != nil {
		return nil, err
	}
	out.Derive()
	return out, nil
}

// Blocks holds one block per position a player has played.
type Blocks map[Position]Block

// Merge folds every position of delta into a copy of b. Positions never share
// fields, so each block is merged independently of the others.
func (b Blocks) Merge(delta Blocks) (Blocks, error) {
	out := b.Clone()
	for pos, block := range delta {
		merged, err := Merge(out[pos], block)
		if err != nil {
			return nil, fmt.Errorf("position %s: %w", pos, err)
		}
		out[pos] = merged
	}
	return out, nil
}

// Clone deep copies the blocks.
func (b Blocks) Clone() Blocks {
	out := make(Blocks, len(b))
	for pos, block := range b {
		out[pos] = Clone(block)
	}
	return out
}

// Positions returns the positions present, in display order.
func (b Blocks) Positions() []Position {
	out := make([]Position, 0, len(b))
	for _, p := range Positions {
		if _, ok := b[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// UnmarshalJSON decodes each position through its concrete block type.
func (b *Blocks) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Blocks, len(raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		pos, err := ParsePosition(k)
		if err != nil {
			return err
		}
		block := NewBlock(pos)
		if err := json.Unmarshal(raw[k], block); err != nil {
			return fmt.Errorf("decoding %s block: %w", pos, err)
		}
		block.Derive()
		out[pos] = block
	}
	*b = out
	return nil
}

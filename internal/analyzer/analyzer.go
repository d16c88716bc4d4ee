// Package analyzer turns a normalized game into per-player stat deltas, one
// analyzer per position group.
//
// Analyzers share a single fold: for every clip, the players of the
// analyzer's position are found in the carrier or tackler slots, seeded with
// a zeroed block the first time they appear, and handed to the rule
// registered for the clip's play type. Tag-driven outcomes come from
// plays.Interpret so every position reads touchdowns, fumbles and sacks the
// same way.
package analyzer

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fortuna/gridiron/internal/clip"
	"github.com/fortuna/gridiron/internal/plays"
	"github.com/fortuna/gridiron/internal/roster"
	"github.com/fortuna/gridiron/internal/stats"
)

// FirstDownPolicy decides when a gain earns first-down credit.
type FirstDownPolicy string

const (
	// SameClipGain credits a first down when the gain covers the yards to go.
	SameClipGain FirstDownPolicy = "same_clip_gain"
	// NextDownReset credits a first down when the next down for the same
	// offense is a first down.
	NextDownReset FirstDownPolicy = "next_down_reset"
)

// ParseFirstDownPolicy returns SameClipGain for anything it does not know.
func ParseFirstDownPolicy(raw string) FirstDownPolicy {
	if FirstDownPolicy(raw) == NextDownReset {
		return NextDownReset
	}
	return SameClipGain
}

// Options tune analyzer behavior.
type Options struct {
	FirstDown FirstDownPolicy
}

// Deltas maps each player seen by one analyzer to their block for the game.
type Deltas map[roster.Key]stats.Block

// Analyzer computes one position's deltas for a game.
type Analyzer interface {
	Position() stats.Position
	Analyze(game *clip.Game, opts Options) Deltas
}

// Role is the slot pair a participant was found in.
type Role int

const (
	Carrier Role = iota
	Tackler
)

// Play is one clip seen from one participant.
type Play struct {
	Clip    *clip.Clip
	Outcome plays.Outcome
	// Down reads the tags of every sub-event clip of the same down.
	Down plays.Outcome
	Role Role
	// Slot is 1 or 2. In a PASS clip carrier slot 1 is the passer.
	Slot int
	// Next is the following down, nil for the last one.
	Next *clip.Clip
	// Returned is set when the down includes a RETURN clip.
	Returned bool
	Opts     Options

	downKey  string
	credited map[creditKey]struct{}
	player   roster.Key
}

type creditKey struct {
	downKey string
	player  roster.Key
	counter string
}

// Once reports whether counter can still be credited to this player for the
// current down, and marks it. Sub-events of one down (see plays.DownKey)
// never credit the same counter twice.
func (p *Play) Once(counter string) bool {
	k := creditKey{downKey: p.downKey, player: p.player, counter: counter}
	if _, done := p.credited[k]; done {
		return false
	}
	p.credited[k] = struct{}{}
	return true
}

// FirstDown applies the configured first-down policy to the clip.
func (p *Play) FirstDown() bool {
	c := p.Clip
	if p.Opts.FirstDown == NextDownReset {
		return p.Next != nil && p.Next.Down == 1 && p.Next.OffensiveTeam == c.OffensiveTeam
	}
	return c.YardsToGo > 0 && c.GainedYards >= c.YardsToGo
}

// rule updates one player's block for one clip.
type rule[B stats.Block] func(b B, p *Play)

// fold is the shared analyzer implementation for block type B.
type fold[B stats.Block] struct {
	pos   stats.Position
	roles []Role
	// team resolves which side a participant in role plays for.
	team  func(c *clip.Clip, role Role) string
	rules map[clip.PlayType]rule[B]
	// every runs after the play-type rule for any clip the player is in.
	every rule[B]
	// keep, when set, drops appearances that can earn nothing before the
	// player is seeded.
	keep func(p *Play) bool
}

func (f *fold[B]) Position() stats.Position { return f.pos }

func (f *fold[B]) Analyze(game *clip.Game, opts Options) Deltas {
	acc := map[roster.Key]B{}
	credited := map[creditKey]struct{}{}

	downKeys := make([]string, len(game.Clips))
	returned := map[string]bool{}
	for i := range game.Clips {
		downKeys[i] = plays.DownKey(game, i)
		if game.Clips[i].PlayType == clip.Return {
			returned[downKeys[i]] = true
		}
	}

	for i := range game.Clips {
		c := &game.Clips[i]
		outcome := plays.Of(c)
		down := plays.Interpret(game.DownTags(i), c.PlayType)
		next := game.NextDown(i)

		for _, role := range f.roles {
			slots := c.Carriers()
			if role == Tackler {
				slots = c.Tacklers()
			}

			seen := map[int]bool{}
			for s, part := range slots {
				if part == nil || part.Position != f.pos || seen[part.JerseyNumber] {
					continue
				}
				seen[part.JerseyNumber] = true

				key := roster.Key{Team: f.team(c, role), Jersey: part.JerseyNumber}
				play := &Play{
					Clip:     c,
					Outcome:  outcome,
					Down:     down,
					Role:     role,
					Slot:     s + 1,
					Next:     next,
					Returned: returned[downKeys[i]],
					Opts:     opts,
					downKey:  downKeys[i],
					credited: credited,
					player:   key,
				}
				if f.keep != nil && !f.keep(play) {
					continue
				}

				b, ok := acc[key]
				if !ok {
					b = stats.Seed(f.pos).(B)
					acc[key] = b
				}
				if r, ok := f.rules[c.PlayType]; ok {
					r(b, play)
				}
				if f.every != nil {
					f.every(b, play)
				}
			}
		}
	}

	out := make(Deltas, len(acc))
	for key, b := range acc {
		b.Derive()
		out[key] = b
	}
	return out
}

// offenseTeam credits ball carriers to the offense, except on a RETURN where
// the carrier is on the receiving side.
func offenseTeam(c *clip.Clip, _ Role) string {
	if c.PlayType == clip.Return {
		return c.ReturnTeam()
	}
	return c.OffensiveTeam
}

// kickingTeam credits kickers and punters to the team that kicked.
func kickingTeam(c *clip.Clip, _ Role) string {
	return c.OffensiveTeam
}

// defenseTeam credits a defender carrying the ball to the returning side and
// a tackler to whichever side is tackling on the clip.
func defenseTeam(c *clip.Clip, role Role) string {
	if role == Carrier {
		return c.ReturnTeam()
	}
	return c.TacklingTeam()
}

// All returns the ten position analyzers.
func All() []Analyzer {
	return []Analyzer{
		Quarterback(),
		RunningBack(),
		WideReceiver(),
		TightEnd(),
		Kicker(),
		Punter(),
		OffensiveLine(),
		DefensiveLine(),
		Linebacker(),
		DefensiveBack(),
	}
}

// Run executes every analyzer concurrently over the same immutable game and
// groups the resulting blocks per player.
func Run(ctx context.Context, game *clip.Game, opts Options, analyzers []Analyzer) (map[roster.Key]stats.Blocks, error) {
	var (
		mu  sync.Mutex
		out = map[roster.Key]stats.Blocks{}
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, a := range analyzers {
		a := a
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			deltas := a.Analyze(game, opts)

			mu.Lock()
			defer mu.Unlock()
			for key, block := range deltas {
				blocks, ok := out[key]
				if !ok {
					blocks = stats.Blocks{}
					out[key] = blocks
				}
				if _, dup := blocks[a.Position()]; dup {
					return fmt.Errorf("analyzer %s produced %s twice", a.Position(), key)
				}
				blocks[a.Position()] = block
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

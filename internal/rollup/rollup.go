// Package rollup propagates one game's player stats into season and career
// accumulators. Each accumulator keeps a ledger of the game keys already
// folded in, so applying the same game twice changes nothing.
package rollup

import (
	"fmt"

	"github.com/fortuna/gridiron/internal/roster"
	"github.com/fortuna/gridiron/internal/stats"
)

// Ledger is the ordered, duplicate-free list of processed game keys.
type Ledger []string

// Contains reports whether gameKey was already applied.
func (l Ledger) Contains(gameKey string) bool {
	for _, k := range l {
		if k == gameKey {
			return true
		}
	}
	return false
}

// Add returns a new ledger with gameKey appended. It is a no-op copy when the
// key is already present.
func (l Ledger) Add(gameKey string) Ledger {
	out := make(Ledger, len(l), len(l)+1)
	copy(out, l)
	if l.Contains(gameKey) {
		return out
	}
	return append(out, gameKey)
}

// Accumulator is the shared shape of season and career tiers.
type Accumulator struct {
	Ledger      Ledger       `json:"processedGames"`
	GamesPlayed int          `json:"gamesPlayed"`
	Blocks      stats.Blocks `json:"stats"`
}

// Apply folds delta into acc unless gameKey is already in the ledger. It
// returns the new accumulator and whether anything changed.
func Apply(acc Accumulator, gameKey string, delta stats.Blocks) (Accumulator, bool, error) {
	if acc.Ledger.Contains(gameKey) {
		return acc, false, nil
	}

	merged, err := acc.Blocks.Merge(delta)
	if err != nil {
		return acc, false, fmt.Errorf("apply game %s: %w", gameKey, err)
	}

	return Accumulator{
		Ledger:      acc.Ledger.Add(gameKey),
		GamesPlayed: acc.GamesPlayed + 1,
		Blocks:      merged,
	}, true, nil
}

// GameStats is one player's stats for one game.
type GameStats struct {
	roster.Key
	GameKey string       `json:"gameKey"`
	Season  int          `json:"season"`
	Blocks  stats.Blocks `json:"stats"`
}

// SeasonStats is one player's accumulated stats for a season.
type SeasonStats struct {
	roster.Key
	Season int `json:"season"`
	Accumulator
}

// TotalStats is one player's career accumulator.
type TotalStats struct {
	roster.Key
	Accumulator
}

// Tiers is the current state of the three tiers for one player. Missing
// season or career entries are treated as empty.
type Tiers struct {
	Game   *GameStats
	Season *SeasonStats
	Career *TotalStats
}

// Result reports which tiers changed.
type Result struct {
	GameRecordWritten   bool `json:"gameRecordWritten"`
	SeasonRecordUpdated bool `json:"seasonRecordUpdated"`
	CareerRecordUpdated bool `json:"careerRecordUpdated"`
}

// Noop reports whether the game was already in both ledgers.
func (r Result) Noop() bool {
	return !r.SeasonRecordUpdated && !r.CareerRecordUpdated
}

// Rollup writes the game tier and applies delta to the season and career
// tiers through their ledgers. The game tier is always rewritten so a
// corrected upload replaces it.
func Rollup(key roster.Key, delta stats.Blocks, gameKey string, season int, current Tiers) (Tiers, Result, error) {
	var res Result
	next := Tiers{
		Game: &GameStats{
			Key:     key,
			GameKey: gameKey,
			Season:  season,
			Blocks:  delta.Clone(),
		},
	}
	res.GameRecordWritten = true

	seasonAcc := Accumulator{}
	if current.Season != nil {
		seasonAcc = current.Season.Accumulator
	}
	seasonAcc, applied, err := Apply(seasonAcc, gameKey, delta)
	if err != nil {
		return current, Result{}, fmt.Errorf("season %d: %w", season, err)
	}
	res.SeasonRecordUpdated = applied
	next.Season = &SeasonStats{Key: key, Season: season, Accumulator: seasonAcc}

	careerAcc := Accumulator{}
	if current.Career != nil {
		careerAcc = current.Career.Accumulator
	}
	careerAcc, applied, err = Apply(careerAcc, gameKey, delta)
	if err != nil {
		return current, Result{}, fmt.Errorf("career: %w", err)
	}
	res.CareerRecordUpdated = applied
	next.Career = &TotalStats{Key: key, Accumulator: careerAcc}

	return next, res, nil
}

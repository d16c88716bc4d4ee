// Package engine turns one normalized game into the player and team updates
// the storage layer persists. It reads current state through StateReader and
// never writes.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fortuna/gridiron/internal/analyzer"
	"github.com/fortuna/gridiron/internal/clip"
	"github.com/fortuna/gridiron/internal/rollup"
	"github.com/fortuna/gridiron/internal/roster"
	"github.com/fortuna/gridiron/internal/stats"
	"github.com/fortuna/gridiron/internal/teamstats"
)

// StateReader loads the current documents for a player or team. Absent
// documents are returned as nil with a nil error.
type StateReader interface {
	GetPlayer(ctx context.Context, team string, jersey int) (*roster.PlayerRecord, error)
	GetCareer(ctx context.Context, team string, jersey int) (*rollup.TotalStats, error)
	GetSeason(ctx context.Context, team string, jersey, season int) (*rollup.SeasonStats, error)
	GetTeamSeason(ctx context.Context, team string, season int) (*teamstats.TeamSeasonStats, error)
}

// Config tunes an Engine.
type Config struct {
	Analyzer analyzer.Options
	// Workers bounds the per-player pool. Zero means GOMAXPROCS.
	Workers int
	Now     func() time.Time
}

// Engine runs the analyzers, the rollup and the team aggregation for a game.
type Engine struct {
	cfg       Config
	analyzers []analyzer.Analyzer
	log       *logrus.Entry
}

// New creates an engine with all position analyzers.
func New(cfg Config, log *logrus.Entry) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		cfg:       cfg,
		analyzers: analyzer.All(),
		log:       log.WithField("component", "engine"),
	}
}

// PlayerUpdate is everything that changes for one player.
type PlayerUpdate struct {
	Key    roster.Key           `json:"key"`
	Record *roster.PlayerRecord `json:"record"`
	Game   *rollup.GameStats    `json:"game"`
	Season *rollup.SeasonStats  `json:"season"`
	Career *rollup.TotalStats   `json:"career"`
	Result rollup.Result        `json:"result"`
}

// TeamUpdate is one team's game box score and its season accumulator.
type TeamUpdate struct {
	Game          *teamstats.TeamGameStats   `json:"game"`
	Season        *teamstats.TeamSeasonStats `json:"season"`
	SeasonUpdated bool                       `json:"seasonUpdated"`
}

// PlayerError records a player that could not be processed.
type PlayerError struct {
	Team   string `json:"teamName"`
	Jersey int    `json:"jerseyNumber"`
	Error  string `json:"error"`
}

// Summary is the per-game processing report.
type Summary struct {
	GameKey          string                  `json:"gameKey"`
	BatchID          string                  `json:"batchId"`
	Season           int                     `json:"season"`
	HomeTeam         string                  `json:"homeTeam"`
	AwayTeam         string                  `json:"awayTeam"`
	HomeScore        int                     `json:"homeScore"`
	AwayScore        int                     `json:"awayScore"`
	Clips            int                     `json:"clips"`
	PlayersSucceeded int                     `json:"playersSucceeded"`
	PlayersFailed    int                     `json:"playersFailed"`
	Errors           []PlayerError           `json:"errors,omitempty"`
	LedgerNoops      int                     `json:"ledgerNoops"`
	Discrepancies    []teamstats.Discrepancy `json:"discrepancies,omitempty"`
	ProcessedAt      time.Time               `json:"processedAt"`
}

// Fail moves a player from succeeded to failed. Storage calls it when a
// write for an otherwise computed update fails.
func (s *Summary) Fail(key roster.Key, err error) {
	s.PlayersSucceeded--
	s.PlayersFailed++
	s.Errors = append(s.Errors, PlayerError{Team: key.Team, Jersey: key.Jersey, Error: err.Error()})
}

// Result is the engine's output for one game.
type Result struct {
	Context       clip.GameContext `json:"context"`
	PlayerUpdates []PlayerUpdate   `json:"playerUpdates"`
	TeamUpdates   []TeamUpdate     `json:"teamUpdates"`
	Summary       Summary          `json:"summary"`
}

// Process computes the updates for one game. Per-player failures land in the
// summary; an error is returned only when the game as a whole cannot be
// processed.
func (e *Engine) Process(ctx context.Context, game *clip.Game, state StateReader) (*Result, error) {
	gc := game.Context
	log := e.log.WithField("game_key", gc.GameKey)
	start := e.cfg.Now()

	deltas, err := analyzer.Run(ctx, game, e.cfg.Analyzer, e.analyzers)
	if err != nil {
		return nil, fmt.Errorf("analyze game %s: %w", gc.GameKey, err)
	}

	res := &Result{
		Context: gc,
		Summary: Summary{
			GameKey:  gc.GameKey,
			BatchID:  uuid.NewString(),
			Season:   gc.Season,
			HomeTeam: gc.HomeTeam,
			AwayTeam: gc.AwayTeam,
			Clips:    len(game.Clips),
		},
	}

	res.PlayerUpdates = e.processPlayers(ctx, gc, deltas, state, &res.Summary)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fromClips := teamstats.FromClips(game)
	discrepancies := teamstats.Reconcile(fromClips, teamstats.FromPlayers(gc, deltas))
	discrepancies = append(discrepancies, teamstats.CheckFinalScore(gc, fromClips)...)
	for _, d := range discrepancies {
		log.WithFields(logrus.Fields{
			"team":         d.Team,
			"field":        d.Field,
			"from_clips":   d.FromClips,
			"from_players": d.FromPlays,
		}).Warn("team stat derivations disagree")
	}
	res.Summary.Discrepancies = discrepancies
	res.Summary.HomeScore = fromClips[gc.HomeTeam].Points
	res.Summary.AwayScore = fromClips[gc.AwayTeam].Points

	for _, team := range []string{gc.HomeTeam, gc.AwayTeam} {
		update, err := e.teamUpdate(ctx, gc, fromClips[team], state)
		if err != nil {
			return nil, err
		}
		res.TeamUpdates = append(res.TeamUpdates, update)
	}

	res.Summary.ProcessedAt = e.cfg.Now()
	log.WithFields(logrus.Fields{
		"batch_id":     res.Summary.BatchID,
		"players_ok":   res.Summary.PlayersSucceeded,
		"players_fail": res.Summary.PlayersFailed,
		"ledger_noops": res.Summary.LedgerNoops,
		"duration_ms":  res.Summary.ProcessedAt.Sub(start).Milliseconds(),
	}).Info("game processed")
	return res, nil
}

// processPlayers runs one goroutine per player, bounded by the worker limit.
// A player's documents are only touched by its own goroutine.
func (e *Engine) processPlayers(ctx context.Context, gc clip.GameContext, deltas map[roster.Key]stats.Blocks, state StateReader, sum *Summary) []PlayerUpdate {
	keys := make([]roster.Key, 0, len(deltas))
	for k := range deltas {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Team != keys[j].Team {
			return keys[i].Team < keys[j].Team
		}
		return keys[i].Jersey < keys[j].Jersey
	})

	updates := make([]*PlayerUpdate, len(keys))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Workers)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			update, err := e.processPlayer(ctx, gc, key, deltas[key], state)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				sum.PlayersFailed++
				sum.Errors = append(sum.Errors, PlayerError{Team: key.Team, Jersey: key.Jersey, Error: err.Error()})
				e.log.WithFields(logrus.Fields{
					"game_key": gc.GameKey,
					"team":     key.Team,
					"jersey":   key.Jersey,
				}).WithError(err).Error("player update failed")
				return nil
			}
			sum.PlayersSucceeded++
			if update.Result.Noop() {
				sum.LedgerNoops++
			}
			updates[i] = update
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(sum.Errors, func(i, j int) bool {
		if sum.Errors[i].Team != sum.Errors[j].Team {
			return sum.Errors[i].Team < sum.Errors[j].Team
		}
		return sum.Errors[i].Jersey < sum.Errors[j].Jersey
	})

	out := make([]PlayerUpdate, 0, len(updates))
	for _, u := range updates {
		if u != nil {
			out = append(out, *u)
		}
	}
	return out
}

func (e *Engine) processPlayer(ctx context.Context, gc clip.GameContext, key roster.Key, delta stats.Blocks, state StateReader) (*PlayerUpdate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := state.GetPlayer(ctx, key.Team, key.Jersey)
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	career, err := state.GetCareer(ctx, key.Team, key.Jersey)
	if err != nil {
		return nil, fmt.Errorf("load career: %w", err)
	}
	season, err := state.GetSeason(ctx, key.Team, key.Jersey, gc.Season)
	if err != nil {
		return nil, fmt.Errorf("load season %d: %w", gc.Season, err)
	}

	tiers, result, err := rollup.Rollup(key, delta, gc.GameKey, gc.Season, rollup.Tiers{Season: season, Career: career})
	if err != nil {
		return nil, err
	}

	now := e.cfg.Now()
	if result.CareerRecordUpdated {
		record, err = roster.MergeAll(key, record, delta, now)
		if err != nil {
			return nil, err
		}
	} else {
		record = roster.Touch(key, record, delta, now)
	}

	return &PlayerUpdate{
		Key:    key,
		Record: record,
		Game:   tiers.Game,
		Season: tiers.Season,
		Career: tiers.Career,
		Result: result,
	}, nil
}

func (e *Engine) teamUpdate(ctx context.Context, gc clip.GameContext, game *teamstats.TeamGameStats, state StateReader) (TeamUpdate, error) {
	current, err := state.GetTeamSeason(ctx, game.TeamName, gc.Season)
	if err != nil {
		return TeamUpdate{}, fmt.Errorf("load team season %s/%d: %w", game.TeamName, gc.Season, err)
	}
	if current == nil {
		current = &teamstats.TeamSeasonStats{TeamName: game.TeamName, Season: gc.Season}
	}
	season, applied, err := teamstats.Apply(current, game)
	if err != nil {
		return TeamUpdate{}, err
	}
	return TeamUpdate{Game: game, Season: season, SeasonUpdated: applied}, nil
}

// Package ingest processes uploaded game payloads end to end: normalize,
// lock, compute, persist and announce.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/clip"
	"github.com/fortuna/gridiron/internal/engine"
	"github.com/fortuna/gridiron/internal/metrics"
	"github.com/fortuna/gridiron/internal/roster"
	"github.com/fortuna/gridiron/internal/store"
)

// EventGameProcessed is the event type published for every processed game.
const EventGameProcessed = "game_processed"

// Store is the persistence surface the service needs.
type Store interface {
	engine.StateReader
	SaveGame(ctx context.Context, g *store.GameRecord) error
	SavePlayer(ctx context.Context, w store.PlayerWrite) error
	SaveTeam(ctx context.Context, w store.TeamWrite) error
}

// Locker serializes work on a named resource across workers.
type Locker interface {
	Lock(ctx context.Context, name string) (unlock func(), err error)
}

// Publisher emits an event for downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, eventType, gameKey string, payload interface{}) error
}

// Broadcaster pushes a processed game to live subscribers.
type Broadcaster interface {
	BroadcastGame(summary *engine.Summary)
}

// Observer follows persistence progress. Job reporters implement it.
type Observer interface {
	OnProgress(message string, current, total int)
	OnPlayerFailed(key roster.Key, err error)
}

// Service processes one game payload at a time per game and team.
type Service struct {
	engine  *engine.Engine
	store   Store
	locker  Locker
	pub     Publisher
	hubs    []Broadcaster
	metrics *metrics.Metrics
	log     *logrus.Entry
}

// Option configures optional collaborators.
type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.pub = p }
}

// WithBroadcaster adds a receiver for processed-game summaries. It may be
// given more than once.
func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) { s.hubs = append(s.hubs, b) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(eng *engine.Engine, st Store, locker Locker, log *logrus.Entry, opts ...Option) *Service {
	s := &Service{
		engine: eng,
		store:  st,
		locker: locker,
		log:    log.WithField("component", "ingest"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessGame normalizes and processes a payload. Fatal payload errors wrap
// clip.ErrInvalidPayload and write nothing. Player write failures are
// reported in the returned summary. obs may be nil.
func (s *Service) ProcessGame(ctx context.Context, payload *clip.GamePayload, obs Observer) (*engine.Summary, error) {
	start := time.Now()

	game, err := clip.Normalize(payload)
	if err != nil {
		s.countGame("invalid")
		return nil, err
	}
	gc := game.Context
	log := s.log.WithField("game_key", gc.GameKey)

	unlock, err := s.lockAll(ctx, lockNames(gc))
	if err != nil {
		s.countGame("failed")
		return nil, fmt.Errorf("lock game %s: %w", gc.GameKey, err)
	}
	defer unlock()

	res, err := s.engine.Process(ctx, game, s.store)
	if err != nil {
		s.countGame("failed")
		return nil, err
	}
	summary := &res.Summary

	record := &store.GameRecord{
		GameKey:     gc.GameKey,
		Date:        gc.Date,
		Season:      gc.Season,
		HomeTeam:    gc.HomeTeam,
		AwayTeam:    gc.AwayTeam,
		HomeScore:   summary.HomeScore,
		AwayScore:   summary.AwayScore,
		Clips:       summary.Clips,
		BatchID:     summary.BatchID,
		ProcessedAt: summary.ProcessedAt,
	}
	if err := s.store.SaveGame(ctx, record); err != nil {
		s.countGame("failed")
		return nil, fmt.Errorf("save game %s: %w", gc.GameKey, err)
	}

	if obs != nil {
		for _, e := range summary.Errors {
			obs.OnPlayerFailed(roster.Key{Team: e.Team, Jersey: e.Jersey}, errors.New(e.Error))
		}
	}

	total := len(res.PlayerUpdates)
	for i, u := range res.PlayerUpdates {
		w := store.PlayerWrite{Record: u.Record, Career: u.Career, Season: u.Season, Game: u.Game}
		if err := s.store.SavePlayer(ctx, w); err != nil {
			summary.Fail(u.Key, err)
			log.WithFields(logrus.Fields{"team": u.Key.Team, "jersey": u.Key.Jersey}).
				WithError(err).Error("player write failed")
			if obs != nil {
				obs.OnPlayerFailed(u.Key, err)
			}
		}
		if obs != nil {
			obs.OnProgress(fmt.Sprintf("Saved %s", u.Key), i+1, total)
		}
	}
	for _, u := range res.TeamUpdates {
		if err := s.store.SaveTeam(ctx, store.TeamWrite{Game: u.Game, Season: u.Season}); err != nil {
			s.countGame("failed")
			return nil, fmt.Errorf("save team %s: %w", u.Game.TeamName, err)
		}
	}

	if raw, err := json.Marshal(summary); err == nil {
		record.Summary = raw
		if err := s.store.SaveGame(ctx, record); err != nil {
			log.WithError(err).Warn("failed to store game summary")
		}
	}

	s.announce(ctx, log, summary)
	s.observe(res, time.Since(start))
	return summary, nil
}

func (s *Service) announce(ctx context.Context, log *logrus.Entry, summary *engine.Summary) {
	if s.pub != nil {
		if err := s.pub.Publish(ctx, EventGameProcessed, summary.GameKey, summary); err != nil {
			log.WithError(err).Warn("failed to publish game summary")
		}
	}
	for _, h := range s.hubs {
		h.BroadcastGame(summary)
	}
}

func (s *Service) observe(res *engine.Result, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	sum := res.Summary
	if sum.PlayersFailed > 0 {
		s.countGame("partial")
	} else {
		s.countGame("ok")
	}
	s.metrics.PlayersProcessed.WithLabelValues("ok").Add(float64(sum.PlayersSucceeded))
	s.metrics.PlayersProcessed.WithLabelValues("failed").Add(float64(sum.PlayersFailed))
	for _, u := range res.PlayerUpdates {
		if !u.Result.SeasonRecordUpdated {
			s.metrics.LedgerNoops.WithLabelValues("season").Inc()
		}
		if !u.Result.CareerRecordUpdated {
			s.metrics.LedgerNoops.WithLabelValues("career").Inc()
		}
	}
	for _, u := range res.TeamUpdates {
		if !u.SeasonUpdated {
			s.metrics.LedgerNoops.WithLabelValues("team_season").Inc()
		}
	}
	for _, d := range sum.Discrepancies {
		s.metrics.TeamDiscrepancies.WithLabelValues(d.Field).Inc()
	}
	s.metrics.ProcessingDuration.Observe(elapsed.Seconds())
}

func (s *Service) countGame(outcome string) {
	if s.metrics != nil {
		s.metrics.GamesProcessed.WithLabelValues(outcome).Inc()
	}
}

// lockNames returns the game lock plus one lock per team, in a fixed global
// order. Team locks keep two different games that share a team from
// interleaving writes to the same player and team season documents.
func lockNames(gc clip.GameContext) []string {
	names := []string{"game:" + gc.GameKey, "team:" + gc.HomeTeam, "team:" + gc.AwayTeam}
	sort.Strings(names)
	return names
}

func (s *Service) lockAll(ctx context.Context, names []string) (func(), error) {
	var unlocks []func()
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, name := range names {
		unlock, err := s.locker.Lock(ctx, name)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}

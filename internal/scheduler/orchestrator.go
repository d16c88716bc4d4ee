// Package scheduler runs the periodic maintenance tasks: re-queueing stuck
// ingest jobs and auditing recently processed games.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/analyzer"
	"github.com/fortuna/gridiron/internal/clip"
	"github.com/fortuna/gridiron/internal/jobs"
	"github.com/fortuna/gridiron/internal/metrics"
	"github.com/fortuna/gridiron/internal/teamstats"
)

// JobSource is the part of the job queue the scheduler uses.
type JobSource interface {
	ResetStuckJobs(ctx context.Context, olderThan time.Duration) (int64, error)
	ListCompletedSince(ctx context.Context, since time.Time) ([]*jobs.Job, error)
}

// Config holds scheduler configuration
type Config struct {
	StuckJobSchedule string        // cron expression, default every 10 minutes
	StuckJobAge      time.Duration // running longer than this is stuck
	AuditSchedule    string        // cron expression, default 06:00 daily
	AuditWindow      time.Duration // how far back the audit looks
	Analyzer         analyzer.Options
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		StuckJobSchedule: "*/10 * * * *",
		StuckJobAge:      15 * time.Minute,
		AuditSchedule:    "0 6 * * *",
		AuditWindow:      24 * time.Hour,
	}
}

// Orchestrator manages the scheduled tasks.
type Orchestrator struct {
	jobs    JobSource
	config  *Config
	cron    *cron.Cron
	metrics *metrics.Metrics
	log     *logrus.Entry
}

// NewOrchestrator registers the tasks. metrics may be nil.
func NewOrchestrator(src JobSource, config *Config, m *metrics.Metrics, log *logrus.Entry) (*Orchestrator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	log = log.WithField("component", "scheduler")

	o := &Orchestrator{
		jobs:    src,
		config:  config,
		cron:    cron.New(cron.WithLogger(cron.VerbosePrintfLogger(log))),
		metrics: m,
		log:     log,
	}

	if _, err := o.cron.AddFunc(config.StuckJobSchedule, o.resetStuckJobs); err != nil {
		return nil, fmt.Errorf("schedule stuck job reset: %w", err)
	}
	if _, err := o.cron.AddFunc(config.AuditSchedule, o.audit); err != nil {
		return nil, fmt.Errorf("schedule audit: %w", err)
	}
	return o, nil
}

// Start runs the scheduler until ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) {
	o.log.WithFields(logrus.Fields{
		"stuck_jobs": o.config.StuckJobSchedule,
		"audit":      o.config.AuditSchedule,
	}).Info("scheduler started")

	o.cron.Start()
	<-ctx.Done()
	<-o.cron.Stop().Done()
	o.log.Info("scheduler stopped")
}

func (o *Orchestrator) resetStuckJobs() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := o.jobs.ResetStuckJobs(ctx, o.config.StuckJobAge)
	if err != nil {
		o.log.WithError(err).Error("stuck job reset failed")
		return
	}
	if n > 0 {
		o.log.WithField("count", n).Warn("re-queued stuck jobs")
	}
}

func (o *Orchestrator) audit() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	completed, err := o.jobs.ListCompletedSince(ctx, time.Now().Add(-o.config.AuditWindow))
	if err != nil {
		o.log.WithError(err).Error("audit: list jobs failed")
		return
	}

	findings := Audit(ctx, completed, o.config.Analyzer)
	for _, f := range findings {
		entry := o.log.WithFields(logrus.Fields{"job_id": f.JobID, "game_key": f.GameKey})
		if f.Err != nil {
			entry.WithError(f.Err).Warn("audit: game could not be re-derived")
			continue
		}
		for _, d := range f.Discrepancies {
			entry.WithFields(logrus.Fields{
				"team":         d.Team,
				"field":        d.Field,
				"from_clips":   d.FromClips,
				"from_players": d.FromPlays,
			}).Warn("audit: team derivations disagree")
			if o.metrics != nil {
				o.metrics.TeamDiscrepancies.WithLabelValues(d.Field).Inc()
			}
		}
	}
	o.log.WithFields(logrus.Fields{"games": len(completed), "findings": len(findings)}).Info("audit complete")
}

// Finding is one audited game that did not come out clean.
type Finding struct {
	JobID         string
	GameKey       string
	Discrepancies []teamstats.Discrepancy
	Err           error
}

// Audit re-derives team stats both ways for each job's payload and returns
// the games where they disagree or the payload no longer processes.
func Audit(ctx context.Context, completed []*jobs.Job, opts analyzer.Options) []Finding {
	var out []Finding
	for _, job := range completed {
		if ctx.Err() != nil {
			break
		}
		f := Finding{JobID: job.JobID, GameKey: job.GameKey}

		payload, err := clip.DecodeBytes(job.Payload)
		if err != nil {
			f.Err = err
			out = append(out, f)
			continue
		}
		game, err := clip.Normalize(payload)
		if err != nil {
			f.Err = err
			out = append(out, f)
			continue
		}
		players, err := analyzer.Run(ctx, game, opts, analyzer.All())
		if err != nil {
			f.Err = err
			out = append(out, f)
			continue
		}

		fromClips := teamstats.FromClips(game)
		f.Discrepancies = teamstats.Reconcile(fromClips, teamstats.FromPlayers(game.Context, players))
		f.Discrepancies = append(f.Discrepancies, teamstats.CheckFinalScore(game.Context, fromClips)...)
		if len(f.Discrepancies) > 0 {
			out = append(out, f)
		}
	}
	return out
}

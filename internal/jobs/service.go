// Package jobs queues uploaded games in Postgres and runs them one at a time
// on a background worker.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/clip"
	"github.com/fortuna/gridiron/internal/engine"
	"github.com/fortuna/gridiron/internal/ingest"
	"github.com/fortuna/gridiron/internal/roster"
)

// Queue is the job persistence the service needs. Repository implements it.
type Queue interface {
	CreateJob(ctx context.Context, job *Job) (*Job, error)
	UpdateStatus(ctx context.Context, jobID string, status JobStatus, message string, lastErr error) error
	UpdateProgress(ctx context.Context, jobID string, current, total int, message string) error
	SetResult(ctx context.Context, jobID string, result json.RawMessage) error
	AppendEvent(ctx context.Context, jobID string, eventType, message string, current, total *int) error
	ListEvents(ctx context.Context, jobID string) ([]Event, error)
	ResetStuckJobs(ctx context.Context, olderThan time.Duration) (int64, error)
	MarkNextJobRunning(ctx context.Context) (*Job, error)
	GetJob(ctx context.Context, jobID string) (*Job, error)
	GetActiveJob(ctx context.Context) (*Job, error)
	ListRecentJobs(ctx context.Context, limit int) ([]*Job, error)
	ListCompletedSince(ctx context.Context, since time.Time) ([]*Job, error)
	LatestPayload(ctx context.Context, gameKey string) (json.RawMessage, error)
}

// Processor runs one game payload.
type Processor interface {
	ProcessGame(ctx context.Context, payload *clip.GamePayload, obs ingest.Observer) (*engine.Summary, error)
}

// Service coordinates job persistence, execution, and status reporting.
type Service struct {
	queue Queue
	proc  Processor

	historyLimit int
	pollInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	log *logrus.Entry
}

// NewService constructs a Service. Call Start to launch the worker.
func NewService(queue Queue, proc Processor, pollInterval time.Duration, log *logrus.Entry) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	return &Service{
		queue:        queue,
		proc:         proc,
		historyLimit: 10,
		pollInterval: pollInterval,
		ctx:          ctx,
		cancel:       cancel,
		log:          log.WithField("component", "jobs"),
	}
}

// Start re-queues jobs interrupted by a previous crash and launches the
// worker loop.
func (s *Service) Start() {
	if n, err := s.queue.ResetStuckJobs(s.ctx, 0); err != nil {
		s.log.WithError(err).Error("failed to reset jobs")
	} else if n > 0 {
		s.log.WithField("count", n).Warn("re-queued interrupted jobs")
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops the worker and waits for the current job.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue validates an uploaded payload and queues it. Payloads that cannot
// be processed at all are rejected here with clip.ErrInvalidPayload.
func (s *Service) Enqueue(ctx context.Context, raw []byte) (*Job, error) {
	payload, err := clip.DecodeBytes(raw)
	if err != nil {
		return nil, err
	}
	game, err := clip.Normalize(payload)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, JobTypeUpload, game.Context.GameKey, raw)
}

// Reprocess queues the latest upload of a game again.
func (s *Service) Reprocess(ctx context.Context, gameKey string) (*Job, error) {
	raw, err := s.queue.LatestPayload(ctx, gameKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: no upload for game %s", ErrJobNotFound, gameKey)
	}
	return s.create(ctx, JobTypeReprocess, gameKey, raw)
}

func (s *Service) create(ctx context.Context, jobType JobType, gameKey string, raw []byte) (*Job, error) {
	stored, err := s.queue.CreateJob(ctx, &Job{
		JobType:       jobType,
		GameKey:       gameKey,
		Payload:       raw,
		Status:        JobStatusQueued,
		StatusMessage: "Queued",
	})
	if err != nil {
		return nil, err
	}

	_ = s.queue.AppendEvent(ctx, stored.JobID, "queued", fmt.Sprintf("%s queued for %s", jobType, gameKey), nil, nil)
	return stored, nil
}

// GetStatus returns the currently running job plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.queue.GetActiveJob(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.queue.ListRecentJobs(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{ActiveJob: active, History: history}, nil
}

// JobDetail is a job with its event log.
type JobDetail struct {
	*Job
	Events []Event `json:"events"`
}

// GetJob returns a job and its events, or ErrJobNotFound.
func (s *Service) GetJob(ctx context.Context, jobID string) (*JobDetail, error) {
	job, err := s.queue.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	events, err := s.queue.ListEvents(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &JobDetail{Job: job, Events: events}, nil
}

// ResetStuckJobs re-queues jobs that have been running longer than olderThan.
func (s *Service) ResetStuckJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queue.ResetStuckJobs(ctx, olderThan)
}

// ListCompletedSince returns jobs that completed after since, payloads
// included.
func (s *Service) ListCompletedSince(ctx context.Context, since time.Time) ([]*Job, error) {
	return s.queue.ListCompletedSince(ctx, since)
}

// RunOnce claims and runs the next queued job. It reports whether a job was
// found.
func (s *Service) RunOnce(ctx context.Context) (bool, error) {
	job, err := s.queue.MarkNextJobRunning(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	s.executeJob(ctx, job)
	return true, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		found, err := s.RunOnce(s.ctx)
		if err != nil {
			s.log.WithError(err).Error("claim job error")
		}
		if found {
			continue
		}

		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) executeJob(ctx context.Context, job *Job) {
	log := s.log.WithFields(logrus.Fields{"job_id": job.JobID, "game_key": job.GameKey})
	reporter := &jobReporter{ctx: ctx, queue: s.queue, jobID: job.JobID}
	reporter.OnJobStart(job)

	payload, err := clip.DecodeBytes(job.Payload)
	if err != nil {
		reporter.OnJobError(err)
		_ = s.queue.UpdateStatus(ctx, job.JobID, JobStatusFailed, "Invalid payload", err)
		return
	}

	summary, err := s.proc.ProcessGame(ctx, payload, reporter)
	if err != nil {
		log.WithError(err).Error("job failed")
		reporter.OnJobError(err)
		_ = s.queue.UpdateStatus(ctx, job.JobID, JobStatusFailed, "Job failed", err)
		return
	}

	result, err := json.Marshal(summary)
	if err == nil {
		reporter.OnJobComplete(result)
	}

	message := "Job completed"
	if summary.PlayersFailed > 0 {
		message = fmt.Sprintf("Job completed with %d failed players", summary.PlayersFailed)
	}
	_ = s.queue.UpdateStatus(ctx, job.JobID, JobStatusCompleted, message, nil)
	log.WithFields(logrus.Fields{
		"players_ok":   summary.PlayersSucceeded,
		"players_fail": summary.PlayersFailed,
	}).Info("job completed")
}

var _ Reporter = (*jobReporter)(nil)

type jobReporter struct {
	ctx   context.Context
	queue Queue
	jobID string
	total int
}

func (r *jobReporter) OnJobStart(job *Job) {
	_ = r.queue.AppendEvent(r.ctx, r.jobID, "started", fmt.Sprintf("Processing %s", job.GameKey), nil, nil)
}

func (r *jobReporter) OnProgress(message string, current, total int) {
	r.total = total
	_ = r.queue.UpdateProgress(r.ctx, r.jobID, current, total, message)
}

func (r *jobReporter) OnPlayerFailed(key roster.Key, err error) {
	_ = r.queue.AppendEvent(r.ctx, r.jobID, "player_failed", fmt.Sprintf("%s: %v", key, err), nil, nil)
}

func (r *jobReporter) OnJobComplete(result json.RawMessage) {
	_ = r.queue.SetResult(r.ctx, r.jobID, result)
	_ = r.queue.UpdateProgress(r.ctx, r.jobID, r.total, r.total, "Job complete")
}

func (r *jobReporter) OnJobError(err error) {
	_ = r.queue.AppendEvent(r.ctx, r.jobID, "error", err.Error(), nil, nil)
}

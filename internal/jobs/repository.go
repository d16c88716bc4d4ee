package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/gridiron/internal/store"
)

// Repository handles persistence for ingest jobs and events.
type Repository struct {
	db *store.Database
}

// NewRepository constructs a Repository.
func NewRepository(db *store.Database) *Repository {
	return &Repository{db: db}
}

const jobColumns = `job_id, job_type, game_key, payload, status, COALESCE(status_message, ''),
	progress_current, progress_total, COALESCE(last_error, ''), retry_count, result,
	created_at, updated_at, started_at, completed_at`

// CreateJob inserts a new job row and returns the stored record.
func (r *Repository) CreateJob(ctx context.Context, job *Job) (*Job, error) {
	query := `
		INSERT INTO ingest_jobs (job_type, game_key, payload, status, status_message, progress_total)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING ` + jobColumns

	row := r.db.DB().QueryRowContext(ctx, query,
		job.JobType, job.GameKey, []byte(job.Payload), job.Status, job.StatusMessage, job.ProgressTotal,
	)
	return scanJob(row)
}

// UpdateStatus updates status, message and optional error.
func (r *Repository) UpdateStatus(ctx context.Context, jobID string, status JobStatus, message string, lastErr error) error {
	query := `
		UPDATE ingest_jobs
		SET status = $2::varchar,
			status_message = $3,
			last_error = $4,
			updated_at = NOW(),
			completed_at = CASE WHEN $2::varchar IN ('completed','failed') THEN NOW() ELSE completed_at END
		WHERE job_id = $1
	`

	var errText sql.NullString
	if lastErr != nil {
		errText = sql.NullString{String: lastErr.Error(), Valid: true}
	}

	if _, err := r.db.DB().ExecContext(ctx, query, jobID, string(status), message, errText); err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return nil
}

// UpdateProgress updates the progress counters and message.
func (r *Repository) UpdateProgress(ctx context.Context, jobID string, current, total int, message string) error {
	query := `
		UPDATE ingest_jobs
		SET progress_current = $2,
			progress_total = $3,
			status_message = $4,
			updated_at = NOW()
		WHERE job_id = $1
	`

	if _, err := r.db.DB().ExecContext(ctx, query, jobID, current, total, message); err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return nil
}

// SetResult stores the processing summary.
func (r *Repository) SetResult(ctx context.Context, jobID string, result json.RawMessage) error {
	if _, err := r.db.DB().ExecContext(ctx, `UPDATE ingest_jobs SET result = $2, updated_at = NOW() WHERE job_id = $1`, jobID, []byte(result)); err != nil {
		return fmt.Errorf("set job result: %w", err)
	}
	return nil
}

// AppendEvent stores a log entry for a job.
func (r *Repository) AppendEvent(ctx context.Context, jobID string, eventType, message string, current, total *int) error {
	query := `
		INSERT INTO ingest_job_events (job_id, event_type, message, progress_current, progress_total)
		VALUES ($1,$2,$3,$4,$5)
	`

	var currentVal interface{}
	if current != nil {
		currentVal = *current
	}
	var totalVal interface{}
	if total != nil {
		totalVal = *total
	}

	if _, err := r.db.DB().ExecContext(ctx, query, jobID, eventType, message, currentVal, totalVal); err != nil {
		return fmt.Errorf("insert job event: %w", err)
	}
	return nil
}

// ListEvents returns a job's log in order.
func (r *Repository) ListEvents(ctx context.Context, jobID string) ([]Event, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT event_type, message, progress_current, progress_total, created_at
		FROM ingest_job_events
		WHERE job_id = $1
		ORDER BY id
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list job events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.EventType, &e.Message, &e.ProgressCurrent, &e.ProgressTotal, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ResetStuckJobs moves jobs that have been running longer than olderThan
// back to queued. A zero olderThan resets every running job, which is what
// a restart wants.
func (r *Repository) ResetStuckJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.db.DB().ExecContext(ctx, `
		UPDATE ingest_jobs
		SET status = 'queued',
			status_message = 'Reset after interruption',
			retry_count = retry_count + 1,
			updated_at = NOW()
		WHERE status = 'running'
			AND updated_at <= NOW() - make_interval(secs => $1)
	`, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// MarkNextJobRunning atomically claims the next queued job.
func (r *Repository) MarkNextJobRunning(ctx context.Context) (*Job, error) {
	query := `
		WITH next_job AS (
			SELECT job_id
			FROM ingest_jobs
			WHERE status = 'queued'
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE ingest_jobs
		SET status = 'running',
			status_message = 'Starting job...',
			started_at = COALESCE(started_at, NOW()),
			updated_at = NOW()
		FROM next_job
		WHERE ingest_jobs.job_id = next_job.job_id
		RETURNING ingest_jobs.job_id, ingest_jobs.job_type, ingest_jobs.game_key, ingest_jobs.payload,
			ingest_jobs.status, COALESCE(ingest_jobs.status_message, ''),
			ingest_jobs.progress_current, ingest_jobs.progress_total,
			COALESCE(ingest_jobs.last_error, ''), ingest_jobs.retry_count, ingest_jobs.result,
			ingest_jobs.created_at, ingest_jobs.updated_at,
			ingest_jobs.started_at, ingest_jobs.completed_at
	`

	job, err := scanJob(r.db.DB().QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob returns a job by id, or nil when it does not exist.
func (r *Repository) GetJob(ctx context.Context, jobID string) (*Job, error) {
	job, err := scanJob(r.db.DB().QueryRowContext(ctx, `SELECT `+jobColumns+` FROM ingest_jobs WHERE job_id = $1`, jobID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// GetActiveJob returns the currently running job, if any.
func (r *Repository) GetActiveJob(ctx context.Context) (*Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM ingest_jobs
		WHERE status = 'running'
		ORDER BY started_at DESC
		LIMIT 1
	`

	job, err := scanJob(r.db.DB().QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active job: %w", err)
	}
	return job, nil
}

// ListRecentJobs returns the most recent jobs.
func (r *Repository) ListRecentJobs(ctx context.Context, limit int) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM ingest_jobs ORDER BY created_at DESC LIMIT $1`
	return r.list(ctx, query, limit)
}

// ListCompletedSince returns completed jobs finished at or after since.
func (r *Repository) ListCompletedSince(ctx context.Context, since time.Time) ([]*Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM ingest_jobs
		WHERE status = 'completed' AND completed_at >= $1
		ORDER BY completed_at
	`
	return r.list(ctx, query, since)
}

// LatestPayload returns the payload of the newest upload for a game, or nil.
func (r *Repository) LatestPayload(ctx context.Context, gameKey string) (json.RawMessage, error) {
	var payload []byte
	err := r.db.DB().QueryRowContext(ctx, `
		SELECT payload FROM ingest_jobs
		WHERE game_key = $1 AND job_type = 'upload'
		ORDER BY created_at DESC
		LIMIT 1
	`, gameKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest payload: %w", err)
	}
	return payload, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) ([]*Job, error) {
	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func scanJob(scanner interface {
	Scan(dest ...interface{}) error
}) (*Job, error) {
	job := &Job{}
	var payload, result []byte
	err := scanner.Scan(
		&job.JobID,
		&job.JobType,
		&job.GameKey,
		&payload,
		&job.Status,
		&job.StatusMessage,
		&job.ProgressCurrent,
		&job.ProgressTotal,
		&job.LastError,
		&job.RetryCount,
		&result,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.StartedAt,
		&job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Payload = payload
	job.Result = result
	return job, nil
}

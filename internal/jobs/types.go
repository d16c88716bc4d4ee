package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/fortuna/gridiron/internal/roster"
)

// ErrJobNotFound is returned for unknown job ids and for reprocess requests
// on games that were never uploaded.
var ErrJobNotFound = errors.New("job not found")

// JobType enumerates the supported job variants.
type JobType string

const (
	JobTypeUpload    JobType = "upload"
	JobTypeReprocess JobType = "reprocess"
)

// JobStatus represents the lifecycle state for a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job models an ingest_jobs row.
type Job struct {
	JobID           string          `json:"jobId"`
	JobType         JobType         `json:"jobType"`
	GameKey         string          `json:"gameKey"`
	Payload         json.RawMessage `json:"-"`
	Status          JobStatus       `json:"status"`
	StatusMessage   string          `json:"statusMessage,omitempty"`
	ProgressCurrent int             `json:"progressCurrent"`
	ProgressTotal   int             `json:"progressTotal"`
	LastError       string          `json:"lastError,omitempty"`
	RetryCount      int             `json:"retryCount"`
	Result          json.RawMessage `json:"result,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	StartedAt       *time.Time      `json:"startedAt,omitempty"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
}

// Copy returns a shallow copy to prevent external mutation.
func (j *Job) Copy() *Job {
	if j == nil {
		return nil
	}
	cpy := *j
	return &cpy
}

// Event is one entry of a job's log.
type Event struct {
	EventType       string    `json:"eventType"`
	Message         string    `json:"message"`
	ProgressCurrent *int      `json:"progressCurrent,omitempty"`
	ProgressTotal   *int      `json:"progressTotal,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Reporter receives lifecycle callbacks while a job runs.
type Reporter interface {
	OnJobStart(job *Job)
	OnProgress(message string, current, total int)
	OnPlayerFailed(key roster.Key, err error)
	OnJobComplete(result json.RawMessage)
	OnJobError(err error)
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveJob *Job   `json:"activeJob,omitempty"`
	History   []*Job `json:"recentJobs,omitempty"`
}

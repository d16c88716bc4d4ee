package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/gridiron/internal/cache"
	"github.com/fortuna/gridiron/internal/clip"
	"github.com/fortuna/gridiron/internal/engine"
	"github.com/fortuna/gridiron/internal/ingest"
	"github.com/fortuna/gridiron/internal/logger"
	"github.com/fortuna/gridiron/internal/store/memstore"
)

// memQueue is an in-memory Queue.
type memQueue struct {
	mu     sync.Mutex
	seq    int
	jobs   map[string]*Job
	order  []string
	events map[string][]Event
}

func newMemQueue() *memQueue {
	return &memQueue{jobs: map[string]*Job{}, events: map[string][]Event{}}
}

func (q *memQueue) CreateJob(_ context.Context, job *Job) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	j := job.Copy()
	j.JobID = fmt.Sprintf("job-%d", q.seq)
	j.CreatedAt = time.Unix(int64(q.seq), 0)
	q.jobs[j.JobID] = j
	q.order = append(q.order, j.JobID)
	return j.Copy(), nil
}

func (q *memQueue) UpdateStatus(_ context.Context, id string, status JobStatus, message string, lastErr error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	j := q.jobs[id]
	j.Status, j.StatusMessage = status, message
	if lastErr != nil {
		j.LastError = lastErr.Error()
	}
	return nil
}

func (q *memQueue) UpdateProgress(_ context.Context, id string, current, total int, message string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	j := q.jobs[id]
	j.ProgressCurrent, j.ProgressTotal, j.StatusMessage = current, total, message
	return nil
}

func (q *memQueue) SetResult(_ context.Context, id string, result json.RawMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs[id].Result = result
	return nil
}

func (q *memQueue) AppendEvent(_ context.Context, id string, eventType, message string, _, _ *int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events[id] = append(q.events[id], Event{EventType: eventType, Message: message})
	return nil
}

func (q *memQueue) ListEvents(_ context.Context, id string) ([]Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Event(nil), q.events[id]...), nil
}

func (q *memQueue) ResetStuckJobs(context.Context, time.Duration) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var n int64
	for _, j := range q.jobs {
		if j.Status == JobStatusRunning {
			j.Status = JobStatusQueued
			n++
		}
	}
	return n, nil
}

func (q *memQueue) MarkNextJobRunning(context.Context) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range q.order {
		if j := q.jobs[id]; j.Status == JobStatusQueued {
			j.Status = JobStatusRunning
			return j.Copy(), nil
		}
	}
	return nil, nil
}

func (q *memQueue) GetJob(_ context.Context, id string) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.jobs[id].Copy(), nil
}

func (q *memQueue) GetActiveJob(context.Context) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, j := range q.jobs {
		if j.Status == JobStatusRunning {
			return j.Copy(), nil
		}
	}
	return nil, nil
}

func (q *memQueue) ListRecentJobs(_ context.Context, limit int) ([]*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*Job
	for i := len(q.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, q.jobs[q.order[i]].Copy())
	}
	return out, nil
}

func (q *memQueue) ListCompletedSince(context.Context, time.Time) ([]*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*Job
	for _, id := range q.order {
		if j := q.jobs[id]; j.Status == JobStatusCompleted {
			out = append(out, j.Copy())
		}
	}
	return out, nil
}

func (q *memQueue) LatestPayload(_ context.Context, gameKey string) (json.RawMessage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := len(q.order) - 1; i >= 0; i-- {
		if j := q.jobs[q.order[i]]; j.GameKey == gameKey && j.JobType == JobTypeUpload {
			return j.Payload, nil
		}
	}
	return nil, nil
}

const upload = `{
	"gameKey": "g1", "date": "2024-09-07", "homeTeam": "TeamA", "awayTeam": "TeamB",
	"Clips": [
		{"clipKey": 1, "offensiveSide": "Away", "playType": "PASS", "gainedYards": 25,
		 "carrier1": {"jerseyNumber": 12, "position": "QB"}, "significantPlayTags": ["TOUCHDOWN"]}
	]
}`

func newService(t *testing.T) (*Service, *memQueue, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	eng := engine.New(engine.Config{Workers: 2}, logger.Discard())
	proc := ingest.NewService(eng, st, cache.NewLocalLocker(), logger.Discard())
	q := newMemQueue()
	return NewService(q, proc, time.Millisecond, logger.Discard()), q, st
}

func TestEnqueueAndRun(t *testing.T) {
	svc, _, st := newService(t)
	ctx := context.Background()

	job, err := svc.Enqueue(ctx, []byte(upload))
	require.NoError(t, err)
	assert.Equal(t, "g1", job.GameKey)
	assert.Equal(t, JobStatusQueued, job.Status)

	found, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, found)

	detail, err := svc.GetJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, detail.Status)
	assert.Equal(t, 1, detail.ProgressTotal)
	assert.Equal(t, 1, detail.ProgressCurrent)

	var summary engine.Summary
	require.NoError(t, json.Unmarshal(detail.Result, &summary))
	assert.Equal(t, 1, summary.PlayersSucceeded)

	types := make([]string, 0, len(detail.Events))
	for _, e := range detail.Events {
		types = append(types, e.EventType)
	}
	assert.Equal(t, []string{"queued", "started"}, types)

	qb, err := st.GetPlayer(ctx, "TeamB", 12)
	require.NoError(t, err)
	assert.NotNil(t, qb)

	found, err = svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEnqueueRejectsInvalidPayload(t *testing.T) {
	svc, q, _ := newService(t)

	_, err := svc.Enqueue(context.Background(), []byte(`{"gameKey": "g1", "date": "2024-09-07", "Clips": []}`))
	assert.ErrorIs(t, err, clip.ErrInvalidPayload)
	assert.Empty(t, q.jobs)
}

func TestReprocessUsesLatestUpload(t *testing.T) {
	svc, _, st := newService(t)
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, []byte(upload))
	require.NoError(t, err)
	_, err = svc.RunOnce(ctx)
	require.NoError(t, err)

	job, err := svc.Reprocess(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, JobTypeReprocess, job.JobType)
	_, err = svc.RunOnce(ctx)
	require.NoError(t, err)

	detail, err := svc.GetJob(ctx, job.JobID)
	require.NoError(t, err)
	var summary engine.Summary
	require.NoError(t, json.Unmarshal(detail.Result, &summary))
	assert.Equal(t, 1, summary.LedgerNoops)

	career, err := st.GetCareer(ctx, "TeamB", 12)
	require.NoError(t, err)
	assert.Equal(t, 1, career.GamesPlayed)
}

func TestReprocessUnknownGame(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Reprocess(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestGetJobNotFound(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.GetJob(context.Background(), "job-404")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestWorkerDrainsQueue(t *testing.T) {
	svc, q, _ := newService(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Enqueue(ctx, []byte(upload))
		require.NoError(t, err)
	}

	svc.Start()
	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		for _, j := range q.jobs {
			if j.Status != JobStatusCompleted {
				return false
			}
		}
		return true
	}, 5*time.Second, 5*time.Millisecond)

	shutdown, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(shutdown))

	status, err := svc.GetStatus(ctx)
	require.NoError(t, err)
	assert.Nil(t, status.ActiveJob)
	ids := make([]string, 0, len(status.History))
	for _, j := range status.History {
		ids = append(ids, j.JobID)
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"job-1", "job-2", "job-3"}, ids)
}

package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/gridiron/internal/cache"
	"github.com/fortuna/gridiron/internal/clip"
	"github.com/fortuna/gridiron/internal/engine"
	"github.com/fortuna/gridiron/internal/ingest"
	"github.com/fortuna/gridiron/internal/jobs"
	"github.com/fortuna/gridiron/internal/logger"
	"github.com/fortuna/gridiron/internal/metrics"
	"github.com/fortuna/gridiron/internal/service"
	"github.com/fortuna/gridiron/internal/store/memstore"
)

const upload = `{
	"gameKey": "g1", "date": "2024-09-07", "homeTeam": "TeamA", "awayTeam": "TeamB",
	"Clips": [
		{"clipKey": 1, "offensiveSide": "Away", "down": 1, "yardsToGo": 10, "playType": "PASS", "gainedYards": 25,
		 "carrier1": {"jerseyNumber": 12, "position": "QB"}, "carrier2": {"jerseyNumber": 80, "position": "WR"},
		 "significantPlayTags": ["TOUCHDOWN"]}
	]
}`

type stubQueue struct {
	enqueued [][]byte
}

func (q *stubQueue) Enqueue(_ context.Context, raw []byte) (*jobs.Job, error) {
	if _, err := clip.DecodeBytes(raw); err != nil {
		return nil, err
	}
	q.enqueued = append(q.enqueued, raw)
	return &jobs.Job{JobID: "job-1", JobType: jobs.JobTypeUpload, GameKey: "g1", Status: jobs.JobStatusQueued}, nil
}

func (q *stubQueue) Reprocess(_ context.Context, gameKey string) (*jobs.Job, error) {
	return nil, jobs.ErrJobNotFound
}

func (q *stubQueue) GetStatus(context.Context) (*jobs.StatusSummary, error) {
	return &jobs.StatusSummary{}, nil
}

func (q *stubQueue) GetJob(_ context.Context, id string) (*jobs.JobDetail, error) {
	return nil, jobs.ErrJobNotFound
}

type fixture struct {
	handler http.Handler
	queue   *stubQueue
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, checks map[string]HealthCheck) *fixture {
	t.Helper()
	st := memstore.New()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	eng := engine.New(engine.Config{Workers: 2}, logger.Discard())
	ing := ingest.NewService(eng, st, cache.NewLocalLocker(), logger.Discard(), ingest.WithMetrics(m))
	q := &stubQueue{}

	h := NewHandler(
		service.NewPlayerService(st),
		service.NewGameService(st),
		service.NewTeamService(st, nil, logger.Discard()),
		checks,
	)
	return &fixture{
		handler: NewRouter(h, NewJobsHandler(ing, q, m), reg, nil, logger.Discard()),
		queue:   q,
		metrics: m,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestSyncUploadThenQuery(t *testing.T) {
	f := newFixture(t, nil)

	code, summary := f.do(t, "POST", "/api/v1/games?sync=true", upload)
	require.Equal(t, http.StatusOK, code, summary)
	assert.Equal(t, "g1", summary["gameKey"])
	assert.Equal(t, 6.0, summary["awayScore"])

	code, player := f.do(t, "GET", "/api/v1/players/TeamB/12", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "QB", player["primaryPosition"])
	assert.Equal(t, 1.0, player["gamesPlayed"])

	code, season := f.do(t, "GET", "/api/v1/players/TeamB/12/seasons/2024", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2024.0, season["season"])

	code, game := f.do(t, "GET", "/api/v1/players/TeamB/80/games/g1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "g1", game["gameKey"])

	code, team := f.do(t, "GET", "/api/v1/teams/TeamB/seasons/2024", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 6.0, team["totals"].(map[string]interface{})["points"])

	code, roster := f.do(t, "GET", "/api/v1/teams/TeamB/players", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2.0, roster["count"])

	code, detail := f.do(t, "GET", "/api/v1/games/g1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2024.0, detail["season"])
}

func TestSyncUploadRejectsInvalidPayload(t *testing.T) {
	f := newFixture(t, nil)

	code, body := f.do(t, "POST", "/api/v1/games?sync=true", `{"gameKey": "g1", "date": "2024-09-07"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Failed to process game", body["error"])

	code, _ = f.do(t, "POST", "/api/v1/games?sync=true", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAsyncUploadQueuesJob(t *testing.T) {
	f := newFixture(t, nil)

	code, body := f.do(t, "POST", "/api/v1/games", upload)
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "job-1", body["job"].(map[string]interface{})["jobId"])
	assert.Len(t, f.queue.enqueued, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.JobsQueued))

	code, _ = f.do(t, "GET", "/api/v1/players/TeamB/12", "")
	assert.Equal(t, http.StatusNotFound, code, "queued uploads are not processed inline")
}

func TestJobEndpoints(t *testing.T) {
	f := newFixture(t, nil)

	code, status := f.do(t, "GET", "/api/v1/jobs/status", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "idle", status["status"])
	assert.Empty(t, status["history"])

	code, _ = f.do(t, "GET", "/api/v1/jobs/nope", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(t, "POST", "/api/v1/games/g9/reprocess", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestResetPlayer(t *testing.T) {
	f := newFixture(t, nil)
	code, _ := f.do(t, "POST", "/api/v1/games?sync=true", upload)
	require.Equal(t, http.StatusOK, code)

	code, _ = f.do(t, "DELETE", "/api/v1/admin/players/TeamB/12", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = f.do(t, "GET", "/api/v1/players/TeamB/12", "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = f.do(t, "DELETE", "/api/v1/admin/players/TeamB/12", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealthReportsFailingDependency(t *testing.T) {
	f := newFixture(t, map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	code, body := f.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", body["status"])
	deps := body["dependencies"].(map[string]interface{})
	assert.Equal(t, "ok", deps["postgres"])
	assert.Equal(t, "connection refused", deps["redis"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, "POST", "/api/v1/games?sync=true", upload)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gridiron_games_processed_total")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

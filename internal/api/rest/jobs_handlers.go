package rest

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/gridiron/internal/cache"
	"github.com/fortuna/gridiron/internal/clip"
	"github.com/fortuna/gridiron/internal/engine"
	"github.com/fortuna/gridiron/internal/ingest"
	"github.com/fortuna/gridiron/internal/jobs"
	"github.com/fortuna/gridiron/internal/metrics"
)

const maxUploadBytes = 32 << 20

// GameProcessor processes an upload inline.
type GameProcessor interface {
	ProcessGame(ctx context.Context, payload *clip.GamePayload, obs ingest.Observer) (*engine.Summary, error)
}

// JobQueue is the upload queue.
type JobQueue interface {
	Enqueue(ctx context.Context, raw []byte) (*jobs.Job, error)
	Reprocess(ctx context.Context, gameKey string) (*jobs.Job, error)
	GetStatus(ctx context.Context) (*jobs.StatusSummary, error)
	GetJob(ctx context.Context, jobID string) (*jobs.JobDetail, error)
}

// JobsHandler accepts uploads and reports on queued jobs.
type JobsHandler struct {
	processor GameProcessor
	queue     JobQueue
	metrics   *metrics.Metrics
}

// NewJobsHandler wires the REST layer to the ingest service and job queue.
// m may be nil.
func NewJobsHandler(processor GameProcessor, queue JobQueue, m *metrics.Metrics) *JobsHandler {
	return &JobsHandler{processor: processor, queue: queue, metrics: m}
}

// UploadGame handles POST /api/v1/games. With ?sync=true the game is
// processed before responding; otherwise it is queued.
func (h *JobsHandler) UploadGame(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	if r.URL.Query().Get("sync") == "true" {
		h.processNow(w, r, raw)
		return
	}

	job, err := h.queue.Enqueue(r.Context(), raw)
	if err != nil {
		respondUploadError(w, "Failed to enqueue game", err)
		return
	}
	if h.metrics != nil {
		h.metrics.JobsQueued.Inc()
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{"job": job})
}

func (h *JobsHandler) processNow(w http.ResponseWriter, r *http.Request, raw []byte) {
	payload, err := clip.DecodeBytes(raw)
	if err != nil {
		respondUploadError(w, "Invalid game payload", err)
		return
	}
	summary, err := h.processor.ProcessGame(r.Context(), payload, nil)
	if err != nil {
		respondUploadError(w, "Failed to process game", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// ReprocessGame handles POST /api/v1/games/{gameKey}/reprocess
func (h *JobsHandler) ReprocessGame(w http.ResponseWriter, r *http.Request) {
	job, err := h.queue.Reprocess(r.Context(), mux.Vars(r)["gameKey"])
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			respondError(w, http.StatusNotFound, "No upload found for game", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to enqueue reprocess job", err)
		return
	}
	if h.metrics != nil {
		h.metrics.JobsQueued.Inc()
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{"job": job})
}

// JobStatus handles GET /api/v1/jobs/status
func (h *JobsHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.queue.GetStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
		return
	}

	response := map[string]interface{}{
		"status":  "idle",
		"message": "No active jobs",
		"history": summary.History,
	}
	if summary.History == nil {
		response["history"] = []*jobs.Job{}
	}
	if summary.ActiveJob != nil {
		response["status"] = summary.ActiveJob.Status
		if summary.ActiveJob.StatusMessage != "" {
			response["message"] = summary.ActiveJob.StatusMessage
		}
		response["activeJob"] = summary.ActiveJob
	}
	respondJSON(w, http.StatusOK, response)
}

// GetJob handles GET /api/v1/jobs/{jobID}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.queue.GetJob(r.Context(), mux.Vars(r)["jobID"])
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			respondError(w, http.StatusNotFound, "Job not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to fetch job", err)
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func respondUploadError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, clip.ErrInvalidPayload):
		respondError(w, http.StatusBadRequest, message, err)
		return
	case errors.Is(err, cache.ErrLockHeld):
		respondError(w, http.StatusConflict, "Game is already being processed", err)
		return
	}
	respondError(w, http.StatusInternalServerError, message, err)
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daehan-cho/shopscribe/internal/api/response"
	"github.com/daehan-cho/shopscribe/internal/pipeline"
	"github.com/daehan-cho/shopscribe/internal/store"
	"github.com/daehan-cho/shopscribe/pkg/models"
)

const maxInputs = 50

// JobService defines the pipeline surface the handlers depend on.
type JobService interface {
	Submit(ctx context.Context, inputs []string, keyword string) (*models.Job, error)
	Status(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Result(ctx context.Context, id uuid.UUID) (*pipeline.JobResult, error)
	Resume(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error)
}

// NewSubmitJobHandler returns an http.HandlerFunc for POST /api/v1/jobs.
func NewSubmitJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Inputs  []string `json:"inputs"`
			Keyword string   `json:"keyword"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if len(req.Inputs) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "inputs is required", nil)
			return
		}
		if len(req.Inputs) > maxInputs {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"too many inputs (max "+strconv.Itoa(maxInputs)+")", nil)
			return
		}

		job, err := svc.Submit(r.Context(), req.Inputs, req.Keyword)
		if err != nil {
			if errors.Is(err, pipeline.ErrNoInputs) {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "inputs is required", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to register job", nil)
			return
		}

		response.Accepted(w, job)
	}
}

// NewGetJobHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}.
func NewGetJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobID(w, r)
		if !ok {
			return
		}
		job, err := svc.Status(r.Context(), id)
		if err != nil {
			writeJobError(w, err)
			return
		}
		response.JSON(w, job)
	}
}

// NewJobResultHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}/result.
func NewJobResultHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobID(w, r)
		if !ok {
			return
		}
		result, err := svc.Result(r.Context(), id)
		if err != nil {
			writeJobError(w, err)
			return
		}
		response.JSON(w, result)
	}
}

// NewResumeJobHandler returns an http.HandlerFunc for POST /api/v1/jobs/{jobID}/resume.
func NewResumeJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobID(w, r)
		if !ok {
			return
		}
		job, err := svc.Resume(r.Context(), id)
		if err != nil {
			writeJobError(w, err)
			return
		}
		response.Accepted(w, job)
	}
}

// NewCancelJobHandler returns an http.HandlerFunc for POST /api/v1/jobs/{jobID}/cancel.
func NewCancelJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobID(w, r)
		if !ok {
			return
		}
		if err := svc.Cancel(r.Context(), id); err != nil {
			writeJobError(w, err)
			return
		}
		response.Accepted(w, map[string]string{"id": id.String(), "status": "cancelling"})
	}
}

// NewListJobsHandler returns an http.HandlerFunc for GET /api/v1/jobs.
func NewListJobsHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := store.JobFilter{
			Status: r.URL.Query().Get("status"),
		}
		if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
			filter.Page = page
		}
		if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
			filter.Limit = limit
		}

		jobs, total, err := svc.List(r.Context(), filter)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to list jobs", nil)
			return
		}

		response.Collection(w, jobs, response.NewPaginationMeta(filter.Page, filter.Limit, total))
	}
}

func jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

func writeJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "No job with that id", nil)
	case errors.Is(err, pipeline.ErrJobRunning):
		response.Error(w, http.StatusConflict, "JOB_RUNNING", "Job is still running", nil)
	case errors.Is(err, pipeline.ErrJobCompleted):
		response.Error(w, http.StatusConflict, "JOB_COMPLETED", "Job already completed", nil)
	case errors.Is(err, pipeline.ErrJobNotRunning):
		response.Error(w, http.StatusConflict, "JOB_NOT_RUNNING", "Job is not running", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}

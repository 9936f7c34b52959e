package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/daehan-cho/shopscribe/internal/api/middleware"
	"github.com/daehan-cho/shopscribe/internal/api/response"
)

// Dependencies holds all handler dependencies for the router.
type Dependencies struct {
	HealthHandler http.HandlerFunc

	SubmitJobHandler http.HandlerFunc
	ListJobsHandler  http.HandlerFunc
	GetJobHandler    http.HandlerFunc
	JobResultHandler http.HandlerFunc
	ResumeJobHandler http.HandlerFunc
	CancelJobHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Post("/api/v1/jobs", orNotImplemented(deps.SubmitJobHandler))
	r.Get("/api/v1/jobs", orNotImplemented(deps.ListJobsHandler))
	r.Get("/api/v1/jobs/{jobID}", orNotImplemented(deps.GetJobHandler))
	r.Get("/api/v1/jobs/{jobID}/result", orNotImplemented(deps.JobResultHandler))
	r.Post("/api/v1/jobs/{jobID}/resume", orNotImplemented(deps.ResumeJobHandler))
	r.Post("/api/v1/jobs/{jobID}/cancel", orNotImplemented(deps.CancelJobHandler))

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daehan-cho/shopscribe/internal/pipeline"
	"github.com/daehan-cho/shopscribe/internal/store"
	"github.com/daehan-cho/shopscribe/pkg/models"
)

// --- mock JobService ---

type mockJobService struct {
	SubmitFunc func(ctx context.Context, inputs []string, keyword string) (*models.Job, error)
	StatusFunc func(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ResultFunc func(ctx context.Context, id uuid.UUID) (*pipeline.JobResult, error)
	ResumeFunc func(ctx context.Context, id uuid.UUID) (*models.Job, error)
	CancelFunc func(ctx context.Context, id uuid.UUID) error
	ListFunc   func(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error)
}

func (m *mockJobService) Submit(ctx context.Context, inputs []string, keyword string) (*models.Job, error) {
	return m.SubmitFunc(ctx, inputs, keyword)
}

func (m *mockJobService) Status(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return m.StatusFunc(ctx, id)
}

func (m *mockJobService) Result(ctx context.Context, id uuid.UUID) (*pipeline.JobResult, error) {
	return m.ResultFunc(ctx, id)
}

func (m *mockJobService) Resume(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return m.ResumeFunc(ctx, id)
}

func (m *mockJobService) Cancel(ctx context.Context, id uuid.UUID) error {
	return m.CancelFunc(ctx, id)
}

func (m *mockJobService) List(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error) {
	return m.ListFunc(ctx, filter)
}

var _ JobService = (*mockJobService)(nil)

// --- helpers ---

func jsonReq(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	b, _ := json.Marshal(body)
	r := httptest.NewRequest(method, target, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withJobID attaches a chi route context carrying the jobID URL param.
func withJobID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("jobID", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func parseData(t *testing.T, rec *httptest.ResponseRecorder, want int) map[string]any {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
	var env struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Data
}

func parseErr(t *testing.T, rec *httptest.ResponseRecorder) (int, string) {
	t.Helper()
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, env.Error.Code
}

// --- submit ---

func TestSubmitJobHandler_Success(t *testing.T) {
	var gotInputs []string
	var gotKeyword string
	svc := &mockJobService{
		SubmitFunc: func(_ context.Context, inputs []string, keyword string) (*models.Job, error) {
			gotInputs = inputs
			gotKeyword = keyword
			return models.NewJob(inputs, keyword), nil
		},
	}

	h := NewSubmitJobHandler(svc)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, jsonReq(t, http.MethodPost, "/api/v1/jobs", map[string]any{
		"inputs":  []string{"B0ABC12345", "https://example.com/dp/B0XYZ67890"},
		"keyword": "mechanical keyboard",
	}))

	data := parseData(t, rec, http.StatusAccepted)
	if data["status"] != models.JobStatusPending {
		t.Errorf("unexpected status: %v", data["status"])
	}
	if len(gotInputs) != 2 {
		t.Errorf("expected 2 inputs, got %d", len(gotInputs))
	}
	if gotKeyword != "mechanical keyboard" {
		t.Errorf("unexpected keyword: %q", gotKeyword)
	}
}

func TestSubmitJobHandler_EmptyInputs(t *testing.T) {
	h := NewSubmitJobHandler(&mockJobService{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, jsonReq(t, http.MethodPost, "/api/v1/jobs", map[string]any{
		"inputs": []string{},
	}))

	status, code := parseErr(t, rec)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if code != "INVALID_REQUEST" {
		t.Errorf("expected INVALID_REQUEST, got %s", code)
	}
}

func TestSubmitJobHandler_TooManyInputs(t *testing.T) {
	inputs := make([]string, maxInputs+1)
	for i := range inputs {
		inputs[i] = "B0ABC12345"
	}

	h := NewSubmitJobHandler(&mockJobService{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, jsonReq(t, http.MethodPost, "/api/v1/jobs", map[string]any{
		"inputs": inputs,
	}))

	status, code := parseErr(t, rec)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if code != "INVALID_REQUEST" {
		t.Errorf("expected INVALID_REQUEST, got %s", code)
	}
}

func TestSubmitJobHandler_InvalidJSON(t *testing.T) {
	h := NewSubmitJobHandler(&mockJobService{})
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader([]byte("{invalid")))
	h.ServeHTTP(rec, r)

	status, code := parseErr(t, rec)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if code != "INVALID_REQUEST" {
		t.Errorf("expected INVALID_REQUEST, got %s", code)
	}
}

func TestSubmitJobHandler_ServiceError(t *testing.T) {
	svc := &mockJobService{
		SubmitFunc: func(_ context.Context, _ []string, _ string) (*models.Job, error) {
			return nil, errors.New("database down")
		},
	}

	h := NewSubmitJobHandler(svc)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, jsonReq(t, http.MethodPost, "/api/v1/jobs", map[string]any{
		"inputs": []string{"B0ABC12345"},
	}))

	status, code := parseErr(t, rec)
	if status != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", status)
	}
	if code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", code)
	}
}

// --- status ---

func TestGetJobHandler_Success(t *testing.T) {
	job := models.NewJob([]string{"B0ABC12345"}, "desk lamp")
	svc := &mockJobService{
		StatusFunc: func(_ context.Context, id uuid.UUID) (*models.Job, error) {
			if id != job.ID {
				t.Errorf("expected id %s, got %s", job.ID, id)
			}
			return job, nil
		},
	}

	h := NewGetJobHandler(svc)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID.String(), nil)
	h.ServeHTTP(rec, withJobID(r, job.ID.String()))

	data := parseData(t, rec, http.StatusOK)
	if data["id"] != job.ID.String() {
		t.Errorf("unexpected id: %v", data["id"])
	}
}

func TestGetJobHandler_NotFound(t *testing.T) {
	svc := &mockJobService{
		StatusFunc: func(_ context.Context, _ uuid.UUID) (*models.Job, error) {
			return nil, store.ErrNotFound
		},
	}

	h := NewGetJobHandler(svc)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/x", nil)
	h.ServeHTTP(rec, withJobID(r, uuid.NewString()))

	status, code := parseErr(t, rec)
	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
	if code != "JOB_NOT_FOUND" {
		t.Errorf("expected JOB_NOT_FOUND, got %s", code)
	}
}

func TestGetJobHandler_BadUUID(t *testing.T) {
	h := NewGetJobHandler(&mockJobService{})
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/not-a-uuid", nil)
	h.ServeHTTP(rec, withJobID(r, "not-a-uuid"))

	status, code := parseErr(t, rec)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if code != "INVALID_REQUEST" {
		t.Errorf("expected INVALID_REQUEST, got %s", code)
	}
}

// --- result ---

func TestJobResultHandler_Success(t *testing.T) {
	job := models.NewJob([]string{"B0ABC12345"}, "")
	job.Start()
	job.Complete()
	svc := &mockJobService{
		ResultFunc: func(_ context.Context, _ uuid.UUID) (*pipeline.JobResult, error) {
			return &pipeline.JobResult{
				Job: job,
				Publish: &models.PublishResult{
					PostID: 42,
					Status: models.PublishCreated,
					URL:    "https://blog.example.com/?p=42",
				},
			}, nil
		},
	}

	h := NewJobResultHandler(svc)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/x/result", nil)
	h.ServeHTTP(rec, withJobID(r, job.ID.String()))

	data := parseData(t, rec, http.StatusOK)
	pub, ok := data["publish"].(map[string]any)
	if !ok {
		t.Fatalf("publish not a map: %v", data["publish"])
	}
	if int(pub["post_id"].(float64)) != 42 {
		t.Errorf("unexpected post_id: %v", pub["post_id"])
	}
}

func TestJobResultHandler_StillRunning(t *testing.T) {
	svc := &mockJobService{
		ResultFunc: func(_ context.Context, _ uuid.UUID) (*pipeline.JobResult, error) {
			return nil, pipeline.ErrJobRunning
		},
	}

	h := NewJobResultHandler(svc)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/x/result", nil)
	h.ServeHTTP(rec, withJobID(r, uuid.NewString()))

	status, code := parseErr(t, rec)
	if status != http.StatusConflict {
		t.Errorf("expected 409, got %d", status)
	}
	if code != "JOB_RUNNING" {
		t.Errorf("expected JOB_RUNNING, got %s", code)
	}
}

// --- resume ---

func TestResumeJobHandler_Success(t *testing.T) {
	job := models.NewJob([]string{"B0ABC12345"}, "")
	svc := &mockJobService{
		ResumeFunc: func(_ context.Context, _ uuid.UUID) (*models.Job, error) {
			return job, nil
		},
	}

	h := NewResumeJobHandler(svc)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/x/resume", nil)
	h.ServeHTTP(rec, withJobID(r, job.ID.String()))

	data := parseData(t, rec, http.StatusAccepted)
	if data["id"] != job.ID.String() {
		t.Errorf("unexpected id: %v", data["id"])
	}
}

func TestResumeJobHandler_AlreadyCompleted(t *testing.T) {
	svc := &mockJobService{
		ResumeFunc: func(_ context.Context, _ uuid.UUID) (*models.Job, error) {
			return nil, pipeline.ErrJobCompleted
		},
	}

	h := NewResumeJobHandler(svc)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/x/resume", nil)
	h.ServeHTTP(rec, withJobID(r, uuid.NewString()))

	status, code := parseErr(t, rec)
	if status != http.StatusConflict {
		t.Errorf("expected 409, got %d", status)
	}
	if code != "JOB_COMPLETED" {
		t.Errorf("expected JOB_COMPLETED, got %s", code)
	}
}

func TestResumeJobHandler_StillRunning(t *testing.T) {
	svc := &mockJobService{
		ResumeFunc: func(_ context.Context, _ uuid.UUID) (*models.Job, error) {
			return nil, pipeline.ErrJobRunning
		},
	}

	h := NewResumeJobHandler(svc)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/x/resume", nil)
	h.ServeHTTP(rec, withJobID(r, uuid.NewString()))

	status, code := parseErr(t, rec)
	if status != http.StatusConflict {
		t.Errorf("expected 409, got %d", status)
	}
	if code != "JOB_RUNNING" {
		t.Errorf("expected JOB_RUNNING, got %s", code)
	}
}

// --- cancel ---

func TestCancelJobHandler_Success(t *testing.T) {
	var cancelled uuid.UUID
	svc := &mockJobService{
		CancelFunc: func(_ context.Context, id uuid.UUID) error {
			cancelled = id
			return nil
		},
	}

	id := uuid.New()
	h := NewCancelJobHandler(svc)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/x/cancel", nil)
	h.ServeHTTP(rec, withJobID(r, id.String()))

	data := parseData(t, rec, http.StatusAccepted)
	if data["status"] != "cancelling" {
		t.Errorf("unexpected status: %v", data["status"])
	}
	if cancelled != id {
		t.Errorf("expected cancel for %s, got %s", id, cancelled)
	}
}

func TestCancelJobHandler_NotRunning(t *testing.T) {
	svc := &mockJobService{
		CancelFunc: func(_ context.Context, _ uuid.UUID) error {
			return pipeline.ErrJobNotRunning
		},
	}

	h := NewCancelJobHandler(svc)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/x/cancel", nil)
	h.ServeHTTP(rec, withJobID(r, uuid.NewString()))

	status, code := parseErr(t, rec)
	if status != http.StatusConflict {
		t.Errorf("expected 409, got %d", status)
	}
	if code != "JOB_NOT_RUNNING" {
		t.Errorf("expected JOB_NOT_RUNNING, got %s", code)
	}
}

func TestCancelJobHandler_NotFound(t *testing.T) {
	svc := &mockJobService{
		CancelFunc: func(_ context.Context, _ uuid.UUID) error {
			return store.ErrNotFound
		},
	}

	h := NewCancelJobHandler(svc)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/x/cancel", nil)
	h.ServeHTTP(rec, withJobID(r, uuid.NewString()))

	status, code := parseErr(t, rec)
	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
	if code != "JOB_NOT_FOUND" {
		t.Errorf("expected JOB_NOT_FOUND, got %s", code)
	}
}

// --- list ---

func TestListJobsHandler_Success(t *testing.T) {
	var gotFilter store.JobFilter
	jobs := []*models.Job{
		models.NewJob([]string{"B0ABC12345"}, ""),
		models.NewJob([]string{"B0XYZ67890"}, ""),
	}
	svc := &mockJobService{
		ListFunc: func(_ context.Context, filter store.JobFilter) ([]*models.Job, int, error) {
			gotFilter = filter
			return jobs, 25, nil
		},
	}

	h := NewListJobsHandler(svc)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/jobs?status=completed&page=2&limit=10", nil)
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotFilter.Status != "completed" || gotFilter.Page != 2 || gotFilter.Limit != 10 {
		t.Errorf("unexpected filter: %+v", gotFilter)
	}

	var env struct {
		Data []map[string]any `json:"data"`
		Meta struct {
			Page    int  `json:"page"`
			Limit   int  `json:"limit"`
			Total   int  `json:"total"`
			HasNext bool `json:"has_next"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data) != 2 {
		t.Errorf("expected 2 jobs, got %d", len(env.Data))
	}
	if env.Meta.Total != 25 || env.Meta.Page != 2 || !env.Meta.HasNext {
		t.Errorf("unexpected meta: %+v", env.Meta)
	}
}

func TestListJobsHandler_Error(t *testing.T) {
	svc := &mockJobService{
		ListFunc: func(_ context.Context, _ store.JobFilter) ([]*models.Job, int, error) {
			return nil, 0, errors.New("db error")
		},
	}

	h := NewListJobsHandler(svc)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))

	status, code := parseErr(t, rec)
	if status != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", status)
	}
	if code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", code)
	}
}

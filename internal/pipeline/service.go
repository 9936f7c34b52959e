package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daehan-cho/shopscribe/internal/checkpoint"
	"github.com/daehan-cho/shopscribe/internal/store"
	"github.com/daehan-cho/shopscribe/pkg/models"
)

var (
	ErrJobRunning    = errors.New("job is still running")
	ErrJobNotRunning = errors.New("job is not running")
	ErrJobCompleted  = errors.New("job already completed")
	ErrNoInputs      = errors.New("no inputs provided")
)

// JobResult is the full outcome of a job: the job row plus whatever stage
// outputs the checkpoint still holds.
type JobResult struct {
	Job      *models.Job                 `json:"job"`
	Outcomes []models.AcquisitionOutcome `json:"outcomes,omitempty"`
	Article  *models.ArticleContent      `json:"article,omitempty"`
	Publish  *models.PublishResult       `json:"publish,omitempty"`
}

// Service is the exposed pipeline surface. Jobs run in background goroutines;
// every operation here returns immediately.
type Service struct {
	store       store.Store
	checkpoints checkpoint.Store
	runner      *Runner
	logger      *slog.Logger

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

func NewService(st store.Store, checkpoints checkpoint.Store, runner *Runner, logger *slog.Logger) *Service {
	return &Service{
		store:       st,
		checkpoints: checkpoints,
		runner:      runner,
		logger:      logger,
		cancels:     make(map[uuid.UUID]context.CancelFunc),
	}
}

// Submit registers a job for the raw inputs and starts it asynchronously.
func (s *Service) Submit(ctx context.Context, inputs []string, keyword string) (*models.Job, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}

	job := models.NewJob(inputs, keyword)
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("registering job: %w", err)
	}

	s.logger.Info("job submitted", "job_id", job.ID, "inputs", len(inputs), "keyword", keyword)
	s.start(job, false)
	return job, nil
}

// Status returns the job row.
func (s *Service) Status(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return s.store.GetJob(ctx, id)
}

// Result returns the job plus the stage outputs recovered from its
// checkpoint. A missing checkpoint (expired, or never written) yields the
// job row alone.
func (s *Service) Result(ctx context.Context, id uuid.UUID) (*JobResult, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if !job.Terminal() {
		return nil, ErrJobRunning
	}

	result := &JobResult{Job: job}
	cp, ok, err := s.checkpoints.Load(ctx, id)
	if err != nil || !ok {
		return result, nil
	}
	var st stageState
	if err := cp.Decode(&st); err != nil {
		s.logger.Warn("checkpoint decode failed for result", "job_id", id, "error", err)
		return result, nil
	}
	result.Outcomes = st.Outcomes
	result.Article = st.Article
	result.Publish = st.Result
	return result, nil
}

// Resume restarts a non-completed job from the stage after its last
// unexpired checkpoint. A row stuck at running or pending whose job is not
// in this process's in-flight registry was orphaned by a crash of a previous
// process; it cannot still be executing here, so it is reopened the same way
// as a failed one.
func (s *Service) Resume(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	switch job.Status {
	case models.JobStatusRunning, models.JobStatusPending:
		if s.inFlight(id) {
			return nil, ErrJobRunning
		}
		s.logger.Warn("reopening orphaned job", "job_id", job.ID, "status", job.Status)
	case models.JobStatusCompleted:
		return nil, ErrJobCompleted
	}

	job.Reopen()
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("reopening job: %w", err)
	}

	s.logger.Info("job resume requested", "job_id", job.ID)
	s.start(job, true)
	return job, nil
}

// Cancel stops a running job. The pipeline observes the cancellation at its
// next stage or item boundary and marks the job cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	cancel, ok := s.cancels[id]
	s.mu.Unlock()
	if ok {
		s.logger.Info("job cancel requested", "job_id", id)
		cancel()
		return nil
	}

	// Not in flight in this process; surface unknown ids as not-found.
	if _, err := s.store.GetJob(ctx, id); err != nil {
		return err
	}
	return ErrJobNotRunning
}

// List returns jobs matching the filter with a total count.
func (s *Service) List(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error) {
	return s.store.ListJobs(ctx, filter)
}

// CleanupOldJobs deletes terminal jobs older than the retention window.
func (s *Service) CleanupOldJobs(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	deleted, err := s.store.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("old jobs deleted", "count", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}

// Running reports how many jobs are currently in flight in this process.
func (s *Service) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cancels)
}

func (s *Service) inFlight(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cancels[id]
	return ok
}

func (s *Service) start(job *models.Job, resume bool) {
	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[job.ID] = cancel
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.cancels, job.ID)
			s.mu.Unlock()
			cancel()
		}()

		if resume {
			s.runner.Resume(runCtx, job)
		} else {
			s.runner.Run(runCtx, job)
		}
	}()
}

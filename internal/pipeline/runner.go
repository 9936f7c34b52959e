// Package pipeline orchestrates the end-to-end job flow: identifier
// extraction, tiered acquisition, content synthesis and publishing, with a
// checkpoint after every completed stage.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/daehan-cho/shopscribe/internal/acquire"
	"github.com/daehan-cho/shopscribe/internal/checkpoint"
	"github.com/daehan-cho/shopscribe/internal/extract"
	"github.com/daehan-cho/shopscribe/internal/store"
	"github.com/daehan-cho/shopscribe/pkg/models"
)

// Acquirer runs the tier chain over an identifier batch.
type Acquirer interface {
	Run(ctx context.Context, ids []string, keyword string) ([]models.AcquisitionOutcome, error)
}

// Synthesizer renders an article from the resolved outcomes.
type Synthesizer interface {
	Article(outcomes []models.AcquisitionOutcome, keyword string) models.ArticleContent
}

// Publisher pushes the article to the CMS.
type Publisher interface {
	Publish(ctx context.Context, article models.ArticleContent, ids []string, keyword string) (models.PublishResult, error)
}

// Releaser scopes shared stage resources (the browser context) to jobs.
// Acquire marks a job as holding the resource; Release drops that hold. The
// implementation must not free the resource while another job still holds
// it, only once every holder has released.
type Releaser interface {
	Acquire()
	Release()
}

// stageState is the cumulative stage output carried between stages and
// serialized into every checkpoint. Resume decodes it instead of recomputing
// the completed stages.
type stageState struct {
	IDs      []string                    `json:"ids,omitempty"`
	Outcomes []models.AcquisitionOutcome `json:"outcomes,omitempty"`
	Article  *models.ArticleContent      `json:"article,omitempty"`
	Result   *models.PublishResult       `json:"result,omitempty"`
}

var stageOrder = []string{
	models.StageExtract,
	models.StageAcquire,
	models.StageSynthesize,
	models.StagePublish,
}

func stageIndex(stage string) int {
	for i, s := range stageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

// Runner executes one job's stages sequentially. Concurrency lives inside
// the acquisition stage, not between stages.
type Runner struct {
	acquirer    Acquirer
	synthesizer Synthesizer
	publisher   Publisher
	checkpoints checkpoint.Store
	store       store.Store
	releasers   []Releaser
	ttl         time.Duration
	logger      *slog.Logger
}

func NewRunner(
	acquirer Acquirer,
	synthesizer Synthesizer,
	publisher Publisher,
	checkpoints checkpoint.Store,
	st store.Store,
	releasers []Releaser,
	ttl time.Duration,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		acquirer:    acquirer,
		synthesizer: synthesizer,
		publisher:   publisher,
		checkpoints: checkpoints,
		store:       st,
		releasers:   releasers,
		ttl:         ttl,
		logger:      logger,
	}
}

// Run executes the job from the beginning.
func (r *Runner) Run(ctx context.Context, job *models.Job) {
	r.run(ctx, job, stageState{}, "")
}

// Resume re-enters the job at the stage after the last checkpointed one. A
// missing, expired or unreadable checkpoint restarts from the beginning.
func (r *Runner) Resume(ctx context.Context, job *models.Job) {
	st, lastDone := r.loadCheckpoint(ctx, job.ID)
	if lastDone != "" {
		r.logger.Info("resuming job from checkpoint", "job_id", job.ID, "completed_stage", lastDone)
	}
	r.run(ctx, job, st, lastDone)
}

func (r *Runner) loadCheckpoint(ctx context.Context, jobID uuid.UUID) (stageState, string) {
	cp, ok, err := r.checkpoints.Load(ctx, jobID)
	if err != nil {
		r.logger.Warn("checkpoint read failed, restarting job from scratch", "job_id", jobID, "error", err)
		return stageState{}, ""
	}
	if !ok {
		return stageState{}, ""
	}
	if cp.Expired(r.ttl) {
		r.logger.Info("checkpoint expired, restarting job from scratch",
			"job_id", jobID, "written_at", cp.WrittenAt)
		return stageState{}, ""
	}
	var st stageState
	if err := cp.Decode(&st); err != nil {
		r.logger.Warn("checkpoint decode failed, restarting job from scratch", "job_id", jobID, "error", err)
		return stageState{}, ""
	}
	return st, cp.Stage
}

func (r *Runner) run(ctx context.Context, job *models.Job, st stageState, lastDone string) {
	r.acquire()
	defer r.release()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("pipeline panic", "job_id", job.ID, "stage", job.Stage, "panic", rec)
			job.Fail("internal_error")
			r.persist(job)
		}
	}()

	job.Start()
	// Completed stages mirror the checkpoint exactly; a restart from scratch
	// clears any stale entries from the previous attempt.
	job.CompletedStages = append([]string(nil), stageOrder[:stageIndex(lastDone)+1]...)
	r.persist(job)

	for i := stageIndex(lastDone) + 1; i < len(stageOrder); i++ {
		if ctx.Err() != nil {
			r.cancelJob(job)
			return
		}

		stage := stageOrder[i]
		job.Stage = stage
		r.persist(job)
		r.logger.Info("stage started", "job_id", job.ID, "stage", stage)

		ok := r.runStage(ctx, job, stage, &st)
		if !ok {
			return
		}

		job.MarkStageDone(stage)
		r.writeCheckpoint(ctx, job.ID, stage, st)
		r.persist(job)
	}

	job.Complete()
	r.persist(job)
	r.logger.Info("job completed",
		"job_id", job.ID,
		"resolved", job.Summary.ResolvedItems,
		"exhausted", job.Summary.ExhaustedItems)
}

// runStage executes one stage, mutating st. A false return means the job
// reached a terminal status and the loop must stop.
func (r *Runner) runStage(ctx context.Context, job *models.Job, stage string, st *stageState) bool {
	switch stage {
	case models.StageExtract:
		st.IDs = extract.Identifiers(job.Inputs)
		if len(st.IDs) == 0 {
			job.Fail(models.ReasonNoIdentifiers)
			r.persist(job)
			return false
		}

	case models.StageAcquire:
		outcomes, err := r.acquirer.Run(ctx, st.IDs, job.Keyword)
		if err != nil {
			r.cancelJob(job)
			return false
		}
		st.Outcomes = outcomes
		job.Summary = summarize(outcomes)
		if acquire.ResolvedCount(outcomes) == 0 {
			job.Fail(models.ReasonAcquisitionExhausted)
			r.persist(job)
			return false
		}

	case models.StageSynthesize:
		article := r.synthesizer.Article(st.Outcomes, job.Keyword)
		st.Article = &article

	case models.StagePublish:
		result, err := r.publisher.Publish(ctx, *st.Article, st.IDs, job.Keyword)
		if err != nil {
			if ctx.Err() != nil {
				r.cancelJob(job)
				return false
			}
			r.logger.Error("publish failed", "job_id", job.ID, "error", err)
			job.Fail(models.ReasonPublishFailed)
			r.persist(job)
			return false
		}
		st.Result = &result
	}
	return true
}

// writeCheckpoint is fire-and-forget: a failure is logged and the pipeline
// moves on.
func (r *Runner) writeCheckpoint(ctx context.Context, jobID uuid.UUID, stage string, st stageState) {
	cp, err := checkpoint.New(jobID, stage, st)
	if err != nil {
		r.logger.Warn("checkpoint serialization failed", "job_id", jobID, "stage", stage, "error", err)
		return
	}
	if err := r.checkpoints.Save(ctx, cp); err != nil {
		r.logger.Warn("checkpoint write failed", "job_id", jobID, "stage", stage, "error", err)
	}
}

func (r *Runner) cancelJob(job *models.Job) {
	r.logger.Info("job cancelled", "job_id", job.ID, "stage", job.Stage)
	job.Cancel()
	r.persist(job)
}

// persist writes job state on its own short context: the job's context may
// already be cancelled when a terminal status is recorded.
func (r *Runner) persist(job *models.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.UpdateJob(ctx, job); err != nil {
		r.logger.Error("job state write failed", "job_id", job.ID, "error", err)
	}
}

func (r *Runner) acquire() {
	for _, rel := range r.releasers {
		rel.Acquire()
	}
}

func (r *Runner) release() {
	for _, rel := range r.releasers {
		rel.Release()
	}
}

func summarize(outcomes []models.AcquisitionOutcome) models.ItemSummary {
	s := models.ItemSummary{TotalItems: len(outcomes)}
	for _, o := range outcomes {
		if o.Resolved() {
			s.ResolvedItems++
		} else {
			s.ExhaustedItems++
		}
	}
	if s.TotalItems > 0 {
		s.SuccessRate = float64(s.ResolvedItems) / float64(s.TotalItems)
	}
	return s
}

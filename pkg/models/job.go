// Package models contains shared data models used across the shopscribe codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// Pipeline stage names, in execution order. Checkpoints record the last
// completed stage; resume re-enters at the stage after it.
const (
	StageExtract    = "extract"
	StageAcquire    = "acquire"
	StageSynthesize = "synthesize"
	StagePublish    = "publish"
)

// Terminal reason codes. A failed job always carries the most specific
// reason reachable.
const (
	ReasonNoIdentifiers        = "no_identifiers"
	ReasonAcquisitionExhausted = "acquisition_exhausted"
	ReasonPublishFailed        = "publish_failed"
)

// Job is the unit of work: one end-to-end pipeline run over a batch of
// product identifiers.
type Job struct {
	ID              uuid.UUID   `db:"id"               json:"id"`
	Inputs          []string    `db:"inputs"           json:"inputs"`
	Keyword         string      `db:"keyword"          json:"keyword,omitempty"`
	Stage           string      `db:"stage"            json:"stage"`
	CompletedStages []string    `db:"completed_stages" json:"completed_stages"`
	Status          string      `db:"status"           json:"status"`
	Reason          string      `db:"reason"           json:"reason,omitempty"`
	Summary         ItemSummary `db:"summary"          json:"summary"`
	StartedAt       *time.Time  `db:"started_at"       json:"started_at,omitempty"`
	CompletedAt     *time.Time  `db:"completed_at"     json:"completed_at,omitempty"`
	CreatedAt       time.Time   `db:"created_at"       json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"       json:"updated_at"`
}

// ItemSummary reports per-item coverage for a job. Partial success is
// success with a coverage count, never a warning-laden failure.
type ItemSummary struct {
	TotalItems       int     `json:"total_items"`
	ResolvedItems    int     `json:"resolved_items"`
	ExhaustedItems   int     `json:"exhausted_items"`
	SuccessRate      float64 `json:"success_rate"`
	ProcessingTimeMS int64   `json:"processing_time_ms,omitempty"`
}

// NewJob creates a pending job for the given raw inputs.
func NewJob(inputs []string, keyword string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.New(),
		Inputs:    inputs,
		Keyword:   keyword,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkStageDone records a completed stage and advances the job clock.
func (j *Job) MarkStageDone(stage string) {
	j.CompletedStages = append(j.CompletedStages, stage)
	j.UpdatedAt = time.Now().UTC()
}

// Start marks the job running.
func (j *Job) Start() {
	now := time.Now().UTC()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.UpdatedAt = now
}

// Complete marks the job completed and computes processing time.
func (j *Job) Complete() {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.UpdatedAt = now
	if j.StartedAt != nil {
		j.Summary.ProcessingTimeMS = now.Sub(*j.StartedAt).Milliseconds()
	}
}

// Fail marks the job failed with a reason code.
func (j *Job) Fail(reason string) {
	now := time.Now().UTC()
	j.Status = JobStatusFailed
	j.Reason = reason
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// Cancel marks the job cancelled. Completed stages keep their checkpoints.
func (j *Job) Cancel() {
	now := time.Now().UTC()
	j.Status = JobStatusCancelled
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// Reopen clears a terminal status so the job can run again. Checkpoints, not
// this method, decide which stages actually re-execute.
func (j *Job) Reopen() {
	j.Status = JobStatusPending
	j.Reason = ""
	j.CompletedAt = nil
	j.UpdatedAt = time.Now().UTC()
}

// Terminal reports whether the job has reached a final status.
func (j *Job) Terminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

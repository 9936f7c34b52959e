package store

import (
	"context"
	"errors"
	"time"

	"github.com/daehan-cho/shopscribe/pkg/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateJob(ctx context.Context, job *models.Job) error
	ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error)
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// JobFilter narrows and pages ListJobs results.
type JobFilter struct {
	Status string
	Page   int
	Limit  int
}

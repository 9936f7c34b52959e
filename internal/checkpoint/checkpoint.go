// Package checkpoint records per-stage job progress in an external key/value
// store so a crashed or cancelled job can resume without redoing completed
// work.
package checkpoint

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Checkpoint is the durable record of the last completed pipeline stage for a
// job. The Output payload is the JSON-serialized stage output and is the sole
// source of truth on resume.
type Checkpoint struct {
	JobID     uuid.UUID       `json:"job_id"`
	Stage     string          `json:"stage"`
	Output    json.RawMessage `json:"output"`
	WrittenAt time.Time       `json:"written_at"`
}

// Store is the checkpoint persistence interface. Implementations must be safe
// for concurrent use. Per-key writes are assumed atomic; no additional locking
// happens here.
type Store interface {
	Save(ctx context.Context, cp Checkpoint) error
	Load(ctx context.Context, jobID uuid.UUID) (Checkpoint, bool, error)
	Delete(ctx context.Context, jobID uuid.UUID) error
	Ping(ctx context.Context) error
}

// New builds a checkpoint for a stage output, serializing it to JSON.
func New(jobID uuid.UUID, stage string, output any) (Checkpoint, error) {
	raw, err := json.Marshal(output)
	if err != nil {
		return Checkpoint{}, err
	}
	return Checkpoint{
		JobID:     jobID,
		Stage:     stage,
		Output:    raw,
		WrittenAt: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the stored stage output into v.
func (c Checkpoint) Decode(v any) error {
	return json.Unmarshal(c.Output, v)
}

// Expired reports whether the checkpoint is older than ttl. An expired
// checkpoint is treated as absent: the job restarts from the beginning.
func (c Checkpoint) Expired(ttl time.Duration) bool {
	return time.Since(c.WrittenAt) > ttl
}

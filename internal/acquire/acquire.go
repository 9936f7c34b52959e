// Package acquire runs the tiered product-data acquisition state machine:
// structured fetch, then headless-browser scrape, then generative-model
// inference, stopping at the first tier that yields a record.
package acquire

import (
	"context"
	"errors"

	"github.com/daehan-cho/shopscribe/pkg/models"
)

// ErrMiss is the explicit "no data here" result of a tier. A miss advances the
// item to the next tier; it is never surfaced as a job error.
var ErrMiss = errors.New("tier miss")

// Item is one product identifier flowing through the tier chain, together
// with the job's optional keyword.
type Item struct {
	ProductID string
	Keyword   string
}

// Result is a tier's output: exactly one of Record or Enriched is set.
// Tiers 1 and 2 produce plain records; tier 3 produces enriched ones.
type Result struct {
	Record   *models.ProductRecord
	Enriched *models.EnrichedProductRecord
}

// Tier is one data-acquisition strategy in the fallback chain. The chain is a
// closed, ordered list of these, fixed at construction.
type Tier interface {
	// Fetch returns the item's product data or ErrMiss. Implementations must
	// honor ctx cancellation and never panic across this boundary.
	Fetch(ctx context.Context, item Item) (Result, error)
	// Name identifies the tier in logs and failure reasons.
	Name() string
}

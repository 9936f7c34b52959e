package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/daehan-cho/shopscribe/pkg/models"
)

// Controller sequences the tier chain per item and aggregates the batch.
// Items run concurrently up to the worker limit; the tiers for one item run
// strictly in order and stop at the first success.
type Controller struct {
	tiers       []Tier
	workers     int
	tierTimeout time.Duration
}

// NewController builds a controller over an ordered tier chain.
func NewController(tiers []Tier, workers int, tierTimeout time.Duration) *Controller {
	if workers < 1 {
		workers = 1
	}
	return &Controller{tiers: tiers, workers: workers, tierTimeout: tierTimeout}
}

// Run processes every item and returns one outcome per item, in input order.
// Per-item exhaustion is recorded in the outcome, not returned as an error;
// the only error Run returns is a cancelled context.
func (c *Controller) Run(ctx context.Context, ids []string, keyword string) ([]models.AcquisitionOutcome, error) {
	outcomes := make([]models.AcquisitionOutcome, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, id := range ids {
		g.Go(func() error {
			outcome, err := c.processItem(gctx, Item{ProductID: id, Keyword: keyword})
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// processItem walks the tier chain for a single item. A tier failure,
// including a timeout, advances to the next tier; there is no retry within a
// tier.
func (c *Controller) processItem(ctx context.Context, item Item) (models.AcquisitionOutcome, error) {
	outcome := models.AcquisitionOutcome{ProductID: item.ProductID, Tier: models.TierNone}

	for i, tier := range c.tiers {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		tierNum := i + 1
		res, err := c.attemptTier(ctx, tier, item)
		if err == nil {
			outcome.Tier = tierNum
			outcome.Record = res.Record
			outcome.Enriched = res.Enriched
			slog.Info("item resolved",
				"product_id", item.ProductID, "tier", tierNum, "source", tier.Name())
			return outcome, nil
		}

		// A cancelled job stops mid-chain; a tier miss or timeout does not.
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}

		outcome.Failures = append(outcome.Failures, models.TierFailure{
			Tier:   tierNum,
			Reason: failureReason(err),
		})
		slog.Debug("tier missed",
			"product_id", item.ProductID, "tier", tierNum, "source", tier.Name(), "reason", failureReason(err))
	}

	slog.Warn("item exhausted all tiers", "product_id", item.ProductID)
	return outcome, nil
}

// attemptTier time-boxes a single tier call.
func (c *Controller) attemptTier(ctx context.Context, tier Tier, item Item) (Result, error) {
	tierCtx := ctx
	if c.tierTimeout > 0 {
		var cancel context.CancelFunc
		tierCtx, cancel = context.WithTimeout(ctx, c.tierTimeout)
		defer cancel()
	}

	res, err := tier.Fetch(tierCtx, item)
	if err != nil {
		// A timeout of the tier's own budget counts as a miss; only the
		// job-level context cancels the item.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return Result{}, fmt.Errorf("%w: timeout", ErrMiss)
		}
		return Result{}, err
	}
	if res.Record == nil && res.Enriched == nil {
		return Result{}, ErrMiss
	}
	return res, nil
}

// ResolvedCount returns how many outcomes carry a record.
func ResolvedCount(outcomes []models.AcquisitionOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Resolved() {
			n++
		}
	}
	return n
}

func failureReason(err error) string {
	if errors.Is(err, ErrMiss) {
		if msg := err.Error(); msg != ErrMiss.Error() {
			return msg
		}
		return "miss"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return err.Error()
}

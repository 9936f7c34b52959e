package infer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/daehan-cho/shopscribe/internal/acquire"
)

// Tier adapts a Provider to the acquisition chain. It is the last tier, so
// every failure mode degrades to a miss instead of an error.
type Tier struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger
}

func NewTier(provider Provider, timeout time.Duration, logger *slog.Logger) *Tier {
	return &Tier{provider: provider, timeout: timeout, logger: logger}
}

func (t *Tier) Name() string { return "inference" }

func (t *Tier) Fetch(ctx context.Context, item acquire.Item) (acquire.Result, error) {
	callCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	raw, err := t.provider.Complete(callCtx, buildPrompt(item.ProductID, item.Keyword))
	if err != nil {
		if ctx.Err() != nil {
			return acquire.Result{}, ctx.Err()
		}
		return acquire.Result{}, fmt.Errorf("%w: %s: %v", acquire.ErrMiss, t.provider.Name(), err)
	}

	enriched, err := parseEstimate(raw, item.ProductID)
	if err != nil {
		t.logger.Warn("unparseable inference response",
			"provider", t.provider.Name(),
			"product_id", item.ProductID,
			"error", err)
		return acquire.Result{}, fmt.Errorf("%w: %v", acquire.ErrMiss, err)
	}

	return acquire.Result{Enriched: enriched}, nil
}

var _ acquire.Tier = (*Tier)(nil)

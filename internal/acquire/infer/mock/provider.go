package mock

import "context"

// Provider satisfies infer.Provider for testing.
type Provider struct {
	Name_        string
	CompleteFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *Provider) Name() string { return m.Name_ }

func (m *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return "", nil
}

// NewProvider returns a Provider with a plausible default response.
func NewProvider() *Provider {
	return &Provider{
		Name_: "mock",
		CompleteFunc: func(_ context.Context, _ string) (string, error) {
			return `{
  "name": "Estimated Product",
  "price": 19900,
  "currency": "KRW",
  "category": "General",
  "rating": 4.2,
  "review_count": 120,
  "description": "Simulated product estimate from the mock provider.",
  "features": ["Simulated feature"],
  "benefits": ["Simulated benefit"],
  "target_audience": "Shoppers evaluating this product.",
  "comparison": "Comparable to similar items in its category.",
  "recommendations": ["Suitable for everyday use."]
}`, nil
		},
	}
}

// NewFailingProvider returns a Provider that always returns the given error.
func NewFailingProvider(err error) *Provider {
	return &Provider{
		Name_: "mock-failing",
		CompleteFunc: func(_ context.Context, _ string) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a Provider that blocks until context is cancelled.
func NewTimeoutProvider() *Provider {
	return &Provider{
		Name_: "mock-timeout",
		CompleteFunc: func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
}

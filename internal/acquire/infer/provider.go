// Package infer implements acquisition tier 3: estimating product attributes
// with a generative-model service when both scraping tiers fail.
package infer

import "context"

// Provider is the interface every generative-model integration implements.
// Callers inject this interface rather than a concrete provider.
type Provider interface {
	// Complete sends a prompt and returns the model's raw text response.
	Complete(ctx context.Context, prompt string) (string, error)
	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string
}

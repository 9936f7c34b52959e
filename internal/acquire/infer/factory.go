package infer

import (
	"fmt"

	"github.com/daehan-cho/shopscribe/internal/acquire/infer/anthropic"
	"github.com/daehan-cho/shopscribe/internal/acquire/infer/mock"
	"github.com/daehan-cho/shopscribe/internal/acquire/infer/openai"
	"github.com/daehan-cho/shopscribe/internal/config"
)

// NewProvider constructs the configured generative-model provider. Called
// once at server startup.
func NewProvider(cfg config.InferenceConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewProvider(cfg.OpenAI), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic), nil
	case "mock":
		return mock.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q: must be one of openai, anthropic, mock", cfg.Provider)
	}
}

// Compile-time checks that every subpackage satisfies Provider.
var (
	_ Provider = (*openai.Provider)(nil)
	_ Provider = (*anthropic.Provider)(nil)
	_ Provider = (*mock.Provider)(nil)
)

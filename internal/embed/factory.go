package embed

import (
	"context"
	"fmt"
)

// Config is the resolved embedder configuration, built from the Embedding*
// fields of internal/config.Config plus provider settings from the environment.
type Config struct {
	Provider  string
	Model     string
	Base      string
	APIKey    string
	Dimension int
}

// New constructs an Embedder for cfg.Provider. Unknown providers fail with
// a configuration error.
func New(ctx context.Context, cfg *Config) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(&OpenAIConfig{
			Base:      cfg.Base,
			Model:     cfg.Model,
			APIKey:    cfg.APIKey,
			Dimension: cfg.Dimension,
		})

	case "gemini":
		return NewGeminiEmbedder(ctx, &GeminiConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
		})

	case "local":
		return NewLocalEmbedder()

	default:
		return nil, fmt.Errorf("embed: unknown provider %q (configuration error)", cfg.Provider)
	}
}

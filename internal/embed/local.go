package embed

import (
	"context"
	"fmt"
)

// localEmbedder is the stub for the "local" provider: an optional
// compile-time in-process embedder for E5-family models. No such dependency
// is available to this build, so instantiation always fails with a clear
// configuration error rather than silently falling back to a different
// provider.
type localEmbedder struct{}

// NewLocalEmbedder always returns a configuration error: the local embedder
// was not linked into this build.
func NewLocalEmbedder() (Embedder, error) {
	return nil, fmt.Errorf("embed: local: provider not available in this build (configuration error)")
}

func (localEmbedder) Dimension() int { return 0 }

func (localEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, fmt.Errorf("embed: local: provider not available in this build")
}

// Prefixes returns the E5-family literal prefixes local models require:
// "passage: " for ingest-time text, "query: " for query-time text. Wired
// through prefixer so EmbedPassages/EmbedQuery apply them automatically
// once a real local implementation replaces this stub.
func (localEmbedder) Prefixes() (passage, query string) {
	return "passage: ", "query: "
}

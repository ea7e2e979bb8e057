// Package embed maps text to dense float vectors via a pluggable provider
// (openai, gemini, local). All providers satisfy the same batch contract.
package embed

import (
	"context"
	"fmt"
)

// Embedder converts text into dense vector embeddings. Implementations must
// be safe for concurrent use.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings,
	// returned in the same order and count as texts, or fails atomically.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the configured embedding vector size.
	Dimension() int
}

// EmbedOne is a single-text convenience wrapper equivalent to
// embed([t])[0].
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embed: provider returned no vectors for single text")
	}
	return vecs[0], nil
}

// prefixer is implemented by providers that require a literal call-site
// prefix on their input texts (E5-family local models). Providers that
// don't need this (openai, gemini) simply don't implement it.
type prefixer interface {
	Prefixes() (passage, query string)
}

// prefixEach prepends prefix to every text, if prefix is non-empty.
func prefixEach(texts []string, prefix string) []string {
	if prefix == "" {
		return texts
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = prefix + t
	}
	return out
}

// EmbedPassages embeds texts for ingest-time indexing, applying the
// provider's passage-side prefix when it has one.
func EmbedPassages(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	if p, ok := e.(prefixer); ok {
		passage, _ := p.Prefixes()
		texts = prefixEach(texts, passage)
	}
	return e.Embed(ctx, texts)
}

// EmbedQuery embeds a single query-time text, applying the provider's
// query-side prefix when it has one.
func EmbedQuery(ctx context.Context, e Embedder, text string) ([]float32, error) {
	if p, ok := e.(prefixer); ok {
		_, query := p.Prefixes()
		if query != "" {
			text = query + text
		}
	}
	return EmbedOne(ctx, e, text)
}

// checkDimension validates that every vector in vecs has the expected
// dimensionality, returning a configuration error on first mismatch.
func checkDimension(vecs [][]float32, want int) error {
	for i, v := range vecs {
		if len(v) != want {
			return fmt.Errorf("embed: vector %d has dimension %d, want %d (configuration error)", i, len(v), want)
		}
	}
	return nil
}

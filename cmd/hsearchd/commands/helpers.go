package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/54b3r/hsearch/internal/config"
	"github.com/54b3r/hsearch/internal/embed"
	"github.com/54b3r/hsearch/internal/lexical"
	"github.com/54b3r/hsearch/internal/vectorstore"
)

// buildEmbedder constructs the configured embedding provider from cfg plus
// provider-specific environment variables. API keys are never read from the
// TOML file, only from the environment.
func buildEmbedder(ctx context.Context, cfg config.Config) (embed.Embedder, error) {
	var apiKey, base string
	switch cfg.EmbeddingProvider {
	case "openai":
		apiKey = os.Getenv("OPENAI_API_KEY")
		base = os.Getenv("OPENAI_API_BASE")
		if base == "" {
			base = "https://api.openai.com/v1"
		}
	case "gemini":
		apiKey = os.Getenv("GEMINI_API_KEY")
		// The genai SDK targets Google's managed endpoint directly and has
		// no caller-supplied base URL to default here.
	}

	emb, err := embed.New(ctx, &embed.Config{
		Provider:  cfg.EmbeddingProvider,
		Model:     cfg.EmbeddingModel,
		Base:      base,
		APIKey:    apiKey,
		Dimension: cfg.EmbeddingDimension,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	return emb, nil
}

// buildVectorStore connects to Qdrant and returns a Store. It does not
// ensure the collection exists — callers that need it call EnsureCollection.
func buildVectorStore(cfg config.Config) (*vectorstore.Store, error) {
	store, err := vectorstore.New(&vectorstore.Config{
		URL:        cfg.QdrantURL,
		Collection: cfg.CollectionName,
		Dimension:  uint64(cfg.EmbeddingDimension), //nolint:gosec // dimension is bounded by provider config
		APIKey:     os.Getenv("QDRANT_API_KEY"),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: %w", err)
	}
	return store, nil
}

// buildLexicalStore opens (creating if needed) the Bleve index directory
// named for this project's collection, so distinct --project namespaces
// never share a lexical index.
func buildLexicalStore(cfg config.Config) (*lexical.Store, error) {
	indexDir := cfg.TantivyIndexDir + "-" + cfg.CollectionName
	store, err := lexical.Open(indexDir, cfg.Tokenizer)
	if err != nil {
		return nil, fmt.Errorf("lexical: %w", err)
	}
	return store, nil
}

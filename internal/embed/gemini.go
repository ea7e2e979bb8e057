package embed

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiEmbedder implements Embedder using Google's batchEmbedContents API
// via the genai SDK.
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	dimension int
}

// GeminiConfig holds the settings for constructing a GeminiEmbedder.
type GeminiConfig struct {
	// APIKey is the Google API key.
	APIKey string
	// Model is the embedding model name; "models/" is prefixed if absent.
	Model string
	// Dimension is the configured embedding vector size.
	Dimension int
}

// modelPath returns model prefixed with "models/" unless already qualified.
func modelPath(model string) string {
	if len(model) >= 7 && model[:7] == "models/" {
		return model
	}
	return "models/" + model
}

// NewGeminiEmbedder constructs a GeminiEmbedder from cfg.
func NewGeminiEmbedder(ctx context.Context, cfg *GeminiConfig) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embed: gemini: GEMINI_API_KEY is required (configuration error)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("embed: gemini: create client: %w", err)
	}

	return &GeminiEmbedder{
		client:    client,
		model:     modelPath(cfg.Model),
		dimension: cfg.Dimension,
	}, nil
}

// Dimension returns the configured embedding vector size.
func (e *GeminiEmbedder) Dimension() int { return e.dimension }

// Embed issues one batchEmbedContents request carrying one sub-request per
// text, preserving input order in the response.
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("embed: gemini: batchEmbedContents failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed: gemini: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	vecs := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		vecs[i] = emb.Values
	}

	if err := checkDimension(vecs, e.dimension); err != nil {
		return nil, err
	}

	return vecs, nil
}

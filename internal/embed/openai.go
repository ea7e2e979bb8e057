package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OpenAIEmbedder implements Embedder using the OpenAI-compatible
// POST {base}/embeddings endpoint.
type OpenAIEmbedder struct {
	base      string
	model     string
	apiKey    string
	dimension int
	client    *http.Client
}

// OpenAIConfig holds the settings for constructing an OpenAIEmbedder.
type OpenAIConfig struct {
	// Base is the API base URL (e.g. "https://api.openai.com/v1").
	Base string
	// Model is the embedding model name.
	Model string
	// APIKey is sent as the bearer auth token.
	APIKey string
	// Dimension is the configured embedding vector size.
	Dimension int
}

// NewOpenAIEmbedder constructs an OpenAIEmbedder from cfg.
func NewOpenAIEmbedder(cfg *OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embed: openai: OPENAI_API_KEY is required (configuration error)")
	}
	return &OpenAIEmbedder{
		base:      cfg.Base,
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Dimension returns the configured embedding vector size.
func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed converts texts to embeddings via POST {base}/embeddings. The
// response's data[].index is used to restore input order regardless of the
// order the provider returned entries in.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(openAIEmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("embed: openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.base+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("embed: openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed: openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	var result openAIEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("embed: openai: decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if result.Error != nil {
			msg = result.Error.Message
		}
		return nil, fmt.Errorf("embed: openai: %s", msg)
	}

	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("embed: openai: expected %d embeddings, got %d", len(texts), len(result.Data))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("embed: openai: response index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}

	if err := checkDimension(vecs, e.dimension); err != nil {
		return nil, err
	}

	return vecs, nil
}

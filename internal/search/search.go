package search

import (
	"context"
	"fmt"

	"github.com/54b3r/hsearch/internal/document"
)

// GetChunk fetches a single chunk by id directly from the vector store,
// which holds the full Chunk payload; the lexical index is not consulted
// (it does not store chunk_index or updated_at).
func (h *Hybrid) GetChunk(ctx context.Context, chunkID string) (document.Detail, bool, error) {
	c, ok, err := h.vector.Get(ctx, chunkID)
	if err != nil {
		return document.Detail{}, false, fmt.Errorf("search: get_chunk: %w", err)
	}
	if !ok {
		return document.Detail{}, false, nil
	}
	return document.ToDetail(c), true, nil
}

package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/54b3r/hsearch/internal/document"
)

func TestGetChunk_FoundReturnsDetail(t *testing.T) {
	h, err := New(
		WithEmbedder(fakeEmbedder{dim: 4}),
		WithVectorStore(fakeVector{get: map[string]document.Chunk{
			"id-1": {ChunkID: "id-1", Title: "doc", Text: "body"},
		}}),
		WithLexicalStore(fakeLexical{}),
	)
	require.NoError(t, err)

	detail, found, err := h.GetChunk(context.Background(), "id-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "id-1", detail.ChunkID)
	require.Equal(t, "body", detail.Text)
}

func TestGetChunk_NotFoundReturnsFalseNoError(t *testing.T) {
	h, err := New(
		WithEmbedder(fakeEmbedder{dim: 4}),
		WithVectorStore(fakeVector{get: map[string]document.Chunk{}}),
		WithLexicalStore(fakeLexical{}),
	)
	require.NoError(t, err)

	_, found, err := h.GetChunk(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, found)
}

type erroringGetVector struct {
	fakeVector
	getErr error
}

func (f erroringGetVector) Get(_ context.Context, _ string) (document.Chunk, bool, error) {
	return document.Chunk{}, false, f.getErr
}

func TestGetChunk_BackendErrorWrapped(t *testing.T) {
	h, err := New(
		WithEmbedder(fakeEmbedder{dim: 4}),
		WithVectorStore(erroringGetVector{getErr: errors.New("qdrant down")}),
		WithLexicalStore(fakeLexical{}),
	)
	require.NoError(t, err)

	_, _, err = h.GetChunk(context.Background(), "id-1")
	require.Error(t, err)
}

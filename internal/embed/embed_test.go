package embed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	dim  int
	last []string
	err  error
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.last = texts
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, s.dim)
	}
	return out, nil
}
func (s *stubEmbedder) Dimension() int { return s.dim }

type prefixedStub struct {
	stubEmbedder
}

func (prefixedStub) Prefixes() (string, string) { return "passage: ", "query: " }

func TestEmbedOne_ReturnsFirstVector(t *testing.T) {
	e := &stubEmbedder{dim: 3}
	v, err := EmbedOne(context.Background(), e, "hello")
	require.NoError(t, err)
	assert.Len(t, v, 3)
	assert.Equal(t, []string{"hello"}, e.last)
}

func TestEmbedOne_PropagatesError(t *testing.T) {
	e := &stubEmbedder{err: errors.New("boom")}
	_, err := EmbedOne(context.Background(), e, "hello")
	assert.Error(t, err)
}

func TestEmbedPassages_NoPrefixerLeavesTextUnchanged(t *testing.T) {
	e := &stubEmbedder{dim: 2}
	_, err := EmbedPassages(context.Background(), e, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, e.last)
}

func TestEmbedPassages_PrefixerPrependsPassagePrefix(t *testing.T) {
	e := &prefixedStub{stubEmbedder{dim: 2}}
	_, err := EmbedPassages(context.Background(), e, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"passage: a", "passage: b"}, e.last)
}

func TestEmbedQuery_PrefixerPrependsQueryPrefix(t *testing.T) {
	e := &prefixedStub{stubEmbedder{dim: 2}}
	_, err := EmbedQuery(context.Background(), e, "search text")
	require.NoError(t, err)
	assert.Equal(t, []string{"query: search text"}, e.last)
}

func TestCheckDimension_MismatchReturnsConfigError(t *testing.T) {
	vecs := [][]float32{{1, 2, 3}, {1, 2}}
	err := checkDimension(vecs, 3)
	assert.Error(t, err)
}

func TestCheckDimension_AllMatchReturnsNil(t *testing.T) {
	vecs := [][]float32{{1, 2, 3}, {4, 5, 6}}
	assert.NoError(t, checkDimension(vecs, 3))
}

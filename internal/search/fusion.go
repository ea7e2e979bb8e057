// Package search implements the hybrid searcher: parallel dense-vector and
// lexical BM25 retrieval, fused by unweighted Reciprocal Rank Fusion.
package search

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/54b3r/hsearch/internal/document"
	"github.com/54b3r/hsearch/internal/embed"
)

// rrfConstant is the RRF smoothing constant k, fixed at the conventional value.
const rrfConstant = 60

// fetchLimit is the per-backend candidate limit fused before truncation.
const fetchLimit = 30

// VectorSearcher is satisfied by internal/vectorstore.Store.
type VectorSearcher interface {
	Search(ctx context.Context, vector []float32, topK int, filters document.Filters) ([]document.Chunk, []float64, error)
	Get(ctx context.Context, chunkID string) (document.Chunk, bool, error)
}

// LexicalSearcher is satisfied by internal/lexical.Store.
type LexicalSearcher interface {
	Search(ctx context.Context, query string, topK int, filters document.Filters) ([]document.Chunk, []float64, error)
}

// Hybrid issues parallel vector and lexical searches and fuses the ranked
// lists via RRF.
type Hybrid struct {
	embedder embed.Embedder
	vector   VectorSearcher
	lexical  LexicalSearcher
}

// Option configures a Hybrid searcher.
type Option func(*Hybrid)

// WithEmbedder sets the embedder used to vectorize queries.
func WithEmbedder(e embed.Embedder) Option { return func(h *Hybrid) { h.embedder = e } }

// WithVectorStore sets the dense-vector backend.
func WithVectorStore(v VectorSearcher) Option { return func(h *Hybrid) { h.vector = v } }

// WithLexicalStore sets the BM25 backend.
func WithLexicalStore(l LexicalSearcher) Option { return func(h *Hybrid) { h.lexical = l } }

// New constructs a Hybrid searcher. All three dependencies are required.
func New(opts ...Option) (*Hybrid, error) {
	h := &Hybrid{}
	for _, opt := range opts {
		opt(h)
	}
	if h.embedder == nil {
		return nil, fmt.Errorf("search: embedder must not be nil")
	}
	if h.vector == nil {
		return nil, fmt.Errorf("search: vector store must not be nil")
	}
	if h.lexical == nil {
		return nil, fmt.Errorf("search: lexical store must not be nil")
	}
	return h, nil
}

// rankedHit pairs a chunk with its zero-based rank in the list that
// produced it, for RRF contribution accounting.
type rankedHit struct {
	chunk document.Chunk
	rank  int
}

// Search embeds query, fans out to both backends in parallel (a failure in
// one does not cancel the other), fuses via unweighted RRF, and returns the
// top_k results sorted by fused score descending.
func (h *Hybrid) Search(ctx context.Context, query string, topK int, filters document.Filters) ([]document.Result, error) {
	vec, err := embed.EmbedQuery(ctx, h.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w", err)
	}

	var (
		vectorHits  []rankedHit
		lexicalHits []rankedHit
		vectorErr   error
		lexicalErr  error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		chunks, _, err := h.vector.Search(gctx, vec, fetchLimit, filters)
		if err != nil {
			vectorErr = err
			return nil
		}
		vectorHits = toRanked(chunks)
		return nil
	})

	g.Go(func() error {
		chunks, _, err := h.lexical.Search(gctx, query, fetchLimit, filters)
		if err != nil {
			lexicalErr = err
			return nil
		}
		lexicalHits = toRanked(chunks)
		return nil
	})

	_ = g.Wait()

	if vectorErr != nil && lexicalErr != nil {
		return nil, fmt.Errorf("search: both backends failed: vector: %v, lexical: %v", vectorErr, lexicalErr)
	}

	fused := fuse(vectorHits, lexicalHits)
	if len(fused) > topK {
		fused = fused[:topK]
	}

	results := make([]document.Result, len(fused))
	for i, f := range fused {
		results[i] = document.FromChunk(f.chunk, f.score)
	}
	return results, nil
}

func toRanked(chunks []document.Chunk) []rankedHit {
	hits := make([]rankedHit, len(chunks))
	for i, c := range chunks {
		hits[i] = rankedHit{chunk: c, rank: i}
	}
	return hits
}

// fusedChunk accumulates a chunk's fused RRF score; metadata is taken from
// whichever list first yielded the chunk (vector list is scored first, so
// vector-list metadata wins on a chunk_id collision).
type fusedChunk struct {
	chunk document.Chunk
	score float64
}

// fuse combines vectorHits and lexicalHits via RRF: each list's
// contribution to a chunk at zero-based rank r is 1/(k+r+1); a chunk's
// fused score is the sum of its contributions across lists.
func fuse(vectorHits, lexicalHits []rankedHit) []fusedChunk {
	order := make([]string, 0, len(vectorHits)+len(lexicalHits))
	byID := make(map[string]*fusedChunk)

	contribute := func(hits []rankedHit) {
		for _, h := range hits {
			id := h.chunk.ChunkID
			contribution := 1.0 / float64(rrfConstant+h.rank+1)
			if existing, ok := byID[id]; ok {
				existing.score += contribution
				continue
			}
			byID[id] = &fusedChunk{chunk: h.chunk, score: contribution}
			order = append(order, id)
		}
	}

	contribute(vectorHits)
	contribute(lexicalHits)

	out := make([]fusedChunk, len(order))
	for i, id := range order {
		out[i] = *byID[id]
	}

	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].score, out[j].score
		// NaN cannot arise from rank-based RRF contributions, but a
		// defensive comparison keeps sort.SliceStable's invariants intact
		// even if a future scorer introduces one — NaN compares as equal.
		if si != si || sj != sj {
			return false
		}
		return si > sj
	})

	return out
}

// Package lexical implements the lexical store client against a bleve BM25
// inverted index: chunk_id/source_path/source_type keyword fields plus
// tokenized title/body text fields, replace-on-reindex semantics keyed by
// chunk_id, and post-retrieval filter application.
package lexical

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/54b3r/hsearch/internal/document"
)

// fields used by the bleve document mapping.
const (
	fieldChunkID    = "chunk_id"
	fieldSourcePath = "source_path"
	fieldTitle      = "title"
	fieldBody       = "body"
	fieldSourceType = "source_type"
)

// Store implements the lexical store client contract backed by bleve.
type Store struct {
	index bleve.Index
}

// bleveDoc is the document shape indexed into bleve; field names match the
// mapping built in newMapping.
type bleveDoc struct {
	ChunkID    string `json:"chunk_id"`
	SourcePath string `json:"source_path"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	SourceType string `json:"source_type"`
}

// Open creates or opens a bleve index at path. tokenizer selects the
// analyzer: only "default" is supported in this build — a non-default value
// is a configuration error surfaced at open time, since no CJK
// morphological segmenter dictionary is linked in.
func Open(path, tokenizer string) (*Store, error) {
	if tokenizer != "" && tokenizer != "default" {
		return nil, fmt.Errorf("lexical: tokenizer %q requires an external morphological segmenter not available in this build (configuration error)", tokenizer)
	}

	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, newMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("lexical: open %s: %w", path, err)
	}

	return &Store{index: idx}, nil
}

// newMapping builds the five-field index mapping: chunk_id, source_path, and
// source_type are exact-match keyword fields; title and body are tokenized
// text fields with term frequencies and positions for BM25 scoring.
func newMapping() *mapping.IndexMappingImpl {
	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"

	text := bleve.NewTextFieldMapping()
	text.Store = true
	text.IncludeTermVectors = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(fieldChunkID, keyword)
	doc.AddFieldMappingsAt(fieldSourcePath, keyword)
	doc.AddFieldMappingsAt(fieldSourceType, keyword)
	doc.AddFieldMappingsAt(fieldTitle, text)
	doc.AddFieldMappingsAt(fieldBody, text)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	return im
}

// OpenMemOnly creates an in-memory index using the same mapping as Open,
// for use in tests that should not touch disk.
func OpenMemOnly() (*Store, error) {
	idx, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("lexical: open mem-only: %w", err)
	}
	return &Store{index: idx}, nil
}

// IndexChunks replaces each chunk's prior document (matched by chunk_id)
// with the new one: prior documents are deleted one by one, then all new
// documents are added in a single batch commit.
func (s *Store) IndexChunks(ctx context.Context, chunks []document.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for _, c := range chunks {
		if err := s.deleteByChunkID(ctx, c.ChunkID); err != nil {
			return fmt.Errorf("lexical: index_chunks: delete prior %s: %w", c.ChunkID, err)
		}
	}

	batch := s.index.NewBatch()
	for _, c := range chunks {
		doc := bleveDoc{
			ChunkID:    c.ChunkID,
			SourcePath: c.SourcePath,
			Title:      c.Title,
			Body:       c.Text,
			SourceType: c.SourceType,
		}
		if err := batch.Index(bleveDocID(c.ChunkID), doc); err != nil {
			return fmt.Errorf("lexical: index_chunks: batch add %s: %w", c.ChunkID, err)
		}
	}

	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("lexical: index_chunks: commit: %w", err)
	}
	return nil
}

// deleteByChunkID removes any existing document matching the chunk_id term.
// bleveDocID already keys documents by chunk_id directly, so this is a
// direct delete-by-id, equivalent to a term-match delete-then-add pair.
func (s *Store) deleteByChunkID(_ context.Context, chunkID string) error {
	return s.index.Delete(bleveDocID(chunkID))
}

// bleveDocID derives the bleve document id from a chunk_id. Using chunk_id
// directly as the bleve id gives replace-on-reindex semantics for free.
func bleveDocID(chunkID string) string { return chunkID }

// Search parses query against [title, body] with a default OR within each
// field, runs BM25 top-K, then applies SourceType and PathPrefix filters
// client-side (pre-filter pushdown is not required by spec).
func (s *Store) Search(ctx context.Context, query string, topK int, filters document.Filters) ([]document.Chunk, []float64, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil, nil
	}

	titleQuery := bleve.NewMatchQuery(query)
	titleQuery.SetField(fieldTitle)
	bodyQuery := bleve.NewMatchQuery(query)
	bodyQuery.SetField(fieldBody)

	disjunct := bleve.NewDisjunctionQuery(titleQuery, bodyQuery)

	req := bleve.NewSearchRequest(disjunct)
	req.Size = topK
	req.Fields = []string{fieldChunkID, fieldSourcePath, fieldTitle, fieldBody, fieldSourceType}

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("lexical: search: %w", err)
	}

	chunks := make([]document.Chunk, 0, len(result.Hits))
	scores := make([]float64, 0, len(result.Hits))
	for _, hit := range result.Hits {
		c := chunkFromFields(hit.Fields)
		if !filters.Match(c) {
			continue
		}
		chunks = append(chunks, c)
		scores = append(scores, hit.Score)
	}

	return chunks, scores, nil
}

// Count returns the total number of indexed documents.
func (s *Store) Count() (uint64, error) {
	n, err := s.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("lexical: count: %w", err)
	}
	return n, nil
}

// Close releases the underlying index handle.
func (s *Store) Close() error {
	return s.index.Close()
}

func chunkFromFields(fields map[string]any) document.Chunk {
	str := func(k string) string {
		if v, ok := fields[k].(string); ok {
			return v
		}
		return ""
	}
	return document.Chunk{
		ChunkID:    str(fieldChunkID),
		SourcePath: str(fieldSourcePath),
		Title:      str(fieldTitle),
		Text:       str(fieldBody),
		SourceType: str(fieldSourceType),
	}
}

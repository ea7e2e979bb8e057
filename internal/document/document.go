// Package document defines the data model shared across the ingest and
// search pipelines: the indexed Chunk, search filters, and search results.
package document

import (
	"strconv"
	"time"
)

// Chunk is the atomic indexed unit produced by the ingest controller and
// stored, in full, in both the vector store and the lexical store.
type Chunk struct {
	// ChunkID is a 128-bit UUID, string-encoded, stable across both stores.
	ChunkID string

	// SourcePath is the canonical absolute filesystem path of the origin document.
	SourcePath string

	// SourceType is the lowercased filename extension (md, txt, pdf, ...).
	SourceType string

	// Title is the extracted document title (see internal/chunk.ExtractTitle).
	Title string

	// ChunkIndex is the 0-based ordinal position within the document.
	ChunkIndex uint32

	// Text is the chunk's UTF-8 textual content.
	Text string

	// UpdatedAt is the RFC-3339 UTC timestamp of ingest.
	UpdatedAt time.Time
}

// Filters are optional post-conditions applied by both backends.
type Filters struct {
	// SourceType, if non-empty, restricts results to an exact match.
	SourceType string

	// PathPrefix, if non-empty, restricts results to a SourcePath prefix match.
	PathPrefix string
}

// Match reports whether c satisfies f. An empty Filters value matches everything.
func (f Filters) Match(c Chunk) bool {
	if f.SourceType != "" && c.SourceType != f.SourceType {
		return false
	}
	if f.PathPrefix != "" && len(c.SourcePath) < len(f.PathPrefix) {
		return false
	}
	if f.PathPrefix != "" && c.SourcePath[:len(f.PathPrefix)] != f.PathPrefix {
		return false
	}
	return true
}

// snippetLen is the codepoint length a chunk's Text is truncated to for
// display in a SearchResult.
const snippetLen = 200

// Result is a ranked hit returned from the hybrid searcher.
type Result struct {
	ChunkID    string  `json:"chunk_id"`
	Score      float64 `json:"score"`
	Title      string  `json:"title"`
	SourcePath string  `json:"source_path"`
	SourceType string  `json:"source_type"`
	Snippet    string  `json:"snippet"`
}

// FromChunk builds a Result from c with the given score, truncating Text
// into the Snippet field.
func FromChunk(c Chunk, score float64) Result {
	return Result{
		ChunkID:    c.ChunkID,
		Score:      score,
		Title:      c.Title,
		SourcePath: c.SourcePath,
		SourceType: c.SourceType,
		Snippet:    TruncateSnippet(c.Text),
	}
}

// TruncateSnippet truncates s to at most 200 Unicode codepoints, appending a
// literal "..." suffix when truncation occurred. It is idempotent once the
// input is already at or below the limit, and never splits a multi-byte
// rune since it operates on []rune, not bytes.
func TruncateSnippet(s string) string {
	runes := []rune(s)
	if len(runes) <= snippetLen {
		return s
	}
	return string(runes[:snippetLen]) + "..."
}

// Detail is the full chunk payload returned by the "get" tool.
type Detail struct {
	ChunkID  string            `json:"chunk_id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// ToDetail converts c into its wire Detail representation.
func ToDetail(c Chunk) Detail {
	return Detail{
		ChunkID: c.ChunkID,
		Text:    c.Text,
		Metadata: map[string]string{
			"source_path": c.SourcePath,
			"source_type": c.SourceType,
			"title":       c.Title,
			"chunk_index": strconv.FormatUint(uint64(c.ChunkIndex), 10),
			"updated_at":  c.UpdatedAt.Format(time.RFC3339),
		},
	}
}

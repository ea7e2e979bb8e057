package document

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilters_Match_EmptyMatchesEverything(t *testing.T) {
	c := Chunk{SourcePath: "/a/b.md", SourceType: "md"}
	assert.True(t, Filters{}.Match(c))
}

func TestFilters_Match_SourceTypeExact(t *testing.T) {
	c := Chunk{SourceType: "md"}
	assert.True(t, Filters{SourceType: "md"}.Match(c))
	assert.False(t, Filters{SourceType: "pdf"}.Match(c))
}

func TestFilters_Match_PathPrefix(t *testing.T) {
	c := Chunk{SourcePath: "/docs/guide/intro.md"}
	assert.True(t, Filters{PathPrefix: "/docs/guide"}.Match(c))
	assert.False(t, Filters{PathPrefix: "/docs/api"}.Match(c))
}

func TestFilters_Match_PathPrefixLongerThanPath(t *testing.T) {
	c := Chunk{SourcePath: "/a"}
	assert.False(t, Filters{PathPrefix: "/a/very/long/prefix"}.Match(c))
}

func TestFilters_Match_CombinedConditions(t *testing.T) {
	c := Chunk{SourcePath: "/docs/guide/intro.md", SourceType: "md"}
	assert.True(t, Filters{SourceType: "md", PathPrefix: "/docs"}.Match(c))
	assert.False(t, Filters{SourceType: "pdf", PathPrefix: "/docs"}.Match(c))
}

func TestTruncateSnippet_ShortStringUnchanged(t *testing.T) {
	s := "a short chunk of text"
	assert.Equal(t, s, TruncateSnippet(s))
}

func TestTruncateSnippet_LongStringTruncatedWithEllipsis(t *testing.T) {
	s := strings.Repeat("a", 500)
	got := TruncateSnippet(s)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, snippetLen+len("..."), len([]rune(got)))
}

func TestTruncateSnippet_Idempotent(t *testing.T) {
	s := strings.Repeat("b", 500)
	once := TruncateSnippet(s)
	twice := TruncateSnippet(once)
	assert.Equal(t, once, twice)
}

func TestTruncateSnippet_NeverSplitsMultiByteRune(t *testing.T) {
	s := strings.Repeat("日", 300)
	got := TruncateSnippet(s)
	require.True(t, strings.HasSuffix(got, "..."))
	runes := []rune(strings.TrimSuffix(got, "..."))
	assert.Equal(t, snippetLen, len(runes))
	for _, r := range runes {
		assert.Equal(t, '日', r)
	}
}

func TestFromChunk_PopulatesSnippetFromText(t *testing.T) {
	c := Chunk{
		ChunkID:    "id-1",
		SourcePath: "/a/b.md",
		SourceType: "md",
		Title:      "Title",
		Text:       "hello world",
	}
	r := FromChunk(c, 0.75)
	assert.Equal(t, "id-1", r.ChunkID)
	assert.Equal(t, 0.75, r.Score)
	assert.Equal(t, "Title", r.Title)
	assert.Equal(t, "hello world", r.Snippet)
}

func TestToDetail_IncludesAllMetadataFields(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := Chunk{
		ChunkID:    "id-2",
		SourcePath: "/a/b.md",
		SourceType: "md",
		Title:      "Title",
		ChunkIndex: 3,
		Text:       "content",
		UpdatedAt:  ts,
	}
	d := ToDetail(c)
	assert.Equal(t, "id-2", d.ChunkID)
	assert.Equal(t, "content", d.Text)
	assert.Equal(t, "/a/b.md", d.Metadata["source_path"])
	assert.Equal(t, "md", d.Metadata["source_type"])
	assert.Equal(t, "Title", d.Metadata["title"])
	assert.Equal(t, "3", d.Metadata["chunk_index"])
	assert.Equal(t, ts.Format(time.RFC3339), d.Metadata["updated_at"])
}

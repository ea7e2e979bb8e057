package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/54b3r/hsearch/internal/catalog"
	"github.com/54b3r/hsearch/internal/document"
)

type fakeEmbedder struct{ fail bool }

func (f fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.fail {
		return nil, errors.New("embedding unavailable")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}
func (f fakeEmbedder) Dimension() int { return 2 }

type fakeVector struct {
	ensured  bool
	upserted []document.Chunk
}

func (f *fakeVector) EnsureCollection(context.Context) error { f.ensured = true; return nil }
func (f *fakeVector) Upsert(_ context.Context, chunks []document.Chunk, _ [][]float32) error {
	f.upserted = append(f.upserted, chunks...)
	return nil
}

type fakeLexical struct {
	indexed []document.Chunk
}

func (f *fakeLexical) IndexChunks(_ context.Context, chunks []document.Chunk) error {
	f.indexed = append(f.indexed, chunks...)
	return nil
}

func TestRun_IndexesNewFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.md"), []byte("# Title\n\nsome content here"), 0o644); err != nil {
		t.Fatal(err)
	}

	vec := &fakeVector{}
	lex := &fakeLexical{}
	statePath := filepath.Join(dir, "ingest_state.json")

	ctrl, err := New(fakeEmbedder{}, vec, lex, nil, Config{ChunkSize: 1000, ChunkOverlap: 100, StatePath: statePath}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	stats, err := ctrl.Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.FilesProcessed != 1 {
		t.Fatalf("expected 1 file processed, got %d", stats.FilesProcessed)
	}
	if !vec.ensured {
		t.Fatal("expected EnsureCollection to be called")
	}
	if len(vec.upserted) == 0 || len(lex.indexed) == 0 {
		t.Fatal("expected chunks upserted and lexically indexed")
	}

	if _, err := os.Stat(statePath); err != nil {
		t.Fatalf("expected state file to be written: %v", err)
	}
}

func TestRun_Idempotent_UnchangedFileSkipped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	statePath := filepath.Join(dir, "ingest_state.json")
	vec := &fakeVector{}
	lex := &fakeLexical{}
	ctrl, err := New(fakeEmbedder{}, vec, lex, nil, Config{StatePath: statePath}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := ctrl.Run(context.Background(), []string{dir}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	vec.upserted = nil
	lex.indexed = nil

	stats, err := ctrl.Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.FilesProcessed != 0 {
		t.Fatalf("expected 0 files processed on unchanged corpus, got %d", stats.FilesProcessed)
	}
	if len(vec.upserted) != 0 || len(lex.indexed) != 0 {
		t.Fatal("expected no re-indexing on unchanged corpus")
	}
}

func TestRun_ModifiedFileReprocessed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	if err := os.WriteFile(path, []byte("content v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	statePath := filepath.Join(dir, "ingest_state.json")
	vec := &fakeVector{}
	lex := &fakeLexical{}
	ctrl, err := New(fakeEmbedder{}, vec, lex, nil, Config{StatePath: statePath}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := ctrl.Run(context.Background(), []string{dir}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	future := time.Now().Add(time.Hour)
	if err := os.WriteFile(path, []byte("content v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	stats, err := ctrl.Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.FilesProcessed != 1 {
		t.Fatalf("expected exactly 1 file reprocessed, got %d", stats.FilesProcessed)
	}
}

func TestRun_EmbeddingFailureIsolated_LexicalStillIndexed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.md"), []byte("some content"), 0o644); err != nil {
		t.Fatal(err)
	}

	vec := &fakeVector{}
	lex := &fakeLexical{}
	statePath := filepath.Join(dir, "ingest_state.json")
	ctrl, err := New(fakeEmbedder{fail: true}, vec, lex, nil, Config{StatePath: statePath}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	stats, err := ctrl.Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Errors == 0 {
		t.Fatal("expected embedding sub-batch failure to be counted")
	}
	if len(vec.upserted) != 0 {
		t.Fatal("expected no vector upserts when embedding fails")
	}
	if len(lex.indexed) == 0 {
		t.Fatal("expected lexical indexing to proceed despite embedding failure")
	}
}

type fakeLedger struct {
	recorded []catalog.Entry
}

func (f *fakeLedger) Record(_ context.Context, e catalog.Entry) error {
	f.recorded = append(f.recorded, e)
	return nil
}

func TestRun_RecordsCatalogEntryPerUpsertedChunk(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.md"), []byte("# Title\n\nsome content here"), 0o644); err != nil {
		t.Fatal(err)
	}

	vec := &fakeVector{}
	lex := &fakeLexical{}
	ledger := &fakeLedger{}
	statePath := filepath.Join(dir, "ingest_state.json")

	ctrl, err := New(fakeEmbedder{}, vec, lex, ledger, Config{ChunkSize: 1000, ChunkOverlap: 100, StatePath: statePath}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := ctrl.Run(context.Background(), []string{dir}); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(ledger.recorded) != len(vec.upserted) {
		t.Fatalf("expected one ledger entry per upserted chunk, got %d entries for %d chunks", len(ledger.recorded), len(vec.upserted))
	}
	if ledger.recorded[0].ChunkID != vec.upserted[0].ChunkID {
		t.Fatalf("expected ledger chunk_id to match upserted chunk, got %q vs %q", ledger.recorded[0].ChunkID, vec.upserted[0].ChunkID)
	}
	if ledger.recorded[0].ContentHash == "" {
		t.Fatal("expected a non-empty content hash")
	}
}

func TestRun_EmbeddingFailure_NoLedgerRecording(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.md"), []byte("some content"), 0o644); err != nil {
		t.Fatal(err)
	}

	vec := &fakeVector{}
	lex := &fakeLexical{}
	ledger := &fakeLedger{}
	statePath := filepath.Join(dir, "ingest_state.json")
	ctrl, err := New(fakeEmbedder{fail: true}, vec, lex, ledger, Config{StatePath: statePath}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := ctrl.Run(context.Background(), []string{dir}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(ledger.recorded) != 0 {
		t.Fatalf("expected no ledger entries when embedding fails, got %d", len(ledger.recorded))
	}
}

package catalog

import (
	"context"
	"testing"
	"time"
)

func TestRecordAndBySourcePath(t *testing.T) {
	l, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	entries := []Entry{
		{ChunkID: "a", SourcePath: "/docs/x.md", ContentHash: "h1", IndexedAt: now},
		{ChunkID: "b", SourcePath: "/docs/x.md", ContentHash: "h2", IndexedAt: now},
		{ChunkID: "c", SourcePath: "/docs/y.md", ContentHash: "h3", IndexedAt: now},
	}
	for _, e := range entries {
		if err := l.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := l.BySourcePath(ctx, "/docs/x.md")
	if err != nil {
		t.Fatalf("by_source_path: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}

	count, err := l.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
}

func TestRecord_ReplacesOnSameChunkID(t *testing.T) {
	l, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	if err := l.Record(ctx, Entry{ChunkID: "a", SourcePath: "/docs/x.md", ContentHash: "h1", IndexedAt: now}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := l.Record(ctx, Entry{ChunkID: "a", SourcePath: "/docs/x.md", ContentHash: "h2", IndexedAt: now}); err != nil {
		t.Fatalf("record: %v", err)
	}

	count, err := l.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1 after replace, got %d", count)
	}

	got, err := l.BySourcePath(ctx, "/docs/x.md")
	if err != nil {
		t.Fatalf("by_source_path: %v", err)
	}
	if len(got) != 1 || got[0].ContentHash != "h2" {
		t.Fatalf("expected replaced entry with hash h2, got %+v", got)
	}
}

func TestDeleteBySourcePath(t *testing.T) {
	l, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	_ = l.Record(ctx, Entry{ChunkID: "a", SourcePath: "/docs/x.md", ContentHash: "h1", IndexedAt: now})
	_ = l.Record(ctx, Entry{ChunkID: "b", SourcePath: "/docs/x.md", ContentHash: "h2", IndexedAt: now})

	n, err := l.DeleteBySourcePath(ctx, "/docs/x.md")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows deleted, got %d", n)
	}

	count, err := l.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected count 0, got %d", count)
	}
}

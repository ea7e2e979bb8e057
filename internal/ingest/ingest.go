// Package ingest walks source directories, detects changed files via mtime,
// and orchestrates chunking, embedding, and indexing into the vector and
// lexical stores.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/54b3r/hsearch/internal/catalog"
	"github.com/54b3r/hsearch/internal/chunk"
	"github.com/54b3r/hsearch/internal/document"
	"github.com/54b3r/hsearch/internal/embed"
)

// fileBatchSize is the number of source files processed per batch.
const fileBatchSize = 10

// embedSubBatchSize is the number of chunks embedded per sub-batch within a
// file batch; a failed sub-batch is isolated and does not abort the batch.
const embedSubBatchSize = 20

// VectorIndexer is the subset of vectorstore.Store the controller needs.
type VectorIndexer interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, chunks []document.Chunk, vectors [][]float32) error
}

// LexicalIndexer is the subset of lexical.Store the controller needs.
type LexicalIndexer interface {
	IndexChunks(ctx context.Context, chunks []document.Chunk) error
}

// CatalogLedger is the subset of catalog.Ledger the controller needs. A nil
// ledger disables catalog recording entirely.
type CatalogLedger interface {
	Record(ctx context.Context, e catalog.Entry) error
}

// Config controls chunking and state-file location.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	StatePath    string
}

// Stats aggregates the outcome of a single Run.
type Stats struct {
	FilesProcessed int
	ChunksIndexed  int
	Errors         int
}

// Controller orchestrates the walk -> chunk -> embed -> (vector, lexical)
// indexing pipeline.
type Controller struct {
	embedder embed.Embedder
	vector   VectorIndexer
	lexical  LexicalIndexer
	ledger   CatalogLedger
	cfg      Config
	log      *slog.Logger
}

// New constructs a Controller. log may be nil, in which case slog.Default is
// used. ledger may be nil, in which case catalog recording is skipped.
func New(embedder embed.Embedder, vector VectorIndexer, lexical LexicalIndexer, ledger CatalogLedger, cfg Config, log *slog.Logger) (*Controller, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingest: embedder must not be nil")
	}
	if vector == nil {
		return nil, fmt.Errorf("ingest: vector indexer must not be nil")
	}
	if lexical == nil {
		return nil, fmt.Errorf("ingest: lexical indexer must not be nil")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunk.DefaultSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = chunk.DefaultOverlap
	}
	if log == nil {
		log = slog.Default()
	}
	return &Controller{embedder: embedder, vector: vector, lexical: lexical, ledger: ledger, cfg: cfg, log: log}, nil
}

// fileJob is a candidate file accepted for this ingest run.
type fileJob struct {
	path  string
	mtime time.Time
}

// Run walks sources, detects changes, and indexes new or modified files.
// It never returns an error for per-file or per-batch failures — those are
// absorbed into Stats.Errors and logged; only a precondition failure (e.g.
// EnsureCollection) aborts the run.
func (c *Controller) Run(ctx context.Context, sources []string) (Stats, error) {
	var stats Stats

	if err := c.vector.EnsureCollection(ctx); err != nil {
		return stats, fmt.Errorf("ingest: ensure_collection: %w", err)
	}

	converter := ProbeConverter(ctx)
	if !converter.Available() {
		c.log.Warn("ingest: markitdown not available, rich formats will be skipped")
	}

	state, err := LoadState(c.cfg.StatePath)
	if err != nil {
		return stats, fmt.Errorf("ingest: load state: %w", err)
	}

	jobs, err := c.collect(sources, converter.Available())
	if err != nil {
		return stats, fmt.Errorf("ingest: collect sources: %w", err)
	}

	var pending []fileJob
	for _, j := range jobs {
		if state.Seen(j.path, j.mtime) {
			continue
		}
		pending = append(pending, j)
	}

	for start := 0; start < len(pending); start += fileBatchSize {
		end := min(start+fileBatchSize, len(pending))
		c.processBatch(ctx, pending[start:end], converter, state, &stats)
	}

	if err := state.Save(c.cfg.StatePath); err != nil {
		return stats, fmt.Errorf("ingest: save state: %w", err)
	}

	return stats, nil
}

// collect walks sources and returns every candidate file job, filtering by
// accepted extension. A symlink to a file is resolved and its target path is
// used; a symlink to a directory (including a symlinked source root) is not
// descended into.
func (c *Controller) collect(sources []string, converterAvailable bool) ([]fileJob, error) {
	var jobs []fileJob

	for _, src := range sources {
		err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.Type()&fs.ModeSymlink != 0 {
				resolved, err := filepath.EvalSymlinks(path)
				if err != nil {
					c.log.Warn("ingest: unresolvable symlink", slog.String("path", path), slog.Any("error", err))
					return nil
				}
				info, err := os.Stat(resolved)
				if err != nil {
					return nil
				}
				if info.IsDir() {
					return nil
				}
				path = resolved
			} else if d.IsDir() {
				return nil
			}

			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
			if !acceptedExtension(ext, converterAvailable) {
				return nil
			}

			info, err := os.Stat(path)
			if err != nil {
				c.log.Warn("ingest: stat failed", slog.String("path", path), slog.Any("error", err))
				return nil
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}
			jobs = append(jobs, fileJob{path: abs, mtime: info.ModTime()})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", src, err)
		}
	}

	return jobs, nil
}

// processBatch handles one batch of up to fileBatchSize files: read/convert,
// chunk, embed in sub-batches, and index into both backends.
func (c *Controller) processBatch(ctx context.Context, batch []fileJob, converter *Converter, state State, stats *Stats) {
	var allChunks []document.Chunk

	for _, j := range batch {
		chunks, err := c.chunkFile(ctx, j, converter)
		if err != nil {
			c.log.Warn("ingest: file failed", slog.String("path", j.path), slog.Any("error", err))
			stats.Errors++
			continue
		}

		state.Record(j.path, j.mtime)
		stats.FilesProcessed++
		allChunks = append(allChunks, chunks...)
	}

	if len(allChunks) == 0 {
		return
	}

	embedded := make([]bool, len(allChunks))
	vectors := make([][]float32, len(allChunks))

	for start := 0; start < len(allChunks); start += embedSubBatchSize {
		end := min(start+embedSubBatchSize, len(allChunks))
		sub := allChunks[start:end]

		texts := make([]string, len(sub))
		for i, ch := range sub {
			texts[i] = ch.Text
		}

		vecs, err := embed.EmbedPassages(ctx, c.embedder, texts)
		if err != nil {
			c.log.Warn("ingest: embedding sub-batch failed, dropped", slog.Int("size", len(sub)), slog.Any("error", err))
			stats.Errors++
			continue
		}

		for i := range sub {
			vectors[start+i] = vecs[i]
			embedded[start+i] = true
		}
	}

	var toUpsert []document.Chunk
	var toUpsertVecs [][]float32
	for i, ok := range embedded {
		if ok {
			toUpsert = append(toUpsert, allChunks[i])
			toUpsertVecs = append(toUpsertVecs, vectors[i])
		}
	}

	if len(toUpsert) > 0 {
		if err := c.vector.Upsert(ctx, toUpsert, toUpsertVecs); err != nil {
			c.log.Warn("ingest: vector upsert failed", slog.Any("error", err))
			stats.Errors++
		} else {
			c.recordCatalog(ctx, toUpsert)
		}
	}

	// All batch chunks, including those whose vectors failed, proceed to
	// lexical indexing — lexical retrieval remains useful without vectors.
	if err := c.lexical.IndexChunks(ctx, allChunks); err != nil {
		c.log.Warn("ingest: lexical index failed", slog.Any("error", err))
		stats.Errors++
	}

	stats.ChunksIndexed += len(allChunks)
}

// recordCatalog writes one ledger entry per successfully vector-indexed
// chunk. It is best-effort: a recording failure is logged, not propagated,
// since the ledger is a side index the authoritative stores don't depend on.
func (c *Controller) recordCatalog(ctx context.Context, chunks []document.Chunk) {
	if c.ledger == nil {
		return
	}
	now := time.Now().UTC()
	for _, ch := range chunks {
		entry := catalog.Entry{
			ChunkID:     ch.ChunkID,
			SourcePath:  ch.SourcePath,
			ContentHash: contentHash(ch.Text),
			IndexedAt:   now,
		}
		if err := c.ledger.Record(ctx, entry); err != nil {
			c.log.Warn("ingest: catalog record failed", slog.String("chunk_id", ch.ChunkID), slog.Any("error", err))
		}
	}
}

// contentHash returns the hex-encoded SHA-256 digest of text, used to detect
// whether a previously-indexed chunk's content has changed.
func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// chunkFile reads (or converts) path, extracts a title, and splits it into
// fresh-UUID chunks stamped with the current time.
func (c *Controller) chunkFile(ctx context.Context, j fileJob, converter *Converter) ([]document.Chunk, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(j.path), "."))

	var text string
	if plainExtensions[ext] {
		raw, err := os.ReadFile(j.path)
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		text = string(raw)
	} else {
		converted, err := converter.Convert(ctx, j.path)
		if err != nil {
			return nil, err
		}
		text = converted
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty content")
	}

	title := chunk.ExtractTitle(text, filepath.Base(j.path))
	spans := chunk.Split(text, c.cfg.ChunkSize, c.cfg.ChunkOverlap)

	now := time.Now().UTC()
	chunks := make([]document.Chunk, len(spans))
	for i, span := range spans {
		chunks[i] = document.Chunk{
			ChunkID:    uuid.NewString(),
			SourcePath: j.path,
			SourceType: ext,
			Title:      title,
			ChunkIndex: uint32(i),
			Text:       span,
			UpdatedAt:  now,
		}
	}
	return chunks, nil
}

// Package vectorstore implements the vector store client against Qdrant:
// collection lifecycle, batched upsert, cosine search, point lookup, and
// full scroll export.
package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/54b3r/hsearch/internal/document"
)

// upsertBatchSize caps the number of points sent per Upsert RPC.
const upsertBatchSize = 100

// scrollPageSize caps the number of points fetched per Scroll RPC page.
const scrollPageSize = 100

// Config holds connection parameters for a Qdrant collection.
type Config struct {
	// URL is the Qdrant gRPC endpoint, e.g. "http://localhost:6334".
	URL string

	// Collection is the collection name (already project-suffixed by the caller).
	Collection string

	// Dimension is the dimensionality of stored vectors.
	Dimension uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string
}

// Store implements the vector store client contract backed by Qdrant.
type Store struct {
	client *qdrant.Client
	cfg    *Config
}

// New creates a Store connected to cfg.URL. It does not create the
// collection; call EnsureCollection explicitly.
func New(cfg *Config) (*Store, error) {
	host, port, useTLS, err := parseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: create client: %w", err)
	}

	return &Store{client: client, cfg: cfg}, nil
}

// Client exposes the underlying qdrant client for health probing.
func (s *Store) Client() *qdrant.Client { return s.client }

// CollectionExists reports whether the configured collection exists.
func (s *Store) CollectionExists(ctx context.Context) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return false, fmt.Errorf("vectorstore: collection exists: %w", err)
	}
	return exists, nil
}

// EnsureCollection creates the collection with cosine distance, the
// configured dimensionality, and scalar quantization if it does not already
// exist. It is idempotent.
func (s *Store) EnsureCollection(ctx context.Context) error {
	exists, err := s.CollectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.Dimension,
			Distance: qdrant.Distance_Cosine,
		}),
		QuantizationConfig: qdrant.NewQuantizationScalar(&qdrant.ScalarQuantization{
			Type:      qdrant.QuantizationType_Int8,
			AlwaysRam: qdrant.PtrOf(true),
		}),
	})
	if err != nil {
		return fmt.Errorf("vectorstore: create collection %q: %w", s.cfg.Collection, err)
	}
	return nil
}

// ListCollections returns the names of every collection visible to this
// client, across all projects — used by the `list-projects` CLI command to
// discover project-suffixed collections sharing a base name.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: list collections: %w", err)
	}
	return names, nil
}

// DeleteCollection removes the entire named collection.
func (s *Store) DeleteCollection(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.cfg.Collection); err != nil {
		return fmt.Errorf("vectorstore: delete collection: %w", err)
	}
	return nil
}

// CollectionInfo reports the current point count.
func (s *Store) CollectionInfo(ctx context.Context) (pointsCount uint64, err error) {
	info, err := s.client.GetCollectionInfo(ctx, s.cfg.Collection)
	if err != nil {
		return 0, fmt.Errorf("vectorstore: collection info: %w", err)
	}
	if info.PointsCount != nil {
		return *info.PointsCount, nil
	}
	return 0, nil
}

// Upsert zips chunks with their vectors pairwise and stores them in batches
// of 100. Each point's id is parsed from ChunkID as a UUID; on parse
// failure a fresh UUID is minted (tolerates non-UUID ids, at the cost of
// breaking later lookup by the original id).
func (s *Store) Upsert(ctx context.Context, chunks []document.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("vectorstore: upsert: %d chunks but %d vectors", len(chunks), len(vectors))
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, c := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      pointID(c.ChunkID),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(chunkPayload(c)),
		})
	}

	for start := 0; start < len(points); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(points))
		if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.cfg.Collection,
			Points:         points[start:end],
		}); err != nil {
			return fmt.Errorf("vectorstore: upsert batch [%d:%d]: %w", start, end, err)
		}
	}

	return nil
}

// Search performs a cosine similarity search, optionally restricted to
// chunks matching filters.SourceType server-side, and returns at most top_k
// points with their payload. filters.PathPrefix is applied client-side to
// the returned points.
func (s *Store) Search(ctx context.Context, vector []float32, topK int, filters document.Filters) ([]document.Chunk, []float64, error) {
	limit := uint64(topK)

	query := &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if filters.SourceType != "" {
		query.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("source_type", filters.SourceType),
			},
		}
	}

	results, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("vectorstore: search: %w", err)
	}

	chunks := make([]document.Chunk, 0, len(results))
	scores := make([]float64, 0, len(results))
	for _, r := range results {
		c := chunkFromPayload(r.Payload)
		if !filters.Match(c) {
			continue
		}
		chunks = append(chunks, c)
		scores = append(scores, float64(r.Score))
	}

	return chunks, scores, nil
}

// Get returns the chunk reconstructed from payload, or ok=false if absent.
func (s *Store) Get(ctx context.Context, chunkID string) (c document.Chunk, ok bool, err error) {
	results, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.cfg.Collection,
		Ids:            []*qdrant.PointId{pointID(chunkID)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return document.Chunk{}, false, fmt.Errorf("vectorstore: get: %w", err)
	}
	if len(results) == 0 {
		return document.Chunk{}, false, nil
	}
	return chunkFromPayload(results[0].Payload), true, nil
}

// ExportAll scrolls the entire collection in pages of 100, with payload and
// vectors enabled, and returns every chunk alongside its stored vector.
func (s *Store) ExportAll(ctx context.Context) ([]document.Chunk, [][]float32, error) {
	var (
		chunks  []document.Chunk
		vectors [][]float32
		offset  *qdrant.PointId
	)

	limit := uint32(scrollPageSize)
	for {
		req := &qdrant.ScrollPoints{
			CollectionName: s.cfg.Collection,
			Limit:          &limit,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
			Offset:         offset,
		}

		points, err := s.client.Scroll(ctx, req)
		if err != nil {
			return nil, nil, fmt.Errorf("vectorstore: scroll: %w", err)
		}
		if len(points) == 0 {
			break
		}

		for _, p := range points {
			chunks = append(chunks, chunkFromPayload(p.Payload))
			vectors = append(vectors, vectorOf(p.Vectors))
		}

		if len(points) < scrollPageSize {
			break
		}
		offset = points[len(points)-1].Id
	}

	return chunks, vectors, nil
}

// Close releases the underlying gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// pointID parses id as a UUID; on failure it mints a fresh random UUID,
// tolerating non-UUID chunk ids at the cost of breaking later lookup by the
// original id. Chunk ids are always minted as UUIDs by the ingest
// controller, so this path should not be reached in practice.
func pointID(id string) *qdrant.PointId {
	if _, err := uuid.Parse(id); err != nil {
		return qdrant.NewIDUUID(uuid.NewString())
	}
	return qdrant.NewIDUUID(id)
}

// chunkPayload serializes every Chunk field into a Qdrant payload map.
func chunkPayload(c document.Chunk) map[string]any {
	return map[string]any{
		"chunk_id":    c.ChunkID,
		"source_path": c.SourcePath,
		"source_type": c.SourceType,
		"title":       c.Title,
		"chunk_index": uint64(c.ChunkIndex),
		"text":        c.Text,
		"updated_at":  c.UpdatedAt.Format(rfc3339),
	}
}

const rfc3339 = "2006-01-02T15:04:05Z07:00"

// chunkFromPayload reconstructs a Chunk from a Qdrant payload map.
func chunkFromPayload(p map[string]*qdrant.Value) document.Chunk {
	var c document.Chunk
	if v, ok := p["chunk_id"]; ok {
		c.ChunkID = v.GetStringValue()
	}
	if v, ok := p["source_path"]; ok {
		c.SourcePath = v.GetStringValue()
	}
	if v, ok := p["source_type"]; ok {
		c.SourceType = v.GetStringValue()
	}
	if v, ok := p["title"]; ok {
		c.Title = v.GetStringValue()
	}
	if v, ok := p["chunk_index"]; ok {
		c.ChunkIndex = uint32(v.GetIntegerValue())
	}
	if v, ok := p["text"]; ok {
		c.Text = v.GetStringValue()
	}
	if v, ok := p["updated_at"]; ok {
		if t, err := time.Parse(rfc3339, v.GetStringValue()); err == nil {
			c.UpdatedAt = t
		}
	}
	return c
}

func vectorOf(v *qdrant.VectorsOutput) []float32 {
	if v == nil {
		return nil
	}
	if dense := v.GetVector(); dense != nil {
		return dense.GetData()
	}
	return nil
}

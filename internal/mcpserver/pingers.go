package mcpserver

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// probeTimeout is the maximum time allowed for each individual dependency
// probe during a readiness check. Kept short so readiness responds quickly
// even when a dependency is slow rather than unreachable.
const probeTimeout = 5

// Pinger is implemented by any dependency that can report its own
// reachability. Implementations must be safe for concurrent use.
type Pinger interface {
	// Ping checks whether the dependency is reachable within the given context.
	Ping(ctx context.Context) error
	// Name returns a short human-readable label (e.g. "qdrant", "lexical").
	Name() string
}

// QdrantPinger probes a Qdrant instance using its native HealthCheck RPC.
type QdrantPinger struct {
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

func (p *QdrantPinger) Name() string { return "qdrant" }

func (p *QdrantPinger) Ping(ctx context.Context) error {
	if _, err := p.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// LexicalPinger probes the bleve lexical index by issuing a cheap doc count.
// There is no native health-check RPC for an embedded index — Count failing
// means the index handle is unusable.
type LexicalPinger struct {
	count func() (uint64, error)
}

// NewLexicalPinger constructs a LexicalPinger backed by count, typically
// (*lexical.Store).Count.
func NewLexicalPinger(count func() (uint64, error)) *LexicalPinger {
	return &LexicalPinger{count: count}
}

func (p *LexicalPinger) Name() string { return "lexical" }

func (p *LexicalPinger) Ping(context.Context) error {
	if _, err := p.count(); err != nil {
		return fmt.Errorf("count failed: %w", err)
	}
	return nil
}

package mcpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/54b3r/hsearch/internal/document"
)

// Searcher is the subset of search.Hybrid the server calls into.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, filters document.Filters) ([]document.Result, error)
	GetChunk(ctx context.Context, chunkID string) (document.Detail, bool, error)
}

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: listen_port from config).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response; must be
	// long enough for an SSE stream to remain open indefinitely.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, logging.New() is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /ready.
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on
	// POST /message (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// Version is reported in the `initialize` response's serverInfo.
	Version string
	// APIKey, if non-empty, requires "Authorization: Bearer <APIKey>" on
	// POST /message. Empty disables auth (the default for localhost use).
	APIKey string
	// CollectionName is reported by the `stats` tool.
	CollectionName string
	// Tokenizer is reported by the `stats` tool.
	Tokenizer string
}

// Server is the MCP tool-call HTTP server: SSE session transport plus
// JSON-RPC dispatch over POST /message.
type Server struct {
	searcher        Searcher
	collectionInfo  func(ctx context.Context) (uint64, error)
	lexicalCount    func() (uint64, error)
	cfg             *Config
	httpServer      *http.Server
	log             *slog.Logger
	registry        *registry
	pingers         []Pinger
	metrics         *serverMetrics
	version         string
	stopRateLimiter func()
}

package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/54b3r/hsearch/internal/logging"
	"github.com/54b3r/hsearch/internal/mcpserver"
	"github.com/54b3r/hsearch/internal/search"
)

// NewServeCmd constructs the `hsearchd serve` command, which starts the MCP
// tool-call server (SSE transport + JSON-RPC dispatch) over the configured
// vector and lexical stores.
func NewServeCmd() *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP tool-call server",
		Long: `Start the hybrid search MCP server on localhost. Clients open an SSE stream
at GET /sse, receive a session-scoped endpoint, then POST JSON-RPC 2.0
requests to it to call the search, get, and stats tools.

Examples:
  hsearchd serve
  hsearchd serve --host 0.0.0.0 --project acme`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := loadedConfig
			log := logging.New()

			emb, err := buildEmbedder(ctx, cfg)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise embedder: %w", err)
			}

			vec, err := buildVectorStore(cfg)
			if err != nil {
				return fmt.Errorf("serve: failed to connect to qdrant: %w", err)
			}
			defer vec.Close()

			if err := vec.EnsureCollection(ctx); err != nil {
				return fmt.Errorf("serve: failed to ensure collection: %w", err)
			}

			lex, err := buildLexicalStore(cfg)
			if err != nil {
				return fmt.Errorf("serve: failed to open lexical index: %w", err)
			}
			defer lex.Close()

			hybrid, err := search.New(
				search.WithEmbedder(emb),
				search.WithVectorStore(vec),
				search.WithLexicalStore(lex),
			)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise searcher: %w", err)
			}

			pingers := []mcpserver.Pinger{
				mcpserver.NewQdrantPinger(vec.Client()),
				mcpserver.NewLexicalPinger(lex.Count),
			}

			srv, err := mcpserver.New(hybrid, vec.CollectionInfo, lex.Count, &mcpserver.Config{
				Host:           host,
				Port:           cfg.ListenPort,
				Logger:         log,
				Pingers:        pingers,
				Version:        versionString(),
				APIKey:         os.Getenv("HSEARCH_API_KEY"),
				CollectionName: cfg.CollectionName,
				Tokenizer:      cfg.Tokenizer,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			log.Info("serve: starting", "collection", cfg.CollectionName)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")

	return cmd
}

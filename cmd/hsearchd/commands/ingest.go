package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/hsearch/internal/catalog"
	"github.com/54b3r/hsearch/internal/ingest"
	"github.com/54b3r/hsearch/internal/logging"
)

// NewIngestCmd constructs the `hsearchd ingest` command, which walks one or
// more source directories, chunks every supported file, embeds and indexes
// the chunks into both the vector store and the lexical index.
func NewIngestCmd() *cobra.Command {
	var sources []string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a filesystem corpus into the vector and lexical indexes",
		Long: `Walk every --source directory recursively, chunk supported files (plain
text directly, rich formats via markitdown when available), embed each
chunk, and index it into both Qdrant and the Bleve lexical index.

Ingestion is idempotent: a file already indexed at its current mtime is
skipped on subsequent runs. State is tracked in a JSON file next to the
lexical index directory, named <tantivy_index_dir>-<collection>.json.

Example:
  hsearchd ingest --source ./docs --source ./runbooks`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := loadedConfig
			log := logging.New()

			if len(sources) == 0 {
				return fmt.Errorf("ingest: at least one --source is required")
			}

			emb, err := buildEmbedder(ctx, cfg)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			vec, err := buildVectorStore(cfg)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer vec.Close()

			lex, err := buildLexicalStore(cfg)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer lex.Close()

			dbPath, err := catalog.DefaultDBPath()
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			ledger, err := catalog.Open(dbPath)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer ledger.Close()

			statePath := cfg.TantivyIndexDir + "-" + cfg.CollectionName + ".json"

			controller, err := ingest.New(emb, vec, lex, ledger, ingest.Config{
				ChunkSize:    cfg.ChunkSize,
				ChunkOverlap: cfg.ChunkOverlap,
				StatePath:    statePath,
			}, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			stats, err := controller.Run(ctx, sources)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			fmt.Printf("files processed: %d, chunks indexed: %d, errors: %d\n",
				stats.FilesProcessed, stats.ChunksIndexed, stats.Errors)

			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sources, "source", nil, "Source directory to ingest (repeatable)")

	return cmd
}

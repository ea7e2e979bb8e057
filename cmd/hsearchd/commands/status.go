package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/hsearch/internal/catalog"
	"github.com/54b3r/hsearch/internal/ingest"
)

// NewStatusCmd constructs the `hsearchd status` command, reporting the
// current point count of the vector collection, the lexical index's
// document count, the catalog ledger's entry count, and the number of
// files recorded in the project's ingest state file.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report indexing status across the vector store, lexical index, and ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := loadedConfig

			vec, err := buildVectorStore(cfg)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			defer vec.Close()

			pointsCount, err := vec.CollectionInfo(ctx)
			if err != nil {
				fmt.Printf("vector collection %q: unreachable (%v)\n", cfg.CollectionName, err)
			} else {
				fmt.Printf("vector collection %q: %d points\n", cfg.CollectionName, pointsCount)
			}

			lex, err := buildLexicalStore(cfg)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			defer lex.Close()

			lexCount, err := lex.Count()
			if err != nil {
				fmt.Printf("lexical index: error (%v)\n", err)
			} else {
				fmt.Printf("lexical index: %d documents\n", lexCount)
			}

			statePath := cfg.TantivyIndexDir + "-" + cfg.CollectionName + ".json"
			state, err := ingest.LoadState(statePath)
			if err != nil {
				fmt.Printf("ingest state: error (%v)\n", err)
			} else {
				fmt.Printf("ingest state: %d files tracked\n", len(state))
			}

			dbPath, err := catalog.DefaultDBPath()
			if err == nil {
				if ledger, err := catalog.Open(dbPath); err == nil {
					defer ledger.Close()
					if count, err := ledger.Count(ctx); err == nil {
						fmt.Printf("catalog ledger: %d entries\n", count)
					}
				}
			}

			return nil
		},
	}
}

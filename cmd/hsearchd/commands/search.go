package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/54b3r/hsearch/internal/document"
	"github.com/54b3r/hsearch/internal/search"
)

// NewSearchCmd constructs the `hsearchd search` command: a one-shot hybrid
// search against the configured vector and lexical stores, printed as JSON.
func NewSearchCmd() *cobra.Command {
	var query string
	var topK int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a one-shot hybrid search and print the fused results as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := loadedConfig

			if query == "" {
				return fmt.Errorf("search: --query is required")
			}
			if topK <= 0 {
				topK = 10
			}

			emb, err := buildEmbedder(ctx, cfg)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			vec, err := buildVectorStore(cfg)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer vec.Close()

			lex, err := buildLexicalStore(cfg)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer lex.Close()

			hybrid, err := search.New(
				search.WithEmbedder(emb),
				search.WithVectorStore(vec),
				search.WithLexicalStore(lex),
			)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			results, err := hybrid.Search(ctx, query, topK, document.Filters{})
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Search query text")
	cmd.Flags().IntVar(&topK, "top-k", 10, "Maximum number of results to return")

	return cmd
}

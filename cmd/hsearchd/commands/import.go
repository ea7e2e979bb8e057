package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/54b3r/hsearch/internal/document"
)

// NewImportCmd constructs the `hsearchd import` command: the inverse of
// export — reads a previously exported JSON file and re-upserts every
// chunk and vector into both the vector store and the lexical index.
func NewImportCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import chunks and vectors from a JSON file exported by `export`",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := loadedConfig

			if input == "" {
				return fmt.Errorf("import: --input is required")
			}

			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("import: read input file: %w", err)
			}

			var rows []exportedChunk
			if err := json.Unmarshal(data, &rows); err != nil {
				return fmt.Errorf("import: parse input file: %w", err)
			}

			chunks := make([]document.Chunk, 0, len(rows))
			vectors := make([][]float32, 0, len(rows))
			for _, r := range rows {
				updatedAt, err := time.Parse("2006-01-02T15:04:05Z07:00", r.UpdatedAt)
				if err != nil {
					updatedAt = time.Now().UTC()
				}
				chunks = append(chunks, document.Chunk{
					ChunkID:    r.ChunkID,
					SourcePath: r.SourcePath,
					SourceType: r.SourceType,
					Title:      r.Title,
					ChunkIndex: r.ChunkIndex,
					Text:       r.Text,
					UpdatedAt:  updatedAt,
				})
				vectors = append(vectors, r.Vector)
			}

			vec, err := buildVectorStore(cfg)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			defer vec.Close()

			if err := vec.EnsureCollection(ctx); err != nil {
				return fmt.Errorf("import: %w", err)
			}
			if err := vec.Upsert(ctx, chunks, vectors); err != nil {
				return fmt.Errorf("import: %w", err)
			}

			lex, err := buildLexicalStore(cfg)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			defer lex.Close()

			if err := lex.IndexChunks(ctx, chunks); err != nil {
				return fmt.Errorf("import: %w", err)
			}

			fmt.Printf("imported %d chunks from %s\n", len(chunks), input)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Path to a JSON file previously written by `export`")

	return cmd
}

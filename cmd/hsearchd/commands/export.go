package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// exportedChunk is one row of an export/import file: a chunk plus its
// stored embedding vector. The file holds all rows as a single JSON array.
type exportedChunk struct {
	ChunkID    string    `json:"chunk_id"`
	SourcePath string    `json:"source_path"`
	SourceType string    `json:"source_type"`
	Title      string    `json:"title"`
	ChunkIndex uint32    `json:"chunk_index"`
	Text       string    `json:"text"`
	UpdatedAt  string    `json:"updated_at"`
	Vector     []float32 `json:"vector"`
}

// NewExportCmd constructs the `hsearchd export` command: scrolls the full
// vector collection and writes every chunk plus its vector as a JSON array
// to --output.
func NewExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the vector collection to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := loadedConfig

			if output == "" {
				return fmt.Errorf("export: --output is required")
			}

			vec, err := buildVectorStore(cfg)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			defer vec.Close()

			chunks, vectors, err := vec.ExportAll(ctx)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			rows := make([]exportedChunk, 0, len(chunks))
			for i, c := range chunks {
				rows = append(rows, exportedChunk{
					ChunkID:    c.ChunkID,
					SourcePath: c.SourcePath,
					SourceType: c.SourceType,
					Title:      c.Title,
					ChunkIndex: c.ChunkIndex,
					Text:       c.Text,
					UpdatedAt:  c.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
					Vector:     vectors[i],
				})
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("export: create output file: %w", err)
			}
			defer f.Close()

			enc := json.NewEncoder(f)
			enc.SetIndent("", "  ")
			if err := enc.Encode(rows); err != nil {
				return fmt.Errorf("export: write output: %w", err)
			}

			fmt.Printf("exported %d chunks to %s\n", len(rows), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "Path to write the exported JSON file")

	return cmd
}

package commands

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewResetCmd constructs the `hsearchd reset` command: deletes the vector
// collection and wipes the lexical index directory for the current
// project namespace. This is the only way to drop stale chunk_ids left
// behind after a source file is deleted or moved, since ingest never
// removes chunks on its own.
func NewResetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the vector collection and lexical index for this project",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := loadedConfig

			if !force {
				fmt.Printf("this will permanently delete collection %q and its lexical index. Continue? [y/N] ", cfg.CollectionName)
				reader := bufio.NewReader(cmd.InOrStdin())
				line, _ := reader.ReadString('\n')
				if line != "y\n" && line != "Y\n" {
					fmt.Println("aborted")
					return nil
				}
			}

			vec, err := buildVectorStore(cfg)
			if err != nil {
				return fmt.Errorf("reset: %w", err)
			}
			defer vec.Close()

			exists, err := vec.CollectionExists(ctx)
			if err != nil {
				return fmt.Errorf("reset: %w", err)
			}
			if exists {
				if err := vec.DeleteCollection(ctx); err != nil {
					return fmt.Errorf("reset: %w", err)
				}
				fmt.Printf("deleted vector collection %q\n", cfg.CollectionName)
			}

			indexDir := cfg.TantivyIndexDir + "-" + cfg.CollectionName
			if err := os.RemoveAll(indexDir); err != nil {
				return fmt.Errorf("reset: remove lexical index: %w", err)
			}
			fmt.Printf("removed lexical index at %s\n", filepath.Clean(indexDir))

			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation prompt")

	return cmd
}

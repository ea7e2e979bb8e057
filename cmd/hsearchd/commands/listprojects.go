package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewListProjectsCmd constructs the `hsearchd list-projects` command: lists
// every Qdrant collection whose name is the configured base collection name
// suffixed by "-<project>", i.e. every project namespace ever initialized
// against this Qdrant instance.
func NewListProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-projects",
		Short: "List project namespaces discovered in the Qdrant instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			base := loadedConfigBase.CollectionName

			vec, err := buildVectorStore(loadedConfigBase)
			if err != nil {
				return fmt.Errorf("list-projects: %w", err)
			}
			defer vec.Close()

			names, err := vec.ListCollections(ctx)
			if err != nil {
				return fmt.Errorf("list-projects: %w", err)
			}

			prefix := base + "-"
			found := false
			for _, name := range names {
				if name == base {
					fmt.Println("(default)")
					found = true
					continue
				}
				if strings.HasPrefix(name, prefix) {
					fmt.Println(strings.TrimPrefix(name, prefix))
					found = true
				}
			}
			if !found {
				fmt.Println("no projects found")
			}

			return nil
		},
	}
}

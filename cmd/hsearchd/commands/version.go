package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/hsearch/internal/version"
)

// NewVersionCmd constructs the `hsearchd version` subcommand.
// It prints the binary version, git commit, and build date injected at
// build time via -ldflags. Falls back to "dev"/"unknown" for local builds.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the hsearchd version, git commit, and build date",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(versionString())
		},
	}
}

func versionString() string {
	return fmt.Sprintf("hsearchd %s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
}

// Package commands defines all Cobra CLI commands for the hsearchd binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/54b3r/hsearch/internal/audit"
	"github.com/54b3r/hsearch/internal/config"
	"github.com/54b3r/hsearch/internal/logging"
)

// configPath holds the --config flag value for TOML config file override.
var configPath string

// project holds the global --project flag, suffixing the collection name
// for namespace isolation across multiple corpora sharing one Qdrant instance.
var project string

// loadedConfig is the resolved configuration, populated in PersistentPreRunE
// and read by every subcommand.
var loadedConfig config.Config

// loadedConfigBase is loadedConfig before --project suffixing was applied,
// used by list-projects to recover the unsuffixed collection name.
var loadedConfigBase config.Config

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hsearchd",
		Short: "hsearchd — hybrid dense+lexical document search over an MCP tool-call server",
		Long: `hsearchd indexes a filesystem corpus into a Qdrant vector collection and a
Bleve lexical index, then serves hybrid search (reciprocal rank fusion over
both) as MCP tools over an SSE + JSON-RPC transport.

Configuration is layered: TOML file → environment variables (which always
win). See 'hsearchd --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			cfg, path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigBase = cfg
			loadedConfig = cfg.WithProject(project)
			loadedConfigPath = path

			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to TOML config file (default: ~/.mcp-hybrid-search/config.toml)")
	root.PersistentFlags().StringVar(&project, "project", "", "Project namespace, suffixes the collection name")

	root.AddCommand(
		NewInitCmd(),
		NewIngestCmd(),
		NewStatusCmd(),
		NewResetCmd(),
		NewExportCmd(),
		NewImportCmd(),
		NewListProjectsCmd(),
		NewSearchCmd(),
		NewServeCmd(),
		NewVersionCmd(),
	)

	return root
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/54b3r/hsearch/internal/config"
)

// NewInitCmd constructs the `hsearchd init` command: scaffolds a default
// TOML config file (if one isn't already present) and creates the Qdrant
// collection and lexical index so a fresh deployment is ready to ingest.
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Scaffold a config file and create the vector + lexical indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := loadedConfig

			if loadedConfigPath == "" {
				path, err := defaultConfigWritePath()
				if err != nil {
					return fmt.Errorf("init: %w", err)
				}
				if err := writeDefaultConfig(path, cfg); err != nil {
					return fmt.Errorf("init: %w", err)
				}
				fmt.Printf("wrote config to %s\n", path)
			} else {
				fmt.Printf("using existing config at %s\n", loadedConfigPath)
			}

			vec, err := buildVectorStore(cfg)
			if err != nil {
				return fmt.Errorf("init: %w", err)
			}
			defer vec.Close()

			if err := vec.EnsureCollection(ctx); err != nil {
				return fmt.Errorf("init: %w", err)
			}
			fmt.Printf("vector collection %q ready\n", cfg.CollectionName)

			lex, err := buildLexicalStore(cfg)
			if err != nil {
				return fmt.Errorf("init: %w", err)
			}
			defer lex.Close()
			fmt.Println("lexical index ready")

			return nil
		},
	}
}

func defaultConfigWritePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".mcp-hybrid-search", "config.toml"), nil
}

func writeDefaultConfig(path string, cfg config.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

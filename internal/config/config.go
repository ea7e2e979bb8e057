// Package config provides TOML-based configuration for hsearchd.
// Configuration is loaded with a layered precedence: defaults → TOML file → env vars.
// Environment variables always win, so existing deployments are unaffected by a
// config file appearing later.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. HSEARCH_CONFIG environment variable
//  3. ~/.mcp-hybrid-search/config.toml
//  4. ./hsearch.toml
//
// If no file is found the system runs entirely on defaults and env vars.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level TOML configuration structure. Field names use toml
// tags matching the keys documented for the service.
type Config struct {
	QdrantURL          string `toml:"qdrant_url"`
	CollectionName     string `toml:"collection_name"`
	TantivyIndexDir    string `toml:"tantivy_index_dir"`
	ChunkSize          int    `toml:"chunk_size"`
	ChunkOverlap       int    `toml:"chunk_overlap"`
	ListenPort         int    `toml:"listen_port"`
	EmbeddingProvider  string `toml:"embedding_provider"`
	EmbeddingModel     string `toml:"embedding_model"`
	EmbeddingDimension int    `toml:"embedding_dimension"`
	Tokenizer          string `toml:"tokenizer"`
}

// Defaults returns a Config populated with the documented default values.
func Defaults() Config {
	return Config{
		QdrantURL:          "http://localhost:6334",
		CollectionName:     "docs",
		TantivyIndexDir:    defaultIndexDir(),
		ChunkSize:          1000,
		ChunkOverlap:       200,
		ListenPort:         7070,
		EmbeddingProvider:  "openai",
		EmbeddingModel:     "text-embedding-3-small",
		EmbeddingDimension: 1536,
		Tokenizer:          "default",
	}
}

func defaultIndexDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mcp-hybrid-search/tantivy"
	}
	return filepath.Join(home, ".mcp-hybrid-search", "tantivy")
}

// Load resolves a config file (explicitPath, then HSEARCH_CONFIG, then the
// well-known search paths) and merges it over Defaults(). Any TOML key
// present overrides the default; env vars are applied last so they always
// win. Returns the path loaded, or "" if none was found — in which case cfg
// is exactly Defaults() plus any env overrides.
func Load(explicitPath string, log *slog.Logger) (Config, string, error) {
	cfg := Defaults()

	path := resolveConfigPath(explicitPath)
	if path == "" {
		log.Debug("config: no TOML config file found, using defaults and env vars only")
		applyEnv(&cfg)
		return cfg, "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, "", fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, "", fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applyEnv(&cfg)

	log.Info("config: loaded TOML config", slog.String("path", path))
	return cfg, path, nil
}

// envMapping maps env var names to a setter applied over a Config, in the
// order they should be applied. Only non-empty env values are applied, and
// they always override whatever the TOML file or defaults supplied.
var envMapping = []struct {
	key string
	set func(*Config, string)
}{
	{"HSEARCH_QDRANT_URL", func(c *Config, v string) { c.QdrantURL = v }},
	{"HSEARCH_COLLECTION_NAME", func(c *Config, v string) { c.CollectionName = v }},
	{"HSEARCH_INDEX_DIR", func(c *Config, v string) { c.TantivyIndexDir = v }},
	{"HSEARCH_CHUNK_SIZE", func(c *Config, v string) { setInt(&c.ChunkSize, v) }},
	{"HSEARCH_CHUNK_OVERLAP", func(c *Config, v string) { setInt(&c.ChunkOverlap, v) }},
	{"HSEARCH_LISTEN_PORT", func(c *Config, v string) { setInt(&c.ListenPort, v) }},
	{"EMBEDDING_PROVIDER", func(c *Config, v string) { c.EmbeddingProvider = v }},
	{"EMBEDDING_MODEL", func(c *Config, v string) { c.EmbeddingModel = v }},
	{"EMBEDDING_DIMENSIONS", func(c *Config, v string) { setInt(&c.EmbeddingDimension, v) }},
	{"HSEARCH_TOKENIZER", func(c *Config, v string) { c.Tokenizer = v }},
}

func applyEnv(cfg *Config) {
	for _, m := range envMapping {
		if v := os.Getenv(m.key); v != "" {
			m.set(cfg, v)
		}
	}
}

func setInt(dst *int, v string) {
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
		*dst = n
	}
}

// WithProject returns a copy of cfg with CollectionName suffixed by project,
// per the global --project flag's namespace-isolation contract.
func (c Config) WithProject(project string) Config {
	if project == "" {
		return c
	}
	c.CollectionName = c.CollectionName + "-" + project
	return c
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("HSEARCH_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".mcp-hybrid-search", "config.toml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("hsearch.toml"); err == nil {
		return "hsearch.toml"
	}

	return ""
}

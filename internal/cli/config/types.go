// Package config provides configuration management for the leapcollect CLI.
package config

import (
	"strings"
	"time"

	"github.com/leapstack-labs/leapcollect/pkg/core"
)

// Config holds all CLI configuration options.
type Config struct {
	Metadata       MetadataConfig       `koanf:"metadata"`
	Target         *TargetConfig        `koanf:"target"`
	TablePrefix    string               `koanf:"table_prefix"`
	Tenant         int64                `koanf:"tenant"`
	Site           int64                `koanf:"site"`
	Cache          CacheConfig          `koanf:"cache"`
	CollectionsDir string               `koanf:"collections_dir"`
	Environment    string               `koanf:"environment"`
	Verbose        bool                 `koanf:"verbose"`
	OutputFormat   string               `koanf:"output"`
	Environments   map[string]EnvConfig `koanf:"environments"`
}

// MetadataConfig locates the store that holds collection metadata.
type MetadataConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// TargetConfig locates the database whose physical tables are managed.
type TargetConfig struct {
	Type     string            `koanf:"type"`
	Path     string            `koanf:"path"`
	Database string            `koanf:"database"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Schema   string            `koanf:"schema"`
	Options  map[string]string `koanf:"options"`
	Params   map[string]any    `koanf:"params"`
}

// AdapterConfig converts the target into the adapter connection config.
func (t *TargetConfig) AdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{
		Type:     strings.ToLower(t.Type),
		Path:     t.Path,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
		Params:   t.Params,
	}
}

// CacheConfig tunes the collection cache.
type CacheConfig struct {
	TTL    time.Duration `koanf:"ttl"`
	Prefix string        `koanf:"prefix"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Metadata *MetadataConfig `koanf:"metadata"`
	Target   *TargetConfig   `koanf:"target"`
}

// Default configuration values.
const (
	DefaultMetadataDriver = "sqlite"
	DefaultMetadataDSN    = ".leapcollect/metadata.db"
	DefaultTargetType     = "sqlite"
	DefaultTargetPath     = ".leapcollect/target.db"
	DefaultCollectionsDir = "collections"
	DefaultCacheTTL       = "1h"
	DefaultCachePrefix    = "collection"
	DefaultEnv            = "dev"
	DefaultOutput         = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// ConfigFileNames are searched, in order, when no --config is given.
var ConfigFileNames = []string{"leapcollect.yaml", "leapcollect.yml"}

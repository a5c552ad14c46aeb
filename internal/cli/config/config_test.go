package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/leapcollect/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapcollect/pkg/adapters/sqlite"
)

func TestTargetConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		target    TargetConfig
		wantErr   bool
		errSubstr string
	}{
		{name: "empty type", target: TargetConfig{Type: ""}, wantErr: true, errSubstr: "target type is required"},
		{name: "valid sqlite", target: TargetConfig{Type: "sqlite"}},
		{name: "valid duckdb uppercase", target: TargetConfig{Type: "DuckDB"}},
		{name: "unknown type oracle", target: TargetConfig{Type: "oracle"}, wantErr: true, errSubstr: "unknown target type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTargetConfig_Validate_ErrorContainsAvailable(t *testing.T) {
	err := (&TargetConfig{Type: "invalid_db"}).Validate()
	require.Error(t, err)

	assert.Contains(t, err.Error(), "sqlite", "error should list available adapters")
	assert.Contains(t, err.Error(), "leapcollect.yaml", "error should mention config file")
}

func TestTargetConfig_AdapterConfig(t *testing.T) {
	target := &TargetConfig{Type: "MySQL", Host: "db", Port: 3306, Database: "app", User: "u", Password: "p"}
	ac := target.AdapterConfig()

	assert.Equal(t, "mysql", ac.Type)
	assert.Equal(t, "u", ac.Username)
	assert.Equal(t, 3306, ac.Port)
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"LEAPCOLLECT_TENANT", "tenant"},
		{"LEAPCOLLECT_TABLE_PREFIX", "table_prefix"},
		{"LEAPCOLLECT_COLLECTIONS_DIR", "collections_dir"},
		{"LEAPCOLLECT_METADATA_DSN", "metadata.dsn"},
		{"LEAPCOLLECT_TARGET_TYPE", "target.type"},
		{"LEAPCOLLECT_CACHE_TTL", "cache.ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envKey(tt.in))
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")
	t.Setenv("TEST_VAR_TWO", "value_two")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single variable", input: "${TEST_VAR_ONE}", expected: "value_one"},
		{name: "multiple variables", input: "${TEST_VAR_ONE}/${TEST_VAR_TWO}", expected: "value_one/value_two"},
		{name: "unset variable stays as-is", input: "${UNSET_VARIABLE}", expected: "${UNSET_VARIABLE}"},
		{name: "no variables", input: "plain string", expected: "plain string"},
		{name: "empty string", input: "", expected: ""},
		{name: "mixed set and unset", input: "${TEST_VAR_ONE}:${UNSET_VAR}", expected: "value_one:${UNSET_VAR}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestMergeTargetConfig(t *testing.T) {
	t.Run("nil base returns override", func(t *testing.T) {
		override := &TargetConfig{Type: "mysql"}
		assert.Same(t, override, MergeTargetConfig(nil, override))
	})

	t.Run("nil override returns base", func(t *testing.T) {
		base := &TargetConfig{Type: "sqlite"}
		assert.Same(t, base, MergeTargetConfig(base, nil))
	})

	t.Run("override wins field by field", func(t *testing.T) {
		base := &TargetConfig{
			Type:    "mysql",
			Host:    "localhost",
			Port:    3306,
			User:    "app",
			Options: map[string]string{"charset": "utf8mb4", "tls": "false"},
		}
		override := &TargetConfig{
			Host:    "db.internal",
			Options: map[string]string{"tls": "true"},
		}

		merged := MergeTargetConfig(base, override)
		assert.Equal(t, "mysql", merged.Type)
		assert.Equal(t, "db.internal", merged.Host)
		assert.Equal(t, 3306, merged.Port)
		assert.Equal(t, "app", merged.User)
		assert.Equal(t, map[string]string{"charset": "utf8mb4", "tls": "true"}, merged.Options)
		assert.Equal(t, "false", base.Options["tls"], "base must not be modified")
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
	assert.Equal(t, "sqlite", cfg.Metadata.Driver)
	assert.Equal(t, DefaultMetadataDSN, cfg.Metadata.DSN)
	require.NotNil(t, cfg.Target)
	assert.Equal(t, "sqlite", cfg.Target.Type)
	assert.Equal(t, DefaultTargetPath, cfg.Target.Path)
	assert.Equal(t, DefaultCollectionsDir, cfg.CollectionsDir)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, DefaultCachePrefix, cfg.Cache.Prefix)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Zero(t, cfg.Tenant)
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Setenv("TEST_TARGET_PASSWORD", "s3cret")

	path := filepath.Join(dir, "leapcollect.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
metadata:
  dsn: meta.db
target:
  type: duckdb
  path: data/target.duckdb
  password: ${TEST_TARGET_PASSWORD}
table_prefix: app_
tenant: 7
site: 2
collections_dir: defs
cache:
  ttl: 30m
  prefix: cms
environments:
  prod:
    target:
      path: /srv/prod.duckdb
`), 0o600))

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, filepath.Join(dir, "meta.db"), cfg.Metadata.DSN)
	assert.Equal(t, "duckdb", cfg.Target.Type)
	assert.Equal(t, filepath.Join(dir, "data", "target.duckdb"), cfg.Target.Path)
	assert.Equal(t, "s3cret", cfg.Target.Password)
	assert.Equal(t, "app_", cfg.TablePrefix)
	assert.Equal(t, int64(7), cfg.Tenant)
	assert.Equal(t, int64(2), cfg.Site)
	assert.Equal(t, filepath.Join(dir, "defs"), cfg.CollectionsDir)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "cms", cfg.Cache.Prefix)

	t.Run("environment override", func(t *testing.T) {
		ResetConfig()
		t.Setenv("LEAPCOLLECT_ENVIRONMENT", "prod")

		cfg, err := LoadConfig(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "/srv/prod.duckdb", cfg.Target.Path)
		assert.Equal(t, "duckdb", cfg.Target.Type)
	})
}

func TestLoadConfig_Precedence(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := filepath.Join(dir, "leapcollect.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tenant: 1\ntable_prefix: file_\n"), 0o600))

	t.Setenv("LEAPCOLLECT_TENANT", "3")
	t.Setenv("LEAPCOLLECT_TABLE_PREFIX", "env_")
	t.Setenv("LEAPCOLLECT_METADATA_DSN", "/tmp/env-meta.db")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int64("tenant", 0, "")
	flags.String("table-prefix", "", "")
	flags.String("metadata-dsn", "", "")
	require.NoError(t, flags.Parse([]string{"--tenant=9"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, int64(9), cfg.Tenant, "flag beats env")
	assert.Equal(t, "env_", cfg.TablePrefix, "env beats file")
	assert.Equal(t, "/tmp/env-meta.db", cfg.Metadata.DSN, "unchanged flag does not override")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		errSubstr string
	}{
		{name: "metadata driver", yaml: "metadata:\n  driver: postgres\n", errSubstr: "unsupported metadata driver"},
		{name: "target type", yaml: "target:\n  type: oracle\n", errSubstr: "unknown target type"},
		{name: "table prefix", yaml: "table_prefix: \"app-\"\n", errSubstr: "table_prefix"},
		{name: "negative tenant", yaml: "tenant: -1\n", errSubstr: "tenant must not be negative"},
		{name: "output", yaml: "output: yaml\n", errSubstr: "invalid output format"},
		{name: "broken yaml", yaml: "tenant: [\n", errSubstr: "error reading config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			path := filepath.Join(t.TempDir(), "leapcollect.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))

			_, err := LoadConfig(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestGetLogger_Fallback(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))
}

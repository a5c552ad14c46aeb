package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapcollect/internal/cli/output"
	"github.com/leapstack-labs/leapcollect/pkg/adapter"
	"github.com/leapstack-labs/leapcollect/pkg/core"
)

var metadataDrivers = []string{"sqlite", "mysql"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(metadataDrivers, c.Metadata.Driver) {
		return fmt.Errorf("unsupported metadata driver %q (want one of %v)", c.Metadata.Driver, metadataDrivers)
	}
	if c.Metadata.DSN == "" {
		return fmt.Errorf("metadata.dsn is required")
	}
	if c.Target == nil {
		return fmt.Errorf("target is required")
	}
	if err := c.Target.Validate(); err != nil {
		return err
	}
	if c.TablePrefix != "" {
		if err := core.ValidateIdentifier("table_prefix", c.TablePrefix); err != nil {
			return err
		}
	}
	if c.Tenant < 0 {
		return fmt.Errorf("tenant must not be negative, got %d", c.Tenant)
	}
	if c.Site < 0 {
		return fmt.Errorf("site must not be negative, got %d", c.Site)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	if c.OutputFormat != "" && !slices.Contains(output.Modes(), c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (want one of %v)", c.OutputFormat, output.Modes())
	}
	return nil
}

// Validate checks the target names a registered adapter.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	typ := strings.ToLower(t.Type)
	if !adapter.IsRegistered(typ) {
		return &adapter.UnknownAdapterError{Type: t.Type, Available: adapter.ListAdapters()}
	}
	return nil
}

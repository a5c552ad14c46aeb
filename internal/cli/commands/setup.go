package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapcollect/internal/cache"
	"github.com/leapstack-labs/leapcollect/internal/cli/config"
	"github.com/leapstack-labs/leapcollect/internal/cli/output"
	"github.com/leapstack-labs/leapcollect/internal/drift"
	"github.com/leapstack-labs/leapcollect/internal/engine"
	"github.com/leapstack-labs/leapcollect/internal/events"
	"github.com/leapstack-labs/leapcollect/internal/store"
	"github.com/leapstack-labs/leapcollect/pkg/adapter"
	"github.com/leapstack-labs/leapcollect/pkg/collection"
	"github.com/leapstack-labs/leapcollect/pkg/field"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Store    *store.SQLStore
	Target   adapter.Adapter
	Engine   *engine.Engine
	Detector *drift.Detector
	Renderer *output.Renderer
}

// NewCommandContext opens the metadata store and the target database and
// wires the engine over them. Returns the context and a cleanup function
// that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, nil, err
	}
	ctx := cmd.Context()
	logger := config.GetLogger(ctx)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	target, err := openTarget(ctx, cfg, logger)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	naming := collection.DefaultNaming
	if cfg.TablePrefix != "" {
		naming = collection.NewNaming(cfg.TablePrefix)
	}

	eng, err := engine.New(engine.Config{
		Store:       st,
		Schema:      target,
		Registry:    field.NewRegistry(),
		Naming:      &naming,
		Cache:       cache.NewMemory(),
		CacheTTL:    cfg.Cache.TTL,
		CachePrefix: cfg.Cache.Prefix,
		Events:      events.LogPublisher{Logger: logger},
		Logger:      logger,
	})
	if err != nil {
		_ = target.Close()
		_ = st.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := target.Close(); err != nil {
			logger.Warn("failed to close target database", slog.String("error", err.Error()))
		}
		if err := st.Close(); err != nil {
			logger.Warn("failed to close metadata store", slog.String("error", err.Error()))
		}
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Store:    st,
		Target:   target,
		Engine:   eng,
		Detector: drift.NewDetector(eng.Collections, target, drift.WithLogger(logger)),
		Renderer: newRenderer(cmd, cfg),
	}, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without database access.
func NewCommandContextWithoutEngine(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: newRenderer(cmd, cfg),
	}, nil
}

// Helper functions shared across commands

// getConfig returns the current configuration, loading the defaults when
// the command runs outside the root command.
func getConfig() (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", nil)
}

func newRenderer(cmd *cobra.Command, cfg *config.Config) *output.Renderer {
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.SQLStore, error) {
	if cfg.Metadata.Driver == store.DriverSQLite {
		if err := ensureParentDir(cfg.Metadata.DSN); err != nil {
			return nil, err
		}
	}

	st, err := store.Open(ctx, cfg.Metadata.Driver, cfg.Metadata.DSN, logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func openTarget(ctx context.Context, cfg *config.Config, logger *slog.Logger) (adapter.Adapter, error) {
	ac := cfg.Target.AdapterConfig()
	if ac.Path != "" {
		if err := ensureParentDir(ac.Path); err != nil {
			return nil, err
		}
	}

	a, err := adapter.NewAdapter(ac, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, ac); err != nil {
		return nil, fmt.Errorf("failed to connect to %s target: %w", ac.Type, err)
	}
	return a, nil
}

// ensureParentDir creates the directory of an embedded database file.
func ensureParentDir(path string) error {
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

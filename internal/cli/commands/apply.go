package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/leapstack-labs/leapcollect/internal/loader"
	"github.com/spf13/cobra"
)

// NewApplyCommand creates the apply command.
func NewApplyCommand() *cobra.Command {
	var watch bool
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "apply [dir]",
		Short: "Apply collection definition files",
		Long: `Load every YAML definition under dir (default: collections_dir) and
apply it: missing collections are created and missing fields and
relationships are added. Nothing is removed or altered.

With --watch the directory is re-applied whenever a definition changes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			dir := cc.Cfg.CollectionsDir
			if len(args) == 1 {
				dir = args[0]
			}

			applier := loader.NewApplier(cc.Engine, cc.Cfg.Tenant, cc.Logger)
			apply := func(ctx context.Context) error {
				res, err := applier.ApplyDir(ctx, dir)
				if err != nil {
					return err
				}
				return renderApply(cc.Renderer, res)
			}

			if err := apply(cmd.Context()); err != nil {
				if !watch {
					return err
				}
				cc.Logger.Error("apply failed", slog.String("error", err.Error()))
			}
			if !watch {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			cc.Renderer.Muted("Watching " + dir + " for changes (Ctrl+C to stop)")
			return loader.Watch(ctx, dir, debounce, apply, cc.Logger)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-apply when definition files change")
	cmd.Flags().DurationVar(&debounce, "debounce", loader.DefaultDebounce, "Quiet period before re-applying")
	return cmd
}

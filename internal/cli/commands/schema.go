package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapcollect/internal/drift"
	"github.com/leapstack-labs/leapcollect/pkg/collection"
	"github.com/spf13/cobra"
)

// ErrDriftDetected is returned by schema diff --check when any table
// differs from its collection.
var ErrDriftDetected = errors.New("schema drift detected")

// NewSchemaCommand creates the schema command group.
func NewSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Compare and reconcile physical tables with their collections",
	}

	cmd.AddCommand(newSchemaDiffCommand())
	cmd.AddCommand(newSchemaReconcileCommand())
	return cmd
}

func targetArgs(all bool) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		switch {
		case all && len(args) > 0:
			return fmt.Errorf("--all cannot be combined with a collection name")
		case !all && len(args) != 1:
			return fmt.Errorf("specify a collection name or --all")
		}
		return nil
	}
}

func newSchemaDiffCommand() *cobra.Command {
	var all, check bool
	var format string

	cmd := &cobra.Command{
		Use:   "diff [collection]",
		Short: "Show how tables differ from their collections",
		Long: `Compare the physical table of one collection (or of every collection
with --all) against its definition.

--format sql prints the DDL that would bring tables in line, commented out
for review. --check exits non-zero when any drift is found.`,
		Example: `  leapcollect schema diff posts
  leapcollect schema diff --all --check
  leapcollect schema diff --all --format sql`,
		Args: func(cmd *cobra.Command, args []string) error {
			return targetArgs(all)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			tenant := cc.Cfg.Tenant

			var report *drift.Report
			var collections []*collection.Collection
			if all {
				report, err = cc.Detector.DetectAll(ctx, tenant)
				if err == nil && format == drift.FormatSQL {
					collections, err = cc.Engine.Collections.All(ctx, tenant)
				}
			} else {
				report, err = cc.Detector.DetectCollection(ctx, args[0], tenant)
				if err == nil && format == drift.FormatSQL {
					var c *collection.Collection
					c, err = cc.Engine.Collections.Require(ctx, args[0], tenant)
					collections = []*collection.Collection{c}
				}
			}
			if err != nil {
				return err
			}

			switch format {
			case drift.FormatJSON:
				err = drift.WriteJSON(cc.Renderer.Writer(), report)
			case drift.FormatSQL:
				err = drift.WriteSQL(cc.Renderer.Writer(), report, cc.Target.Dialect(), drift.CollectionLookup(collections))
			case "":
				err = renderReport(cc.Renderer, report)
			default:
				return fmt.Errorf("unknown format %q (want json or sql)", format)
			}
			if err != nil {
				return err
			}

			if check && report.HasChanges() {
				return ErrDriftDetected
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Check every collection of the tenant")
	cmd.Flags().BoolVar(&check, "check", false, "Exit non-zero when drift is found")
	cmd.Flags().StringVar(&format, "format", "", "Report format (json|sql); default follows --output")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{drift.FormatJSON, drift.FormatSQL}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newSchemaReconcileCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reconcile [collection]",
		Short: "Create missing tables and columns",
		Long: `Apply the additive part of the drift: create missing tables and add
missing columns. Columns that exist in a table but not in its collection
are reported and left in place.`,
		Args: func(cmd *cobra.Command, args []string) error {
			return targetArgs(all)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			var results []drift.Result
			if all {
				results, err = cc.Detector.ReconcileAll(ctx, cc.Cfg.Tenant)
			} else {
				var c *collection.Collection
				c, err = cc.Engine.Collections.Require(ctx, args[0], cc.Cfg.Tenant)
				if err == nil {
					var res drift.Result
					res, err = cc.Detector.Reconcile(ctx, c)
					results = []drift.Result{res}
				}
			}
			if err != nil {
				return err
			}
			return renderReconcile(cc.Renderer, results)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Reconcile every collection of the tenant")
	return cmd
}

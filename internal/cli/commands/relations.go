package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapcollect/internal/cli/output"
	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/spf13/cobra"
)

// NewRelationsCommand creates the relations command group.
func NewRelationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "relations",
		Aliases: []string{"relation", "rel"},
		Short:   "Add and remove relationships between collections",
	}

	cmd.AddCommand(newRelationsAddCommand())
	cmd.AddCommand(newRelationsRemoveCommand())
	return cmd
}

func newRelationsAddCommand() *cobra.Command {
	var typ, target, foreignKey, localKey, pivot string

	cmd := &cobra.Command{
		Use:   "add <collection> <name>",
		Short: "Add a relationship",
		Long: `Add a named relationship from a collection to a target collection.

Keys default by convention: {target}_id on the source for belongs_to,
{source}_id on the target for has_one/has_many. belongs_to_many creates
the pivot table when it does not exist yet.`,
		Example: `  leapcollect relations add posts author --type belongs_to --target authors
  leapcollect relations add posts tags --type belongs_to_many --target tags`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			r := core.Relationship{
				Name:             args[1],
				Type:             core.RelationType(typ),
				TargetCollection: target,
				ForeignKey:       foreignKey,
				LocalKey:         localKey,
			}
			if pivot != "" {
				r.Options = map[string]any{core.OptionPivotTable: pivot}
			}

			added, err := cc.Engine.Relationships.Add(cmd.Context(), args[0], cc.Cfg.Tenant, r)
			if err != nil {
				return err
			}

			if cc.Renderer.EffectiveMode() == output.ModeJSON {
				return cc.Renderer.JSON(added)
			}
			cc.Renderer.Success(fmt.Sprintf("Added %s relationship %s.%s -> %s", added.Type, args[0], added.Name, added.TargetCollection))
			if p := added.PivotTable(); p != "" {
				cc.Renderer.Muted("pivot table: " + p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", "", "Relationship type (has_one|has_many|belongs_to|belongs_to_many)")
	cmd.Flags().StringVar(&target, "target", "", "Target collection")
	cmd.Flags().StringVar(&foreignKey, "foreign-key", "", "Foreign key column (default by convention)")
	cmd.Flags().StringVar(&localKey, "local-key", "", "Local key column (default by convention)")
	cmd.Flags().StringVar(&pivot, "pivot-table", "", "Pivot table for belongs_to_many (default by convention)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"has_one", "has_many", "belongs_to", "belongs_to_many"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newRelationsRemoveCommand() *cobra.Command {
	var keepPivot bool

	cmd := &cobra.Command{
		Use:     "remove <collection> <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a relationship",
		Long: `Remove a relationship. The pivot table of a belongs_to_many
relationship is dropped unless --keep-pivot is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cc.Engine.Relationships.Remove(cmd.Context(), args[0], cc.Cfg.Tenant, args[1], !keepPivot); err != nil {
				return err
			}
			if cc.Renderer.EffectiveMode() == output.ModeJSON {
				return cc.Renderer.JSON(map[string]string{"collection": args[0], "removed": args[1]})
			}
			cc.Renderer.Success(fmt.Sprintf("Removed relationship %s.%s", args[0], args[1]))
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepPivot, "keep-pivot", false, "Keep the pivot table of a belongs_to_many relationship")
	return cmd
}

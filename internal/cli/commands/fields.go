package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapcollect/internal/cli/output"
	"github.com/leapstack-labs/leapcollect/internal/engine"
	"github.com/leapstack-labs/leapcollect/pkg/field"
	"github.com/spf13/cobra"
)

// NewFieldsCommand creates the fields command group.
func NewFieldsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fields",
		Aliases: []string{"field"},
		Short:   "Add, update and remove collection fields",
	}

	cmd.AddCommand(newFieldsAddCommand())
	cmd.AddCommand(newFieldsUpdateCommand())
	cmd.AddCommand(newFieldsRemoveCommand())
	return cmd
}

func newFieldsAddCommand() *cobra.Command {
	var (
		typ      string
		title    string
		nullable bool
		def      string
		options  string
	)

	cmd := &cobra.Command{
		Use:   "add <collection> <field>",
		Short: "Add a field and its column",
		Example: `  leapcollect fields add posts title --type string --options '{"max_length": 120}'
  leapcollect fields add posts status --type select --options '{"enum": ["draft", "published"]}' --default draft`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := parseOptions(options)
			if err != nil {
				return err
			}
			if opts == nil {
				opts = make(map[string]any)
			}
			if title != "" {
				opts[field.KeyTitle] = title
			}
			if nullable {
				opts[field.KeyNullable] = true
			}
			if cmd.Flags().Changed("default") {
				opts[field.KeyDefault] = parseValue(def)
			}

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := cc.Engine.Registry().Create(field.Type(typ), args[1], opts)
			if err != nil {
				return err
			}
			if err := cc.Engine.Fields.Add(cmd.Context(), args[0], cc.Cfg.Tenant, f); err != nil {
				return err
			}

			if cc.Renderer.EffectiveMode() == output.ModeJSON {
				return cc.Renderer.JSON(f.Definition())
			}
			cc.Renderer.Success(fmt.Sprintf("Added field %s.%s (%s)", args[0], f.Name(), f.DBType()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", "", "Field type")
	cmd.Flags().StringVar(&title, "title", "", "Display title (default derived from the name)")
	cmd.Flags().BoolVar(&nullable, "nullable", false, "Allow NULL values")
	cmd.Flags().StringVar(&def, "default", "", "Default value (JSON or plain text)")
	cmd.Flags().StringVar(&options, "options", "", "Type options as a JSON object")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return field.NewRegistry().Types(), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newFieldsUpdateCommand() *cobra.Command {
	var (
		typ          string
		title        string
		nullable     bool
		def          string
		clearDefault bool
		options      string
	)

	cmd := &cobra.Command{
		Use:   "update <collection> <field>",
		Short: "Update a field's metadata",
		Long: `Update a field's type, title, nullability, default or options.

Only the metadata changes; the column in the target database is not
altered. Options are merged over the current ones and a null value
removes an option.`,
		Example: `  leapcollect fields update posts title --options '{"max_length": 200}'
  leapcollect fields update posts title --options '{"max_length": null}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := parseOptions(options)
			if err != nil {
				return err
			}

			changes := engine.FieldChanges{Options: opts, ClearDefault: clearDefault}
			flags := cmd.Flags()
			if flags.Changed("type") {
				t := field.Type(typ)
				changes.Type = &t
			}
			if flags.Changed("title") {
				changes.Title = &title
			}
			if flags.Changed("nullable") {
				changes.Nullable = &nullable
			}
			if flags.Changed("default") {
				changes.Default = parseValue(def)
			}

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := cc.Engine.Fields.Update(cmd.Context(), args[0], cc.Cfg.Tenant, args[1], changes)
			if err != nil {
				return err
			}

			if cc.Renderer.EffectiveMode() == output.ModeJSON {
				return cc.Renderer.JSON(f.Definition())
			}
			cc.Renderer.Success(fmt.Sprintf("Updated field %s.%s (%s)", args[0], f.Name(), f.DBType()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", "", "New field type")
	cmd.Flags().StringVar(&title, "title", "", "New display title")
	cmd.Flags().BoolVar(&nullable, "nullable", false, "Allow NULL values")
	cmd.Flags().StringVar(&def, "default", "", "New default value (JSON or plain text)")
	cmd.Flags().BoolVar(&clearDefault, "clear-default", false, "Remove the default value")
	cmd.Flags().StringVar(&options, "options", "", "Options to merge, as a JSON object")
	cmd.MarkFlagsMutuallyExclusive("default", "clear-default")
	return cmd
}

func newFieldsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <collection> <field>",
		Aliases: []string{"rm"},
		Short:   "Remove a field and drop its column",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cc.Engine.Fields.Remove(cmd.Context(), args[0], cc.Cfg.Tenant, args[1]); err != nil {
				return err
			}
			if cc.Renderer.EffectiveMode() == output.ModeJSON {
				return cc.Renderer.JSON(map[string]string{"collection": args[0], "removed": args[1]})
			}
			cc.Renderer.Success(fmt.Sprintf("Removed field %s.%s", args[0], args[1]))
			return nil
		},
	}
}

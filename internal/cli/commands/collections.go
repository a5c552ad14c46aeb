package commands

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapcollect/internal/cli/output"
	"github.com/leapstack-labs/leapcollect/internal/engine"
	"github.com/leapstack-labs/leapcollect/internal/loader"
	"github.com/leapstack-labs/leapcollect/pkg/collection"
	"github.com/spf13/cobra"
)

// NewCollectionsCommand creates the collections command group.
func NewCollectionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"collection", "col"},
		Short:   "Manage collections",
		Long: `Create, inspect and delete collections.

A collection is a tenant-scoped data model backed by one physical table.
Its definition lives in the metadata store; its table lives in the target
database.`,
	}

	cmd.AddCommand(newCollectionsListCommand())
	cmd.AddCommand(newCollectionsShowCommand())
	cmd.AddCommand(newCollectionsCreateCommand())
	cmd.AddCommand(newCollectionsDeleteCommand())
	return cmd
}

func newCollectionsListCommand() *cobra.Command {
	var search string
	var page, pageSize int
	var allSites bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the collections of the tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			filter := engine.ListFilter{Search: search}
			if !allSites && cc.Cfg.Site != 0 {
				site := cc.Cfg.Site
				filter.SiteID = &site
			}

			res, err := cc.Engine.Collections.List(cmd.Context(), cc.Cfg.Tenant, filter, page, pageSize)
			if err != nil {
				return err
			}
			return renderCollectionList(cc.Renderer, res)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Only list collections whose name contains this text")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "Collections per page (max 200)")
	cmd.Flags().BoolVar(&allSites, "all-sites", false, "Ignore the configured site")
	return cmd
}

func newCollectionsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a collection with its fields and relationships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := cc.Engine.Collections.Require(cmd.Context(), args[0], cc.Cfg.Tenant)
			if err != nil {
				return err
			}
			return renderCollection(cc.Renderer, c)
		},
	}
}

func newCollectionsCreateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create -f <definition.yaml>",
		Short: "Create a collection from a definition file",
		Example: `  leapcollect collections create -f collections/posts.yaml
  leapcollect collections create -f posts.yaml --tenant 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			df, err := loader.LoadFile(file)
			if err != nil {
				return err
			}
			d := df.Definition
			if d.TenantID == 0 {
				d.TenantID = cc.Cfg.Tenant
			}
			if d.SiteID == 0 {
				d.SiteID = cc.Cfg.Site
			}

			// Relationships go through the relationship manager so that
			// many-to-many pivots are created.
			rels := d.Relationships
			d.Relationships = nil

			c, err := collection.FromDefinition(cc.Engine.Registry(), d, cc.Engine.Naming())
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			ctx := cmd.Context()
			if err := cc.Engine.Collections.Create(ctx, c); err != nil {
				return err
			}
			cc.Logger.Debug("collection created", slog.String("collection", c.Name), slog.Int64("id", c.ID))

			for _, r := range rels {
				if _, err := cc.Engine.Relationships.Add(ctx, c.Name, c.TenantID, r); err != nil {
					return fmt.Errorf("collection %s was created but relationship %s failed: %w", c.Name, r.Name, err)
				}
			}

			created, err := cc.Engine.Collections.Require(ctx, c.Name, c.TenantID)
			if err != nil {
				return err
			}
			if cc.Renderer.EffectiveMode() != output.ModeJSON {
				cc.Renderer.Success(fmt.Sprintf("Created collection %s (table %s)", created.Name, created.TableName))
				cc.Renderer.Println()
			}
			return renderCollection(cc.Renderer, created)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Collection definition file (YAML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newCollectionsDeleteCommand() *cobra.Command {
	var dropTable bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a collection",
		Long: `Delete a collection's metadata. The physical table is kept unless
--drop-table is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := cc.Engine.Collections.Require(cmd.Context(), args[0], cc.Cfg.Tenant)
			if err != nil {
				return err
			}
			if err := cc.Engine.Collections.Delete(cmd.Context(), c.Name, dropTable, cc.Cfg.Tenant); err != nil {
				return err
			}

			if cc.Renderer.EffectiveMode() == output.ModeJSON {
				return cc.Renderer.JSON(map[string]any{"deleted": c.Name, "table": c.TableName, "table_dropped": dropTable})
			}
			if dropTable {
				cc.Renderer.Success(fmt.Sprintf("Deleted collection %s and dropped table %s", c.Name, c.TableName))
			} else {
				cc.Renderer.Success(fmt.Sprintf("Deleted collection %s", c.Name))
				cc.Renderer.Muted(fmt.Sprintf("Table %s was kept; use --drop-table to remove it.", c.TableName))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dropTable, "drop-table", false, "Also drop the physical table")
	return cmd
}

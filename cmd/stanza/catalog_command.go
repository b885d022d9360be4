package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stanza/internal/config"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage configured catalogs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var versionFlag string
	add := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Add a catalog to the configuration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()

			name, url := args[0], args[1]
			if _, exists := ctx.cfg.Catalog(name); exists {
				return fmt.Errorf("catalog %q already exists", name)
			}
			ctx.cfg.Catalogs = append(ctx.cfg.Catalogs, config.CatalogConfig{
				Name:    name,
				URL:     url,
				Version: versionFlag,
			})
			if err := config.Save(ctx.cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added catalog %q\n", name)
			return nil
		},
	}
	add.Flags().StringVar(&versionFlag, "version", "auto", "OPDS version: auto, 1 or 2")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <name>",
		Short: "Remove a catalog from the configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()

			name := args[0]
			kept := ctx.cfg.Catalogs[:0]
			found := false
			for _, cat := range ctx.cfg.Catalogs {
				if cat.Name == name {
					found = true
					continue
				}
				kept = append(kept, cat)
			}
			if !found {
				return fmt.Errorf("no catalog named %q", name)
			}
			ctx.cfg.Catalogs = kept
			if err := config.Save(ctx.cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed catalog %q\n", name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured catalogs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()

			if len(ctx.cfg.Catalogs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no catalogs configured")
				return nil
			}
			rows := make([][]string, 0, len(ctx.cfg.Catalogs))
			for _, cat := range ctx.cfg.Catalogs {
				rows = append(rows, []string{cat.Name, cat.URL, string(cat.FeedVersion())})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "URL", "Version"}, rows))
			return nil
		},
	})

	return cmd
}

package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"stanza/internal/config"
	"stanza/internal/lanes"
	"stanza/internal/tui"
)

func newBrowseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "browse [catalog|url]",
		Short: "Browse a catalog interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()

			var cat config.CatalogConfig
			switch {
			case len(args) == 1:
				var err error
				cat, err = ctx.resolveCatalog(args[0])
				if err != nil {
					return err
				}
			case len(ctx.cfg.Catalogs) > 0:
				cat = ctx.cfg.Catalogs[0]
			default:
				return fmt.Errorf("no catalogs configured; run \"stanza catalog add\" or pass a URL")
			}

			model := tui.New(ctx.catalog, ctx.resolver, ctx.store, cat, ctx.logger)
			if ctx.cfg.UI.Mode == "flat" {
				model = model.WithMode(lanes.ModeFlat)
			}

			program := tea.NewProgram(model, tea.WithAltScreen())
			_, err := program.Run()
			return err
		},
	}
}

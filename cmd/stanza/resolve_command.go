package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stanza/internal/search"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <catalog|url> <title>",
		Short: "Resolve a book's acquisition chain to its download URL",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()

			cat, err := ctx.resolveCatalog(args[0])
			if err != nil {
				return err
			}
			query := strings.Join(args[1:], " ")

			snap, err := ctx.catalog.Load(cmd.Context(), cat.URL, cat.FeedVersion())
			if err != nil {
				return err
			}

			matches := search.Titles(query, snap.Books)
			if len(matches) == 0 {
				return fmt.Errorf("no book matching %q on this page", query)
			}
			book := snap.Books[matches[0].Index]

			if book.DownloadURL != "" {
				fmt.Fprintln(cmd.OutOrStdout(), book.DownloadURL)
				return nil
			}
			if !book.Borrowable() {
				return fmt.Errorf("%q has no acquisition link", book.Title)
			}

			url, err := ctx.resolver.Resolve(cmd.Context(), book.BorrowURL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stanza/internal/catalog"
	"stanza/internal/lanes"
	"stanza/internal/search"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var filterFlag string
	var audienceFlag string
	var fictionFlag string
	var navFlag bool

	cmd := &cobra.Command{
		Use:   "list <catalog|url>",
		Short: "List the books on a catalog page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()

			cat, err := ctx.resolveCatalog(args[0])
			if err != nil {
				return err
			}

			snap, err := ctx.catalog.Load(cmd.Context(), cat.URL, cat.FeedVersion())
			if err != nil {
				return err
			}

			if navFlag {
				rows := make([][]string, 0, len(snap.NavLinks))
				for _, link := range snap.NavLinks {
					rows = append(rows, []string{link.Title, link.Rel.String(), link.Href})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Section", "Rel", "URL"}, rows))
				return nil
			}

			books := search.Filter(filterFlag, snap.Books)
			opts := lanes.Options{Mode: lanes.ModeFlat, Audience: audienceFlag, Depth: 1}
			switch fictionFlag {
			case "fiction":
				opts.Fiction = lanes.FictionOnly
			case "nonfiction":
				opts.Fiction = lanes.NonfictionOnly
			}
			res := lanes.Categorize(books, snap.NavLinks, opts)

			var all []catalog.Book
			for _, lane := range res.Lanes {
				all = append(all, lane.Books...)
			}
			all = append(all, res.Uncategorized...)

			rows := make([][]string, 0, len(all))
			for _, b := range all {
				access := "download"
				if b.DownloadURL == "" && b.Borrowable() {
					access = "borrow"
				}
				rows = append(rows, []string{
					b.Title, b.Author, b.Format.String(),
					strings.Join(b.Subjects, ", "), access,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Title", "Author", "Format", "Subjects", "Access"}, rows))

			if snap.Pagination.Next != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "next page: %s\n", snap.Pagination.Next)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filterFlag, "filter", "", "Fuzzy-filter titles and authors")
	cmd.Flags().StringVar(&audienceFlag, "audience", "", "Only books for this audience")
	cmd.Flags().StringVar(&fictionFlag, "fiction", "", "Restrict to \"fiction\" or \"nonfiction\"")
	cmd.Flags().BoolVar(&navFlag, "nav", false, "List navigation sections instead of books")

	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the medicine reference catalog",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "lookup <name>",
			Short: "Show the catalog row a medicine name resolves to",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rec, ok := a.loadCatalog().Lookup(args[0])
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "no match for %q\n", args[0])
					return nil
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			},
		},
		newCatalogListCmd(a),
		&cobra.Command{
			Use:   "info",
			Short: "Print catalog source and row count",
			RunE: func(cmd *cobra.Command, _ []string) error {
				c := a.loadCatalog()
				fmt.Fprintf(cmd.OutOrStdout(), "source: %s\nrows: %d\n", a.cfg.Catalog.Path, c.Len())
				return nil
			},
		},
	)
	return cmd
}

func newCatalogListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print catalog rows in lookup order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			recs := a.loadCatalog().Records()
			if limit > 0 && len(recs) > limit {
				recs = recs[:limit]
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"#", "Name", "Composition", "Manufacturer"})
			table.SetAutoWrapText(false)
			for i, r := range recs {
				table.Append([]string{strconv.Itoa(i + 1), r.Name, r.Composition, r.Manufacturer})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "rows to print (0 = all)")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) authorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "author",
		Short: "Inspect authors (use the API to change them)",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List authors by last name, then first name",
		Args:  cobra.NoArgs,
	}
	filters := pageFlags(list, "last_name", "first_name", "born", "died", "-last_name", "-first_name", "-born", "-died")
	list.RunE = func(cmd *cobra.Command, args []string) error {
		if err := checkFilters(filters); err != nil {
			return err
		}

		authors, metadata, err := c.models.Authors.GetAll(cmd.Context(), *filters)
		if err != nil {
			return err
		}

		w := newTable(cmd.OutOrStdout())
		fmt.Fprintln(w, "ID\tNAME\tBORN\tDIED")
		for _, a := range authors {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", a.ID, a, formatDate(a.Born), formatDate(a.Died))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		printPage(cmd.OutOrStdout(), metadata)
		return nil
	}

	cmd.AddCommand(list)
	return cmd
}

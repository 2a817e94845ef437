package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aoideee/locallibrary/internal/data"
	"github.com/aoideee/locallibrary/internal/validator"
)

func (c *cli) genreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genre",
		Short: "Manage genres",
	}

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := &data.Genre{Name: args[0]}

			v := validator.New()
			if v.Struct(g); !v.Valid() {
				return validationError(v)
			}

			if err := c.models.Genres.Insert(cmd.Context(), g); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added genre %d: %s\n", g.ID, g)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List genres by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			genres, err := c.models.Genres.GetAll(cmd.Context())
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME")
			for _, g := range genres {
				fmt.Fprintf(w, "%d\t%s\n", g.ID, g.Name)
			}
			return w.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a genre; books filed under it keep their other genres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			err = c.models.Genres.Delete(cmd.Context(), id)
			if errors.Is(err, data.ErrRecordNotFound) {
				return fmt.Errorf("genre %d not found", id)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted genre %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(add, list, del)
	return cmd
}

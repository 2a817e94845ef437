package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aoideee/locallibrary/internal/data"
	"github.com/aoideee/locallibrary/internal/validator"
)

func (c *cli) bookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Manage books",
	}

	cmd.AddCommand(c.bookAddCmd(), c.bookListCmd(), c.bookDeleteCmd())
	return cmd
}

func (c *cli) bookAddCmd() *cobra.Command {
	var (
		book     data.Book
		authorID int64
		genreIDs []int64
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Long: `Add a book to the catalog.

Examples:
  catalog book add --title "Kindred" --isbn 9780807083697 --summary "..." --author 3 --genre 1 --genre 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if authorID != 0 {
				book.AuthorID = &authorID
			}
			for _, id := range genreIDs {
				book.Genres = append(book.Genres, &data.Genre{ID: id})
			}

			v := validator.New()
			if data.ValidateBook(v, &book); !v.Valid() {
				return validationError(v)
			}

			err := c.models.Books.Insert(cmd.Context(), &book)
			switch {
			case errors.Is(err, data.ErrDuplicateISBN):
				return fmt.Errorf("isbn %s is already in the catalog", book.ISBN)
			case errors.Is(err, data.ErrRecordNotFound):
				return errors.New("the author or one of the genres does not exist")
			case err != nil:
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added book %d: %s\n", book.ID, book)
			return nil
		},
	}

	cmd.Flags().StringVar(&book.Title, "title", "", "Title")
	cmd.Flags().StringVar(&book.Summary, "summary", "", "Brief description of the book")
	cmd.Flags().StringVar(&book.ISBN, "isbn", "", "13 digit ISBN")
	cmd.Flags().StringVar(&book.Language, "language", data.DefaultLanguage, "Language the book is written in")
	cmd.Flags().IntVar(&book.Published, "published", 0, "Year of publication")
	cmd.Flags().Int64Var(&authorID, "author", 0, "Author id")
	cmd.Flags().Int64SliceVar(&genreIDs, "genre", nil, "Genre id (repeatable)")
	return cmd
}

func (c *cli) bookListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books",
		Args:  cobra.NoArgs,
	}
	filters := pageFlags(cmd, "title", "published", "isbn", "-title", "-published", "-isbn")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := checkFilters(filters); err != nil {
			return err
		}

		books, metadata, err := c.models.Books.GetAll(cmd.Context(), *filters)
		if err != nil {
			return err
		}

		w := newTable(cmd.OutOrStdout())
		fmt.Fprintln(w, "ID\tTITLE\tISBN\tLANGUAGE\tGENRES")
		for _, b := range books {
			names := make([]string, 0, len(b.Genres))
			for _, g := range b.Genres {
				names = append(names, g.Name)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", b.ID, b.Title, b.ISBN, b.Language, strings.Join(names, ", "))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		printPage(cmd.OutOrStdout(), metadata)
		return nil
	}
	return cmd
}

func (c *cli) bookDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a book that has no copies left",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			err = c.models.Books.Delete(cmd.Context(), id)
			switch {
			case errors.Is(err, data.ErrRecordNotFound):
				return fmt.Errorf("book %d not found", id)
			case errors.Is(err, data.ErrConstraintViolation):
				return fmt.Errorf("book %d still has copies; delete them first", id)
			case err != nil:
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted book %d\n", id)
			return nil
		},
	}
}

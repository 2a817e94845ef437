package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aoideee/locallibrary/internal/data"
)

// loanFlags holds the availability fields shared by "instance add" and
// "instance set". An empty --due-back or --borrower clears the field.
type loanFlags struct {
	status   string
	dueBack  string
	borrower string
}

func (f *loanFlags) register(cmd *cobra.Command, defaultStatus string) {
	cmd.Flags().StringVar(&f.status, "status", defaultStatus, "Loan status: m(aintenance), c(hecked out), a(vailable) or h (on hold)")
	cmd.Flags().StringVar(&f.dueBack, "due-back", "", "Due date (YYYY-MM-DD); empty clears it")
	cmd.Flags().StringVar(&f.borrower, "borrower", "", "Username of the borrower; empty clears it")
}

// apply copies every flag the user set onto bi.
func (f *loanFlags) apply(ctx context.Context, cmd *cobra.Command, users data.UserModel, bi *data.BookInstance) error {
	flags := cmd.Flags()

	if flags.Changed("status") {
		status, err := data.ParseLoanStatus(f.status)
		if err != nil {
			return err
		}
		bi.Status = status
	}

	if flags.Changed("due-back") {
		bi.DueBack = nil
		if f.dueBack != "" {
			d, err := data.ParseDate(f.dueBack)
			if err != nil {
				return err
			}
			bi.DueBack = &d
		}
	}

	if flags.Changed("borrower") {
		bi.BorrowerID = nil
		if f.borrower != "" {
			u, err := users.GetByUsername(ctx, f.borrower)
			if errors.Is(err, data.ErrRecordNotFound) {
				return fmt.Errorf("user %q not found", f.borrower)
			}
			if err != nil {
				return err
			}
			bi.BorrowerID = &u.ID
		}
	}
	return nil
}

func (c *cli) instanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance",
		Short: "Manage book copies",
		Long: `Manage the physical copies of books.

Copies are identified by their UUID. Any unambiguous prefix of it, such as the
short id shown by "instance list", is accepted wherever an ID is expected.`,
	}

	cmd.AddCommand(c.instanceAddCmd(), c.instanceListCmd(), c.instanceSetCmd(), c.instanceDeleteCmd())
	return cmd
}

func (c *cli) instanceAddCmd() *cobra.Command {
	var flags loanFlags

	cmd := &cobra.Command{
		Use:   "add BOOK_ID",
		Short: "Add a copy of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID(args[0])
			if err != nil {
				return err
			}

			bi := data.NewBookInstance(bookID)
			if err := flags.apply(cmd.Context(), cmd, c.models.Users, bi); err != nil {
				return err
			}

			err = c.models.Instances.Insert(cmd.Context(), bi)
			if errors.Is(err, data.ErrRecordNotFound) {
				return fmt.Errorf("book %d not found", bookID)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added copy %s of book %d\n", bi.ID, bookID)
			return nil
		},
	}

	flags.register(cmd, string(data.StatusMaintenance))
	return cmd
}

func (c *cli) instanceListCmd() *cobra.Command {
	var bookID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List copies, soonest due first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				instances []*data.BookInstance
				err       error
			)
			if bookID != 0 {
				instances, err = c.models.Instances.GetForBook(cmd.Context(), bookID)
			} else {
				instances, err = c.models.Instances.GetAll(cmd.Context())
			}
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tBOOK\tSTATUS\tDUE BACK")
			for _, bi := range instances {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", bi.ShortID(), bi.BookTitle, bi.Status.Label(), formatDate(bi.DueBack))
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int64Var(&bookID, "book", 0, "Only list copies of this book")
	return cmd
}

func (c *cli) instanceSetCmd() *cobra.Command {
	var flags loanFlags

	cmd := &cobra.Command{
		Use:   "set ID",
		Short: "Change the status, due date or borrower of a copy",
		Long: `Change the availability of a copy. Only the flags given are changed.

Examples:
  catalog instance set 3f2a1b --status c --due-back 2026-11-05 --borrower alice
  catalog instance set 3f2a1b --status a --due-back "" --borrower ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bi, err := c.findInstance(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if err := flags.apply(cmd.Context(), cmd, c.models.Users, bi); err != nil {
				return err
			}

			if err := c.models.Instances.Update(cmd.Context(), bi); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, due %s\n", bi, bi.Status.Label(), formatDate(bi.DueBack))
			return nil
		},
	}

	flags.register(cmd, "")
	return cmd
}

func (c *cli) instanceDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bi, err := c.findInstance(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if err := c.models.Instances.Delete(cmd.Context(), bi.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted copy %s\n", bi.ID)
			return nil
		},
	}
}

// findInstance resolves a full UUID or a unique prefix of one.
func (c *cli) findInstance(ctx context.Context, ref string) (*data.BookInstance, error) {
	if id, err := uuid.Parse(ref); err == nil {
		bi, err := c.models.Instances.Get(ctx, id)
		if errors.Is(err, data.ErrRecordNotFound) {
			return nil, fmt.Errorf("copy %s not found", ref)
		}
		return bi, err
	}

	c.logger.Debug("resolving copy id prefix", "prefix", ref)
	all, err := c.models.Instances.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*data.BookInstance
	for _, bi := range all {
		if strings.HasPrefix(bi.ID.String(), strings.ToLower(ref)) {
			matches = append(matches, bi)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("copy %s not found", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("copy id %s is ambiguous (%d matches)", ref, len(matches))
	}
}

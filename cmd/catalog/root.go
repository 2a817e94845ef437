package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aoideee/locallibrary/internal/config"
	"github.com/aoideee/locallibrary/internal/data"
	"github.com/aoideee/locallibrary/internal/validator"
)

// cli carries the global flags and the database handle shared by every command.
type cli struct {
	driver  string
	dsn     string
	verbose bool

	logger *slog.Logger

	db     *data.DB
	models data.Models

	// readPassword prompts for a secret without echoing it.
	readPassword func(prompt string) (string, error)
}

// newRootCmd builds a fresh command tree. Global flags default from the
// environment (DB_DRIVER, DB_DSN), which may be seeded from .env.
func newRootCmd() *cobra.Command {
	c := &cli{readPassword: terminalPassword}
	return c.rootCmd()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "catalog",
		Short: "Administer the library catalog",
		Long: `catalog manages the records behind the library API.

Commands:
  migrate   - Create any missing tables
  genre     - Add, list and delete genres
  author    - List authors
  book      - Add, list and delete books
  instance  - Add, list, edit and delete book copies
  user      - Add staff accounts and manage their permissions`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if c.verbose {
				level = slog.LevelDebug
			}
			c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return c.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}

	root.PersistentFlags().StringVar(&c.driver, "db-driver", config.String("DB_DRIVER", data.DriverPostgres), "Database driver (postgres|sqlite3)")
	root.PersistentFlags().StringVar(&c.dsn, "db-dsn", config.String("DB_DSN", ""), "Database DSN")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		c.migrateCmd(),
		c.genreCmd(),
		c.authorCmd(),
		c.bookCmd(),
		c.instanceCmd(),
		c.userCmd(),
	)
	return root
}

func (c *cli) open(ctx context.Context) error {
	if c.dsn == "" {
		return errors.New("--db-dsn flag or DB_DSN is required")
	}

	db, err := data.Open(ctx, c.driver, c.dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.db = db
	c.models = data.NewModels(db)
	c.logger.Debug("database connection pool established", "driver", c.driver)
	return nil
}

func (c *cli) close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func terminalPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

// validationError turns the field errors collected in v into a single error,
// one "field: message" line per field.
func validationError(v *validator.Validator) error {
	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		lines = append(lines, field+": "+v.Errors[field])
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(lines, "\n  "))
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func formatDate(d *data.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

// pageFlags registers --page and --page-size on cmd and returns the filters
// they fill in.
func pageFlags(cmd *cobra.Command, sortSafeList ...string) *data.Filters {
	f := &data.Filters{SortSafeList: sortSafeList}
	cmd.Flags().IntVar(&f.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&f.PageSize, "page-size", 20, "Rows per page")
	if len(sortSafeList) > 0 {
		cmd.Flags().StringVar(&f.Sort, "sort", "", "Sort column, prefix with - for descending ("+strings.Join(sortSafeList, "|")+")")
	}
	return f
}

func checkFilters(f *data.Filters) error {
	v := validator.New()
	if data.ValidateFilters(v, *f); !v.Valid() {
		return validationError(v)
	}
	return nil
}

func printPage(out io.Writer, m data.Metadata) {
	if m.TotalRecords == 0 {
		fmt.Fprintln(out, "no records")
		return
	}
	fmt.Fprintf(out, "page %d of %d (%d records)\n", m.CurrentPage, m.LastPage, m.TotalRecords)
}

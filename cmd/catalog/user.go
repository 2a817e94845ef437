package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aoideee/locallibrary/internal/auth"
	"github.com/aoideee/locallibrary/internal/data"
	"github.com/aoideee/locallibrary/internal/validator"
)

func (c *cli) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts and permissions",
		Long: `Manage accounts that can sign in to the API and the permissions they hold.

Permissions: ` + permissionNames(),
	}

	cmd.AddCommand(c.userAddCmd(), c.userShowCmd(), c.userPermissionCmd("grant"), c.userPermissionCmd("revoke"))
	return cmd
}

func (c *cli) userAddCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "add USERNAME",
		Short: "Add an account; prompts for the password unless --password is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("password") {
				var err error
				password, err = c.readPassword(fmt.Sprintf("Password for %s: ", args[0]))
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
			}

			u := &data.User{Username: args[0]}

			v := validator.New()
			v.Struct(u)
			data.ValidatePasswordPlaintext(v, password)
			if !v.Valid() {
				return validationError(v)
			}

			if err := u.SetPassword(password); err != nil {
				return err
			}

			err := c.models.Users.Insert(cmd.Context(), u)
			if errors.Is(err, data.ErrDuplicateUsername) {
				return fmt.Errorf("username %q is taken", u.Username)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added user %d: %s\n", u.ID, u.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (avoid on shared machines; omit to be prompted)")
	return cmd
}

func (c *cli) userShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show USERNAME",
		Short: "Show an account and the permissions it holds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.findUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			perms, err := c.models.Users.Permissions(cmd.Context(), u.ID)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(perms))
			for _, p := range perms {
				names = append(names, string(p))
			}
			if len(names) == 0 {
				names = append(names, "none")
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, "ID\t%d\n", u.ID)
			fmt.Fprintf(w, "USERNAME\t%s\n", u.Username)
			fmt.Fprintf(w, "CREATED\t%s\n", u.CreatedAt.Format("2006-01-02 15:04"))
			fmt.Fprintf(w, "PERMISSIONS\t%s\n", strings.Join(names, ", "))
			return w.Flush()
		},
	}
}

// userPermissionCmd builds "grant" or "revoke"; they differ only in the model
// call made for each permission.
func (c *cli) userPermissionCmd(action string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " USERNAME PERMISSION...",
		Short: strings.ToUpper(action[:1]) + action[1:] + " permissions",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args[1:]

			v := validator.New()
			v.Check(validator.Unique(names), "permissions", "must not contain duplicate values")
			if !v.Valid() {
				return validationError(v)
			}

			perms := make([]auth.Permission, 0, len(names))
			for _, name := range names {
				p, err := auth.ParsePermission(name)
				if err != nil {
					return fmt.Errorf("%w (known: %s)", err, permissionNames())
				}
				perms = append(perms, p)
			}

			u, err := c.findUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			for _, p := range perms {
				if action == "grant" {
					err = c.models.Users.Grant(cmd.Context(), u.ID, p)
				} else {
					err = c.models.Users.Revoke(cmd.Context(), u.ID, p)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%sed %s: %s\n", strings.TrimSuffix(action, "e"), u.Username, p)
			}
			return nil
		},
	}
}

func (c *cli) findUser(ctx context.Context, username string) (*data.User, error) {
	u, err := c.models.Users.GetByUsername(ctx, username)
	if errors.Is(err, data.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %q not found", username)
	}
	return u, err
}

func permissionNames() string {
	names := make([]string, 0, len(auth.Permissions))
	for _, p := range auth.Permissions {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

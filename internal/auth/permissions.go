// Package auth defines the permissions that gate catalog operations, the
// identity a request runs as, and the signed bearer tokens that carry it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Permission is a named capability a user may or may not hold.
type Permission string

const (
	PermViewAll      Permission = "view_all"      // list every checked-out instance
	PermManageStatus Permission = "manage_status" // renew loans
	PermAddAuthor    Permission = "add_author"
	PermChangeAuthor Permission = "change_author"
	PermDeleteAuthor Permission = "delete_author"
)

// Permissions lists every permission known to the catalog.
var Permissions = []Permission{
	PermViewAll,
	PermManageStatus,
	PermAddAuthor,
	PermChangeAuthor,
	PermDeleteAuthor,
}

// ParsePermission accepts a bare name ("view_all") or one qualified with the
// app label ("catalog.view_all").
func ParsePermission(s string) (Permission, error) {
	name := strings.TrimPrefix(s, "catalog.")
	for _, p := range Permissions {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown permission %q", s)
}

var (
	// ErrUnauthenticated means the operation needs a signed-in user and there is none.
	ErrUnauthenticated = errors.New("you must be authenticated to access this resource")

	// ErrForbidden means the signed-in user lacks the permission the operation needs.
	ErrForbidden = errors.New("your user account doesn't have the necessary permissions to access this resource")
)

// Identity is the user a request runs as. The zero value is the anonymous identity.
type Identity struct {
	UserID   int64
	Username string
}

// Anonymous is the identity of a request that carries no credentials.
var Anonymous = Identity{}

func (i Identity) IsAnonymous() bool {
	return i.UserID == 0
}

// Checker answers whether a user holds a permission.
type Checker interface {
	HasPermission(ctx context.Context, userID int64, perm Permission) (bool, error)
}

// RequireAuthenticated returns ErrUnauthenticated for the anonymous identity.
func RequireAuthenticated(id Identity) error {
	if id.IsAnonymous() {
		return ErrUnauthenticated
	}
	return nil
}

// Require checks that id is signed in and holds perm according to c.
// Errors from c are returned as they are.
func Require(ctx context.Context, c Checker, id Identity, perm Permission) error {
	if err := RequireAuthenticated(id); err != nil {
		return err
	}

	ok, err := c.HasPermission(ctx, id.UserID, perm)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// StaticChecker is an in-memory Checker keyed by user id.
type StaticChecker map[int64][]Permission

func (s StaticChecker) HasPermission(_ context.Context, userID int64, perm Permission) (bool, error) {
	for _, p := range s[userID] {
		if p == perm {
			return true, nil
		}
	}
	return false, nil
}

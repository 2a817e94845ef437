// internal/data/user.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"golang.org/x/crypto/bcrypt"

	"github.com/aoideee/locallibrary/internal/auth"
	"github.com/aoideee/locallibrary/internal/validator"
)

// User is an account that can sign in, borrow book instances and hold permissions.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username" validate:"required,max=150"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// SetPassword stores a bcrypt hash of plaintext.
func (u *User) SetPassword(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// PasswordMatches reports whether plaintext is the user's password.
func (u *User) PasswordMatches(plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(plaintext))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}
	return true, nil
}

// ValidatePasswordPlaintext records an error in v when password is unusable.
func ValidatePasswordPlaintext(v *validator.Validator, password string) {
	v.Check(password != "", "password", "must be provided")
	v.Check(len(password) >= 8, "password", "must be at least 8 bytes long")
	v.Check(len(password) <= 72, "password", "must not be more than 72 bytes long")
}

// UserModel provides database operations for users and their permissions.
// It also serves as the auth.Checker the HTTP layer consults.
type UserModel struct {
	DB *DB
}

var _ auth.Checker = UserModel{}

var userColumns = []any{"id", "username", "password_hash", "created_at"}

// Insert adds u. A taken username yields ErrDuplicateUsername.
func (m UserModel) Insert(ctx context.Context, u *User) error {
	id, err := m.DB.insertID(ctx, m.DB, m.DB.insert("users").Rows(goqu.Record{
		"username":      u.Username,
		"password_hash": u.PasswordHash,
	}))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return err
	}
	u.ID = id
	return nil
}

// Get retrieves a user by id.
func (m UserModel) Get(ctx context.Context, id int64) (*User, error) {
	return m.getWhere(ctx, goqu.C("id").Eq(id))
}

// GetByUsername retrieves a user by username.
func (m UserModel) GetByUsername(ctx context.Context, username string) (*User, error) {
	return m.getWhere(ctx, goqu.C("username").Eq(username))
}

func (m UserModel) getWhere(ctx context.Context, where exp.Expression) (*User, error) {
	var u User
	err := get(ctx, m.DB, &u, m.DB.from("users").Select(userColumns...).Where(where))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Delete removes the user. Instances they borrowed keep existing without a borrower.
func (m UserModel) Delete(ctx context.Context, id int64) error {
	return execAffected(ctx, m.DB, m.DB.delete("users").Where(goqu.C("id").Eq(id)))
}

// Grant gives the user perm. Granting a permission the user already holds is a no-op.
func (m UserModel) Grant(ctx context.Context, userID int64, perm auth.Permission) error {
	held, err := m.HasPermission(ctx, userID, perm)
	if err != nil || held {
		return err
	}

	_, err = exec(ctx, m.DB, m.DB.insert("user_permissions").Rows(goqu.Record{
		"user_id":    userID,
		"permission": string(perm),
	}))
	if isForeignKeyViolation(err) {
		return ErrRecordNotFound
	}
	return err
}

// Revoke takes perm away from the user.
func (m UserModel) Revoke(ctx context.Context, userID int64, perm auth.Permission) error {
	_, err := exec(ctx, m.DB, m.DB.delete("user_permissions").Where(goqu.Ex{
		"user_id":    userID,
		"permission": string(perm),
	}))
	return err
}

// Permissions lists the permissions held by the user, sorted by name.
func (m UserModel) Permissions(ctx context.Context, userID int64) ([]auth.Permission, error) {
	perms := []auth.Permission{}
	ds := m.DB.from("user_permissions").
		Select("permission").
		Where(goqu.C("user_id").Eq(userID)).
		Order(goqu.C("permission").Asc())
	err := selectAll(ctx, m.DB, &perms, ds)
	return perms, err
}

// HasPermission implements auth.Checker.
func (m UserModel) HasPermission(ctx context.Context, userID int64, perm auth.Permission) (bool, error) {
	var n int
	ds := m.DB.from("user_permissions").
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"user_id": userID, "permission": string(perm)})
	if err := get(ctx, m.DB, &n, ds); err != nil {
		return false, err
	}
	return n > 0, nil
}

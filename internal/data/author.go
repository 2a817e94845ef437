// internal/data/author.go
package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/aoideee/locallibrary/internal/validator"
)

// Author is a person credited with writing one or more books.
type Author struct {
	ID        int64  `json:"id" db:"id"`
	FirstName string `json:"first_name" db:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" db:"last_name" validate:"required,max=100"`
	Born      *Date  `json:"born" db:"born"`
	Died      *Date  `json:"died" db:"died"`
}

// String renders the author the way catalog listings show them: "Last, First".
func (a Author) String() string {
	return a.LastName + ", " + a.FirstName
}

// ValidateAuthor records field errors for a in v.
func ValidateAuthor(v *validator.Validator, a *Author) {
	v.Struct(a)
	v.Check(a.Born == nil || a.Died == nil || !a.Died.Before(*a.Born), "died", "must not be before born")
}

// AuthorModel provides database operations for the authors table.
type AuthorModel struct {
	DB *DB
}

var authorColumns = []any{"id", "first_name", "last_name", "born", "died"}

func (a *Author) record() goqu.Record {
	return goqu.Record{
		"first_name": a.FirstName,
		"last_name":  a.LastName,
		"born":       dateArg(a.Born),
		"died":       dateArg(a.Died),
	}
}

// Insert adds a new author and writes the generated id back into a.
func (m AuthorModel) Insert(ctx context.Context, a *Author) error {
	id, err := m.DB.insertID(ctx, m.DB, m.DB.insert("authors").Rows(a.record()))
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// Get retrieves a single author by id.
// Returns ErrRecordNotFound if no author with the given id exists.
func (m AuthorModel) Get(ctx context.Context, id int64) (*Author, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	var a Author
	err := get(ctx, m.DB, &a, m.DB.from("authors").Select(authorColumns...).Where(goqu.C("id").Eq(id)))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &a, nil
}

// GetAll returns one page of authors, by default ordered by (last_name, first_name).
func (m AuthorModel) GetAll(ctx context.Context, filters Filters) ([]*Author, Metadata, error) {
	ds := m.DB.from("authors").
		Select(append([]any{totalRecordsColumn}, authorColumns...)...).
		Order(filters.orderBy("authors", "last_name", "first_name")...).
		Limit(filters.limit()).
		Offset(filters.offset())

	var rows []struct {
		TotalRecords int `db:"total_records"`
		Author
	}
	if err := selectAll(ctx, m.DB, &rows, ds); err != nil {
		return nil, Metadata{}, err
	}

	totalRecords := 0
	authors := make([]*Author, 0, len(rows))
	for i := range rows {
		totalRecords = rows[i].TotalRecords
		a := rows[i].Author
		authors = append(authors, &a)
	}

	return authors, calculateMetadata(totalRecords, filters.Page, filters.PageSize), nil
}

// Update saves every field of a back to the database.
func (m AuthorModel) Update(ctx context.Context, a *Author) error {
	return execAffected(ctx, m.DB, m.DB.update("authors").Set(a.record()).Where(goqu.C("id").Eq(a.ID)))
}

// Delete removes the author with the given id. Books written by the author are
// kept and lose their author reference. Any stricter reference added later
// surfaces as ErrConstraintViolation with nothing removed.
func (m AuthorModel) Delete(ctx context.Context, id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	err := execAffected(ctx, m.DB, m.DB.delete("authors").Where(goqu.C("id").Eq(id)))
	if isForeignKeyViolation(err) {
		return ErrConstraintViolation
	}
	return err
}

// internal/data/models.go
package data

import (
	"errors"
	"math"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/aoideee/locallibrary/internal/validator"
)

// Models is a top-level container that groups all database model types together.
// It is passed around the application via applicationDependencies so every handler
// has access to the database without touching SQL directly.
type Models struct {
	Genres    GenreModel
	Authors   AuthorModel
	Books     BookModel
	Instances BookInstanceModel
	Users     UserModel
	Summary   SummaryModel
}

// NewModels constructs a Models value wired up to the given connection pool.
func NewModels(db *DB) Models {
	return Models{
		Genres:    GenreModel{DB: db},
		Authors:   AuthorModel{DB: db},
		Books:     BookModel{DB: db},
		Instances: BookInstanceModel{DB: db},
		Users:     UserModel{DB: db},
		Summary:   SummaryModel{DB: db},
	}
}

var (
	// ErrRecordNotFound is returned when a query finds no matching row.
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateISBN is returned when a book is saved with an ISBN another book already has.
	ErrDuplicateISBN = errors.New("a book with this isbn already exists")

	// ErrDuplicateUsername is returned when a user is saved with a taken username.
	ErrDuplicateUsername = errors.New("a user with this username already exists")

	// ErrConstraintViolation is returned when a write would break a referential rule,
	// for example deleting a book that still has instances. Nothing is changed.
	ErrConstraintViolation = errors.New("operation would violate a referential constraint")
)

// Filters holds pagination and sorting parameters extracted from URL query strings.
type Filters struct {
	Page         int      // Current page number (1-indexed)
	PageSize     int      // Number of records per page
	Sort         string   // Column name to sort by (prefix with "-" for DESC)
	SortSafeList []string // Allowed sort columns to prevent SQL injection
}

// ValidateFilters records an error in v for every out-of-range filter value.
func ValidateFilters(v *validator.Validator, f Filters) {
	v.Check(f.Page > 0, "page", "must be greater than zero")
	v.Check(f.Page <= 10_000_000, "page", "must be a maximum of 10 million")
	v.Check(f.PageSize > 0, "page_size", "must be greater than zero")
	v.Check(f.PageSize <= 100, "page_size", "must be a maximum of 100")
	v.Check(f.Sort == "" || validator.In(f.Sort, f.SortSafeList...), "sort", "invalid sort value")
}

// sortColumn returns the validated column name for ORDER BY, or fallback when
// no (or an unknown) sort key was requested.
func (f Filters) sortColumn(fallback string) string {
	for _, safe := range f.SortSafeList {
		if f.Sort == safe {
			return strings.TrimPrefix(f.Sort, "-")
		}
	}
	return fallback
}

// orderBy returns the ORDER BY terms for f. The id column is always appended so
// that pages are stable when the sort column has duplicates.
func (f Filters) orderBy(table string, fallback ...string) []exp.OrderedExpression {
	var order []exp.OrderedExpression

	if col := f.sortColumn(""); col != "" {
		ident := goqu.T(table).Col(col)
		if strings.HasPrefix(f.Sort, "-") {
			order = append(order, ident.Desc())
		} else {
			order = append(order, ident.Asc())
		}
	} else {
		for _, col := range fallback {
			order = append(order, goqu.T(table).Col(col).Asc())
		}
	}

	return append(order, goqu.T(table).Col("id").Asc())
}

// limit returns the SQL LIMIT value derived from PageSize.
func (f Filters) limit() uint { return uint(f.PageSize) }

// offset returns the SQL OFFSET value derived from Page and PageSize.
func (f Filters) offset() uint { return uint((f.Page - 1) * f.PageSize) }

// Metadata contains pagination information returned alongside list responses.
type Metadata struct {
	CurrentPage  int `json:"current_page,omitempty"`
	PageSize     int `json:"page_size,omitempty"`
	FirstPage    int `json:"first_page,omitempty"`
	LastPage     int `json:"last_page,omitempty"`
	TotalRecords int `json:"total_records,omitempty"`
}

// calculateMetadata computes page metadata from total record count and filter values.
func calculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}
	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     int(math.Ceil(float64(totalRecords) / float64(pageSize))),
		TotalRecords: totalRecords,
	}
}

// totalRecordsColumn is selected alongside each row so a page and the overall
// count come back in a single round-trip.
var totalRecordsColumn = goqu.L("count(*) OVER()").As("total_records")

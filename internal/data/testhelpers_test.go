package data

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestModels(t *testing.T) Models {
	t.Helper()

	db, err := Open(context.Background(), DriverSQLite, SQLiteDSN(filepath.Join(t.TempDir(), "catalog.db")))
	require.NoError(t, err, "opening sqlite database")
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()), "migrating schema")
	// A second run must be harmless.
	require.NoError(t, db.Migrate(context.Background()), "re-running migrations")

	return NewModels(db)
}

var isbnSeq atomic.Int64

func nextISBN() string {
	return fmt.Sprintf("978%010d", isbnSeq.Add(1))
}

func givenGenre(t *testing.T, m Models, name string) *Genre {
	t.Helper()
	g := &Genre{Name: name}
	require.NoError(t, m.Genres.Insert(context.Background(), g))
	return g
}

func givenAuthor(t *testing.T, m Models, first, last string) *Author {
	t.Helper()
	a := &Author{FirstName: first, LastName: last}
	require.NoError(t, m.Authors.Insert(context.Background(), a))
	return a
}

func givenBook(t *testing.T, m Models, title string, author *Author, genres ...*Genre) *Book {
	t.Helper()
	b := &Book{
		Title:     title,
		Summary:   "A summary of " + title,
		ISBN:      nextISBN(),
		Published: 2001,
		Genres:    genres,
	}
	if author != nil {
		b.AuthorID = &author.ID
	}
	require.NoError(t, m.Books.Insert(context.Background(), b))
	return b
}

func givenInstance(t *testing.T, m Models, book *Book, status LoanStatus, dueBack *Date, borrower *User) *BookInstance {
	t.Helper()
	bi := NewBookInstance(book.ID)
	bi.Status = status
	bi.DueBack = dueBack
	if borrower != nil {
		bi.BorrowerID = &borrower.ID
	}
	require.NoError(t, m.Instances.Insert(context.Background(), bi))
	return bi
}

func givenUser(t *testing.T, m Models, username string) *User {
	t.Helper()
	u := &User{Username: username}
	require.NoError(t, u.SetPassword("correct horse battery"))
	require.NoError(t, m.Users.Insert(context.Background(), u))
	return u
}

func datePtr(d Date) *Date { return &d }

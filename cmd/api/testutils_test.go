package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aoideee/locallibrary/internal/auth"
	"github.com/aoideee/locallibrary/internal/data"
)

// testNow is the fixed clock every handler test runs against.
var testNow = time.Date(2026, time.October, 15, 10, 30, 0, 0, time.UTC)

func newTestApplication(t *testing.T) *applicationDependencies {
	t.Helper()

	db, err := data.Open(context.Background(), data.DriverSQLite, data.SQLiteDSN(filepath.Join(t.TempDir(), "api.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	models := data.NewModels(db)

	var cfg serverConfig
	cfg.environment = "testing"

	return &applicationDependencies{
		config:      cfg,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		models:      models,
		permissions: models.Users,
		tokens:      auth.NewTokens("test-secret", time.Hour),
		clock:       func() time.Time { return testNow },
	}
}

type testResponse struct {
	*httptest.ResponseRecorder
	body map[string]any
}

// do sends a request through the full middleware chain. token may be empty;
// body, when not nil, is encoded as JSON.
func do(t *testing.T, app *applicationDependencies, method, path, token string, body any) testResponse {
	t.Helper()

	var reader io.Reader
	if body != nil {
		js, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(js)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)

	res := testResponse{ResponseRecorder: rec}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res.body), rec.Body.String())
	}
	return res
}

func newRecorderFor(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

var seq atomic.Int64

func givenUser(t *testing.T, app *applicationDependencies, perms ...auth.Permission) (*data.User, string) {
	t.Helper()
	ctx := context.Background()

	u := &data.User{Username: fmt.Sprintf("user%d", seq.Add(1))}
	require.NoError(t, u.SetPassword("correct horse battery"))
	require.NoError(t, app.models.Users.Insert(ctx, u))
	for _, p := range perms {
		require.NoError(t, app.models.Users.Grant(ctx, u.ID, p))
	}

	token, _, err := app.tokens.Issue(u.ID)
	require.NoError(t, err)
	return u, token
}

func givenAuthor(t *testing.T, app *applicationDependencies, first, last string) *data.Author {
	t.Helper()
	a := &data.Author{FirstName: first, LastName: last}
	require.NoError(t, app.models.Authors.Insert(context.Background(), a))
	return a
}

func givenBook(t *testing.T, app *applicationDependencies, title string, author *data.Author, genres ...*data.Genre) *data.Book {
	t.Helper()
	b := &data.Book{
		Title:   title,
		Summary: "About " + title,
		ISBN:    fmt.Sprintf("979%010d", seq.Add(1)),
		Genres:  genres,
	}
	if author != nil {
		b.AuthorID = &author.ID
	}
	require.NoError(t, app.models.Books.Insert(context.Background(), b))
	return b
}

func givenLoan(t *testing.T, app *applicationDependencies, book *data.Book, status data.LoanStatus, dueInDays int, borrower *data.User) *data.BookInstance {
	t.Helper()
	bi := data.NewBookInstance(book.ID)
	bi.Status = status
	due := data.DateOf(testNow).AddDays(dueInDays)
	bi.DueBack = &due
	if borrower != nil {
		bi.BorrowerID = &borrower.ID
	}
	require.NoError(t, app.models.Instances.Insert(context.Background(), bi))
	return bi
}

func dayString(offset int) string {
	return data.DateOf(testNow).AddDays(offset).String()
}

func listOf(t *testing.T, res testResponse, key string) []map[string]any {
	t.Helper()
	raw, ok := res.body[key].([]any)
	require.True(t, ok, "%s is not a list: %v", key, res.body[key])

	items := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		items = append(items, item.(map[string]any))
	}
	return items
}

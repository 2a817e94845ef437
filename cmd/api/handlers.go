// cmd/api/handlers.go
// This file contains the read-only catalog handlers: the home summary and the
// book and author listings. Each handler is a method on *applicationDependencies
// so it has access to the logger and database models.
package main

import (
	"errors"
	"net/http"

	"github.com/aoideee/locallibrary/internal/data"
	"github.com/aoideee/locallibrary/internal/validator"
)

const (
	booksPageSize   = 2
	authorsPageSize = 10
	loansPageSize   = 10
)

// healthcheckHandler handles GET /v1/healthcheck.
func (app *applicationDependencies) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	env := envelope{
		"status": "available",
		"system_info": map[string]string{
			"environment": app.config.environment,
			"version":     appVersion,
		},
	}

	err := app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// homeHandler handles GET /v1/home.
// It reports how many books, copies, available copies and authors the catalog
// holds, and how many books are filed under each genre.
func (app *applicationDependencies) homeHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := app.models.Summary.Get(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"summary": summary}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listBooksHandler handles GET /v1/books.
// Supports ?page, ?page_size and ?sort (title, published, isbn, optionally "-" prefixed).
func (app *applicationDependencies) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	filters := app.readFilters(r.URL.Query(), booksPageSize,
		[]string{"id", "title", "published", "isbn", "-id", "-title", "-published", "-isbn"}, v)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors, nil)
		return
	}

	books, metadata, err := app.models.Books.GetAll(r.Context(), filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"books": books, "metadata": metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showBookHandler handles GET /v1/books/:id.
// The response carries the book, its author (null once the author is deleted)
// and every copy of it with its loan status.
func (app *applicationDependencies) showBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	book, err := app.models.Books.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	var author *data.Author
	if book.AuthorID != nil {
		author, err = app.models.Authors.Get(r.Context(), *book.AuthorID)
		if err != nil && !errors.Is(err, data.ErrRecordNotFound) {
			app.serverErrorResponse(w, r, err)
			return
		}
	}

	instances, err := app.models.Instances.GetForBook(r.Context(), book.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	data.MarkOverdue(app.today(), instances...)

	err = app.writeJSON(w, http.StatusOK, envelope{"book": book, "author": author, "instances": instances}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listAuthorsHandler handles GET /v1/authors.
func (app *applicationDependencies) listAuthorsHandler(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	filters := app.readFilters(r.URL.Query(), authorsPageSize,
		[]string{"id", "last_name", "first_name", "born", "-id", "-last_name", "-first_name", "-born"}, v)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors, nil)
		return
	}

	authors, metadata, err := app.models.Authors.GetAll(r.Context(), filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"authors": authors, "metadata": metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showAuthorHandler handles GET /v1/authors/:id.
func (app *applicationDependencies) showAuthorHandler(w http.ResponseWriter, r *http.Request) {
	author, ok := app.authorFromRequest(w, r)
	if !ok {
		return
	}

	books, err := app.models.Books.GetByAuthor(r.Context(), author.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"author": author, "books": books}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// authorFromRequest loads the author named by the :id parameter. When it
// returns false the error response has already been written.
func (app *applicationDependencies) authorFromRequest(w http.ResponseWriter, r *http.Request) (*data.Author, bool) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return nil, false
	}

	author, err := app.models.Authors.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return nil, false
	}
	return author, true
}

// cmd/api/authors.go
// Handlers that change the authors table. Every route here is guarded by one of
// the author permissions in routes.go.
package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aoideee/locallibrary/internal/data"
	"github.com/aoideee/locallibrary/internal/validator"
)

// authorInput is the request body accepted when creating or editing an author.
// Absent dates are stored as null.
type authorInput struct {
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Born      *data.Date `json:"born"`
	Died      *data.Date `json:"died"`
}

func (in authorInput) apply(a *data.Author) {
	a.FirstName = in.FirstName
	a.LastName = in.LastName
	a.Born = in.Born
	a.Died = in.Died
}

// createAuthorHandler handles POST /v1/authors.
// Responds 201 Created with a Location header for the new author.
func (app *applicationDependencies) createAuthorHandler(w http.ResponseWriter, r *http.Request) {
	var input authorInput

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	author := &data.Author{}
	input.apply(author)

	v := validator.New()
	if data.ValidateAuthor(v, author); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors, input)
		return
	}

	err = app.models.Authors.Insert(r.Context(), author)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/v1/authors/%d", author.ID))

	err = app.writeJSON(w, http.StatusCreated, envelope{"author": author}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateAuthorHandler handles PATCH /v1/authors/:id.
// The body carries the whole author; every field is overwritten.
func (app *applicationDependencies) updateAuthorHandler(w http.ResponseWriter, r *http.Request) {
	author, ok := app.authorFromRequest(w, r)
	if !ok {
		return
	}

	var input authorInput
	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	input.apply(author)

	v := validator.New()
	if data.ValidateAuthor(v, author); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors, input)
		return
	}

	err = app.models.Authors.Update(r.Context(), author)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"author": author}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// confirmDeleteAuthorHandler handles GET /v1/authors/:id/delete.
// Nothing is removed; the client is shown what a DELETE would affect.
func (app *applicationDependencies) confirmDeleteAuthorHandler(w http.ResponseWriter, r *http.Request) {
	author, ok := app.authorFromRequest(w, r)
	if !ok {
		return
	}

	books, err := app.models.Books.GetByAuthor(r.Context(), author.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{
		"author":  author,
		"books":   books,
		"message": fmt.Sprintf("deleting %s will leave %d book(s) without an author", author, len(books)),
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteAuthorHandler handles DELETE /v1/authors/:id.
// On success the client is sent to the author list with 303 See Other.
func (app *applicationDependencies) deleteAuthorHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	err = app.models.Authors.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, data.ErrConstraintViolation):
			app.editConflictResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/v1/authors")

	err = app.writeJSON(w, http.StatusSeeOther, envelope{"message": "author successfully deleted"}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

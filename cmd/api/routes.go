// cmd/api/routes.go
package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/aoideee/locallibrary/internal/auth"
)

// routes registers all HTTP endpoints and returns the configured router wrapped
// in the middleware chain.
//
// Middleware chain (outermost → innermost):
//
//	recoverPanic → rateLimit → authenticate → router
//
// Endpoints:
//
//	GET    /v1/healthcheck               – service status
//	GET    /v1/home                      – catalog summary counts
//	GET    /v1/books                     – list books (paginated)
//	GET    /v1/books/:id                 – book with author, genres and instances
//	GET    /v1/authors                   – list authors (paginated)
//	GET    /v1/authors/:id               – author with their books
//	POST   /v1/authors                   – create an author         (add_author)
//	PATCH  /v1/authors/:id               – update an author         (change_author)
//	GET    /v1/authors/:id/delete        – delete confirmation      (delete_author)
//	DELETE /v1/authors/:id               – delete an author         (delete_author)
//	GET    /v1/mybooks                   – instances on loan to me  (signed in)
//	GET    /v1/checkedout                – every checked-out copy   (view_all)
//	GET    /v1/instances/:id/renew       – proposed renewal date    (manage_status)
//	POST   /v1/instances/:id/renew       – renew a loan             (manage_status)
//	POST   /v1/tokens/authentication     – exchange credentials for a token
func (app *applicationDependencies) routes() http.Handler {
	router := httprouter.New()

	// Override the default httprouter error handlers to return JSON responses.
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)
	router.HandlerFunc(http.MethodGet, "/v1/home", app.homeHandler)

	router.HandlerFunc(http.MethodGet, "/v1/books", app.listBooksHandler)
	router.HandlerFunc(http.MethodGet, "/v1/books/:id", app.showBookHandler)

	router.HandlerFunc(http.MethodGet, "/v1/authors", app.listAuthorsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/authors/:id", app.showAuthorHandler)
	router.HandlerFunc(http.MethodPost, "/v1/authors", app.requirePermission(auth.PermAddAuthor, app.createAuthorHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/authors/:id", app.requirePermission(auth.PermChangeAuthor, app.updateAuthorHandler))
	router.HandlerFunc(http.MethodGet, "/v1/authors/:id/delete", app.requirePermission(auth.PermDeleteAuthor, app.confirmDeleteAuthorHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/authors/:id", app.requirePermission(auth.PermDeleteAuthor, app.deleteAuthorHandler))

	router.HandlerFunc(http.MethodGet, "/v1/mybooks", app.requireAuthenticatedUser(app.listMyBorrowedHandler))
	router.HandlerFunc(http.MethodGet, "/v1/checkedout", app.requirePermission(auth.PermViewAll, app.listCheckedOutHandler))
	router.HandlerFunc(http.MethodGet, "/v1/instances/:id/renew", app.requirePermission(auth.PermManageStatus, app.showRenewalHandler))
	router.HandlerFunc(http.MethodPost, "/v1/instances/:id/renew", app.requirePermission(auth.PermManageStatus, app.renewBookInstanceHandler))

	router.HandlerFunc(http.MethodPost, "/v1/tokens/authentication", app.createAuthenticationTokenHandler)

	// recoverPanic is outermost so it catches panics from every layer below it.
	return app.recoverPanic(app.rateLimit(app.authenticate(router)))
}

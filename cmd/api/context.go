// cmd/api/context.go
package main

import (
	"context"
	"net/http"

	"github.com/aoideee/locallibrary/internal/auth"
)

type contextKey string

const identityContextKey = contextKey("identity")

// contextSetIdentity returns a copy of r carrying id.
func (app *applicationDependencies) contextSetIdentity(r *http.Request, id auth.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityContextKey, id)
	return r.WithContext(ctx)
}

// contextGetIdentity returns the identity stored by the authenticate middleware.
// Requests that never passed through it are anonymous.
func (app *applicationDependencies) contextGetIdentity(r *http.Request) auth.Identity {
	id, ok := r.Context().Value(identityContextKey).(auth.Identity)
	if !ok {
		return auth.Anonymous
	}
	return id
}

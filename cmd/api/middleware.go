// cmd/api/middleware.go
// This file contains HTTP middleware used to wrap the router.
// Middleware functions intercept every request before it reaches a handler.
package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aoideee/locallibrary/internal/auth"
	"github.com/aoideee/locallibrary/internal/data"
)

// recoverPanic catches any runtime panic that occurs in a downstream handler
// and turns it into a clean 500 Internal Server Error.
func (app *applicationDependencies) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				// Tell the HTTP server to close the connection after this response.
				w.Header().Set("Connection", "close")
				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// client holds a per-IP rate limiter and the time it was last seen.
// lastSeen lets us evict old entries so the map does not grow forever.
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters is the per-IP limiter table shared by every request.
type clientLimiters struct {
	mu      sync.Mutex
	clients map[string]*client
}

// evictIdle removes every client not seen within idle.
func (l *clientLimiters) evictIdle(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, c := range l.clients {
		if time.Since(c.lastSeen) > idle {
			delete(l.clients, ip)
		}
	}
}

// sweep calls evictIdle on every tick until done is closed.
func (l *clientLimiters) sweep(done <-chan struct{}, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			l.evictIdle(idle)
		}
	}
}

// rateLimit implements per-IP token-bucket rate limiting using the
// golang.org/x/time/rate package, sized by the limiter settings.
// A background goroutine cleans up entries that have not been seen in 3 minutes;
// it stops once app.shutdown is closed.
func (app *applicationDependencies) rateLimit(next http.Handler) http.Handler {
	if !app.config.limiter.enabled {
		return next
	}

	limiters := &clientLimiters{clients: make(map[string]*client)}
	go limiters.sweep(app.shutdown, time.Minute, 3*time.Minute)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}

		limiters.mu.Lock()
		// Create a new limiter for this IP if we have not seen it before.
		c, found := limiters.clients[ip]
		if !found {
			c = &client{
				limiter: rate.NewLimiter(rate.Limit(app.config.limiter.rps), app.config.limiter.burst),
			}
			limiters.clients[ip] = c
		}
		c.lastSeen = time.Now()

		// Allow() consumes one token; returns false if the bucket is empty.
		if !c.limiter.Allow() {
			limiters.mu.Unlock()
			app.rateLimitExceededResponse(w, r)
			return
		}
		limiters.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// authenticate resolves the bearer token in the Authorization header to a user
// and stores the resulting identity in the request context. Requests without
// the header continue as the anonymous identity.
func (app *applicationDependencies) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, app.contextSetIdentity(r, auth.Anonymous))
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || scheme != "Bearer" || token == "" {
			app.invalidAuthenticationTokenResponse(w, r)
			return
		}

		userID, err := app.tokens.Parse(token)
		if err != nil {
			app.invalidAuthenticationTokenResponse(w, r)
			return
		}

		user, err := app.models.Users.Get(r.Context(), userID)
		if err != nil {
			switch {
			case errors.Is(err, data.ErrRecordNotFound):
				app.invalidAuthenticationTokenResponse(w, r)
			default:
				app.serverErrorResponse(w, r, err)
			}
			return
		}

		next.ServeHTTP(w, app.contextSetIdentity(r, auth.Identity{UserID: user.ID, Username: user.Username}))
	})
}

// requireAuthenticatedUser sends anonymous requests to the login flow.
func (app *applicationDependencies) requireAuthenticatedUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := auth.RequireAuthenticated(app.contextGetIdentity(r)); err != nil {
			app.authenticationRequiredResponse(w, r)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// requirePermission lets the request through only when the signed-in user holds
// perm. Anonymous requests are sent to the login flow; everyone else lacking the
// permission gets a 403.
func (app *applicationDependencies) requirePermission(perm auth.Permission, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := auth.Require(r.Context(), app.permissions, app.contextGetIdentity(r), perm)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUnauthenticated):
				app.authenticationRequiredResponse(w, r)
			case errors.Is(err, auth.ErrForbidden):
				app.notPermittedResponse(w, r)
			default:
				app.serverErrorResponse(w, r, err)
			}
			return
		}
		next.ServeHTTP(w, r)
	}
}

package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"strings"

	"portal/internal/domain/accesscontrol"
	"portal/internal/identity"
)

type contextKey string

const (
	identityCtx contextKey = "identity"
	tokenCtx    contextKey = "session_token"
)

func (app *application) BasicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// read the auth header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
				return
			}

			// parse it -> get the base64
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Basic" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
				return
			}

			decoded, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				app.unauthorizedBasicErrorResponse(w, r, err)
				return
			}

			username := app.config.auth.basic.user
			pass := app.config.auth.basic.pass
			if username == "" || pass == "" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("basic auth is not configured"))
				return
			}

			creds := strings.SplitN(string(decoded), ":", 2)
			if len(creds) != 2 || creds[0] != username || creds[1] != pass {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// sessionToken reads the access token from the session cookie, falling back
// to a Bearer header.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(accessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// authenticate resolves the caller once per request and stores the result
// in the context. An expired access token is renewed with the refresh
// cookie when one is present.
func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := sessionToken(r)
		id := app.identity.Resolve(ctx, token)

		if _, anonymous := id.(identity.Anonymous); anonymous {
			if c, err := r.Cookie(refreshTokenCookie); err == nil && c.Value != "" {
				session, err := app.auth.RefreshSession(ctx, c.Value)
				if err != nil {
					app.logger.Debugw("session refresh failed", "error", err)
					app.clearAuthCookies(w)
				} else {
					app.setAuthCookies(w, session)
					token = session.AccessToken
					id = app.identity.Resolve(ctx, token)
				}
			}
		}

		if _, anonymous := id.(identity.Anonymous); anonymous {
			token = ""
		}

		ctx = context.WithValue(ctx, identityCtx, id)
		ctx = context.WithValue(ctx, tokenCtx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getIdentity(r *http.Request) identity.Identity {
	id, ok := r.Context().Value(identityCtx).(identity.Identity)
	if !ok {
		return identity.Anonymous{}
	}
	return id
}

func getSessionToken(r *http.Request) string {
	token, _ := r.Context().Value(tokenCtx).(string)
	return token
}

func getAssigned(r *http.Request) (identity.Assigned, bool) {
	a, ok := getIdentity(r).(identity.Assigned)
	return a, ok
}

// requireAccess guards a resource with the route policy table.
func (app *application) requireAccess(resource accesscontrol.Resource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch id := getIdentity(r).(type) {
			case identity.Anonymous:
				redirect(w, r, "/auth/login")
				return
			case identity.Assigned:
				if app.policy.Allowed(id.Assignment.Role, resource) {
					next.ServeHTTP(w, r)
					return
				}
				app.logger.Infow("access denied", "user_id", id.User.ID, "role", id.Assignment.Role, "resource", resource)
			case identity.Unassigned:
				app.logger.Infow("access denied", "user_id", id.User.ID, "role", "", "resource", resource)
			}

			if resource.AdminOnly() {
				redirect(w, r, "/dashboard")
				return
			}
			redirect(w, r, "/dashboard?error=access_denied")
		})
	}
}

// rateLimit throttles form posts per client address.
func (app *application) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !app.config.rateLimiter.Enabled || app.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		if allow, retryAfter := app.limiter.Allow(clientKey(r)); !allow {
			app.rateLimitExceededResponse(w, r, retryAfter)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientKey is RemoteAddr without the port; RealIP has already rewritten it
// from the forwarding headers.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				w.Header().Set("Connection", "close")
				app.serverError(w, r, fmt.Errorf("panic: %v", rec))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

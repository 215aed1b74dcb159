package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/playrps/rpsroom/internal/api/apierr"
	"github.com/playrps/rpsroom/internal/model"
	"github.com/playrps/rpsroom/internal/session"
)

type contextKey string

const clientContextKey contextKey = "client"

// Auth creates session middleware. The client's session id rides on the
// X-Session-ID header (or a bearer token); the full context is rebuilt
// from the session store on every request.
func Auth(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := extractSessionID(r)
			if id == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			cctx, err := sessions.Load(r.Context(), model.ClientID(id))
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), clientContextKey, cctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractSessionID extracts the session id from the request
func extractSessionID(r *http.Request) string {
	if id := r.Header.Get("X-Session-ID"); id != "" {
		return id
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// The websocket and SSE endpoints cannot set headers from a browser
	return r.URL.Query().Get("session")
}

// GetClient returns the client context from the request context
func GetClient(ctx context.Context) *model.ClientContext {
	cctx, _ := ctx.Value(clientContextKey).(*model.ClientContext)
	return cctx
}

// MustGetClient returns the client context or panics
func MustGetClient(ctx context.Context) *model.ClientContext {
	cctx := GetClient(ctx)
	if cctx == nil {
		panic("no client in context - auth middleware not applied?")
	}
	return cctx
}

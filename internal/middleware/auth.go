package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tubeworks/backend/internal/logging"
)

type actorKey struct{}

// TokenVerifier resolves a bearer access token to an actor id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// ActorFromContext returns the authenticated actor id, or "" for anonymous
// requests.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok {
		return actor
	}
	return ""
}

// WithActor stores an actor id on the context. Exposed for handler tests.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// RequireActor rejects requests without a valid bearer token.
func RequireActor(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			actorID, err := verifier.Verify(token)
			if err != nil {
				logging.FromContext(r.Context()).Warn("token verification failed", "error", err)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actorID)))
		})
	}
}

// OptionalActor attaches the actor when a valid token is present and lets
// anonymous requests through untouched. Used by reads whose output varies
// per viewer.
func OptionalActor(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if actorID, err := verifier.Verify(token); err == nil {
					r = r.WithContext(WithActor(r.Context(), actorID))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	identity "presence/internal/identity/models"
	dErrors "presence/pkg/domainerrors"
	"presence/pkg/platform/httputil"
)

// TokenVerifier validates a session token and returns the embedded
// principal. The gateway backs this with an identity-service RPC call.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*identity.Principal, error)
}

type contextKeyPrincipal struct{}

// ContextKeyPrincipal is exported for use in handlers.
var ContextKeyPrincipal = contextKeyPrincipal{}

// GetPrincipal retrieves the authenticated principal from the context.
func GetPrincipal(ctx context.Context) *identity.Principal {
	principal, ok := ctx.Value(ContextKeyPrincipal).(*identity.Principal)
	if !ok {
		return nil
	}
	return principal
}

// RequireAuth rejects requests without a valid bearer token and stores
// the verified principal in the request context.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing_token"))
				return
			}

			principal, err := verifier.Verify(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", GetRequestID(ctx),
					"error", err,
				)
				// Upstream trouble is not the caller's fault; everything
				// else collapses to unauthenticated.
				if dErrors.Is(err, dErrors.CodeUnavailable) {
					httputil.WriteError(w, err)
					return
				}
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid_token"))
				return
			}

			ctx = context.WithValue(ctx, ContextKeyPrincipal, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

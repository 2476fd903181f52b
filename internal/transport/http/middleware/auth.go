package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"hrrecords/internal/domain/auth"
	"hrrecords/internal/platform/requestctx"
	"hrrecords/internal/transport/http/api"
)

type SessionValidator interface {
	SessionValid(ctx context.Context, userID, sessionID string) (bool, error)
}

// Auth attaches the token's user to the request. Requests without a valid
// token, or whose session was revoked, pass through anonymous. A nil
// validator skips the session check.
func Auth(secret string, sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if sessions != nil {
				valid, err := sessions.SessionValid(r.Context(), claims.UserID, claims.SessionID)
				if err != nil {
					slog.Warn("session check failed", "userId", claims.UserID, "err", err)
				}
				if err != nil || !valid {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := requestctx.WithUser(r.Context(), claims.UserContext())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	return requestctx.GetUser(ctx)
}

// RequireUser rejects anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

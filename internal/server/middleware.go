package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	svcErr "github.com/subletme/sublet-api/internal/errors"
)

// TokenParser validates a bearer token and yields the acting user id.
// Satisfied by the auth service.
type TokenParser interface {
	UserIDFromToken(token string) (uint64, error)
}

type contextKey string

const userIDKey contextKey = "user_id"

// Public paths skip authentication; everything else requires a bearer token.
var publicPaths = map[string]bool{
	"/api/auth/register": true,
	"/api/auth/login":    true,
	"/api/auth/social":   true,
}

// AuthMiddleware extracts the authenticated user id from the Authorization
// header and stores it on the request context.
func AuthMiddleware(parser TokenParser) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				WriteError(w, http.StatusUnauthorized, string(svcErr.CodeValidation), "missing bearer token")
				return
			}

			userID, err := parser.UserIDFromToken(token)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, string(svcErr.CodeValidation), "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id placed by AuthMiddleware.
// Zero means the request never passed authentication.
func UserID(r *http.Request) uint64 {
	if id, ok := r.Context().Value(userIDKey).(uint64); ok {
		return id
	}
	return 0
}

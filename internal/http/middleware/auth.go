package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bloghub/posts-service/internal/utils/jwt"
	"github.com/bloghub/posts-service/internal/utils/response"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller, as embedded in the bearer token.
type Identity struct {
	UserID int64
	Email  string
}

// AuthMiddleware creates a middleware that validates bearer tokens and puts
// the caller's identity on the request context.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Get the Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("Authorization header required")))
				return
			}

			// Check if the header starts with "Bearer "
			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("Invalid authorization header format")))
				return
			}

			// Extract the token
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == "" {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("Token not provided")))
				return
			}

			claims, err := jwt.VerifyToken(token, jwtSecret)
			if err != nil {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("Invalid token")))
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, Identity{
				UserID: claims.UserID,
				Email:  claims.Email,
			})
			r = r.WithContext(ctx)

			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentityFromContext extracts the authenticated identity from the request context
func GetIdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

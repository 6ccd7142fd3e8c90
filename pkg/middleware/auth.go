package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// TokenVerifier is the credential validation collaborator: it maps a
// bearer credential to the user identity it was issued for.
type TokenVerifier interface {
	Verify(credential string) (string, error)
}

// AuthMiddleware rejects requests without a valid bearer credential
// before any connection state exists. The credential comes from the
// Authorization header, or from the `token` query parameter for
// browser WebSocket clients that cannot set headers.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := bearerToken(r)
			if credential == "" {
				http.Error(w, "authorization required", http.StatusUnauthorized)
				return
			}
			userID, err := verifier.Verify(credential)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rogerio-castellano/cart-store/internal/session"
)

type contextKey string

const sessionIDKey = contextKey("session_id")

// Session rejects requests without a valid "Bearer <token>" header and puts
// the session ID in the request context.
func Session(issuer *session.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				unauthorized(w, "missing or invalid token")
				return
			}

			id, err := issuer.Parse(strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), sessionIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionID returns the session ID set by Session, or "".
func SessionID(r *http.Request) string {
	if val, ok := r.Context().Value(sessionIDKey).(string); ok {
		return val
	}
	return ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

package http

import (
	"context"
	"net/http"

	"github.com/eldar/school-social/internal/httpx/response"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserIDHeader carries the authenticated user's id, set by the gateway
// in front of this service.
const UserIDHeader = "X-User-ID"

// Authenticate extracts the caller identity from the trusted gateway
// header and makes it available to handlers via the request context.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserIDHeader)
		if userID == "" {
			response.Unauthorized(w, "missing user identity")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the authenticated user's id from the request context
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

package auth

import (
	"net/http"
	"strings"
)

// Middleware is a bearer-token guard. An empty token means local play with
// no auth; the guard passes everything through.
type Middleware struct {
	token string
}

func NewMiddleware(token string) Middleware {
	return Middleware{token: token}
}

func (m Middleware) Guard(next http.Handler) http.Handler {
	if m.token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if authz == "" {
			http.Error(w, "missing authorization", http.StatusUnauthorized)
			return
		}
		const prefix = "Bearer "
		if !strings.HasPrefix(authz, prefix) || strings.TrimPrefix(authz, prefix) != m.token {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

package middleware

import (
	"context"
	"net/http"
)

type RoleStore interface {
	GetRole(ctx context.Context, accountID string) (string, error)
}

// RequireRole gates a route to accounts holding one of the given roles.
// Staff routes pass "admin", "manager"; manager-only routes pass "manager".
func RequireRole(roles RoleStore, allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, ok := AccountIDFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			role, err := roles.GetRole(r.Context(), accountID)
			if err != nil {
				http.Error(w, "unable to verify role", http.StatusInternalServerError)
				return
			}
			for _, candidate := range allowed {
				if role == candidate {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "staff privileges required", http.StatusForbidden)
		})
	}
}

package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/auth"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
)

type contextKey string

const authContextKey contextKey = "authContext"

type AuthContext struct {
	WaiterID string
	Name     string
	Role     pos.Role
}

func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	value := ctx.Value(authContextKey)
	if value == nil {
		return nil, false
	}
	ac, ok := value.(*AuthContext)
	return ac, ok
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "UNAUTHORIZED",
		"message": message,
	})
}

// WaiterAuth verifies the terminal session token and attaches the waiter
// identity to the request context.
func WaiterAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			authCtx := &AuthContext{
				WaiterID: claims.WaiterID,
				Name:     claims.Name,
				Role:     claims.Role,
			}
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
		})
	}
}

// RequireRole gates a subtree to sessions whose role clears the threshold.
// PIN-countersigned operations stay available to waiters and are gated in the
// handlers instead.
func RequireRole(minimum pos.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, ok := GetAuthContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}
			if !auth.RoleAtLeast(authCtx.Role, minimum) {
				writeAuthError(w, http.StatusForbidden, "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

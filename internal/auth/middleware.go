package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// CookieName is the session cookie carrying the signed token.
const CookieName = "token"

// Verifier is the part of TokenService the middleware needs.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// TokenFromRequest returns the session token, preferring the cookie over an
// Authorization: Bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// Authenticate establishes identity only. A missing token is rejected with
// 401 before any verification; an invalid or expired token gets 403 with
// the same message either way.
func Authenticate(v Verifier, lg *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := TokenFromRequest(r)
			if raw == "" {
				reject(w, http.StatusUnauthorized, "authentication token required")
				return
			}
			claims, err := v.Verify(raw)
			if err != nil {
				lg.Debugw("token rejected", "error", err, "path", r.URL.Path)
				reject(w, http.StatusForbidden, "token invalid or expired")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Identity)))
		})
	}
}

func reject(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

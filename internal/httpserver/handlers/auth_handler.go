package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"paintledger/internal/accounts"
	"paintledger/internal/auth"
)

// Accounts is the account service surface used by the auth routes.
type Accounts interface {
	Register(ctx context.Context, in accounts.RegisterInput) error
	Login(ctx context.Context, username, password string) (*accounts.LoginResult, error)
	Profile(ctx context.Context, id int64) (*accounts.PublicProfile, error)
}

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

func (o CookieOptions) session(token string) *http.Cookie {
	return &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(o.MaxAge / time.Second),
		Expires:  time.Now().Add(o.MaxAge),
	}
}

func (o CookieOptions) cleared() *http.Cookie {
	return &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	}
}

func message(w http.ResponseWriter, status int, msg string) {
	respondStatus(w, status, map[string]string{"message": msg})
}

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Verify   string `json:"verify"`
}

func Register(svc Accounts, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			message(w, http.StatusBadRequest, "invalid request body")
			return
		}
		err := svc.Register(r.Context(), accounts.RegisterInput{
			Username:   req.Username,
			Password:   req.Password,
			Email:      req.Email,
			InviteCode: req.Verify,
			Origin:     clientOrigin(r),
		})
		if err != nil {
			status, msg := failure(lg, "register failed", err)
			message(w, status, msg)
			return
		}
		message(w, http.StatusCreated, "registration successful")
	}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func Login(svc Accounts, cookie CookieOptions, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			message(w, http.StatusBadRequest, "invalid request body")
			return
		}
		res, err := svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			status, msg := failure(lg, "login failed", err)
			message(w, status, msg)
			return
		}
		http.SetCookie(w, cookie.session(res.Token))
		respondJSON(w, map[string]any{
			"message": "login successful",
			"user": map[string]any{
				"id":       res.User.ID,
				"username": res.User.Username,
				"email":    res.User.Email,
				"roles":    res.User.Roles,
			},
			"token": res.Token,
		})
	}
}

// Logout clears the session cookie. Tokens are stateless, so a copy of the
// token held elsewhere stays valid until it expires.
func Logout(cookie CookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, cookie.cleared())
		message(w, http.StatusOK, "logout successful")
	}
}

func Me(svc Accounts, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			message(w, http.StatusUnauthorized, "authentication token required")
			return
		}
		p, err := svc.Profile(r.Context(), id.ID)
		if err != nil {
			status, msg := failure(lg, "profile lookup failed", err)
			if status == http.StatusNotFound {
				msg = "user not found"
			}
			message(w, status, msg)
			return
		}
		respondJSON(w, map[string]any{"user": p})
	}
}

// clientOrigin prefers X-Forwarded-For over the socket address.
func clientOrigin(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return r.RemoteAddr
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"paintledger/internal/accounts"
	"paintledger/internal/apperr"
	"paintledger/internal/auth"
	"paintledger/internal/history"
	"paintledger/internal/models"
)

type stubAccounts struct {
	registerErr error
	gotRegister accounts.RegisterInput
	loginRes    *accounts.LoginResult
	loginErr    error
	profile     *accounts.PublicProfile
	profileErr  error
}

func (s *stubAccounts) Register(_ context.Context, in accounts.RegisterInput) error {
	s.gotRegister = in
	return s.registerErr
}

func (s *stubAccounts) Login(context.Context, string, string) (*accounts.LoginResult, error) {
	return s.loginRes, s.loginErr
}

func (s *stubAccounts) Profile(context.Context, int64) (*accounts.PublicProfile, error) {
	return s.profile, s.profileErr
}

type stubHistory struct {
	saveID  string
	saveErr error
	list    []history.Summary
	listErr error
	rec     *models.AnalysisRecord
	err     error
}

func (s *stubHistory) Save(context.Context, map[string]json.RawMessage) (string, error) {
	return s.saveID, s.saveErr
}
func (s *stubHistory) List(context.Context, string) ([]history.Summary, error) {
	return s.list, s.listErr
}
func (s *stubHistory) Detail(context.Context, string) (*models.AnalysisRecord, error) {
	return s.rec, s.err
}
func (s *stubHistory) Delete(context.Context, string) error { return s.err }

func observed() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core).Sugar(), logs
}

func TestRegister_PassesOriginAndHidesStoreErrors(t *testing.T) {
	lg, logs := observed()
	svc := &stubAccounts{registerErr: apperr.Store(errors.New("UNIQUE constraint failed: users.username"))}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"username":"a","password":"b","email":"c","verify":"d"}`))
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	w := httptest.NewRecorder()
	Register(svc, lg)(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"internal server error"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "UNIQUE")
	assert.Equal(t, "203.0.113.9", svc.gotRegister.Origin)
	assert.Equal(t, "d", svc.gotRegister.InviteCode)
	assert.Equal(t, 1, logs.FilterMessage("register failed").Len())
}

func TestLogin_SetsCookie(t *testing.T) {
	svc := &stubAccounts{loginRes: &accounts.LoginResult{
		User:  accounts.PublicProfile{ID: 1, Username: "bob", Email: "b@x.com", Roles: []string{"editor"}},
		Token: "signed.token.value",
	}}
	lg, _ := observed()

	w := httptest.NewRecorder()
	Login(svc, CookieOptions{Secure: true, MaxAge: 24 * time.Hour}, lg)(w,
		httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"bob","password":"x"}`)))

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, auth.CookieName, c.Name)
	assert.Equal(t, "signed.token.value", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, 86400, c.MaxAge)
	assert.JSONEq(t, `{"message":"login successful","user":{"id":1,"username":"bob","email":"b@x.com","roles":["editor"]},"token":"signed.token.value"}`, w.Body.String())
}

func TestMe_WithoutIdentity(t *testing.T) {
	lg, _ := observed()
	w := httptest.NewRecorder()
	Me(&stubAccounts{}, lg)(w, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe_StoreError(t *testing.T) {
	lg, _ := observed()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{ID: 1, Username: "bob"}))
	w := httptest.NewRecorder()
	Me(&stubAccounts{profileErr: apperr.Store(errors.New("db gone"))}, lg)(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"internal server error"}`, w.Body.String())
}

func TestSaveAnalysis(t *testing.T) {
	lg, _ := observed()

	w := httptest.NewRecorder()
	SaveAnalysis(&stubHistory{saveID: "abc"}, lg)(w, httptest.NewRequest(http.MethodPost, "/api/saveAnalysis", strings.NewReader(`{"username":"bob"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"insertedId":"abc"}`, w.Body.String())

	w = httptest.NewRecorder()
	SaveAnalysis(&stubHistory{saveErr: apperr.Store(errors.New("down"))}, lg)(w, httptest.NewRequest(http.MethodPost, "/api/saveAnalysis", strings.NewReader(`{"username":"bob"}`)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"save failed"}`, w.Body.String())

	w = httptest.NewRecorder()
	SaveAnalysis(&stubHistory{}, lg)(w, httptest.NewRequest(http.MethodPost, "/api/saveAnalysis", strings.NewReader(`[1,2]`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListHistory(t *testing.T) {
	tests := []struct {
		name     string
		svc      *stubHistory
		wantCode int
	}{
		{"empty", &stubHistory{list: []history.Summary{}}, http.StatusOK},
		{"store down", &stubHistory{listErr: apperr.Store(errors.New("down"))}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ListHistory(tt.svc)(w, httptest.NewRequest(http.MethodGet, "/api/history?username=bob", nil))
			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, `[]`, w.Body.String())
		})
	}
}

func withID(r *http.Request, id string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func TestHistoryDetailAndDelete_StoreError(t *testing.T) {
	lg, logs := observed()
	svc := &stubHistory{err: apperr.Store(errors.New("mongo: no reachable servers"))}

	w := httptest.NewRecorder()
	HistoryDetail(svc, lg)(w, withID(httptest.NewRequest(http.MethodGet, "/", nil), "x"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())

	w = httptest.NewRecorder()
	DeleteHistory(svc, lg)(w, withID(httptest.NewRequest(http.MethodDelete, "/", nil), "x"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"internal server error"}`, w.Body.String())

	assert.Equal(t, 2, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"paintledger/internal/auth"
	"paintledger/internal/httpserver/handlers"
	"paintledger/internal/observability"
)

// MaxBodyBytes caps request bodies; saved analyses carry base64 images.
const MaxBodyBytes = 20 << 20

type Deps struct {
	Accounts handlers.Accounts
	History  handlers.History
	Tokens   auth.Verifier
	Metrics  *observability.Metrics
	Cookie   handlers.CookieOptions
	// CORSOrigins lists allowed origins; empty allows any origin.
	CORSOrigins []string
	Log         *zap.SugaredLogger
}

func NewRouter(d Deps) http.Handler {
	lg := d.Log
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)
	r.Use(d.Metrics.Middleware)
	r.Use(corsHandler(d.CORSOrigins))
	r.Use(middleware.RequestSize(MaxBodyBytes))

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", handlers.Register(d.Accounts, lg))
		api.Post("/auth/login", handlers.Login(d.Accounts, d.Cookie, lg))
		api.Group(func(protected chi.Router) {
			protected.Use(auth.Authenticate(d.Tokens, lg))
			protected.Post("/auth/logout", handlers.Logout(d.Cookie))
			protected.Get("/auth/me", handlers.Me(d.Accounts, lg))
		})

		api.Post("/saveAnalysis", handlers.SaveAnalysis(d.History, lg))
		api.Get("/history", handlers.ListHistory(d.History))
		api.Get("/history/detail/{id}", handlers.HistoryDetail(d.History, lg))
		api.Delete("/history/{id}", handlers.DeleteHistory(d.History, lg))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", d.Metrics.Handler())
	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(origins) > 0 {
		opts.AllowedOrigins = origins
	} else {
		// reflect the caller's origin; a literal "*" is not allowed with credentials
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	}
	return cors.Handler(opts)
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"paintledger/internal/accounts"
	"paintledger/internal/auth"
	"paintledger/internal/config"
	"paintledger/internal/history"
	"paintledger/internal/httpserver"
	"paintledger/internal/httpserver/handlers"
	"paintledger/internal/logger"
	"paintledger/internal/observability"
	"paintledger/internal/records"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	if cfg.UsingDefaultSecret() {
		lg.Warnw("JWT_SECRET is not set; signing tokens with the built-in default key, which anyone can use to forge sessions")
	}

	db, err := openDB(cfg)
	if err != nil {
		lg.Fatalw("db connect failed", "driver", cfg.DBDriver, "error", err)
	}
	repo := accounts.NewGormRepository(db)
	if err := repo.Migrate(context.Background()); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}

	metrics := observability.NewMetrics()
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	accts := accounts.NewService(repo, auth.NewHasher(cfg.BcryptCost), tokens, cfg.InviteCode, lg)
	hist := history.NewService(newRecordStore(cfg, metrics, lg), lg)

	router := httpserver.NewRouter(httpserver.Deps{
		Accounts:    accts,
		History:     hist,
		Tokens:      tokens,
		Metrics:     metrics,
		Cookie:      handlers.CookieOptions{Secure: cfg.Production, MaxAge: tokens.TTL()},
		CORSOrigins: cfg.CORSOrigins,
		Log:         lg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Infow("listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatalw("http server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Errorw("graceful shutdown failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	lg.Infow("stopped")
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	default:
		dialector = sqlite.Open(cfg.DatabaseURL)
	}
	return gorm.Open(dialector, &gorm.Config{})
}

func newRecordStore(cfg *config.Config, metrics *observability.Metrics, lg *zap.SugaredLogger) records.Store {
	if cfg.RecordStore == "memory" {
		lg.Warnw("record store is in-memory; saved analyses are lost on restart")
		return records.NewMemoryStore()
	}
	lg.Infow("record store", "database", cfg.MongoDatabase, "collection", cfg.MongoCollection)
	return records.NewMongoStore(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, metrics)
}

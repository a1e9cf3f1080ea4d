package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dropline-api/auth"
	"dropline-api/config"
	"dropline-api/handlers"
	"dropline-api/logger"
	"dropline-api/models"
	"dropline-api/routes"
	"dropline-api/store"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := logger.New(cfg)
	gin.SetMode(cfg.GinMode)

	if cfg.JWTSecretGenerated {
		log.Warn("JWT_SECRET not set, using a random secret; access tokens will not survive a restart")
	}

	hasher, err := auth.NewHasher(cfg.PasswordScheme)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	ensureIndexes(ctx, db, cfg.DBTimeout, log)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)
	h := handlers.New(handlers.Deps{
		Store:     db,
		Hasher:    hasher,
		Tokens:    tokens,
		DBTimeout: cfg.DBTimeout,
		Log:       log,
	})

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           routes.NewEngine(log, h, tokens),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http: starting server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http: server shutdown error", "error", err)
		}
		return db.Close(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// ensureIndexes makes email unique within every role collection. Failure is
// logged and tolerated so the service can still start.
func ensureIndexes(ctx context.Context, db store.Store, timeout time.Duration, log *slog.Logger) {
	if !db.Available() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, role := range models.Roles {
		if err := db.EnsureUniqueIndex(ctx, role.Collection(), "email"); err != nil {
			log.Error("store: ensure unique email index", "collection", role.Collection(), "error", err)
		}
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/cms-backend/internal/auth"
	"github.com/iliyamo/cms-backend/internal/database"
	"github.com/iliyamo/cms-backend/internal/handler"
	"github.com/iliyamo/cms-backend/internal/queue"
	"github.com/iliyamo/cms-backend/internal/router"
	"github.com/iliyamo/cms-backend/internal/service"
	"github.com/iliyamo/cms-backend/internal/storage"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AdminGateOpen() {
		log.Warn("ADMIN_PASSWORD is not set and ADMIN_OVERRIDE_ENABLED is on: every request is treated as admin")
	}
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set: register, login and authenticated routes will fail")
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ready := &atomic.Bool{}
	go database.InitWithRetry(ctx, db, cfg.Database.InitRetry, ready, log)

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	uploadDir := ""
	if local, ok := store.(*storage.Local); ok {
		uploadDir = local.Dir()
	}

	var events service.EventPublisher = queue.Nop{}
	if cfg.Events.Enabled {
		events = queue.NewPublisher(cfg.Events.URL, cfg.Events.Queue)
		log.WithField("queue", cfg.Events.Queue).Info("publishing content events")
	}

	tokens := auth.NewTokens(cfg.JWTSecret)
	e := router.New(router.Deps{
		Log:                  log,
		Resolver:             auth.NewResolver(tokens),
		AdminGate:            auth.NewAdminGate(cfg.AdminPassword, cfg.AdminOverrideEnabled),
		CORSOrigins:          cfg.CORSOrigins,
		CORSAllowCredentials: cfg.CORSAllowCredentials,
		RequestTimeout:       cfg.RequestTimeout,
		MaxUploadBytes:       cfg.Storage.MaxUploadBytes,
		UploadDir:            uploadDir,

		Health:   handler.NewHealthHandler(ready, version),
		Auth:     handler.NewAuthHandler(service.NewAuthService(db, tokens, cfg.BcryptCost)),
		Contents: handler.NewContentHandler(service.NewContentService(db, events, log)),
		Chapters: handler.NewChapterHandler(service.NewChapterService(db, events, log)),
		Taxonomy: handler.NewTaxonomyHandler(service.NewTaxonomyService(db)),
		Uploads:  handler.NewUploadHandler(service.NewUploadService(store, cfg.Storage.MaxUploadBytes)),
	})

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", ":"+cfg.Port).WithField("env", cfg.Env).Info("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(sctx)
}

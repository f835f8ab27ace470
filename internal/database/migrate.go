package database

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cms-backend/internal/database/migrations"
)

// gooseUp is a seam for testing goose.UpContext.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("mysql"); err != nil {
		return err
	}
	return gooseUp(ctx, db, ".")
}

// InitWithRetry runs Migrate until it succeeds or ctx is done, waiting retry
// between attempts. ready is set once the schema is in place. It is meant to
// run in its own goroutine so the HTTP server can start immediately and
// report readiness through /health.
func InitWithRetry(ctx context.Context, db *sql.DB, retry time.Duration, ready *atomic.Bool, log logrus.FieldLogger) {
	for {
		err := Migrate(ctx, db)
		if err == nil {
			ready.Store(true)
			log.Info("database schema ready")
			return
		}
		log.WithError(err).WithField("retry_in", retry.String()).Error("database init failed")

		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}

// Package service implements the application operations on top of the
// repositories: credential issuance, content and chapter management with
// visibility and ownership rules, taxonomy and uploads.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cms-backend/internal/apperr"
	"github.com/iliyamo/cms-backend/internal/auth"
	"github.com/iliyamo/cms-backend/internal/queue"
	"github.com/iliyamo/cms-backend/internal/repository"
)

// Viewer is who is reading: an optional identity and whether the request
// carries the admin override.
type Viewer struct {
	Identity *auth.Identity
	Admin    bool
}

// EventPublisher receives content events after their transaction commits.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ContentEvent) error
}

const publishTimeout = 3 * time.Second

// publish sends ev and only logs failures; a lost event never fails the
// request that produced it.
func publish(ctx context.Context, p EventPublisher, log logrus.FieldLogger, ev queue.ContentEvent) {
	if p == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.Publish(pctx, ev); err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"event":      ev.Type,
			"content_id": ev.ContentID,
		}).Warn("publish content event failed")
	}
}

// storeErr classifies a repository error. notFound is the client message
// used for ErrNotFound; conflict the one for ErrConflict. A nil err stays nil.
func storeErr(err error, notFound, conflict string) error {
	var ae *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperr.Wrap(apperr.NotFound, notFound, err)
	case errors.Is(err, repository.ErrConflict):
		return apperr.Wrap(apperr.Conflict, conflict, err)
	default:
		return apperr.Wrap(apperr.Internal, "database error", err)
	}
}

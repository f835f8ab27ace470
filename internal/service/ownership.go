package service

import (
	"context"

	"github.com/iliyamo/cms-backend/internal/access"
	"github.com/iliyamo/cms-backend/internal/apperr"
	"github.com/iliyamo/cms-backend/internal/auth"
	"github.com/iliyamo/cms-backend/internal/repository"
)

// claimContent locks content id and makes sure actor may mutate it, binding
// an unowned item to actor on the way. It must run inside a transaction and
// reports whether a bind happened. The admin override plays no part here.
func claimContent(ctx context.Context, contents *repository.ContentRepo, id uint64, actor auth.Identity, notFound string) (bool, error) {
	// A failed conditional bind means someone else bound the row first;
	// the second pass re-reads the owner and decides again.
	for attempt := 0; attempt < 2; attempt++ {
		o, err := contents.LockOwner(ctx, id)
		if err != nil {
			return false, storeErr(err, notFound, "")
		}

		switch access.ResolveOwner(o.UserID, actor) {
		case access.Proceed:
			return false, nil
		case access.Deny:
			return false, apperr.New(apperr.Forbidden, "you are not the author of this content")
		case access.Bind:
			ok, err := contents.BindOwner(ctx, id, actor.UserID, actor.Username)
			if err != nil {
				return false, storeErr(err, notFound, "")
			}
			if ok {
				return true, nil
			}
		}
	}
	return false, apperr.New(apperr.Internal, "could not resolve content ownership")
}

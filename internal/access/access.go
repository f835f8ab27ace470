// Package access holds the visibility and ownership rules for content.
// The functions are pure; the service layer applies them inside store
// transactions and the repository layer mirrors ListScope as a predicate.
package access

import "github.com/iliyamo/cms-backend/internal/auth"

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Resource is the part of a content item the rules look at. Chapters are
// judged by their parent content.
type Resource struct {
	Status  string
	OwnerID *uint64
}

// CanView reports whether viewer (nil for anonymous) may read r. Published
// items are public. Anything else is visible only to its owner or to a
// request holding the admin override; an unowned draft is hidden from all
// non-admin viewers.
func CanView(r Resource, viewer *auth.Identity, admin bool) bool {
	if r.Status == StatusPublished || admin {
		return true
	}
	return viewer != nil && r.OwnerID != nil && *r.OwnerID == viewer.UserID
}

// Decision is the outcome of ResolveOwner.
type Decision int

const (
	// Proceed: the actor already owns the item.
	Proceed Decision = iota
	// Bind: the item has no owner and must be bound to the actor first.
	Bind
	// Deny: another user owns the item.
	Deny
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case Bind:
		return "bind"
	case Deny:
		return "deny"
	}
	return "unknown"
}

// ResolveOwner decides what a mutation by actor must do given the current
// owner. The admin override plays no part here.
func ResolveOwner(owner *uint64, actor auth.Identity) Decision {
	switch {
	case owner == nil:
		return Bind
	case *owner == actor.UserID:
		return Proceed
	default:
		return Deny
	}
}

// Scope is the list-query form of CanView.
type Scope struct {
	// All disables the visibility restriction.
	All bool
	// ViewerID, when set, adds the viewer's own items to the published ones.
	ViewerID *uint64
}

// ListScope returns the listing restriction equivalent to CanView.
func ListScope(viewer *auth.Identity, admin bool) Scope {
	if admin {
		return Scope{All: true}
	}
	if viewer != nil {
		id := viewer.UserID
		return Scope{ViewerID: &id}
	}
	return Scope{}
}

// Allows evaluates the scope against a single resource. It agrees with
// CanView for every input and is what the SQL predicate implements.
func (s Scope) Allows(r Resource) bool {
	if s.All || r.Status == StatusPublished {
		return true
	}
	return s.ViewerID != nil && r.OwnerID != nil && *r.OwnerID == *s.ViewerID
}

// Package policy implements the authorization rules of the application: which
// posts an actor may read, and which entities an actor may change. Every
// handler goes through these predicates before touching the datastore, and
// the repository layer pushes the equivalent filters into SQL via the scopes
// in visibility.go.
package policy

// AnonymousID is the actor ID carried by unauthenticated requests.
const AnonymousID uint = 0

// Owned is implemented by entities whose write access is restricted to a
// single user: a post or comment belongs to its author, a profile to itself.
type Owned interface {
	OwnerID() uint
}

// CanModify reports whether the actor may update or delete the entity.
// Anonymous actors are always denied.
func CanModify(entity Owned, actorID uint) bool {
	return actorID != AnonymousID && actorID == entity.OwnerID()
}

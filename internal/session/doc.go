// Package session resolves and holds the identity of the current user.
//
// A Gate starts out Resolving and settles on Authenticated or Anonymous once
// the service answers. Any failure while resolving is treated as Anonymous.
// Views ask the gate whether they may render (RequireAuth) and whether the
// user may change a given event (IsOwner).
package session

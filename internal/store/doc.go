// Package store holds the canonical in-memory event collection for one view.
//
// The collection only ever changes after the forrev service has confirmed a
// request: Load replaces it wholesale, Create prepends the confirmed event,
// Update replaces an event in place and Remove drops it. Failures leave the
// collection untouched. Subscribers are told about every change once it has
// been applied.
package store

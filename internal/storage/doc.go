// Package storage persists the forrev session between CLI invocations.
//
// The cookies that carry the session and CSRF token are written to
// session.json in the data directory (~/.local/share/forrev by default), with
// their values sealed when a session key is configured.
package storage

// Package notifier delivers failure notices for operations whose caller has
// already moved on, such as a delete issued after its overlay closed.
//
// The CLI writes notices to stderr, the TUI turns them into status-line
// messages, and tests record them.
package notifier

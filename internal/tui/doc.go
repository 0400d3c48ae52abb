// Package tui is the interactive event browser started by "forrev browse".
//
// The browser lists events from an event store and opens them in the overlays
// managed by an overlay controller: a read-only detail view, and create and
// edit forms. Ownership affordances come from the session gate and are
// recomputed on every render. Background delete failures arrive as notices
// and are shown on the status line.
package tui

// Package cli implements the forrev command-line interface.
//
// The root command loads configuration, restores the persisted session and
// builds one remote client per invocation, which it threads into the session
// gate, the event store and the overlay controller used by each subcommand.
// Output is human-readable text or JSON. The browse subcommand hands the same
// client to the interactive TUI.
package cli

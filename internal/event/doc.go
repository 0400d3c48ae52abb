// Package event provides the forrev calendar event record and the draft shape
// used to create or update one.
//
// Every Event held by the client is the canonical representation returned by
// the forrev service; the client never fabricates or patches one locally.
// Drafts are validated here before they are submitted, and Diff reports what
// changed between two confirmed fetches.
package event

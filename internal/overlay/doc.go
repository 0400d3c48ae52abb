// Package overlay arbitrates which single modal view is open: none, the
// detail of an event, the create form or the edit form of an event.
//
// Edit is only reachable from Detail and only for the owner. Submitting a
// form closes it once the service confirms; a failed submission keeps the
// form open with its error. Delete closes the detail straight away and lets
// the removal finish in the background.
package overlay

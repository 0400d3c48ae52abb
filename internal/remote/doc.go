// Package remote is the HTTP client for the forrev event service.
//
// Requests are built with sling and share one cookie jar, which carries the
// session cookie and the anti-forgery (CSRF) cookie between calls. The CSRF
// token is primed on demand before any state-changing request and echoed back
// in the X-CSRFToken header.
//
// Failures are classified as AuthError (401/403), NetworkError (the request
// did not complete) or ServerError (any other non-2xx). Nothing in this package
// retries; every retry is a deliberate re-invocation by the caller.
package remote

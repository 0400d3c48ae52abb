// Package crypto encrypts small secrets at rest, such as persisted session
// cookies, with AES-256-GCM under a key derived from a passphrase.
package crypto

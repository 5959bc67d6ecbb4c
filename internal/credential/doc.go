// Package credential holds the session credential and owns the forced-logout protocol.
//
// A Store is constructed once per process and passed to whatever issues requests.
// Its Mode is fixed at construction:
//   - ModeToken: the credential is a bearer token kept in memory and, when durable
//     storage passed the startup probe, persisted under a fixed key.
//   - ModeCookie: the session lives in an HTTP cookie managed by the transport. The
//     store never reads, stores or returns a credential.
//
// Store methods never return errors. Storage failures degrade to memory-only
// credentials with a logged warning.
//
// # Forced logout
//
// Collaborators register callbacks with SubscribeUnauthorized and decide what an
// unauthorized session means for them. Logout clears the credential and invokes each
// registered callback once:
//
//	unsubscribe := store.SubscribeUnauthorized(func() {
//		fmt.Fprintln(os.Stderr, "session expired, please log in again")
//	})
//	defer unsubscribe()
package credential

// Package tokenstore provides durable key/value storage for session credentials.
//
// Supports three backends with different security and deployment tradeoffs:
//   - File: One file per key in a private directory, atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Memory: Process-local map, lost on exit
//
// Backends may be unavailable at runtime (locked keyring, read-only home directory).
// Callers probe availability once and degrade to memory-only credentials.
package tokenstore

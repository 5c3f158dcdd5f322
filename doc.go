// Package sessionauth provides user registration, password login and opaque
// server-side sessions backed by two durable flat files.
//
// An [Engine] built by [Builder.Build] exposes four operations: Register,
// Login, Logout and Profile. Credentials and sessions each live in their own
// newline-delimited JSON file; every mutation is serialized by a per-file
// writer lock (in-process mutex plus advisory file lock, acquired with a
// bounded wait) and installed by atomic rename, so any number of Engines and
// processes can share the same data directory. Reads never take a lock.
//
// Engine methods are safe to call from multiple goroutines.
//
// # Errors
//
// Results are reported through sentinel errors matched with errors.Is:
// [ErrValidation], [ErrConflict], [ErrInvalidCredentials], [ErrUnauthenticated],
// [ErrLoginRateLimited] and [ErrStorage] (with [ErrStorageLocked] for lock
// timeouts). Login never reveals whether a username exists.
//
// # Architecture boundaries
//
// Request parsing, cookies-as-headers and HTML belong to the web package; this
// package deals in usernames, passwords and session IDs only.
package sessionauth

// Package internal contains helper utilities that are intentionally private to sessionauth,
// most importantly the session identifier generator.
//
// # Sub-packages
//
//   - filestore: locked, atomically replaced line-record files
//   - logging: slog setup and oops-aware error logging
//   - rate: optional Redis-backed login throttle
//
// # What this package must NOT do
//
//   - Export types that appear in the public sessionauth API.
//   - Derive identifiers from usernames, clocks or previous identifiers.
package internal

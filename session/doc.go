// Package session persists issued sessions in a newline-delimited JSON file.
//
// # Storage
//
// Each line of the file is one [Session]. Reads are lock-free; every mutation
// rewrites the whole file under the store's writer lock and installs it by
// atomic rename, so readers always see either the old or the new file. Expired
// records are pruned whenever the file is rewritten and by [Store.Sweep].
//
// # Identity
//
// Sessions are addressed only by exact session ID. [Store.Delete] never matches
// by prefix or substring.
//
// # Architecture boundaries
//
// This package does not know about credentials or cookies. Checking that a
// username exists before issuing a session is the caller's job.
package session

// Package credential stores username to password-verifier records in a
// newline-delimited JSON file.
//
// Usernames are case-sensitive and compared byte for byte; they are never
// trimmed or normalized. Records are never removed, so a username once taken
// stays taken. Only salted Argon2id verifiers are written; plaintext passwords
// never reach the file.
//
// Existence check and append happen in one critical section under the
// store's writer lock, so concurrent registrations of the same name yield
// exactly one record.
package credential

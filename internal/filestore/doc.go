// Package filestore implements the durable flat-file layer shared by the credential
// and session stores.
//
// A [File] holds newline-delimited records. Readers take no lock: the file is only
// ever replaced whole, by writing a sibling temporary file, syncing it and renaming
// it over the original, so a reader sees either the old or the new content.
// Writers go through [File.Update], which serializes them twice: an in-process
// mutex for goroutines sharing the *File, and an advisory lock on "<path>.lock"
// for other processes. Lock acquisition waits at most Options.LockTimeout and then
// fails with [ErrLocked].
//
// # What this package must NOT do
//
//   - Interpret record contents (callers own the encoding).
//   - Truncate or rewrite the data file in place.
//   - Remove the lock file; another process may already hold a lock on it.
package filestore

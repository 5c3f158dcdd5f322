// Package middleware guards net/http handlers with the Engine's session check.
//
// [RequireSession] reads the session cookie, resolves it with Engine.Profile
// and stores the username in the request context for [UsernameFromContext].
// All decisions are delegated to the Engine.
package middleware

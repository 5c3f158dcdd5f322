// Package rate implements the optional Redis-backed login throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR, then EXPIRE on the first hit of a window. Keys:
//   - <prefix>:user:<sha256(username)[:16]> for per-username failures
//   - <prefix>:ip:<ip> for per-client failures, when enabled
//
// Callers treat [ErrRedisUnavailable] as a refusal; a throttle that cannot
// count does not let attempts through.
package rate

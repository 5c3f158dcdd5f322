package internaldefs

import (
	"strconv"
	"strings"

	"github.com/MrEthical07/sessionauth"
)

// CounterDef binds an Engine counter to its exported name.
type CounterDef struct {
	ID   sessionauth.MetricID
	Name string
	Help string
}

// HistogramDef binds an Engine latency histogram to its exported name.
type HistogramDef struct {
	ID   sessionauth.MetricID
	Name string
	Help string
}

// BucketCount is the number of histogram buckets, the last one unbounded.
const BucketCount = len(sessionauth.HistogramBucketBounds) + 1

// AuditDroppedName is the counter exported for events lost to a full audit buffer.
const AuditDroppedName = "sessionauth_audit_dropped_total"

var CounterDefs = []CounterDef{
	{ID: sessionauth.MetricRegisterSuccess, Name: "sessionauth_register_success_total", Help: "Users registered."},
	{ID: sessionauth.MetricRegisterConflict, Name: "sessionauth_register_conflict_total", Help: "Registrations rejected because the username exists."},
	{ID: sessionauth.MetricRegisterInvalid, Name: "sessionauth_register_invalid_total", Help: "Registrations rejected by input validation."},
	{ID: sessionauth.MetricLoginSuccess, Name: "sessionauth_login_success_total", Help: "Successful logins."},
	{ID: sessionauth.MetricLoginFailure, Name: "sessionauth_login_failure_total", Help: "Logins rejected for bad credentials."},
	{ID: sessionauth.MetricLoginRateLimited, Name: "sessionauth_login_rate_limited_total", Help: "Logins refused by the throttle."},
	{ID: sessionauth.MetricSessionCreated, Name: "sessionauth_session_created_total", Help: "Sessions issued."},
	{ID: sessionauth.MetricLogout, Name: "sessionauth_logout_total", Help: "Logout requests for well-formed session ids."},
	{ID: sessionauth.MetricProfileSuccess, Name: "sessionauth_profile_success_total", Help: "Profile lookups that found a live session."},
	{ID: sessionauth.MetricProfileUnauthenticated, Name: "sessionauth_profile_unauthenticated_total", Help: "Profile lookups without a live session."},
	{ID: sessionauth.MetricSessionSwept, Name: "sessionauth_session_swept_total", Help: "Expired sessions removed by sweeping."},
	{ID: sessionauth.MetricStorageError, Name: "sessionauth_storage_error_total", Help: "Operations failed by storage errors."},
	{ID: sessionauth.MetricStorageLocked, Name: "sessionauth_storage_locked_total", Help: "Operations failed waiting for a store lock."},
}

var HistogramDefs = []HistogramDef{
	{ID: sessionauth.MetricRegisterLatency, Name: "sessionauth_register_latency_seconds", Help: "Register latency."},
	{ID: sessionauth.MetricLoginLatency, Name: "sessionauth_login_latency_seconds", Help: "Login latency."},
}

// BoundsSeconds returns the finite upper bounds of the latency buckets in seconds.
func BoundsSeconds() []float64 {
	out := make([]float64, len(sessionauth.HistogramBucketBounds))
	for i, d := range sessionauth.HistogramBucketBounds {
		out[i] = d.Seconds()
	}
	return out
}

// BoundSuffixes returns instrument-name-safe renderings of every bucket bound,
// e.g. "0_005" for 5ms and "inf" for the last bucket.
func BoundSuffixes() []string {
	out := make([]string, 0, BucketCount)
	for _, s := range BoundsSeconds() {
		out = append(out, strings.ReplaceAll(strconv.FormatFloat(s, 'f', -1, 64), ".", "_"))
	}
	return append(out, "inf")
}

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

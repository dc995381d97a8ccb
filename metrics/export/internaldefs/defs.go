package internaldefs

import (
	"github.com/techcare/careauth"
)

// CounterDef defines a public type used by careauth APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   careauth.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by careauth APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   careauth.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the authentication engine.
var CounterDefs = []CounterDef{
	{ID: careauth.MetricOTPIssued, Name: "careauth_otp_issued_total", Help: "One-time passcodes issued."},
	{ID: careauth.MetricOTPIssueFailure, Name: "careauth_otp_issue_failure_total", Help: "Failed OTP issuance requests."},
	{ID: careauth.MetricOTPVerifySuccess, Name: "careauth_otp_verify_success_total", Help: "Successful OTP verifications."},
	{ID: careauth.MetricOTPVerifyFailure, Name: "careauth_otp_verify_failure_total", Help: "Failed OTP verifications."},
	{ID: careauth.MetricOTPBypassUsed, Name: "careauth_otp_bypass_used_total", Help: "Verifications accepted through the development bypass code."},
	{ID: careauth.MetricRateLimitHit, Name: "careauth_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
	{ID: careauth.MetricTokenIssued, Name: "careauth_token_issued_total", Help: "Session tokens issued."},
	{ID: careauth.MetricTokenExpired, Name: "careauth_token_expired_total", Help: "Session tokens rejected as expired."},
	{ID: careauth.MetricTokenInvalid, Name: "careauth_token_invalid_total", Help: "Session tokens rejected as invalid."},
	{ID: careauth.MetricTokenRevoked, Name: "careauth_token_revoked_total", Help: "Session tokens rejected by the denylist."},
	{ID: careauth.MetricLogout, Name: "careauth_logout_total", Help: "Logout operations."},
	{ID: careauth.MetricAuthorizationDenied, Name: "careauth_authorization_denied_total", Help: "Requests refused by the authorization gate."},
}

// HistogramDefs is an exported constant or variable used by the authentication engine.
var HistogramDefs = []HistogramDef{
	{ID: careauth.MetricValidateLatency, Name: "careauth_validate_latency_seconds", Help: "Token validation latency."},
}

// AuditDroppedName and AuditDroppedHelp describe the dispatcher drop counter.
const (
	AuditDroppedName = "careauth_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// BucketCount is the number of latency buckets including the unbounded one.
const BucketCount = 8

// HistogramUpperBounds returns the finite bucket bounds in seconds, derived
// from careauth.HistogramBounds.
func HistogramUpperBounds() []float64 {
	ms := careauth.HistogramBounds()
	out := make([]float64, len(ms))
	for i, v := range ms {
		out[i] = float64(v) / 1000
	}
	return out
}

// HistogramBoundSuffix is an exported constant or variable used by the authentication engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

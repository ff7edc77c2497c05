package internaldefs

import (
	authkit "github.com/studyhall/authkit"
)

// CounterDef binds one counter metric to its exported name.
type CounterDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// HistogramDef binds one histogram metric to its exported name.
type HistogramDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter. Exporters iterate this slice so
// a new metric only needs one entry here.
var CounterDefs = []CounterDef{
	{ID: authkit.MetricLoginSuccess, Name: "authkit_login_success_total", Help: "Successful password logins."},
	{ID: authkit.MetricLoginFailure, Name: "authkit_login_failure_total", Help: "Failed password logins."},
	{ID: authkit.MetricLoginVerificationRequired, Name: "authkit_login_verification_required_total", Help: "Logins routed into email verification."},
	{ID: authkit.MetricLoginLocked, Name: "authkit_login_locked_total", Help: "Logins rejected by account lockout."},
	{ID: authkit.MetricQuickLoginSuccess, Name: "authkit_quick_login_success_total", Help: "Successful quick logins."},
	{ID: authkit.MetricQuickLoginFailure, Name: "authkit_quick_login_failure_total", Help: "Failed quick logins."},
	{ID: authkit.MetricBiometricFallback, Name: "authkit_biometric_fallback_total", Help: "Biometric ceremonies that fell back to another path."},
	{ID: authkit.MetricVerifySuccess, Name: "authkit_verify_success_total", Help: "Successful email verifications."},
	{ID: authkit.MetricVerifyFailure, Name: "authkit_verify_failure_total", Help: "Failed email verifications."},
	{ID: authkit.MetricVerifyResend, Name: "authkit_verify_resend_total", Help: "Verification code resends."},
	{ID: authkit.MetricVerifyResendBlocked, Name: "authkit_verify_resend_blocked_total", Help: "Resends blocked by the cooldown."},
	{ID: authkit.MetricRegisterSuccess, Name: "authkit_register_success_total", Help: "Successful registrations."},
	{ID: authkit.MetricRegisterConflict, Name: "authkit_register_conflict_total", Help: "Registrations rejected as duplicate."},
	{ID: authkit.MetricRegisterFailure, Name: "authkit_register_failure_total", Help: "Failed registrations."},
	{ID: authkit.MetricOAuthSuccess, Name: "authkit_oauth_success_total", Help: "Successful OAuth exchanges."},
	{ID: authkit.MetricOAuthFailure, Name: "authkit_oauth_failure_total", Help: "Failed OAuth exchanges."},
	{ID: authkit.MetricLogout, Name: "authkit_logout_total", Help: "Logout operations."},
	{ID: authkit.MetricSessionRestored, Name: "authkit_session_restored_total", Help: "Sessions restored at startup."},
	{ID: authkit.MetricFlowAbandoned, Name: "authkit_flow_abandoned_total", Help: "Flows abandoned before completion."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authkit.MetricGatewayLatency, Name: "authkit_gateway_latency_seconds", Help: "Gateway round-trip latency histogram."},
}

// HistogramBoundSuffix names the fixed bucket bounds for per-bucket gauges.
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

// NormalizeBuckets widens a raw snapshot slice to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// histogram consumers expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

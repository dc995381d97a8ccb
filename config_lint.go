package careauth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/techcare/careauth/jwt"
)

// LintSeverity defines a public type used by careauth APIs.
//
// LintSeverity instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LintSeverity int

const (
	// LintInfo is an exported constant or variable used by the authentication engine.
	LintInfo LintSeverity = iota
	// LintWarn is an exported constant or variable used by the authentication engine.
	LintWarn
	// LintHigh is an exported constant or variable used by the authentication engine.
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is a single configuration finding. Unlike Validate errors,
// warnings never prevent an engine from being built.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult defines a public type used by careauth APIs.
type LintResult []LintWarning

// Codes returns the warning codes in emission order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError folds warnings at or above min into one error, or returns nil.
func (r LintResult) AsError(min LintSeverity) error {
	matched := r.BySeverity(min)
	if len(matched) == 0 {
		return nil
	}
	parts := make([]string, 0, len(matched))
	for _, w := range matched {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return errors.New("config lint: " + strings.Join(parts, "; "))
}

// Lint reports risky but valid settings. Call Validate first; Lint assumes a
// structurally valid config.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if c.OTP.ExposeCode {
		add("otp_code_exposed", LintHigh, "IssueOTP returns the plaintext code; development only")
	}
	if c.OTP.DevBypassCode != "" {
		add("otp_bypass_enabled", LintHigh, "a universal bypass code is accepted for every account")
	}
	if !c.RateLimit.Enabled {
		add("rate_limits_disabled", LintHigh, "OTP issuance and verification are not throttled")
	} else {
		if !c.RateLimit.EnableIPThrottle {
			add("ip_throttle_disabled", LintWarn, "OTP issuance is throttled per mobile only")
		}
		if c.RateLimit.MaxVerifyAttempts > 10 {
			add("verify_attempts_high", LintWarn, "more than 10 verification attempts per code window")
		}
	}
	if c.OTP.TTL > 10*time.Minute {
		add("otp_ttl_long", LintWarn, "OTP codes live longer than 10 minutes")
	}
	if c.OTP.HashAlgorithm == hashAlgorithmBcrypt && c.OTP.HashCost < 10 {
		add("hash_cost_low", LintWarn, "bcrypt cost below 10")
	}
	if c.JWT.TTL > 24*time.Hour {
		add("token_ttl_long", LintWarn, "session tokens live longer than 24 hours")
	}
	if c.JWT.Leeway > 30*time.Second {
		add("leeway_large", LintWarn, "JWT leeway above 30 seconds")
	}
	if c.JWT.SigningMethod == string(jwt.MethodHS256) {
		add("signing_hs256", LintInfo, "symmetric signing; every verifier holds the signing secret")
	}
	if c.ValidationMode == ModeJWTOnly {
		add("jwtonly_no_revocation", LintInfo, "Logout cannot revoke tokens before expiry in JWT-only mode")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "audit events are not recorded")
	}

	return ws
}

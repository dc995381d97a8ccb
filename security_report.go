package careauth

import "github.com/techcare/careauth/internal/security"

// SecurityReport is the engine's security posture, suitable for logging at startup.
type SecurityReport = security.Report

// SecurityReport describes the securityreport operation and its observable behavior.
//
// SecurityReport does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return security.BuildReport(security.ReportInput{
		ProductionMode:    e.config.Security.ProductionMode,
		SigningAlgorithm:  e.config.JWT.SigningMethod,
		ValidationMode:    e.config.ValidationMode.String(),
		Strict:            e.config.ValidationMode == ModeStrict,
		TokenTTL:          e.config.JWT.TTL,
		OTPTTL:            e.config.OTP.TTL,
		OTPHashAlgorithm:  e.config.OTP.HashAlgorithm,
		OTPHashCost:       e.config.OTP.HashCost,
		ExposeCode:        e.config.OTP.ExposeCode,
		DevBypassCode:     e.config.OTP.DevBypassCode,
		RateLimitEnabled:  e.rateLimiter != nil,
		EnableIPThrottle:  e.config.RateLimit.EnableIPThrottle,
		MaxVerifyAttempts: e.config.RateLimit.MaxVerifyAttempts,
		AuditEnabled:      e.audit != nil,
	})
}

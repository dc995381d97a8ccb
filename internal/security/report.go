package security

import "time"

// Report summarises the security posture of a built engine.
type Report struct {
	ProductionMode      bool
	SigningAlgorithm    string
	ValidationMode      string
	RevocationActive    bool
	TokenTTL            time.Duration
	OTPTTL              time.Duration
	OTPHashAlgorithm    string
	OTPHashCost         int
	CodeExposed         bool
	BypassEnabled       bool
	RateLimitingActive  bool
	IPThrottleActive    bool
	MaxVerifyAttempts   int
	AuditEnabled        bool
	DevAffordanceActive bool
}

// ReportInput carries the configuration values the report is derived from.
type ReportInput struct {
	ProductionMode    bool
	SigningAlgorithm  string
	ValidationMode    string
	Strict            bool
	TokenTTL          time.Duration
	OTPTTL            time.Duration
	OTPHashAlgorithm  string
	OTPHashCost       int
	ExposeCode        bool
	DevBypassCode     string
	RateLimitEnabled  bool
	EnableIPThrottle  bool
	MaxVerifyAttempts int
	AuditEnabled      bool
}

// BuildReport derives a Report from input. The bypass code itself is never
// copied into the report.
func BuildReport(input ReportInput) Report {
	bypass := input.DevBypassCode != ""

	r := Report{
		ProductionMode:      input.ProductionMode,
		SigningAlgorithm:    input.SigningAlgorithm,
		ValidationMode:      input.ValidationMode,
		RevocationActive:    input.Strict,
		TokenTTL:            input.TokenTTL,
		OTPTTL:              input.OTPTTL,
		OTPHashAlgorithm:    input.OTPHashAlgorithm,
		CodeExposed:         input.ExposeCode,
		BypassEnabled:       bypass,
		RateLimitingActive:  input.RateLimitEnabled,
		IPThrottleActive:    input.RateLimitEnabled && input.EnableIPThrottle,
		AuditEnabled:        input.AuditEnabled,
		DevAffordanceActive: input.ExposeCode || bypass,
	}
	if input.OTPHashAlgorithm == "bcrypt" {
		r.OTPHashCost = input.OTPHashCost
	}
	if input.RateLimitEnabled {
		r.MaxVerifyAttempts = input.MaxVerifyAttempts
	}
	return r
}

package careauth

import (
	"errors"
	"time"

	"github.com/techcare/careauth/internal"
	"github.com/techcare/careauth/jwt"
)

// Config defines a public type used by careauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	OTP            OTPConfig
	JWT            JWTConfig
	Store          StoreConfig
	RateLimit      RateLimitConfig
	Audit          AuditConfig
	Metrics        MetricsConfig
	Security       SecurityConfig
	ValidationMode ValidationMode
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig defines a public type used by careauth APIs.
//
// OTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OTPConfig struct {
	TTL           time.Duration
	HashAlgorithm string // "bcrypt" (default) or "argon2id"
	HashCost      int
	KeyPrefix     string

	// ExposeCode returns the plaintext code from IssueOTP. Development only.
	ExposeCode bool
	// DevBypassCode, when set, is accepted for any account without a stored
	// secret comparison. Development only.
	DevBypassCode string
}

const (
	hashAlgorithmBcrypt   = "bcrypt"
	hashAlgorithmArgon2id = "argon2id"
)

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by careauth APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
	// VerifyKeys maps kid to verification key during key rotation.
	VerifyKeys map[string][]byte
}

// StoreConfig defines a public type used by careauth APIs.
//
// StoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StoreConfig struct {
	OperationTimeout time.Duration
	RevocationPrefix string
}

// RateLimitConfig defines a public type used by careauth APIs.
//
// RateLimitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitConfig struct {
	Enabled           bool
	EnableIPThrottle  bool
	MaxIssuePerWindow int
	IssueWindow       time.Duration
	MaxVerifyAttempts int
}

// AuditConfig defines a public type used by careauth APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by careauth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig defines a public type used by careauth APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	ProductionMode bool
}

// ValidationMode defines a public type used by careauth APIs.
//
// ValidationMode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ValidationMode int

const (
	// ModeJWTOnly is an exported constant or variable used by the authentication engine.
	ModeJWTOnly ValidationMode = iota
	// ModeStrict is an exported constant or variable used by the authentication engine.
	ModeStrict
)

func (m ValidationMode) String() string {
	switch m {
	case ModeJWTOnly:
		return "jwt_only"
	case ModeStrict:
		return "strict"
	default:
		return "unknown"
	}
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. JWT.PrivateKey is left
// empty and must be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		OTP: OTPConfig{
			TTL:           300 * time.Second,
			HashAlgorithm: hashAlgorithmBcrypt,
			HashCost:      10,
			KeyPrefix:     "otp",
		},
		JWT: JWTConfig{
			TTL:           24 * time.Hour,
			SigningMethod: string(jwt.MethodHS256),
		},
		Store: StoreConfig{
			OperationTimeout: 2 * time.Second,
			RevocationPrefix: "revoked",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			EnableIPThrottle:  true,
			MaxIssuePerWindow: 5,
			IssueWindow:       15 * time.Minute,
			MaxVerifyAttempts: 5,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		ValidationMode: ModeJWTOnly,
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	if cfg.JWT.VerifyKeys != nil {
		out.JWT.VerifyKeys = make(map[string][]byte, len(cfg.JWT.VerifyKeys))
		for kid, key := range cfg.JWT.VerifyKeys {
			out.JWT.VerifyKeys[kid] = cloneBytes(key)
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// OTP
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}
	if c.OTP.KeyPrefix == "" {
		return errors.New("OTP KeyPrefix must not be empty")
	}
	switch c.OTP.HashAlgorithm {
	case hashAlgorithmBcrypt:
		if c.OTP.HashCost < 4 || c.OTP.HashCost > 31 {
			return errors.New("OTP HashCost must be between 4 and 31")
		}
	case hashAlgorithmArgon2id:
	default:
		return errors.New("OTP HashAlgorithm must be 'bcrypt' or 'argon2id'")
	}
	if c.OTP.DevBypassCode != "" && !internal.IsDigits(c.OTP.DevBypassCode, 6) {
		return errors.New("OTP DevBypassCode must be exactly 6 digits")
	}

	// JWT
	if c.JWT.TTL <= 0 {
		return errors.New("JWT TTL must be > 0")
	}
	switch jwt.SigningMethod(c.JWT.SigningMethod) {
	case jwt.MethodHS256:
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("hs256 requires PrivateKey")
		}
	case jwt.MethodEd25519:
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Store
	if c.Store.OperationTimeout <= 0 {
		return errors.New("Store OperationTimeout must be > 0")
	}
	if c.ValidationMode == ModeStrict && c.Store.RevocationPrefix == "" {
		return errors.New("Store RevocationPrefix must not be empty in strict mode")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxIssuePerWindow <= 0 {
			return errors.New("RateLimit MaxIssuePerWindow must be > 0")
		}
		if c.RateLimit.IssueWindow <= 0 {
			return errors.New("RateLimit IssueWindow must be > 0")
		}
		if c.RateLimit.MaxVerifyAttempts <= 0 {
			return errors.New("RateLimit MaxVerifyAttempts must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	switch c.ValidationMode {
	case ModeJWTOnly, ModeStrict:
		// valid
	default:
		return errors.New("invalid ValidationMode")
	}

	if c.Security.ProductionMode {
		if c.OTP.ExposeCode {
			return errors.New("ProductionMode forbids OTP ExposeCode")
		}
		if c.OTP.DevBypassCode != "" {
			return errors.New("ProductionMode forbids OTP DevBypassCode")
		}
		if !c.RateLimit.Enabled {
			return errors.New("ProductionMode requires RateLimit Enabled")
		}
		if c.OTP.TTL > 15*time.Minute {
			return errors.New("ProductionMode requires OTP TTL <= 15m")
		}
		if c.OTP.HashAlgorithm == hashAlgorithmBcrypt && c.OTP.HashCost < 10 {
			return errors.New("ProductionMode requires OTP HashCost >= 10")
		}
		if c.JWT.SigningMethod == string(jwt.MethodHS256) && len(c.JWT.PrivateKey) < 32 {
			return errors.New("ProductionMode requires hs256 key length >= 256 bits")
		}
	}

	return nil
}

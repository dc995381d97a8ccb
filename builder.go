package careauth

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	internalaudit "github.com/techcare/careauth/internal/audit"
	"github.com/techcare/careauth/internal/rate"
	"github.com/techcare/careauth/internal/stores"
	"github.com/techcare/careauth/jwt"
	"github.com/techcare/careauth/passcode"
	"github.com/techcare/careauth/permission"
)

// Builder defines a public type used by careauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	secretStore     SecretStore
	accountProvider AccountProvider
	otpSender       OTPSender
	auditSink       AuditSink
	clock           func() time.Time
	logger          logrus.FieldLogger

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing rate limits, the token denylist
// and, unless WithSecretStore is used, the OTP secret store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSecretStore overrides the OTP secret store.
func (b *Builder) WithSecretStore(store SecretStore) *Builder {
	b.secretStore = store
	return b
}

// WithAccountProvider describes the withaccountprovider operation and its observable behavior.
//
// WithAccountProvider may return an error when input validation, dependency calls, or security checks fail.
// WithAccountProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAccountProvider(provider AccountProvider) *Builder {
	b.accountProvider = provider
	return b
}

// WithOTPSender sets the collaborator that delivers issued codes.
func (b *Builder) WithOTPSender(sender OTPSender) *Builder {
	b.otpSender = sender
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock replaces time.Now for token timestamps, expiry checks and audit stamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithLogger sets the logger used for best-effort warnings. Defaults to the
// logrus standard logger.
func (b *Builder) WithLogger(logger logrus.FieldLogger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		if cfg.ValidationMode == ModeStrict {
			return nil, errors.New("Strict mode requires redis client")
		}
		if cfg.RateLimit.Enabled {
			return nil, errors.New("RateLimit requires redis client")
		}
		if b.secretStore == nil {
			return nil, errors.New("secret store or redis client required")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.accountProvider == nil {
		return nil, errors.New("account provider required")
	}

	now := b.clock
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	// -------- SECRET STORE --------
	store := b.secretStore
	if store == nil {
		store = stores.NewRedisSecretStore(b.redis)
	}

	// -------- HASHER --------
	hasher, err := newCodeHasher(cfg.OTP)
	if err != nil {
		return nil, err
	}

	// -------- TOKENS --------
	jm, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.JWT.TTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		KeyID:         cfg.JWT.KeyID,
		VerifyKeys:    cfg.JWT.VerifyKeys,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}

	// -------- AUTHORIZATION GATE --------
	gate := permission.NewGate()
	for op, role := range gatedOperations {
		if err := gate.Register(op, role); err != nil {
			return nil, err
		}
	}
	gate.Freeze()

	engine := &Engine{
		config:          cloneConfig(cfg),
		now:             now,
		secretStore:     store,
		hasher:          hasher,
		jwtManager:      jm,
		gate:            gate,
		accountProvider: b.accountProvider,
		otpSender:       b.otpSender,
		logger:          logger,
		metrics:         NewMetrics(cfg.Metrics),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}

	if b.redis != nil {
		if cfg.RateLimit.Enabled {
			engine.rateLimiter = rate.New(b.redis, rate.Config{
				EnableIPThrottle:  cfg.RateLimit.EnableIPThrottle,
				MaxIssuePerWindow: cfg.RateLimit.MaxIssuePerWindow,
				IssueWindow:       cfg.RateLimit.IssueWindow,
				MaxVerifyAttempts: cfg.RateLimit.MaxVerifyAttempts,
				VerifyWindow:      cfg.OTP.TTL,
			})
		}
		if cfg.ValidationMode == ModeStrict {
			engine.revocations = stores.NewRevocationStore(b.redis, cfg.Store.RevocationPrefix)
		}
	}

	engine.flows = engine.buildFlows()

	b.built = true

	return engine, nil
}

func newCodeHasher(cfg OTPConfig) (passcode.Hasher, error) {
	if cfg.HashAlgorithm == hashAlgorithmArgon2id {
		h, err := passcode.NewArgon2(passcode.DefaultArgon2Config())
		if err != nil {
			return nil, err
		}
		return h, nil
	}
	h, err := passcode.NewBcrypt(cfg.HashCost)
	if err != nil {
		return nil, err
	}
	return h, nil
}

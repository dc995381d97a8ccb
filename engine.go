package careauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/techcare/careauth/internal"
	internalaudit "github.com/techcare/careauth/internal/audit"
	internalflows "github.com/techcare/careauth/internal/flows"
	"github.com/techcare/careauth/internal/rate"
	"github.com/techcare/careauth/internal/stores"
	"github.com/techcare/careauth/jwt"
	"github.com/techcare/careauth/passcode"
	"github.com/techcare/careauth/permission"
)

// Engine defines a public type used by careauth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config          Config
	now             func() time.Time
	secretStore     SecretStore
	revocations     *stores.RevocationStore
	rateLimiter     *rate.Limiter
	hasher          passcode.Hasher
	jwtManager      *jwt.Manager
	gate            *permission.Gate
	accountProvider AccountProvider
	otpSender       OTPSender
	logger          logrus.FieldLogger
	audit           *internalaudit.Dispatcher
	metrics         *Metrics
	flows           internalflows.Service
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the engine's effective configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) otpKey(mobile string) string {
	return e.config.OTP.KeyPrefix + ":" + mobile
}

func (e *Engine) buildFlows() internalflows.Service {
	metricInc := func(id int) {
		e.metricInc(MetricID(id))
	}

	otpMetrics := internalflows.OTPMetrics{
		Issued:        int(MetricOTPIssued),
		IssueFailure:  int(MetricOTPIssueFailure),
		VerifySuccess: int(MetricOTPVerifySuccess),
		VerifyFailure: int(MetricOTPVerifyFailure),
		BypassUsed:    int(MetricOTPBypassUsed),
		RateLimited:   int(MetricRateLimitHit),
	}
	otpEvents := internalflows.OTPEvents{
		Issued:        auditEventOTPIssued,
		IssueFailure:  auditEventOTPIssueFailure,
		VerifySuccess: auditEventOTPVerifySuccess,
		VerifyFailure: auditEventOTPVerifyFailure,
		BypassUsed:    auditEventOTPBypassUsed,
	}
	otpErrors := internalflows.OTPErrors{
		EngineNotReady:  ErrEngineNotReady,
		Validation:      ErrValidation,
		RateLimited:     ErrOTPRateLimited,
		InvalidOTP:      ErrInvalidOTP,
		AccountNotFound: ErrAccountNotFound,
		Unavailable:     ErrUnavailable,
	}
	otpSentinels := internalflows.OTPSentinels{
		SecretNotFound: stores.ErrSecretNotFound,
		RateLimited:    rate.ErrRateLimited,
		AccountMissing: ErrAccountNotFound,
	}

	issue := internalflows.IssueOTPDeps{
		TTL:                 e.config.OTP.TTL,
		StoreTimeout:        e.config.Store.OperationTimeout,
		ExposeCode:          e.config.OTP.ExposeCode,
		ValidMobile:         ValidMobile,
		ClientIPFromContext: ClientIPFromContext,
		GenerateCode:        internal.NewOTPCode,
		HashCode:            e.hasher.Hash,
		SecretKey:           e.otpKey,
		Store:               e.secretStore,
		MetricInc:           metricInc,
		EmitAudit:           e.emitAudit,
		EmitRateLimit:       e.emitRateLimit,
		Metrics:             otpMetrics,
		Events:              otpEvents,
		Errors:              otpErrors,
		Sentinels:           otpSentinels,
	}
	if e.otpSender != nil {
		issue.Send = e.otpSender.SendOTP
	}

	verify := internalflows.VerifyOTPDeps{
		StoreTimeout:      e.config.Store.OperationTimeout,
		BypassCode:        e.config.OTP.DevBypassCode,
		ValidMobile:       ValidMobile,
		ValidCode:         ValidOTPCode,
		LoadAccount:       e.loadAccountForOTP,
		ValidateAccount:   validateAccountRecord,
		SecretKey:         e.otpKey,
		Store:             e.secretStore,
		CompareCode:       passcode.Verify,
		ConstantTimeEqual: constantTimeEqual,
		Warn:              e.logger.Warnf,
		MetricInc:         metricInc,
		EmitAudit:         e.emitAudit,
		EmitRateLimit:     e.emitRateLimit,
		Metrics:           otpMetrics,
		Events:            otpEvents,
		Errors:            otpErrors,
		Sentinels:         otpSentinels,
	}

	if e.rateLimiter != nil {
		issue.CheckIssueRate = e.rateLimiter.CheckIssue
		verify.ConsumeVerifyAttempt = e.rateLimiter.ConsumeVerify
		verify.ResetVerifyRate = e.rateLimiter.ResetVerify
	}

	validate := internalflows.ValidateDeps{
		Strict:       e.config.ValidationMode == ModeStrict,
		StoreTimeout: e.config.Store.OperationTimeout,
		ParseToken:   e.jwtManager.Parse,
		ValidRole: func(role string) bool {
			return Role(role).Valid()
		},
		RequireProviderID: func(role string) bool {
			return Role(role).RequiresProviderID()
		},
	}
	var revoke func(context.Context, string, time.Duration) error
	if e.revocations != nil {
		validate.IsRevoked = e.revocations.IsRevoked
		revoke = e.revocations.Revoke
	}

	return internalflows.New(internalflows.Deps{
		IssueOTP:  issue,
		VerifyOTP: verify,
		Validate:  validate,
		Logout: internalflows.LogoutDeps{
			Strict:       validate.Strict,
			StoreTimeout: e.config.Store.OperationTimeout,
			Now:          e.now,
			Validate:     validate,
			Revoke:       revoke,
		},
	})
}

func (e *Engine) loadAccountForOTP(ctx context.Context, mobile string) (internalflows.OTPAccountRecord, error) {
	account, err := e.accountProvider.FindByMobile(ctx, mobile)
	if err != nil {
		return internalflows.OTPAccountRecord{}, err
	}
	return toFlowAccount(account), nil
}

func validateAccountRecord(record internalflows.OTPAccountRecord) error {
	if record.AccountID == "" {
		return fmt.Errorf("%w: empty account id", ErrAccountInvalid)
	}
	role := Role(record.Role)
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrAccountInvalid, record.Role)
	}
	if role.RequiresProviderID() && record.ProviderID == "" {
		return fmt.Errorf("%w: provider account without provider id", ErrAccountInvalid)
	}
	return nil
}

func toFlowAccount(a Account) internalflows.OTPAccountRecord {
	return internalflows.OTPAccountRecord{
		AccountID:  a.ID,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Email:      a.Email,
		Mobile:     a.Mobile,
		Role:       string(a.Role),
		ProviderID: a.ProviderID,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func fromFlowAccount(r internalflows.OTPAccountRecord) Account {
	return Account{
		ID:         r.AccountID,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Mobile:     r.Mobile,
		Role:       Role(r.Role),
		ProviderID: r.ProviderID,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ValidMobile reports whether mobile is exactly ten ASCII digits.
func ValidMobile(mobile string) bool {
	return internal.IsDigits(mobile, 10)
}

// ValidOTPCode reports whether code is exactly six ASCII digits.
func ValidOTPCode(code string) bool {
	return internal.IsDigits(code, 6)
}

func unavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

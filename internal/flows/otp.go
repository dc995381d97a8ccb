package flows

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// OTPMetrics carries metric IDs used by the OTP flows.
type OTPMetrics struct {
	Issued        int
	IssueFailure  int
	VerifySuccess int
	VerifyFailure int
	BypassUsed    int
	RateLimited   int
}

// OTPEvents carries audit event names used by the OTP flows.
type OTPEvents struct {
	Issued        string
	IssueFailure  string
	VerifySuccess string
	VerifyFailure string
	BypassUsed    string
}

// OTPErrors carries host-level sentinel errors returned by the OTP flows.
type OTPErrors struct {
	EngineNotReady  error
	Validation      error
	RateLimited     error
	InvalidOTP      error
	AccountNotFound error
	Unavailable     error
}

// OTPSentinels carries dependency-side errors the flows classify.
type OTPSentinels struct {
	SecretNotFound error
	RateLimited    error
	AccountMissing error
}

// IssueOTPDeps captures OTP issuance dependencies.
type IssueOTPDeps struct {
	TTL          time.Duration
	StoreTimeout time.Duration
	ExposeCode   bool

	ValidMobile         func(string) bool
	ClientIPFromContext func(context.Context) string
	CheckIssueRate      func(context.Context, string, string) error
	GenerateCode        func() (string, error)
	HashCode            func(string) (string, error)
	SecretKey           func(string) string
	Store               SecretStore
	Send                func(context.Context, string, string) error

	MetricInc     func(int)
	EmitAudit     AuditFunc
	EmitRateLimit RateLimitFunc

	Metrics   OTPMetrics
	Events    OTPEvents
	Errors    OTPErrors
	Sentinels OTPSentinels
}

// IssueOTPResult is the flow-local issuance response shape.
type IssueOTPResult struct {
	Mobile    string
	Code      string
	ExpiresIn time.Duration
}

// RunIssueOTP validates the mobile number, applies issuance throttling, and
// stores a freshly hashed code under the mobile's secret key, replacing any
// previous code.
func RunIssueOTP(ctx context.Context, mobile string, deps IssueOTPDeps) (*IssueOTPResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.EmitRateLimit == nil {
		deps.EmitRateLimit = noopRateLimit
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.ValidMobile == nil ||
		deps.GenerateCode == nil ||
		deps.HashCode == nil ||
		deps.SecretKey == nil ||
		deps.Store == nil {
		return nil, deps.Errors.EngineNotReady
	}

	fail := func(err error, reason string) (*IssueOTPResult, error) {
		deps.MetricInc(deps.Metrics.IssueFailure)
		deps.EmitAudit(ctx, deps.Events.IssueFailure, false, "", mobile, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, err
	}

	if !deps.ValidMobile(mobile) {
		return fail(fmt.Errorf("%w: mobile must be exactly 10 digits", deps.Errors.Validation), "invalid_mobile")
	}

	if deps.CheckIssueRate != nil {
		if err := deps.CheckIssueRate(ctx, mobile, deps.ClientIPFromContext(ctx)); err != nil {
			if deps.Sentinels.RateLimited != nil && errors.Is(err, deps.Sentinels.RateLimited) {
				deps.MetricInc(deps.Metrics.RateLimited)
				deps.EmitRateLimit(ctx, "otp_issue", mobile)
				return fail(deps.Errors.RateLimited, "rate_limited")
			}
			return fail(fmt.Errorf("%w: %v", deps.Errors.Unavailable, err), "limiter_unavailable")
		}
	}

	code, err := deps.GenerateCode()
	if err != nil {
		return fail(fmt.Errorf("%w: %v", deps.Errors.Unavailable, err), "code_generation")
	}
	hash, err := deps.HashCode(code)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", deps.Errors.Unavailable, err), "hash")
	}

	storeCtx, cancel := withTimeout(ctx, deps.StoreTimeout)
	err = deps.Store.Put(storeCtx, deps.SecretKey(mobile), hash, deps.TTL)
	cancel()
	if err != nil {
		return fail(fmt.Errorf("%w: %v", deps.Errors.Unavailable, err), "store_put")
	}

	if deps.Send != nil {
		if err := deps.Send(ctx, mobile, code); err != nil {
			delCtx, cancel := withTimeout(ctx, deps.StoreTimeout)
			_, _ = deps.Store.Delete(delCtx, deps.SecretKey(mobile))
			cancel()
			return fail(fmt.Errorf("%w: %v", deps.Errors.Unavailable, err), "delivery")
		}
	}

	deps.MetricInc(deps.Metrics.Issued)
	deps.EmitAudit(ctx, deps.Events.Issued, true, "", mobile, nil, nil)

	res := &IssueOTPResult{Mobile: mobile, ExpiresIn: deps.TTL}
	if deps.ExposeCode {
		res.Code = code
	}
	return res, nil
}

// OTPAccountRecord is a flow-local account model used by verification.
type OTPAccountRecord struct {
	AccountID  string
	FirstName  string
	LastName   string
	Email      string
	Mobile     string
	Role       string
	ProviderID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// VerifyOTPDeps captures OTP verification dependencies.
type VerifyOTPDeps struct {
	StoreTimeout time.Duration
	BypassCode   string

	ValidMobile          func(string) bool
	ValidCode            func(string) bool
	ConsumeVerifyAttempt func(context.Context, string) error
	ResetVerifyRate      func(context.Context, string) error
	LoadAccount          func(context.Context, string) (OTPAccountRecord, error)
	ValidateAccount      func(OTPAccountRecord) error
	SecretKey            func(string) string
	Store                SecretStore
	CompareCode          func(code, hash string) (bool, error)
	ConstantTimeEqual    func(a, b string) bool
	Warn                 func(string, ...any)

	MetricInc     func(int)
	EmitAudit     AuditFunc
	EmitRateLimit RateLimitFunc

	Metrics   OTPMetrics
	Events    OTPEvents
	Errors    OTPErrors
	Sentinels OTPSentinels
}

// VerifyOTPResult is the flow-local verification response shape.
type VerifyOTPResult struct {
	Account OTPAccountRecord
	Bypass  bool
}

// RunVerifyOTP checks code against the stored secret for mobile and consumes
// it. A missing secret fails closed. An attempt is spent before the compare
// runs. On the hash path the secret is only deleted while it still holds the
// compared hash, so concurrent verifiers of the same code cannot both succeed
// and a code re-issued mid-verify is never destroyed.
func RunVerifyOTP(ctx context.Context, mobile, code string, deps VerifyOTPDeps) (*VerifyOTPResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.EmitRateLimit == nil {
		deps.EmitRateLimit = noopRateLimit
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.ValidMobile == nil ||
		deps.ValidCode == nil ||
		deps.LoadAccount == nil ||
		deps.SecretKey == nil ||
		deps.Store == nil ||
		deps.CompareCode == nil ||
		deps.ConstantTimeEqual == nil {
		return nil, deps.Errors.EngineNotReady
	}

	var accountID string
	fail := func(err error, reason string) (*VerifyOTPResult, error) {
		deps.MetricInc(deps.Metrics.VerifyFailure)
		deps.EmitAudit(ctx, deps.Events.VerifyFailure, false, accountID, mobile, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, err
	}
	if !deps.ValidMobile(mobile) {
		return fail(fmt.Errorf("%w: mobile must be exactly 10 digits", deps.Errors.Validation), "invalid_mobile")
	}
	if !deps.ValidCode(code) {
		return fail(fmt.Errorf("%w: otp must be exactly 6 digits", deps.Errors.Validation), "invalid_code_format")
	}

	if deps.ConsumeVerifyAttempt != nil {
		if err := deps.ConsumeVerifyAttempt(ctx, mobile); err != nil {
			if deps.Sentinels.RateLimited != nil && errors.Is(err, deps.Sentinels.RateLimited) {
				deps.MetricInc(deps.Metrics.RateLimited)
				deps.EmitRateLimit(ctx, "otp_verify", mobile)
				return fail(deps.Errors.RateLimited, "rate_limited")
			}
			return fail(fmt.Errorf("%w: %v", deps.Errors.Unavailable, err), "limiter_unavailable")
		}
	}

	account, err := deps.LoadAccount(ctx, mobile)
	if err != nil {
		if deps.Sentinels.AccountMissing != nil && errors.Is(err, deps.Sentinels.AccountMissing) {
			return fail(deps.Errors.AccountNotFound, "account_not_found")
		}
		return fail(fmt.Errorf("%w: %v", deps.Errors.Unavailable, err), "account_lookup")
	}
	accountID = account.AccountID

	if deps.ValidateAccount != nil {
		if err := deps.ValidateAccount(account); err != nil {
			return fail(err, "account_invalid")
		}
	}

	key := deps.SecretKey(mobile)
	bypass := deps.BypassCode != "" && deps.ConstantTimeEqual(code, deps.BypassCode)

	if bypass {
		delCtx, cancel := withTimeout(ctx, deps.StoreTimeout)
		_, err := deps.Store.Delete(delCtx, key)
		cancel()
		if err != nil {
			return fail(fmt.Errorf("%w: %v", deps.Errors.Unavailable, err), "store_delete")
		}
		deps.MetricInc(deps.Metrics.BypassUsed)
		deps.EmitAudit(ctx, deps.Events.BypassUsed, true, accountID, mobile, nil, nil)
	} else {
		getCtx, cancel := withTimeout(ctx, deps.StoreTimeout)
		hash, err := deps.Store.Get(getCtx, key)
		cancel()
		if err != nil {
			if deps.Sentinels.SecretNotFound != nil && errors.Is(err, deps.Sentinels.SecretNotFound) {
				return fail(deps.Errors.InvalidOTP, "no_live_code")
			}
			return fail(fmt.Errorf("%w: %v", deps.Errors.Unavailable, err), "store_get")
		}

		ok, err := deps.CompareCode(code, hash)
		if err != nil {
			return fail(fmt.Errorf("%w: %v", deps.Errors.Unavailable, err), "compare")
		}
		if !ok {
			return fail(deps.Errors.InvalidOTP, "mismatch")
		}

		delCtx, cancel := withTimeout(ctx, deps.StoreTimeout)
		removed, err := deps.Store.DeleteIfEqual(delCtx, key, hash)
		cancel()
		if err != nil {
			return fail(fmt.Errorf("%w: %v", deps.Errors.Unavailable, err), "store_delete")
		}
		if !removed {
			return fail(deps.Errors.InvalidOTP, "already_consumed")
		}
	}

	if deps.ResetVerifyRate != nil {
		if err := deps.ResetVerifyRate(ctx, mobile); err != nil {
			deps.Warn("careauth: verify failure counter not reset: %v", err)
		}
	}

	deps.MetricInc(deps.Metrics.VerifySuccess)
	deps.EmitAudit(ctx, deps.Events.VerifySuccess, true, accountID, mobile, nil, func() map[string]string {
		if bypass {
			return map[string]string{"method": "bypass"}
		}
		return map[string]string{"method": "otp"}
	})

	return &VerifyOTPResult{Account: account, Bypass: bypass}, nil
}

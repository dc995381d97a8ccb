package flows

import (
	"context"
	"time"
)

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	IssueOTP  IssueOTPDeps
	VerifyOTP VerifyOTPDeps
	Validate  ValidateDeps
	Logout    LogoutDeps
}

// SecretStore is the flow-local view of the ephemeral secret store.
type SecretStore interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) (bool, error)
	DeleteIfEqual(ctx context.Context, key, value string) (bool, error)
}

// AuditFunc emits one audit event. meta is only invoked when the event is kept.
type AuditFunc func(ctx context.Context, event string, success bool, accountID, mobile string, err error, meta func() map[string]string)

// RateLimitFunc records a rate-limit trip for the given scope.
type RateLimitFunc func(ctx context.Context, scope, mobile string)

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func noopAudit(context.Context, string, bool, string, string, error, func() map[string]string) {}

func noopRateLimit(context.Context, string, string) {}

func noopMetric(int) {}

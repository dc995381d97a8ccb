package flows

import (
	"context"
	"time"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Strict       bool
	StoreTimeout time.Duration
	Now          func() time.Time

	Validate ValidateDeps
	Revoke   func(ctx context.Context, tokenID string, ttl time.Duration) error
}

// LogoutResult reports the validation outcome and whether a denylist entry was written.
type LogoutResult struct {
	ValidateResult
	Revoked bool
}

// RunLogout validates tokenStr and, in strict mode, denylists its jti for the
// token's remaining lifetime. In JWT-only mode nothing is written.
func RunLogout(ctx context.Context, tokenStr string, deps LogoutDeps) LogoutResult {
	res := RunValidate(ctx, tokenStr, deps.Validate)
	if res.Failure != ValidateFailureNone {
		return LogoutResult{ValidateResult: res}
	}
	if !deps.Strict || deps.Revoke == nil {
		return LogoutResult{ValidateResult: res}
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	ttl := res.Claims.ExpiresAt.Time.Sub(now())

	revokeCtx, cancel := withTimeout(ctx, deps.StoreTimeout)
	err := deps.Revoke(revokeCtx, res.Claims.ID, ttl)
	cancel()
	if err != nil {
		return LogoutResult{ValidateResult: ValidateResult{Failure: ValidateFailureUnavailable, Err: err, Claims: res.Claims}}
	}
	return LogoutResult{ValidateResult: res, Revoked: ttl > 0}
}

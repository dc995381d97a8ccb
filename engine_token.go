package careauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/techcare/careauth/internal"
	internalflows "github.com/techcare/careauth/internal/flows"
	"github.com/techcare/careauth/jwt"
)

// IssueToken signs a session token carrying identity. The token ID is random
// and the expiry is Config.JWT.TTL from the engine clock.
//
// IssueToken may return an error when input validation, dependency calls, or security checks fail.
// IssueToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) IssueToken(identity Identity) (*IssuedToken, error) {
	return e.issueToken(context.Background(), identity)
}

func (e *Engine) issueToken(ctx context.Context, identity Identity) (*IssuedToken, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	tokenID, err := internal.NewTokenID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	signed, claims, err := e.jwtManager.Issue(jwt.Subject{
		ID:         identity.AccountID,
		Email:      identity.Email,
		Name:       identity.Name,
		Role:       string(identity.Role),
		ProviderID: identity.ProviderID,
		Mobile:     identity.Mobile,
	}, tokenID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricTokenIssued)
	e.emitTokenAudit(ctx, auditEventTokenIssued, true, identity.AccountID, identity.Mobile, claims.ID, nil, nil)

	return &IssuedToken{
		Token:     signed,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Validate verifies a raw session token and returns the identity it carries.
// A correctly signed token past its expiry yields ErrTokenExpired; every other
// verification failure yields ErrTokenInvalid. In ModeStrict a denylisted
// token yields ErrTokenRevoked.
//
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Validate(ctx context.Context, tokenStr string) (*AuthResult, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}
	defer e.observeValidate(e.now())

	return e.authResult(ctx, e.flows.Validate(ctx, tokenStr))
}

// ValidateHeader parses an Authorization header of the exact form
// "Bearer <token>" and validates the token.
//
// ValidateHeader does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ValidateHeader(ctx context.Context, header string) (*AuthResult, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}
	defer e.observeValidate(e.now())

	return e.authResult(ctx, e.flows.ValidateHeader(ctx, header))
}

// Logout validates tokenStr and, in ModeStrict, denylists its token ID until
// the token would have expired. In ModeJWTOnly the token stays valid until
// expiry.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) Logout(ctx context.Context, tokenStr string) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}

	res := e.flows.Logout(ctx, tokenStr)
	result, err := e.authResult(ctx, res.ValidateResult)
	if err != nil {
		return err
	}

	e.metricInc(MetricLogout)
	if res.Revoked {
		e.emitTokenAudit(ctx, auditEventTokenRevoked, true, result.Identity.AccountID, result.Identity.Mobile, result.TokenID, nil, nil)
	}
	return nil
}

func (e *Engine) observeValidate(start time.Time) {
	if e.metrics == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(MetricValidateLatency, e.now().Sub(start))
}

func (e *Engine) authResult(ctx context.Context, res internalflows.ValidateResult) (*AuthResult, error) {
	switch res.Failure {
	case internalflows.ValidateFailureNone:
	case internalflows.ValidateFailureMissing:
		return nil, ErrTokenMissing
	case internalflows.ValidateFailureMalformed:
		return nil, ErrTokenMalformed
	case internalflows.ValidateFailureExpired:
		e.metricInc(MetricTokenExpired)
		return nil, ErrTokenExpired
	case internalflows.ValidateFailureRevoked:
		e.metricInc(MetricTokenRevoked)
		e.emitTokenAudit(ctx, auditEventTokenRejected, false, "", "", "", ErrTokenRevoked, nil)
		return nil, ErrTokenRevoked
	case internalflows.ValidateFailureUnavailable:
		if res.Err == nil {
			return nil, ErrUnavailable
		}
		return nil, unavailable(res.Err)
	default:
		e.metricInc(MetricTokenInvalid)
		e.emitTokenAudit(ctx, auditEventTokenRejected, false, "", "", "", ErrTokenInvalid, func() map[string]string {
			if res.Err == nil {
				return nil
			}
			return map[string]string{"reason": rejectReason(res.Err)}
		})
		return nil, ErrTokenInvalid
	}

	claims := res.Claims
	if claims == nil {
		return nil, ErrTokenInvalid
	}

	result := &AuthResult{
		Identity: Identity{
			AccountID:  claims.Subject,
			Email:      claims.Email,
			Name:       claims.Name,
			Role:       Role(claims.Role),
			ProviderID: claims.ProviderID,
			Mobile:     claims.Mobile,
		},
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenInvalid):
		return "verification"
	default:
		return "claims"
	}
}

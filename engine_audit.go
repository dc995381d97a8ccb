package careauth

import (
	"context"
	"errors"
)

const (
	auditEventOTPIssued           = "otp_issued"
	auditEventOTPIssueFailure     = "otp_issue_failure"
	auditEventOTPVerifySuccess    = "otp_verify_success"
	auditEventOTPVerifyFailure    = "otp_verify_failure"
	auditEventOTPBypassUsed       = "otp_bypass_used"
	auditEventRateLimitTriggered  = "rate_limit_triggered"
	auditEventTokenIssued         = "token_issued"
	auditEventTokenRejected       = "token_rejected"
	auditEventTokenRevoked        = "token_revoked"
	auditEventAuthorizationDenied = "authorization_denied"
)

// AuditErrorCode defines a public type used by careauth APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrValidation      AuditErrorCode = "validation"
	auditErrInvalidOTP      AuditErrorCode = "invalid_otp"
	auditErrRateLimited     AuditErrorCode = "rate_limited"
	auditErrAccountNotFound AuditErrorCode = "account_not_found"
	auditErrAccountInvalid  AuditErrorCode = "account_invalid"
	auditErrTokenMissing    AuditErrorCode = "token_missing"
	auditErrTokenMalformed  AuditErrorCode = "token_malformed"
	auditErrTokenExpired    AuditErrorCode = "token_expired"
	auditErrInvalidToken    AuditErrorCode = "invalid_token"
	auditErrTokenRevoked    AuditErrorCode = "token_revoked"
	auditErrForbidden       AuditErrorCode = "forbidden"
	auditErrUnavailable     AuditErrorCode = "backend_unavailable"
	auditErrInternal        AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	mobile string,
	err error,
	metadataBuilder func() map[string]string,
) {
	e.emitTokenAudit(ctx, eventType, success, accountID, mobile, "", err, metadataBuilder)
}

func (e *Engine) emitTokenAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	mobile string,
	tokenID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		Mobile:    mobile,
		TokenID:   tokenID,
		IP:        ClientIPFromContext(ctx),
		RequestID: RequestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

// emitRateLimit records a limiter trip. MetricRateLimitHit is counted by the
// calling flow.
func (e *Engine) emitRateLimit(ctx context.Context, scope, mobile string) {
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, "", mobile, nil, func() map[string]string {
		return map[string]string{
			"scope": scope,
		}
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrInvalidOTP):
		return auditErrInvalidOTP
	case errors.Is(err, ErrOTPRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrProviderNotFound):
		return auditErrAccountNotFound
	case errors.Is(err, ErrAccountInvalid):
		return auditErrAccountInvalid
	case errors.Is(err, ErrTokenMissing):
		return auditErrTokenMissing
	case errors.Is(err, ErrTokenMalformed):
		return auditErrTokenMalformed
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrTokenRevoked):
		return auditErrTokenRevoked
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, ErrEngineNotReady):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}

package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/techcare/careauth/jwt"
)

// ValidateFailureKind classifies validation failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureMissing
	ValidateFailureMalformed
	ValidateFailureExpired
	ValidateFailureInvalid
	ValidateFailureRevoked
	ValidateFailureUnavailable
)

// ValidateResult returns either the verified claims or a classified failure.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  *jwt.Claims
}

// ValidateDeps captures token verification dependencies.
type ValidateDeps struct {
	Strict       bool
	StoreTimeout time.Duration

	ParseToken        func(string) (*jwt.Claims, error)
	ValidRole         func(string) bool
	RequireProviderID func(string) bool
	IsRevoked         func(context.Context, string) (bool, error)
}

const bearerScheme = "Bearer"

// ParseBearer extracts the token from an Authorization header value. Only the
// exact form "Bearer <token>" is accepted.
func ParseBearer(header string) (string, ValidateFailureKind) {
	if header == "" {
		return "", ValidateFailureMissing
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != bearerScheme || parts[1] == "" {
		return "", ValidateFailureMalformed
	}
	return parts[1], ValidateFailureNone
}

// RunValidateHeader executes ParseBearer and RunValidate.
func RunValidateHeader(ctx context.Context, header string, deps ValidateDeps) ValidateResult {
	token, failure := ParseBearer(header)
	if failure != ValidateFailureNone {
		return ValidateResult{Failure: failure}
	}
	return RunValidate(ctx, token, deps)
}

// RunValidate verifies tokenStr and, in strict mode, consults the denylist.
// Expiry is reported only for tokens whose signature verified.
func RunValidate(ctx context.Context, tokenStr string, deps ValidateDeps) ValidateResult {
	if tokenStr == "" {
		return ValidateResult{Failure: ValidateFailureMissing}
	}
	if deps.ParseToken == nil {
		return ValidateResult{Failure: ValidateFailureUnavailable}
	}

	claims, err := deps.ParseToken(tokenStr)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ValidateResult{Failure: ValidateFailureExpired, Err: err}
		}
		return ValidateResult{Failure: ValidateFailureInvalid, Err: err}
	}

	if deps.ValidRole != nil && !deps.ValidRole(claims.Role) {
		return ValidateResult{Failure: ValidateFailureInvalid, Err: errors.New("unknown role claim")}
	}
	if deps.RequireProviderID != nil && deps.RequireProviderID(claims.Role) && claims.ProviderID == "" {
		return ValidateResult{Failure: ValidateFailureInvalid, Err: errors.New("provider token without provider id")}
	}

	if deps.Strict {
		if deps.IsRevoked == nil {
			return ValidateResult{Failure: ValidateFailureUnavailable}
		}
		checkCtx, cancel := withTimeout(ctx, deps.StoreTimeout)
		revoked, err := deps.IsRevoked(checkCtx, claims.ID)
		cancel()
		if err != nil {
			return ValidateResult{Failure: ValidateFailureUnavailable, Err: err}
		}
		if revoked {
			return ValidateResult{Failure: ValidateFailureRevoked}
		}
	}

	return ValidateResult{Claims: claims}
}

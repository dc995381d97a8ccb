package careauth

import (
	"errors"

	"github.com/techcare/careauth/permission"
)

var (
	// ErrValidation is an exported constant or variable used by the authentication engine.
	ErrValidation = errors.New("validation failed")
	// ErrAccountNotFound is an exported constant or variable used by the authentication engine.
	ErrAccountNotFound = errors.New("account not found")
	// ErrProviderNotFound is an exported constant or variable used by the authentication engine.
	ErrProviderNotFound = errors.New("care provider not found")
	// ErrDependentNotFound is an exported constant or variable used by the authentication engine.
	ErrDependentNotFound = errors.New("dependent user not found")
	// ErrInvalidOTP is an exported constant or variable used by the authentication engine.
	ErrInvalidOTP = errors.New("invalid or expired otp")
	// ErrOTPRateLimited is an exported constant or variable used by the authentication engine.
	ErrOTPRateLimited = errors.New("otp rate limited")
	// ErrAccountInvalid is an exported constant or variable used by the authentication engine.
	ErrAccountInvalid = errors.New("account record violates identity invariants")
	// ErrTokenMissing is an exported constant or variable used by the authentication engine.
	ErrTokenMissing = errors.New("token missing")
	// ErrTokenMalformed is an exported constant or variable used by the authentication engine.
	ErrTokenMalformed = errors.New("token format invalid")
	// ErrTokenExpired is an exported constant or variable used by the authentication engine.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is an exported constant or variable used by the authentication engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenRevoked is an exported constant or variable used by the authentication engine.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrForbidden is the gate's denial error, shared with the permission package.
	ErrForbidden = permission.ErrForbidden
	// ErrUnavailable is an exported constant or variable used by the authentication engine.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrConflict is an exported constant or variable used by the authentication engine.
	ErrConflict = errors.New("resource already exists")
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

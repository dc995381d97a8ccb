package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/techcare/careauth"
)

type authResultContextKey struct{}

// Failure messages written for each token failure kind.
const (
	MessageTokenMissing   = "Unauthorized, Token Required!"
	MessageTokenMalformed = "Token format is invalid. Must be 'Bearer [token]'"
	MessageTokenExpired   = "Token expired"
	MessageTokenInvalid   = "Failed to authenticate token, Invalid token"
	MessageTokenRevoked   = "Token has been revoked"
	MessageForbidden      = "Forbidden: insufficient permissions"
	MessageInternal       = "Internal Server Error"
)

// AuthResultFromContext returns the validation result stored by Guard.
func AuthResultFromContext(ctx context.Context) (*careauth.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*careauth.AuthResult)
	return res, ok && res != nil
}

// WithAuthResult stores res in ctx the way Guard does.
func WithAuthResult(ctx context.Context, res *careauth.AuthResult) context.Context {
	return context.WithValue(ctx, authResultContextKey{}, res)
}

// Guard validates the Authorization header with engine and passes the request
// on with the AuthResult attached. Failures are answered with 401 and a
// kind-specific message, or 500 when the token backend is unavailable.
func Guard(engine *careauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeMessage(w, http.StatusInternalServerError, MessageInternal)
				return
			}

			res, err := engine.ValidateHeader(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				status, msg := TokenFailure(err)
				writeMessage(w, status, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthResult(r.Context(), res)))
		})
	}
}

// TokenFailure maps a validation error to the status and message Guard writes.
func TokenFailure(err error) (int, string) {
	switch {
	case errors.Is(err, careauth.ErrTokenMissing):
		return http.StatusUnauthorized, MessageTokenMissing
	case errors.Is(err, careauth.ErrTokenMalformed):
		return http.StatusUnauthorized, MessageTokenMalformed
	case errors.Is(err, careauth.ErrTokenExpired):
		return http.StatusUnauthorized, MessageTokenExpired
	case errors.Is(err, careauth.ErrTokenRevoked):
		return http.StatusUnauthorized, MessageTokenRevoked
	case errors.Is(err, careauth.ErrTokenInvalid):
		return http.StatusUnauthorized, MessageTokenInvalid
	default:
		return http.StatusInternalServerError, MessageInternal
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

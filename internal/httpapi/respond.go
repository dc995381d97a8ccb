package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/techcare/careauth"
	"github.com/techcare/careauth/middleware"
)

const (
	messageInternal         = middleware.MessageInternal
	messageTooManyRequests  = "Too many requests, please try again later."
	messageInvalidOTP       = "Invalid or expired OTP"
	messageUserNotFound     = "User not found"
	messageProviderNotFound = "Care provider not found"
	messageDependentMissing = "Dependent user not found."
	messageBodyTooLarge     = "Request body too large"
	messageInvalidBody      = "Request body must be a single JSON object"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// decodeBody reads exactly one JSON value into dst. Failures are returned as
// ErrValidation with a client-facing detail.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: %s", careauth.ErrValidation, messageBodyTooLarge)
		}
		return fmt.Errorf("%w: %s", careauth.ErrValidation, messageInvalidBody)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s", careauth.ErrValidation, messageInvalidBody)
	}
	return nil
}

// statusFor maps a service error to its HTTP status and client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, careauth.ErrValidation):
		return http.StatusBadRequest, detail(err, careauth.ErrValidation)
	case errors.Is(err, careauth.ErrInvalidOTP):
		return http.StatusUnauthorized, messageInvalidOTP
	case errors.Is(err, careauth.ErrOTPRateLimited):
		return http.StatusTooManyRequests, messageTooManyRequests
	case errors.Is(err, careauth.ErrProviderNotFound):
		return http.StatusNotFound, messageProviderNotFound
	case errors.Is(err, careauth.ErrDependentNotFound):
		return http.StatusNotFound, messageDependentMissing
	case errors.Is(err, careauth.ErrAccountNotFound):
		return http.StatusNotFound, messageUserNotFound
	case errors.Is(err, careauth.ErrForbidden):
		return http.StatusForbidden, middleware.MessageForbidden
	case errors.Is(err, careauth.ErrConflict):
		return http.StatusConflict, detail(err, careauth.ErrConflict)
	case errors.Is(err, careauth.ErrTokenMissing),
		errors.Is(err, careauth.ErrTokenMalformed),
		errors.Is(err, careauth.ErrTokenExpired),
		errors.Is(err, careauth.ErrTokenInvalid),
		errors.Is(err, careauth.ErrTokenRevoked):
		return middleware.TokenFailure(err)
	default:
		return http.StatusInternalServerError, messageInternal
	}
}

// detail strips the sentinel prefix from err's message.
func detail(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error())
	msg = strings.TrimSpace(strings.TrimPrefix(msg, ":"))
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}

func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.WithFields(logrus.Fields{
			"request_id": careauth.RequestIDFromContext(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).WithError(err).Error("request failed")
	}
	writeMessage(w, status, msg)
}

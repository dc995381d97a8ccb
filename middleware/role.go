package middleware

import (
	"errors"
	"net/http"

	"github.com/techcare/careauth"
)

// RequireRole rejects requests whose authenticated role differs from role.
// It must run after Guard; a request without an AuthResult is answered 401.
func RequireRole(engine *careauth.Engine, role careauth.Role) func(http.Handler) http.Handler {
	return authorizeWith(func(identity careauth.Identity) error {
		return engine.Authorize(identity, role, "")
	})
}

// RequireOperation applies the role the engine registered for operation.
// Ownership is left to the handler, which knows the record's owner.
func RequireOperation(engine *careauth.Engine, operation string) func(http.Handler) http.Handler {
	return authorizeWith(func(identity careauth.Identity) error {
		return engine.AuthorizeOperation(identity, operation, "")
	})
}

func authorizeWith(check func(careauth.Identity) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := AuthResultFromContext(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, MessageTokenMissing)
				return
			}
			if err := check(res.Identity); err != nil {
				if errors.Is(err, careauth.ErrForbidden) {
					writeMessage(w, http.StatusForbidden, MessageForbidden)
					return
				}
				writeMessage(w, http.StatusInternalServerError, MessageInternal)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

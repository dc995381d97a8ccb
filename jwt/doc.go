// Package jwt issues and verifies the signed session tokens that carry an
// authenticated identity between requests.
//
// Tokens are verified on every request without storage lookups. Parse always
// checks the signature before looking at claims, and classifies failures as
// either [ErrTokenExpired] or [ErrTokenInvalid].
package jwt

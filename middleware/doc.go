// Package middleware exposes HTTP middleware adapters that authenticate
// bearer tokens and gate routes by role, built on top of careauth.Engine.
//
// # Guards
//
//   - [Guard] — validates the Authorization header and stores the result in the request context.
//   - [RequireRole] — rejects authenticated callers whose role differs from the required one.
//   - [RequireOperation] — applies the engine's registered role for a named operation.
//
// Each guard answers failures with a JSON body of the form {"message": "..."}.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT implement
// authentication logic itself; all decisions are delegated to Engine.ValidateHeader
// and Engine.AuthorizeOperation.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make ownership decisions (handlers call Engine.Authorize with the record owner).
package middleware

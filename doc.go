// Package careauth provides the OTP authentication engine behind a healthcare
// care-taking backend: one-time passcodes bound to a mobile number, signed
// session tokens, and a role/ownership gate for provider-scoped operations.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// careauth is the public surface. It exposes [Engine], [Builder], [Config], and value types
// (Identity, AuthResult, MetricsSnapshot, etc.). Flow orchestration, secret storage,
// rate limiting, and audit dispatch live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or hash formats in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is allocation-only
//     until Build).
//   - Import any sub-package that re-imports careauth (no import cycles).
//   - Persist accounts or dependents; those are reached through [AccountProvider].
//
// # Performance contract
//
// Validate is the hot path. It completes without Redis round-trips in ModeJWTOnly and
// with exactly one EXISTS in ModeStrict. IssueOTP and VerifyOTP are allowed a bcrypt
// operation plus a handful of Redis round-trips per call.
package careauth

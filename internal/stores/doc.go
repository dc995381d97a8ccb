// Package stores provides the short-lived record stores behind the OTP
// authentication flows: the ephemeral secret store holding hashed one-time
// codes, and the token denylist used by strict validation.
//
// # Design
//
// Secrets are plain Redis strings written with SET ... EX, so the TTL is owned
// by Redis and a re-issue atomically replaces the previous value. Consumption
// relies on DEL returning the number of removed keys: exactly one concurrent
// caller observes a removal, which keeps codes single-use without WATCH/MULTI.
// The in-memory store mirrors these semantics with lazy expiry.
//
// # Architecture boundaries
//
// This package owns persistence only. It does NOT generate or hash codes,
// enforce rate limits, or make authentication decisions; those belong to the
// flow functions in internal/flows.
//
// # What this package must NOT do
//
//   - Import careauth or any sibling internal package.
//   - Log or expose stored values.
package stores

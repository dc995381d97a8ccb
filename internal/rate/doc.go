// Package rate provides the Redis-backed counters that throttle OTP issuance
// and verification.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - rl:otp:issue:     — issuance per mobile number
//   - rl:otp:issue-ip:  — issuance per client IP
//   - rl:otp:verify:    — failed verifications per mobile number
//
// # What this package must NOT do
//
//   - Decide what happens after a limit trips (callers map ErrRateLimited).
//   - Be imported outside the careauth module.
package rate

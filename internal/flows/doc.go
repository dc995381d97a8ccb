// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunIssueOTP, RunVerifyOTP, RunValidate, RunLogout)
// accepts a typed dependency struct and returns results without side-effects
// beyond those dependencies. The Engine builds the dependency sets once and
// stays a thin delegating shell.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the secret store, passcode hasher, JWT
// manager, rate limiter, audit dispatcher, and metrics. They do NOT own any
// of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import careauth (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency functions.
package flows

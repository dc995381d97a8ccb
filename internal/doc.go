// Package internal contains helper utilities that are intentionally private to careauth,
// including secure one-time code generation and identifier helpers.
//
// # Sub-packages
//
//   - audit — async event dispatch (Dispatcher + Sink implementations)
//   - flows — pure-function flow orchestrators for every Engine operation
//   - rate — Redis-backed fixed-window limits for OTP issuance and verification
//   - stores — ephemeral secret store and token denylist adapters
//   - config, logging — service process configuration and structured logging
//   - repository, accounts, dependents, httpapi — the care-taking service built on the engine
//
// # What this package must NOT do
//
//   - Export types that appear in the public careauth API.
//   - Be imported by any package outside the careauth module.
package internal

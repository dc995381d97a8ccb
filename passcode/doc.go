// Package passcode hashes and verifies one-time codes before they reach the
// secret store.
//
// # Output formats
//
// The default [Bcrypt] hasher emits standard modular-crypt strings
// ($2a$/$2b$/$2y$). The optional [Argon2] hasher emits PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Verify] dispatches on the stored prefix, so records written by either
// hasher stay verifiable after the configured algorithm changes.
//
// # Architecture boundaries
//
// This package owns hashing and comparison only. Code generation, TTLs and
// single-use consumption are handled by the engine and the secret store.
//
// # What this package must NOT do
//
//   - Store or retrieve codes.
//   - Import any other careauth package.
//   - Log plaintext codes or hash parameters at runtime.
package passcode

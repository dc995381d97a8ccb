// Package security derives the security posture report exposed by
// careauth.Engine.SecurityReport.
//
// # What this package must NOT do
//
//   - Import careauth or read secrets. Inputs are plain values copied from
//     the engine configuration.
package security

// Package permission defines the account roles and the ownership gate that
// guards provider-scoped operations on dependents.
//
// # Decision rule
//
// A principal passes [Gate.Authorize] only when its role equals the required
// role and, if an owner ID is supplied, its provider ID equals that owner.
// Operations are registered once at startup against a required role; the
// registry is frozen before the first request.
//
// # Architecture boundaries
//
// This package is a pure in-memory decision function with no I/O. Resolving
// which provider owns a dependent is the caller's job.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import careauth, jwt, or any internal package.
//   - Grant access based on anything but role and provider ID.
package permission

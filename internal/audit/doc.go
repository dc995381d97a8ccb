// Package audit implements async event dispatching for OTP issuance,
// verification, and token activity.
//
// # Components
//
//   - [Sink] — interface for event consumers (channel, JSON writer, logrus, no-op).
//   - [Dispatcher] — buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event] — structured audit record with timestamp, type, account, token, IP, metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; the Engine does.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import careauth or any sibling internal package.
//   - Record plaintext codes or tokens.
package audit

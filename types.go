package careauth

import (
	"context"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	internalaudit "github.com/techcare/careauth/internal/audit"
	"github.com/techcare/careauth/internal/stores"
	"github.com/techcare/careauth/permission"
)

// Role is the account role carried in session tokens.
type Role = permission.Role

const (
	// RoleProvider is an exported constant or variable used by the authentication engine.
	RoleProvider = permission.RoleProvider
	// RoleDependent is an exported constant or variable used by the authentication engine.
	RoleDependent = permission.RoleDependent
	// RoleAdmin is an exported constant or variable used by the authentication engine.
	RoleAdmin = permission.RoleAdmin
)

// Identity is the authenticated principal embedded in a session token.
// ProviderID is set exactly when Role is RoleProvider.
type Identity struct {
	AccountID  string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	ProviderID string `json:"providerId,omitempty"`
	Mobile     string `json:"mobile"`
}

// Account is the persisted account record the engine reads at login.
type Account struct {
	ID         string
	FirstName  string
	LastName   string
	Email      string
	Mobile     string
	Role       Role
	ProviderID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FullName joins first and last name.
func (a Account) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// Identity builds the token identity for a.
func (a Account) Identity() Identity {
	return Identity{
		AccountID:  a.ID,
		Email:      a.Email,
		Name:       a.FullName(),
		Role:       a.Role,
		ProviderID: a.ProviderID,
		Mobile:     a.Mobile,
	}
}

// AccountProvider resolves account records for the engine. Absence is
// reported with ErrAccountNotFound.
type AccountProvider interface {
	FindByMobile(ctx context.Context, mobile string) (Account, error)
	FindByProviderID(ctx context.Context, providerID string) (Account, error)
}

// SecretStore holds short-lived secrets keyed by string with a per-entry TTL.
//
// Get on an absent or expired key returns ErrSecretNotFound. Delete reports
// whether this call removed a live value and is not an error for absent keys.
// DeleteIfEqual removes a key only while it still holds the given value, so a
// verifier never consumes a secret issued after the one it compared.
type SecretStore interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) (bool, error)
	DeleteIfEqual(ctx context.Context, key, value string) (bool, error)
}

// ErrSecretNotFound is returned by SecretStore.Get for absent or expired keys.
var ErrSecretNotFound = stores.ErrSecretNotFound

// NewRedisSecretStore returns a SecretStore backed by Redis strings with native TTLs.
func NewRedisSecretStore(client redis.UniversalClient) SecretStore {
	return stores.NewRedisSecretStore(client)
}

// NewMemorySecretStore returns an in-process SecretStore. now may be nil.
func NewMemorySecretStore(now func() time.Time) SecretStore {
	return stores.NewMemorySecretStore(now)
}

// OTPSender delivers a freshly issued code to the mobile number (SMS gateway).
type OTPSender interface {
	SendOTP(ctx context.Context, mobile, code string) error
}

// OTPIssue is returned by Engine.IssueOTP. Code is empty unless
// Config.OTP.ExposeCode is set.
type OTPIssue struct {
	Mobile    string
	Code      string
	ExpiresIn time.Duration
}

// IssuedToken is a signed session token plus its registered claims.
type IssuedToken struct {
	Token     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// LoginResult is returned by Engine.Login.
type LoginResult struct {
	Account  Account
	Identity Identity
	Token    IssuedToken
}

// AuthResult is returned by Engine.Validate and Engine.ValidateHeader.
type AuthResult struct {
	Identity  Identity
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AuditEvent is an exported constant or variable used by the authentication engine.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the engine's async dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events in a channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes audit events as JSON lines.
type JSONWriterSink = internalaudit.JSONWriterSink

// LogrusSink writes audit events as structured log entries.
type LogrusSink = internalaudit.LogrusSink

// NewChannelSink describes the newchannelsink operation and its observable behavior.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink describes the newjsonwritersink operation and its observable behavior.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewLogrusAuditSink returns a sink that logs each event through logger.
func NewLogrusAuditSink(logger logrus.FieldLogger) *LogrusSink {
	return internalaudit.NewLogrusSink(logger)
}

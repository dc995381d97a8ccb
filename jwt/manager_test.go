package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func newHSManager(t *testing.T, clock *stepClock) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		TTL:           24 * time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    testSecret,
		Issuer:        "careauth",
		RequireIAT:    true,
		Now:           clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	m := newHSManager(t, clock)

	sub := Subject{ID: "USR-1", Email: "a@b.co", Name: "Ann Lee", Role: "provider", ProviderID: "PRV-1", Mobile: "9876543210"}
	token, claims, err := m.Issue(sub, "jti-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 24*time.Hour {
		t.Fatalf("expected exp-iat of 24h, got %v", got)
	}

	parsed, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Subject != "USR-1" || parsed.ID != "jti-1" || parsed.Role != "provider" || parsed.ProviderID != "PRV-1" {
		t.Fatalf("unexpected claims: %+v", parsed)
	}
	if parsed.Email != "a@b.co" || parsed.Name != "Ann Lee" || parsed.Mobile != "9876543210" {
		t.Fatalf("unexpected identity claims: %+v", parsed)
	}
}

func TestParseExpiryBoundary(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	m := newHSManager(t, clock)

	token, _, err := m.Issue(Subject{ID: "USR-1", Role: "dependent"}, "jti-2")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.now = clock.now.Add(24*time.Hour - time.Second)
	if _, err := m.Parse(token); err != nil {
		t.Fatalf("expected token valid just before exp: %v", err)
	}

	clock.now = clock.now.Add(time.Second)
	if _, err := m.Parse(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired at exp, got %v", err)
	}
}

func TestParseTamperedTokenIsInvalid(t *testing.T) {
	clock := &stepClock{now: time.Now()}
	m := newHSManager(t, clock)

	token, _, err := m.Issue(Subject{ID: "USR-1", Role: "provider", ProviderID: "PRV-1"}, "jti-3")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := m.Parse(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	other, err := NewManager(Config{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("another-secret-another-secret-xx"), Issuer: "careauth"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := other.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected foreign-key token invalid, got %v", err)
	}
}

func TestParseExpiredWithBadSignatureIsInvalid(t *testing.T) {
	clock := &stepClock{now: time.Now()}
	m := newHSManager(t, clock)

	claims := Claims{Role: "provider", RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "USR-1",
		ID:        "jti-4",
		Issuer:    "careauth",
		IssuedAt:  gjwt.NewNumericDate(clock.now.Add(-2 * time.Hour)),
		ExpiresAt: gjwt.NewNumericDate(clock.now.Add(-time.Hour)),
	}}
	signed, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString([]byte("wrong-secret-wrong-secret-wrong!!"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Parse(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected signature failure to win over expiry, got %v", err)
	}
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := Claims{RegisteredClaims: gjwt.RegisteredClaims{Subject: "u", ID: "j", ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected wrong algorithm to be rejected, got %v", err)
	}
}

func TestParseRequiresExpAndIdentifiers(t *testing.T) {
	clock := &stepClock{now: time.Now()}
	m := newHSManager(t, clock)

	noExp := Claims{RegisteredClaims: gjwt.RegisteredClaims{Subject: "u", ID: "j", Issuer: "careauth", IssuedAt: gjwt.NewNumericDate(clock.now)}}
	signed, _ := gjwt.NewWithClaims(gjwt.SigningMethodHS256, noExp).SignedString(testSecret)
	if _, err := m.Parse(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected missing exp to be invalid, got %v", err)
	}

	noJTI := Claims{RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "u",
		Issuer:    "careauth",
		IssuedAt:  gjwt.NewNumericDate(clock.now),
		ExpiresAt: gjwt.NewNumericDate(clock.now.Add(time.Hour)),
	}}
	signed, _ = gjwt.NewWithClaims(gjwt.SigningMethodHS256, noJTI).SignedString(testSecret)
	if _, err := m.Parse(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected missing jti to be invalid, got %v", err)
	}
}

func TestEd25519KeyRotation(t *testing.T) {
	pub1, priv1 := newEdKeys(t)
	pub2, priv2 := newEdKeys(t)

	oldSigner, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: priv1, PublicKey: pub1, KeyID: "k1"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	newSigner, err := NewManager(Config{
		TTL:           time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv2,
		KeyID:         "k2",
		VerifyKeys:    map[string][]byte{"k1": pub1, "k2": pub2},
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	oldToken, _, err := oldSigner.Issue(Subject{ID: "USR-1", Role: "admin"}, "jti-a")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := newSigner.Parse(oldToken); err != nil {
		t.Fatalf("expected token signed by retired key to verify: %v", err)
	}

	tok := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, Claims{RegisteredClaims: gjwt.RegisteredClaims{
		Subject: "u", ID: "j", ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}})
	tok.Header["kid"] = "k9"
	unknown, _ := tok.SignedString(priv1)
	if _, err := newSigner.Parse(unknown); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected unknown kid to fail, got %v", err)
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	cases := []Config{
		{TTL: 0, SigningMethod: MethodHS256, PrivateKey: testSecret},
		{TTL: time.Hour, SigningMethod: MethodHS256},
		{TTL: time.Hour, SigningMethod: "rs256", PrivateKey: testSecret},
		{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: testSecret, Leeway: time.Hour},
		{TTL: time.Hour, SigningMethod: MethodEd25519},
	}
	for i, cfg := range cases {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("case %d: expected config error", i)
		}
	}
}

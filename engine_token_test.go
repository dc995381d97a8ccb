package careauth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func loginToken(t *testing.T, env *testEngine) *LoginResult {
	t.Helper()

	ctx := context.Background()
	issued, err := env.IssueOTP(ctx, testMobile)
	if err != nil {
		t.Fatalf("IssueOTP failed: %v", err)
	}
	res, err := env.Login(ctx, testMobile, issued.Code)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return res
}

func TestIssueTokenRoundTrip(t *testing.T) {
	env := newTestEngine(t, testConfig())

	identity := providerAccount().Identity()
	issued, err := env.IssueToken(identity)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if got := issued.ExpiresAt.Sub(issued.IssuedAt); got != 24*time.Hour {
		t.Fatalf("expected 24h lifetime, got %v", got)
	}

	res, err := env.Validate(context.Background(), issued.Token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if res.Identity != identity {
		t.Fatalf("expected %+v, got %+v", identity, res.Identity)
	}
	if res.TokenID != issued.TokenID {
		t.Fatalf("expected token id %q, got %q", issued.TokenID, res.TokenID)
	}
	if !res.ExpiresAt.Equal(issued.ExpiresAt) || !res.IssuedAt.Equal(issued.IssuedAt) {
		t.Fatalf("timestamps drifted: %+v vs %+v", res, issued)
	}
}

func TestIssueTokenUniqueIDs(t *testing.T) {
	env := newTestEngine(t, testConfig())
	identity := providerAccount().Identity()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		issued, err := env.IssueToken(identity)
		if err != nil {
			t.Fatalf("IssueToken failed: %v", err)
		}
		if _, dup := seen[issued.TokenID]; dup {
			t.Fatalf("duplicate token id %q", issued.TokenID)
		}
		seen[issued.TokenID] = struct{}{}
	}
}

func TestIssueTokenRequiresAccountID(t *testing.T) {
	env := newTestEngine(t, testConfig())

	if _, err := env.IssueToken(Identity{Role: RoleDependent}); err == nil {
		t.Fatal("expected empty account id to fail")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	env := newTestEngine(t, testConfig())
	res := loginToken(t, env)

	env.clock.Advance(24*time.Hour - time.Second)
	if _, err := env.Validate(context.Background(), res.Token.Token); err != nil {
		t.Fatalf("expected token valid just before expiry, got %v", err)
	}

	env.clock.Advance(2 * time.Second)
	if _, err := env.Validate(context.Background(), res.Token.Token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateTamperedToken(t *testing.T) {
	env := newTestEngine(t, testConfig())
	res := loginToken(t, env)

	parts := strings.Split(res.Token.Token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected compact JWS, got %q", res.Token.Token)
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := env.Validate(context.Background(), tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if _, err := env.Validate(context.Background(), "garbage"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for garbage, got %v", err)
	}
}

func TestValidateExpiredForeignTokenIsInvalid(t *testing.T) {
	env := newTestEngine(t, testConfig())

	foreignCfg := testConfig()
	foreignCfg.JWT.PrivateKey = []byte("ffffffffffffffffffffffffffffffff")
	foreign := newTestEngine(t, foreignCfg)

	issued, err := foreign.IssueToken(providerAccount().Identity())
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if _, err := env.Validate(context.Background(), issued.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected foreign token to be invalid, got %v", err)
	}

	env.clock.Advance(48 * time.Hour)
	if _, err := env.Validate(context.Background(), issued.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected expired foreign token to stay invalid, got %v", err)
	}
}

func TestValidateRejectsBadIdentityClaims(t *testing.T) {
	env := newTestEngine(t, testConfig())

	cases := map[string]Identity{
		"unknown role": {AccountID: "USR-1", Role: Role("root")},
		"provider without provider id": {
			AccountID: "USR-2",
			Role:      RoleProvider,
		},
	}
	for name, identity := range cases {
		issued, err := env.IssueToken(identity)
		if err != nil {
			t.Fatalf("%s: IssueToken failed: %v", name, err)
		}
		if _, err := env.Validate(context.Background(), issued.Token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("%s: expected ErrTokenInvalid, got %v", name, err)
		}
	}

	dependent := Identity{AccountID: "USR-3", Role: RoleDependent, Name: "Ravi Rao"}
	issued, err := env.IssueToken(dependent)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if _, err := env.Validate(context.Background(), issued.Token); err != nil {
		t.Fatalf("expected dependent token to validate, got %v", err)
	}
}

func TestValidateHeader(t *testing.T) {
	env := newTestEngine(t, testConfig())
	res := loginToken(t, env)
	tok := res.Token.Token

	cases := []struct {
		header string
		want   error
	}{
		{"", ErrTokenMissing},
		{"Token " + tok, ErrTokenMalformed},
		{"bearer " + tok, ErrTokenMalformed},
		{"Bearer", ErrTokenMalformed},
		{"Bearer ", ErrTokenMalformed},
		{"Bearer " + tok + " extra", ErrTokenMalformed},
		{"Bearer  " + tok, ErrTokenMalformed},
		{"Bearer not-a-token", ErrTokenInvalid},
	}
	for _, tc := range cases {
		if _, err := env.ValidateHeader(context.Background(), tc.header); !errors.Is(err, tc.want) {
			t.Fatalf("header %q: expected %v, got %v", tc.header, tc.want, err)
		}
	}

	auth, err := env.ValidateHeader(context.Background(), "Bearer "+tok)
	if err != nil {
		t.Fatalf("ValidateHeader failed: %v", err)
	}
	if auth.Identity.AccountID != providerAccount().ID {
		t.Fatalf("unexpected identity: %+v", auth.Identity)
	}
}

func TestValidateEmptyToken(t *testing.T) {
	env := newTestEngine(t, testConfig())

	if _, err := env.Validate(context.Background(), ""); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
}

func TestLogoutStrictRevokesToken(t *testing.T) {
	cfg := testConfig()
	cfg.ValidationMode = ModeStrict
	cfg.Metrics.Enabled = true
	env := newTestEngine(t, cfg)
	res := loginToken(t, env)
	ctx := context.Background()

	if err := env.Logout(ctx, res.Token.Token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	key := "revoked:" + res.Token.TokenID
	if !env.mr.Exists(key) {
		t.Fatalf("expected denylist key %q", key)
	}
	if ttl := env.mr.TTL(key); ttl <= 0 || ttl > 24*time.Hour {
		t.Fatalf("expected denylist ttl within token lifetime, got %v", ttl)
	}

	if _, err := env.Validate(ctx, res.Token.Token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
	if err := env.Logout(ctx, res.Token.Token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected second logout to report ErrTokenRevoked, got %v", err)
	}

	snap := env.MetricsSnapshot()
	if snap.Counters[MetricLogout] != 1 {
		t.Fatalf("expected logout metric 1, got %d", snap.Counters[MetricLogout])
	}
	if snap.Counters[MetricTokenRevoked] != 2 {
		t.Fatalf("expected revoked metric 2, got %d", snap.Counters[MetricTokenRevoked])
	}
}

func TestLogoutStrictLeavesOtherTokens(t *testing.T) {
	cfg := testConfig()
	cfg.ValidationMode = ModeStrict
	env := newTestEngine(t, cfg)

	first := loginToken(t, env)
	second := loginToken(t, env)

	if err := env.Logout(context.Background(), first.Token.Token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := env.Validate(context.Background(), second.Token.Token); err != nil {
		t.Fatalf("expected unrelated token to stay valid, got %v", err)
	}
}

func TestLogoutJWTOnlyWritesNothing(t *testing.T) {
	env := newTestEngine(t, testConfig())
	res := loginToken(t, env)
	ctx := context.Background()

	before := len(env.mr.Keys())
	if err := env.Logout(ctx, res.Token.Token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	for _, key := range env.mr.Keys() {
		if strings.HasPrefix(key, "revoked:") {
			t.Fatalf("unexpected denylist key %q", key)
		}
	}
	if after := len(env.mr.Keys()); after != before {
		t.Fatalf("expected no new keys, had %d now %d", before, after)
	}
	if _, err := env.Validate(ctx, res.Token.Token); err != nil {
		t.Fatalf("expected token to stay valid in jwt-only mode, got %v", err)
	}
}

func TestLogoutRejectsInvalidToken(t *testing.T) {
	cfg := testConfig()
	cfg.ValidationMode = ModeStrict
	env := newTestEngine(t, cfg)

	if err := env.Logout(context.Background(), "garbage"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if err := env.Logout(context.Background(), ""); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
}

func TestValidateStrictFailsClosedWhenRedisDown(t *testing.T) {
	cfg := testConfig()
	cfg.ValidationMode = ModeStrict
	env := newTestEngine(t, cfg)
	res := loginToken(t, env)

	env.mr.Close()

	if _, err := env.Validate(context.Background(), res.Token.Token); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestValidateJWTOnlyIgnoresRedisOutage(t *testing.T) {
	env := newTestEngine(t, testConfig())
	res := loginToken(t, env)

	env.mr.Close()

	if _, err := env.Validate(context.Background(), res.Token.Token); err != nil {
		t.Fatalf("expected jwt-only validation without redis, got %v", err)
	}
}

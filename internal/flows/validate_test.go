package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/techcare/careauth/jwt"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newValidateDeps(t *testing.T, clock *testClock) (ValidateDeps, *jwt.Manager) {
	t.Helper()
	mgr, err := jwt.NewManager(jwt.Config{
		TTL:           24 * time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("flows-test-secret-flows-test-secret"),
		Now:           clock.Now,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return ValidateDeps{
		ParseToken:        mgr.Parse,
		ValidRole:         func(r string) bool { return r == "provider" || r == "dependent" || r == "admin" },
		RequireProviderID: func(r string) bool { return r == "provider" },
	}, mgr
}

func TestParseBearer(t *testing.T) {
	tests := []struct {
		header  string
		token   string
		failure ValidateFailureKind
	}{
		{"", "", ValidateFailureMissing},
		{"Bearer abc", "abc", ValidateFailureNone},
		{"Bearer", "", ValidateFailureMalformed},
		{"Bearer ", "", ValidateFailureMalformed},
		{"bearer abc", "", ValidateFailureMalformed},
		{"Token abc", "", ValidateFailureMalformed},
		{"Bearer abc def", "", ValidateFailureMalformed},
		{"Bearer  abc", "", ValidateFailureMalformed},
		{"abc", "", ValidateFailureMalformed},
	}
	for _, tc := range tests {
		token, failure := ParseBearer(tc.header)
		if token != tc.token || failure != tc.failure {
			t.Fatalf("ParseBearer(%q) = (%q, %d), want (%q, %d)", tc.header, token, failure, tc.token, tc.failure)
		}
	}
}

func TestRunValidateClassifiesFailures(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	deps, mgr := newValidateDeps(t, clock)
	ctx := context.Background()

	token, _, err := mgr.Issue(jwt.Subject{ID: "USR-1", Role: "provider", ProviderID: "PRV-1"}, "jti-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	res := RunValidate(ctx, token, deps)
	if res.Failure != ValidateFailureNone || res.Claims.Subject != "USR-1" {
		t.Fatalf("expected success, got %+v", res)
	}

	if res := RunValidate(ctx, token+"x", deps); res.Failure != ValidateFailureInvalid {
		t.Fatalf("expected invalid for tampered token, got %d", res.Failure)
	}
	if res := RunValidate(ctx, "garbage", deps); res.Failure != ValidateFailureInvalid {
		t.Fatalf("expected invalid for garbage, got %d", res.Failure)
	}

	clock.now = clock.now.Add(25 * time.Hour)
	if res := RunValidate(ctx, token, deps); res.Failure != ValidateFailureExpired {
		t.Fatalf("expected expired, got %d", res.Failure)
	}
}

func TestRunValidateRejectsBadIdentityClaims(t *testing.T) {
	clock := &testClock{now: time.Now()}
	deps, mgr := newValidateDeps(t, clock)

	unknownRole, _, _ := mgr.Issue(jwt.Subject{ID: "USR-1", Role: "root"}, "jti-r")
	if res := RunValidate(context.Background(), unknownRole, deps); res.Failure != ValidateFailureInvalid {
		t.Fatalf("expected invalid for unknown role, got %d", res.Failure)
	}

	noProvider, _, _ := mgr.Issue(jwt.Subject{ID: "USR-1", Role: "provider"}, "jti-p")
	if res := RunValidate(context.Background(), noProvider, deps); res.Failure != ValidateFailureInvalid {
		t.Fatalf("expected invalid for provider without id, got %d", res.Failure)
	}
}

func TestRunValidateStrictMode(t *testing.T) {
	clock := &testClock{now: time.Now()}
	deps, mgr := newValidateDeps(t, clock)
	deps.Strict = true
	revoked := map[string]bool{"jti-dead": true}
	deps.IsRevoked = func(_ context.Context, id string) (bool, error) { return revoked[id], nil }

	live, _, _ := mgr.Issue(jwt.Subject{ID: "USR-1", Role: "dependent"}, "jti-live")
	dead, _, _ := mgr.Issue(jwt.Subject{ID: "USR-1", Role: "dependent"}, "jti-dead")

	if res := RunValidate(context.Background(), live, deps); res.Failure != ValidateFailureNone {
		t.Fatalf("expected live token valid, got %d", res.Failure)
	}
	if res := RunValidate(context.Background(), dead, deps); res.Failure != ValidateFailureRevoked {
		t.Fatalf("expected revoked, got %d", res.Failure)
	}

	deps.IsRevoked = func(context.Context, string) (bool, error) { return false, errors.New("redis down") }
	if res := RunValidate(context.Background(), live, deps); res.Failure != ValidateFailureUnavailable {
		t.Fatalf("expected unavailable, got %d", res.Failure)
	}
}

func TestRunLogoutStrictRevokesForRemainingLifetime(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	deps, mgr := newValidateDeps(t, clock)
	token, _, _ := mgr.Issue(jwt.Subject{ID: "USR-1", Role: "dependent"}, "jti-1")

	clock.now = clock.now.Add(4 * time.Hour)
	var gotID string
	var gotTTL time.Duration
	logout := LogoutDeps{
		Strict:   true,
		Now:      clock.Now,
		Validate: deps,
		Revoke: func(_ context.Context, id string, ttl time.Duration) error {
			gotID, gotTTL = id, ttl
			return nil
		},
	}

	res := RunLogout(context.Background(), token, logout)
	if res.Failure != ValidateFailureNone || !res.Revoked {
		t.Fatalf("expected revoked logout, got %+v", res)
	}
	if gotID != "jti-1" || gotTTL != 20*time.Hour {
		t.Fatalf("expected jti-1 for 20h, got %s for %v", gotID, gotTTL)
	}

	logout.Strict = false
	gotID = ""
	res = RunLogout(context.Background(), token, logout)
	if res.Failure != ValidateFailureNone || res.Revoked || gotID != "" {
		t.Fatalf("expected jwt-only logout to write nothing, got %+v", res)
	}

	if res := RunLogout(context.Background(), "bad", logout); res.Failure != ValidateFailureInvalid {
		t.Fatalf("expected invalid token to fail logout, got %d", res.Failure)
	}
}

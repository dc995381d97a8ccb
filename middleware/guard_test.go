package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techcare/careauth"
)

type stubAccounts struct{}

func (stubAccounts) FindByMobile(context.Context, string) (careauth.Account, error) {
	return careauth.Account{}, careauth.ErrAccountNotFound
}

func (stubAccounts) FindByProviderID(context.Context, string) (careauth.Account, error) {
	return careauth.Account{}, careauth.ErrProviderNotFound
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newEngine(t *testing.T, mode careauth.ValidationMode) (*careauth.Engine, *clock) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := careauth.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.OTP.HashCost = 4
	cfg.ValidationMode = mode

	c := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	engine, err := careauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAccountProvider(stubAccounts{}).
		WithClock(c.Now).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return engine, c
}

var provider = careauth.Identity{
	AccountID:  "USR-1",
	Name:       "Asha Rao",
	Role:       careauth.RoleProvider,
	ProviderID: "PRV-1",
	Mobile:     "9876543210",
}

func serve(t *testing.T, h http.Handler, header string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/v1/api/auth/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec.Code, body["message"]
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := AuthResultFromContext(r.Context())
		if !assert.True(t, ok) {
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"message": res.Identity.AccountID})
	})
}

func TestGuardFailureKinds(t *testing.T) {
	engine, c := newEngine(t, careauth.ModeJWTOnly)
	issued, err := engine.IssueToken(provider)
	require.NoError(t, err)

	h := Guard(engine)(okHandler(t))

	cases := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing", "", http.StatusUnauthorized, MessageTokenMissing},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, MessageTokenMalformed},
		{"no token", "Bearer", http.StatusUnauthorized, MessageTokenMalformed},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized, MessageTokenInvalid},
		{"valid", "Bearer " + issued.Token, http.StatusOK, provider.AccountID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, msg := serve(t, h, tc.header)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.message, msg)
		})
	}

	c.now = c.now.Add(25 * time.Hour)
	status, msg := serve(t, h, "Bearer "+issued.Token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, MessageTokenExpired, msg)
}

func TestGuardRevokedToken(t *testing.T) {
	engine, _ := newEngine(t, careauth.ModeStrict)
	issued, err := engine.IssueToken(provider)
	require.NoError(t, err)
	require.NoError(t, engine.Logout(context.Background(), issued.Token))

	status, msg := serve(t, Guard(engine)(okHandler(t)), "Bearer "+issued.Token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, MessageTokenRevoked, msg)
}

func TestGuardNilEngine(t *testing.T) {
	status, msg := serve(t, Guard(nil)(okHandler(t)), "Bearer x")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, MessageInternal, msg)
}

func TestRequireRole(t *testing.T) {
	engine, _ := newEngine(t, careauth.ModeJWTOnly)
	h := Guard(engine)(RequireRole(engine, careauth.RoleProvider)(okHandler(t)))

	issued, err := engine.IssueToken(provider)
	require.NoError(t, err)
	status, _ := serve(t, h, "Bearer "+issued.Token)
	assert.Equal(t, http.StatusOK, status)

	dependent, err := engine.IssueToken(careauth.Identity{AccountID: "USR-2", Role: careauth.RoleDependent})
	require.NoError(t, err)
	status, msg := serve(t, h, "Bearer "+dependent.Token)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, MessageForbidden, msg)
}

func TestRequireOperation(t *testing.T) {
	engine, _ := newEngine(t, careauth.ModeJWTOnly)

	dependent, err := engine.IssueToken(careauth.Identity{AccountID: "USR-2", Role: careauth.RoleDependent})
	require.NoError(t, err)

	h := Guard(engine)(RequireOperation(engine, careauth.OperationDependentAdd)(okHandler(t)))
	status, _ := serve(t, h, "Bearer "+dependent.Token)
	assert.Equal(t, http.StatusForbidden, status)

	unknown := Guard(engine)(RequireOperation(engine, "dependents.export")(okHandler(t)))
	issued, err := engine.IssueToken(provider)
	require.NoError(t, err)
	status, _ = serve(t, unknown, "Bearer "+issued.Token)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRequireRoleWithoutGuard(t *testing.T) {
	engine, _ := newEngine(t, careauth.ModeJWTOnly)

	status, msg := serve(t, RequireRole(engine, careauth.RoleProvider)(okHandler(t)), "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, MessageTokenMissing, msg)
}

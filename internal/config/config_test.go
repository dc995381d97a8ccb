package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techcare/careauth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("", map[string]string{"TOKEN_SECRET_KEY": "dev-secret"})
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "jwt_only", cfg.ValidationMode)
	assert.Equal(t, 300*time.Second, cfg.OTP.TTL)
	assert.Equal(t, 10, cfg.OTP.HashCost)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.IsProduction())
}

func TestLoadRequiresTokenSecret(t *testing.T) {
	_, err := load("", map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOKEN_SECRET_KEY")
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := writeFile(t, "careauth.yaml", `
port: 8081
redis_url: redis://cache:6379/0
jwt_issuer: careauth-test
validation_mode: strict
otp:
  ttl: 2m
  expose_code: true
rate_limit:
  window_ms: 1000
  max: 5
log:
  level: DEBUG
`)

	cfg, err := load(path, map[string]string{"TOKEN_SECRET_KEY": "dev-secret"})
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
	assert.Equal(t, "careauth-test", cfg.JWTIssuer)
	assert.Equal(t, "strict", cfg.ValidationMode)
	assert.Equal(t, 2*time.Minute, cfg.OTP.TTL)
	assert.True(t, cfg.OTP.ExposeCode)
	assert.Equal(t, time.Second, cfg.RateLimit.Window())
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 10, cfg.OTP.HashCost)
}

func TestLoadEnvironmentOverridesYAML(t *testing.T) {
	path := writeFile(t, "careauth.yaml", "port: 8081\notp:\n  hash_cost: 11\n")

	cfg, err := load(path, map[string]string{
		"PORT":                 "9090",
		"TOKEN_SECRET_KEY":     "dev-secret",
		"OTP_HASH_COST":        "12",
		"OTP_DEV_BYPASS_CODE":  "424242",
		"RATE_LIMIT_WINDOW_MS": "30000",
		"RATE_LIMIT_MAX":       "20",
		"LOG_FILE":             "/tmp/careauth.log",
		"VALIDATION_MODE":      "STRICT",
	})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 12, cfg.OTP.HashCost)
	assert.Equal(t, "424242", cfg.OTP.DevBypassCode)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window())
	assert.Equal(t, 20, cfg.RateLimit.Max)
	assert.Equal(t, "/tmp/careauth.log", cfg.Log.File)
	assert.Equal(t, "strict", cfg.ValidationMode)
}

func TestLoadNodeEnvFallback(t *testing.T) {
	cfg, err := load("", map[string]string{
		"NODE_ENV":         "Production",
		"TOKEN_SECRET_KEY": testSecret,
	})
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())

	cfg, err = load("", map[string]string{
		"NODE_ENV":         "production",
		"APP_ENV":          "staging",
		"TOKEN_SECRET_KEY": "dev-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Env)
}

func TestLoadProductionRejectsShortSecret(t *testing.T) {
	_, err := load("", map[string]string{
		"APP_ENV":          "production",
		"TOKEN_SECRET_KEY": "your-default-token-secret",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 bytes")
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{name: "port", env: map[string]string{"PORT": "0"}},
		{name: "mode", env: map[string]string{"VALIDATION_MODE": "paranoid"}},
		{name: "rate", env: map[string]string{"RATE_LIMIT_MAX": "0"}},
		{name: "unparsable", env: map[string]string{"PORT": "eighty"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.env["TOKEN_SECRET_KEY"] = "dev-secret"
			_, err := load("", tc.env)
			require.Error(t, err)
		})
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := writeFile(t, "careauth.yaml", "port: [not an int\n")
	_, err := load(path, map[string]string{"TOKEN_SECRET_KEY": "dev-secret"})
	require.Error(t, err)
}

func TestLoadReadsDotEnvBelowEnvironment(t *testing.T) {
	dotenv := writeFile(t, "test.env", "TOKEN_SECRET_KEY=from-dotenv\nJWT_ISSUER=dotenv-issuer\nPORT=7000\n")
	t.Setenv("PORT", "7001")
	t.Setenv(PathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load("", dotenv)
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.TokenSecret)
	assert.Equal(t, "dotenv-issuer", cfg.JWTIssuer)
	assert.Equal(t, 7001, cfg.Port)
}

func TestToEngineConfig(t *testing.T) {
	cfg := Default()
	cfg.TokenSecret = testSecret
	cfg.JWTIssuer = "careauth"
	cfg.ValidationMode = "strict"
	cfg.OTP.ExposeCode = true
	cfg.OTP.DevBypassCode = "424242"
	cfg.AuditEnabled = true
	cfg.Sanitize()

	engineCfg, err := cfg.ToEngineConfig()
	require.NoError(t, err)

	assert.Equal(t, []byte(testSecret), engineCfg.JWT.PrivateKey)
	assert.Equal(t, "careauth", engineCfg.JWT.Issuer)
	assert.Equal(t, 24*time.Hour, engineCfg.JWT.TTL)
	assert.Equal(t, careauth.ModeStrict, engineCfg.ValidationMode)
	assert.Equal(t, 300*time.Second, engineCfg.OTP.TTL)
	assert.True(t, engineCfg.OTP.ExposeCode)
	assert.Equal(t, "424242", engineCfg.OTP.DevBypassCode)
	assert.True(t, engineCfg.Metrics.Enabled)
	assert.True(t, engineCfg.Audit.Enabled)
	assert.False(t, engineCfg.Security.ProductionMode)
}

func TestToEngineConfigProductionGuard(t *testing.T) {
	cfg := Default()
	cfg.Env = "production"
	cfg.TokenSecret = testSecret
	cfg.OTP.ExposeCode = true

	_, err := cfg.ToEngineConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ExposeCode")

	cfg.OTP.ExposeCode = false
	engineCfg, err := cfg.ToEngineConfig()
	require.NoError(t, err)
	assert.True(t, engineCfg.Security.ProductionMode)
}

func TestLoadHTTPEdgeLists(t *testing.T) {
	path := writeFile(t, "careauth.yaml", `
http:
  trusted_proxies: ["10.0.0.0/8"]
  cors_origins: ["https://care.example.com"]
`)

	cfg, err := load(path, map[string]string{"TOKEN_SECRET_KEY": "dev-secret"})
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.HTTP.TrustedProxies)
	assert.Equal(t, []string{"https://care.example.com"}, cfg.HTTP.CORSOrigins)

	cfg, err = load(path, map[string]string{
		"TOKEN_SECRET_KEY":     "dev-secret",
		"HTTP_TRUSTED_PROXIES": " 192.0.2.10 , ,172.16.0.0/12",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.10", "172.16.0.0/12"}, cfg.HTTP.TrustedProxies)

	cfg, err = load("", map[string]string{"TOKEN_SECRET_KEY": "dev-secret"})
	require.NoError(t, err)
	assert.Nil(t, cfg.HTTP.TrustedProxies)
	assert.Nil(t, cfg.HTTP.CORSOrigins)
}

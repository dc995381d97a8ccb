// Package config loads the careauth service configuration.
//
// Values resolve in priority order: defaults, then the YAML file, then a
// .env file, then the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/techcare/careauth"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is used when CAREAUTH_CONFIG is unset.
	DefaultPath = "configs/careauth.yaml"
	// PathEnv names the variable that overrides DefaultPath.
	PathEnv = "CAREAUTH_CONFIG"

	envProduction  = "production"
	envDevelopment = "development"

	minProductionSecret = 32
)

// Config is the resolved runtime configuration for the careauth server.
type Config struct {
	Port    int    `yaml:"port" env:"PORT"`
	Env     string `yaml:"env" env:"APP_ENV"`
	NodeEnv string `yaml:"-" env:"NODE_ENV"`

	DatabaseURL string `yaml:"database_url" env:"DB_URL"`
	RedisURL    string `yaml:"redis_url" env:"REDIS_URL"`

	TokenSecret    string        `yaml:"-" env:"TOKEN_SECRET_KEY"`
	JWTIssuer      string        `yaml:"jwt_issuer" env:"JWT_ISSUER"`
	TokenTTL       time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
	ValidationMode string        `yaml:"validation_mode" env:"VALIDATION_MODE"`

	OTP       OTPConfig       `yaml:"otp" envPrefix:"OTP_"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`
	HTTP      HTTPConfig      `yaml:"http" envPrefix:"HTTP_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`

	MetricsEnabled bool          `yaml:"metrics_enabled" env:"METRICS_ENABLED"`
	AuditEnabled   bool          `yaml:"audit_enabled" env:"AUDIT_ENABLED"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace" env:"SHUTDOWN_GRACE"`
}

// OTPConfig holds one-time passcode settings.
type OTPConfig struct {
	TTL           time.Duration `yaml:"ttl" env:"TTL"`
	HashCost      int           `yaml:"hash_cost" env:"HASH_COST"`
	ExposeCode    bool          `yaml:"expose_code" env:"EXPOSE_CODE"`
	DevBypassCode string        `yaml:"dev_bypass_code" env:"DEV_BYPASS_CODE"`
}

// RateLimitConfig holds the per-client request limit applied at the HTTP edge.
type RateLimitConfig struct {
	WindowMS int `yaml:"window_ms" env:"WINDOW_MS"`
	Max      int `yaml:"max" env:"MAX"`
}

// Window returns WindowMS as a duration.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowMS) * time.Millisecond
}

// HTTPConfig controls how the HTTP edge identifies callers and which browser
// origins may call it with credentials.
type HTTPConfig struct {
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For entries
	// are honoured. Empty means the peer address is always the client.
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" envSeparator:","`
	// CORSOrigins lists origins answered with credentials allowed.
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

// LogConfig selects the log level and an optional file tee.
type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	File  string `yaml:"file" env:"FILE"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Port:           4000,
		Env:            "",
		RedisURL:       "localhost:6379",
		TokenTTL:       24 * time.Hour,
		ValidationMode: careauth.ModeJWTOnly.String(),
		OTP: OTPConfig{
			TTL:      300 * time.Second,
			HashCost: 10,
		},
		RateLimit: RateLimitConfig{
			WindowMS: 60000,
			Max:      100,
		},
		Log: LogConfig{
			Level: "info",
		},
		MetricsEnabled: true,
		ShutdownGrace:  10 * time.Second,
	}
}

// Load resolves configuration from path (or CAREAUTH_CONFIG / DefaultPath
// when path is empty), the given .env files (".env" when none) and the
// process environment. A missing config or .env file is not an error.
func Load(path string, dotenvFiles ...string) (Config, error) {
	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path == "" {
		path = DefaultPath
	}
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}

	environ := map[string]string{}
	for _, file := range dotenvFiles {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
		for k, v := range values {
			if _, ok := environ[k]; !ok {
				environ[k] = v
			}
		}
	}
	// Real environment wins over .env values.
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			environ[k] = v
		}
	}

	return load(path, environ)
}

func load(path string, environ map[string]string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Sanitize normalizes loaded values. NODE_ENV is honoured when APP_ENV is unset.
func (c *Config) Sanitize() {
	if c.Env == "" {
		c.Env = c.NodeEnv
	}
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env == "" {
		c.Env = envDevelopment
	}
	c.ValidationMode = strings.ToLower(strings.TrimSpace(c.ValidationMode))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.HTTP.TrustedProxies = compact(c.HTTP.TrustedProxies)
	c.HTTP.CORSOrigins = compact(c.HTTP.CORSOrigins)
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// IsProduction reports whether the service runs with production guards.
func (c Config) IsProduction() bool {
	return c.Env == envProduction
}

// Validate checks the service-level settings. Engine settings are validated
// again by careauth.Config.Validate when the engine is built.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("PORT must be between 1 and 65535")
	}
	if c.TokenSecret == "" {
		return errors.New("TOKEN_SECRET_KEY is required")
	}
	if c.IsProduction() && len(c.TokenSecret) < minProductionSecret {
		return fmt.Errorf("TOKEN_SECRET_KEY must be at least %d bytes in production", minProductionSecret)
	}
	if _, err := parseValidationMode(c.ValidationMode); err != nil {
		return err
	}
	if c.RateLimit.WindowMS <= 0 || c.RateLimit.Max <= 0 {
		return errors.New("RATE_LIMIT_WINDOW_MS and RATE_LIMIT_MAX must be > 0")
	}
	return nil
}

// ToEngineConfig converts the service configuration into an engine config.
func (c Config) ToEngineConfig() (careauth.Config, error) {
	mode, err := parseValidationMode(c.ValidationMode)
	if err != nil {
		return careauth.Config{}, err
	}

	cfg := careauth.DefaultConfig()
	cfg.JWT.PrivateKey = []byte(c.TokenSecret)
	cfg.JWT.Issuer = c.JWTIssuer
	if c.TokenTTL > 0 {
		cfg.JWT.TTL = c.TokenTTL
	}
	if c.OTP.TTL > 0 {
		cfg.OTP.TTL = c.OTP.TTL
	}
	if c.OTP.HashCost > 0 {
		cfg.OTP.HashCost = c.OTP.HashCost
	}
	cfg.OTP.ExposeCode = c.OTP.ExposeCode
	cfg.OTP.DevBypassCode = c.OTP.DevBypassCode
	cfg.ValidationMode = mode
	cfg.Metrics.Enabled = c.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = c.MetricsEnabled
	cfg.Audit.Enabled = c.AuditEnabled
	cfg.Security.ProductionMode = c.IsProduction()

	if err := cfg.Validate(); err != nil {
		return careauth.Config{}, err
	}
	return cfg, nil
}

func parseValidationMode(s string) (careauth.ValidationMode, error) {
	switch s {
	case "", careauth.ModeJWTOnly.String():
		return careauth.ModeJWTOnly, nil
	case careauth.ModeStrict.String():
		return careauth.ModeStrict, nil
	default:
		return 0, fmt.Errorf("VALIDATION_MODE must be %q or %q", careauth.ModeJWTOnly, careauth.ModeStrict)
	}
}

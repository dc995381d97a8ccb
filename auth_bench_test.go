package careauth

import (
	"context"
	"testing"
)

func benchmarkToken(b *testing.B, mode ValidationMode) (*testEngine, string) {
	b.Helper()

	cfg := testConfig()
	cfg.ValidationMode = mode
	env := newTestEngine(b, cfg)

	issued, err := env.IssueToken(providerAccount().Identity())
	if err != nil {
		b.Fatalf("IssueToken failed: %v", err)
	}
	return env, issued.Token
}

func BenchmarkValidateJWTOnly(b *testing.B) {
	env, token := benchmarkToken(b, ModeJWTOnly)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := env.Validate(context.Background(), token); err != nil {
			b.Fatalf("validate failed: %v", err)
		}
	}
}

func BenchmarkValidateStrict(b *testing.B) {
	env, token := benchmarkToken(b, ModeStrict)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := env.Validate(context.Background(), token); err != nil {
			b.Fatalf("validate failed: %v", err)
		}
	}
}

func BenchmarkIssueAndVerifyOTP(b *testing.B) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = false
	env := newTestEngine(b, cfg)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		issued, err := env.IssueOTP(ctx, testMobile)
		if err != nil {
			b.Fatalf("issue failed: %v", err)
		}
		if _, err := env.VerifyOTP(ctx, testMobile, issued.Code); err != nil {
			b.Fatalf("verify failed: %v", err)
		}
	}
}

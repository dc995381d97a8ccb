package careauth

import (
	"errors"
	"testing"
)

func TestAuthorizeDecisionTable(t *testing.T) {
	env := newTestEngine(t, testConfig())

	provider := providerAccount().Identity()
	dependent := Identity{AccountID: "USR-2", Role: RoleDependent}
	admin := Identity{AccountID: "USR-3", Role: RoleAdmin}

	cases := []struct {
		name     string
		identity Identity
		required Role
		owner    string
		allowed  bool
	}{
		{"provider owns record", provider, RoleProvider, testProviderID, true},
		{"provider without owner check", provider, RoleProvider, "", true},
		{"provider foreign record", provider, RoleProvider, "PRV-other", false},
		{"dependent on provider op", dependent, RoleProvider, "", false},
		{"admin is not a provider", admin, RoleProvider, "", false},
		{"dependent self", dependent, RoleDependent, "", true},
		{"empty role", Identity{AccountID: "USR-4"}, RoleProvider, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := env.Authorize(tc.identity, tc.required, tc.owner)
			if tc.allowed && err != nil {
				t.Fatalf("expected allow, got %v", err)
			}
			if !tc.allowed && !errors.Is(err, ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
		})
	}
}

func TestAuthorizeOperation(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = true
	env := newTestEngine(t, cfg)
	provider := providerAccount().Identity()

	for _, op := range []string{OperationDependentAdd, OperationDependentUpdate, OperationDependentDelete, OperationDependentList} {
		if err := env.AuthorizeOperation(provider, op, testProviderID); err != nil {
			t.Fatalf("%s: expected allow, got %v", op, err)
		}
	}

	if err := env.AuthorizeOperation(provider, OperationDependentDelete, "PRV-other"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign owner, got %v", err)
	}
	dependent := Identity{AccountID: "USR-2", Role: RoleDependent}
	if err := env.AuthorizeOperation(dependent, OperationDependentAdd, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for dependent, got %v", err)
	}
	if err := env.AuthorizeOperation(provider, "dependents.purge", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for unknown operation, got %v", err)
	}

	if got := env.MetricsSnapshot().Counters[MetricAuthorizationDenied]; got != 3 {
		t.Fatalf("expected 3 denials, got %d", got)
	}
}

func TestAuthorizeOperationEngineNotReady(t *testing.T) {
	var engine *Engine
	if err := engine.AuthorizeOperation(providerAccount().Identity(), OperationDependentAdd, ""); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

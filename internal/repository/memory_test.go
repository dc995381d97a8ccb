package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techcare/careauth"
)

func TestMemoryAccounts(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	provider := testProvider()

	require.NoError(t, repo.CreateAccount(ctx, provider))

	got, err := repo.FindByMobile(ctx, provider.Mobile)
	require.NoError(t, err)
	assert.Equal(t, provider, got)

	got, err = repo.FindByProviderID(ctx, provider.ProviderID)
	require.NoError(t, err)
	assert.Equal(t, provider.ID, got.ID)

	_, err = repo.FindByMobile(ctx, "9000000000")
	assert.ErrorIs(t, err, careauth.ErrAccountNotFound)
	_, err = repo.FindByProviderID(ctx, "PRV-missing")
	assert.ErrorIs(t, err, careauth.ErrProviderNotFound)
}

func TestMemoryAccountConflicts(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	require.NoError(t, repo.CreateAccount(ctx, testProvider()))

	sameEmail := careauth.Account{ID: "USR-2", Email: "ASHA@example.com", Mobile: "9000000000", Role: careauth.RoleDependent}
	assert.ErrorIs(t, repo.CreateAccount(ctx, sameEmail), careauth.ErrConflict)

	sameMobile := careauth.Account{ID: "USR-3", Email: "other@example.com", Mobile: "9876543210", Role: careauth.RoleDependent}
	assert.ErrorIs(t, repo.CreateAccount(ctx, sameMobile), careauth.ErrConflict)

	fresh := careauth.Account{ID: "USR-4", Email: "fresh@example.com", Mobile: "9000000001", Role: careauth.RoleDependent}
	assert.NoError(t, repo.CreateAccount(ctx, fresh))
}

func TestMemoryDependentLifecycle(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	base := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	first := Dependent{ID: "DPT-1", ProviderID: "PRV-1", Email: "meera@example.com", CreatedAt: base}
	second := Dependent{ID: "DPT-2", ProviderID: "PRV-1", Email: "vikram@example.com", CreatedAt: base.Add(time.Hour)}
	foreign := Dependent{ID: "DPT-3", ProviderID: "PRV-2", Email: "kiran@example.com", CreatedAt: base}

	require.NoError(t, repo.CreateDependent(ctx, second))
	require.NoError(t, repo.CreateDependent(ctx, first))
	require.NoError(t, repo.CreateDependent(ctx, foreign))
	assert.ErrorIs(t, repo.CreateDependent(ctx, Dependent{ID: "DPT-4", Email: "MEERA@example.com"}), careauth.ErrConflict)

	list, err := repo.ListDependents(ctx, "PRV-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "DPT-1", list[0].ID)
	assert.Equal(t, "DPT-2", list[1].ID)

	first.FirstName = "Meera"
	require.NoError(t, repo.UpdateDependent(ctx, first))
	got, err := repo.FindDependent(ctx, "DPT-1")
	require.NoError(t, err)
	assert.Equal(t, "Meera", got.FirstName)

	second.Email = "meera@example.com"
	assert.ErrorIs(t, repo.UpdateDependent(ctx, second), careauth.ErrConflict)

	require.NoError(t, repo.DeleteDependent(ctx, "DPT-1"))
	assert.ErrorIs(t, repo.DeleteDependent(ctx, "DPT-1"), careauth.ErrDependentNotFound)
	_, err = repo.FindDependent(ctx, "DPT-1")
	assert.ErrorIs(t, err, careauth.ErrDependentNotFound)
	assert.ErrorIs(t, repo.UpdateDependent(ctx, first), careauth.ErrDependentNotFound)
}

func TestMemoryListEmpty(t *testing.T) {
	list, err := NewMemory().ListDependents(context.Background(), "PRV-none")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

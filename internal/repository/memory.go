package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/techcare/careauth"
)

// Memory implements Accounts and Dependents in process. Uniqueness rules
// match the Postgres schema.
type Memory struct {
	mu         sync.RWMutex
	accounts   map[string]careauth.Account
	dependents map[string]Dependent
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		accounts:   make(map[string]careauth.Account),
		dependents: make(map[string]Dependent),
	}
}

// CreateAccount stores account.
func (m *Memory) CreateAccount(_ context.Context, account careauth.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[account.ID]; ok {
		return careauth.ErrConflict
	}
	for _, existing := range m.accounts {
		if strings.EqualFold(existing.Email, account.Email) || existing.Mobile == account.Mobile {
			return careauth.ErrConflict
		}
		if account.ProviderID != "" && existing.ProviderID == account.ProviderID {
			return careauth.ErrConflict
		}
	}
	m.accounts[account.ID] = account
	return nil
}

// FindByMobile implements careauth.AccountProvider.
func (m *Memory) FindByMobile(_ context.Context, mobile string) (careauth.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if a.Mobile == mobile {
			return a, nil
		}
	}
	return careauth.Account{}, careauth.ErrAccountNotFound
}

// FindByProviderID implements careauth.AccountProvider.
func (m *Memory) FindByProviderID(_ context.Context, providerID string) (careauth.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if a.Role == careauth.RoleProvider && a.ProviderID == providerID {
			return a, nil
		}
	}
	return careauth.Account{}, careauth.ErrProviderNotFound
}

// CreateDependent stores d.
func (m *Memory) CreateDependent(_ context.Context, d Dependent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.dependents[d.ID]; ok {
		return careauth.ErrConflict
	}
	if m.dependentEmailTaken(d.Email, "") {
		return careauth.ErrConflict
	}
	m.dependents[d.ID] = d
	return nil
}

// FindDependent loads one dependent by ID.
func (m *Memory) FindDependent(_ context.Context, dependentID string) (Dependent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.dependents[dependentID]
	if !ok {
		return Dependent{}, careauth.ErrDependentNotFound
	}
	return d, nil
}

// UpdateDependent replaces the stored record for d.ID.
func (m *Memory) UpdateDependent(_ context.Context, d Dependent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.dependents[d.ID]; !ok {
		return careauth.ErrDependentNotFound
	}
	if m.dependentEmailTaken(d.Email, d.ID) {
		return careauth.ErrConflict
	}
	m.dependents[d.ID] = d
	return nil
}

// DeleteDependent removes a dependent by ID.
func (m *Memory) DeleteDependent(_ context.Context, dependentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.dependents[dependentID]; !ok {
		return careauth.ErrDependentNotFound
	}
	delete(m.dependents, dependentID)
	return nil
}

// ListDependents returns the dependents owned by providerID, oldest first.
func (m *Memory) ListDependents(_ context.Context, providerID string) ([]Dependent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Dependent, 0)
	for _, d := range m.dependents {
		if d.ProviderID == providerID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) dependentEmailTaken(email, exceptID string) bool {
	for id, existing := range m.dependents {
		if id != exceptID && strings.EqualFold(existing.Email, email) {
			return true
		}
	}
	return false
}

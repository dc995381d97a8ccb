// Package accounts registers accounts and resolves the caller's profile.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/techcare/careauth"
	"github.com/techcare/careauth/internal"
	"github.com/techcare/careauth/internal/repository"
	"github.com/techcare/careauth/internal/validation"
)

// ErrAccountExists is returned when the email or mobile is already registered.
var ErrAccountExists = fmt.Errorf("%w: user already exists with this email or mobile", careauth.ErrConflict)

// RegisterInput is the self-registration payload. Admin accounts cannot be
// self-registered.
type RegisterInput struct {
	FirstName string `json:"firstName" validate:"required,min=3,max=30"`
	LastName  string `json:"lastName" validate:"required,min=3,max=30"`
	Email     string `json:"email" validate:"required,email"`
	Mobile    string `json:"mobile" validate:"required,mobile"`
	Role      string `json:"role" validate:"required,oneof=provider dependent"`
}

// Service owns account registration.
type Service struct {
	repo repository.Accounts
	now  func() time.Time
}

// NewService creates a Service. now may be nil.
func NewService(repo repository.Accounts, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

// Register validates in and stores a new account. Provider accounts receive a
// PRV- provider ID.
func (s *Service) Register(ctx context.Context, in RegisterInput) (careauth.Account, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return careauth.Account{}, err
	}

	now := s.now().UTC()
	account := careauth.Account{
		ID:        internal.NewEntityID("USR"),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Mobile:    in.Mobile,
		Role:      careauth.Role(in.Role),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if account.Role.RequiresProviderID() {
		account.ProviderID = internal.NewEntityID("PRV")
	}

	if err := s.repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, careauth.ErrConflict) {
			return careauth.Account{}, ErrAccountExists
		}
		return careauth.Account{}, err
	}
	return account, nil
}

// Me returns the account behind identity, looked up by its mobile.
func (s *Service) Me(ctx context.Context, identity careauth.Identity) (careauth.Account, error) {
	if identity.Mobile == "" {
		return careauth.Account{}, careauth.ErrAccountNotFound
	}
	return s.repo.FindByMobile(ctx, identity.Mobile)
}

// Package dependents manages the care recipients owned by a provider.
//
// Every operation passes the engine's authorization gate before touching
// storage; update and delete pass it a second time with the dependent's
// owning provider ID.
package dependents

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

const dobLayout = "2006-01-02"

// ErrDependentExists is returned when a dependent email is already in use.
var ErrDependentExists = fmt.Errorf("%w: dependent user already exists with this email", careauth.ErrConflict)

// Gate authorizes named operations for an identity.
type Gate interface {
	AuthorizeOperation(identity careauth.Identity, operation, ownerID string) error
}

// AddressInput is the address part of AddInput.
type AddressInput struct {
	Street  string `json:"street"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// AddInput is the payload for adding a dependent.
type AddInput struct {
	FirstName        string        `json:"firstName" validate:"required,min=3,max=30"`
	LastName         string        `json:"lastName" validate:"required,min=3,max=30"`
	Age              *int          `json:"age" validate:"required,min=0,max=120"`
	Gender           string        `json:"gender" validate:"required,oneof=male female other"`
	Email            string        `json:"email" validate:"required,email"`
	Mobile           string        `json:"mobile" validate:"required,mobile"`
	DOB              string        `json:"DOB" validate:"omitempty,datetime=2006-01-02"`
	MedicalCondition string        `json:"medicalCondition"`
	Hospitalised     bool          `json:"hospitalised"`
	Relationship     string        `json:"relationship"`
	Address          *AddressInput `json:"address" validate:"required"`
}

// AddressPatch carries optional address changes.
type AddressPatch struct {
	Street  *string `json:"street"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	ZipCode *string `json:"zipCode"`
	Country *string `json:"country"`
}

// UpdateInput is the payload for updating a dependent. Nil fields are left
// unchanged.
type UpdateInput struct {
	DependentID      string        `json:"dependentId" validate:"required"`
	FirstName        *string       `json:"firstName" validate:"omitempty,min=3,max=30"`
	LastName         *string       `json:"lastName" validate:"omitempty,min=3,max=30"`
	Age              *int          `json:"age" validate:"omitempty,min=0,max=120"`
	Gender           *string       `json:"gender" validate:"omitempty,oneof=male female other"`
	Email            *string       `json:"email" validate:"omitempty,email"`
	Mobile           *string       `json:"mobile" validate:"omitempty,mobile"`
	DOB              *string       `json:"DOB" validate:"omitempty,datetime=2006-01-02"`
	MedicalCondition *string       `json:"medicalCondition"`
	Hospitalised     *bool         `json:"hospitalised"`
	Relationship     *string       `json:"relationship"`
	Address          *AddressPatch `json:"address"`
}

// Service implements the dependent roster.
type Service struct {
	gate     Gate
	accounts careauth.AccountProvider
	repo     repository.Dependents
	now      func() time.Time
}

// NewService creates a Service. now may be nil.
func NewService(gate Gate, accounts careauth.AccountProvider, repo repository.Dependents, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{gate: gate, accounts: accounts, repo: repo, now: now}
}

// Add creates a dependent owned by the calling provider.
func (s *Service) Add(ctx context.Context, identity careauth.Identity, in AddInput) (repository.Dependent, error) {
	if err := s.gate.AuthorizeOperation(identity, careauth.OperationDependentAdd, ""); err != nil {
		return repository.Dependent{}, err
	}
	if err := validation.Struct(in); err != nil {
		return repository.Dependent{}, err
	}
	provider, err := s.accounts.FindByProviderID(ctx, identity.ProviderID)
	if err != nil {
		return repository.Dependent{}, err
	}

	now := s.now().UTC()
	d := repository.Dependent{
		ID:               internal.NewEntityID("DPT"),
		ProviderID:       provider.ProviderID,
		ProviderName:     provider.FullName(),
		ProviderMobile:   provider.Mobile,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Email:            strings.ToLower(in.Email),
		Mobile:           in.Mobile,
		Gender:           in.Gender,
		Age:              *in.Age,
		DOB:              parseDOB(in.DOB),
		Relationship:     in.Relationship,
		MedicalCondition: in.MedicalCondition,
		Hospitalised:     in.Hospitalised,
		Address: repository.Address{
			Street:  in.Address.Street,
			City:    in.Address.City,
			State:   in.Address.State,
			ZipCode: in.Address.ZipCode,
			Country: in.Address.Country,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateDependent(ctx, d); err != nil {
		return repository.Dependent{}, conflict(err)
	}
	return d, nil
}

// Update applies in to a dependent owned by the caller.
func (s *Service) Update(ctx context.Context, identity careauth.Identity, in UpdateInput) (repository.Dependent, error) {
	if err := s.gate.AuthorizeOperation(identity, careauth.OperationDependentUpdate, ""); err != nil {
		return repository.Dependent{}, err
	}
	if err := validation.Struct(in); err != nil {
		return repository.Dependent{}, err
	}
	d, err := s.owned(ctx, identity, careauth.OperationDependentUpdate, in.DependentID)
	if err != nil {
		return repository.Dependent{}, err
	}

	apply(&d, in)
	d.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateDependent(ctx, d); err != nil {
		return repository.Dependent{}, conflict(err)
	}
	return d, nil
}

// Delete removes a dependent owned by the caller.
func (s *Service) Delete(ctx context.Context, identity careauth.Identity, dependentID string) error {
	if err := s.gate.AuthorizeOperation(identity, careauth.OperationDependentDelete, ""); err != nil {
		return err
	}
	if strings.TrimSpace(dependentID) == "" {
		return fmt.Errorf("%w: \"dependentId\" is required", careauth.ErrValidation)
	}
	if _, err := s.owned(ctx, identity, careauth.OperationDependentDelete, dependentID); err != nil {
		return err
	}
	return s.repo.DeleteDependent(ctx, dependentID)
}

// List returns the dependents owned by the caller.
func (s *Service) List(ctx context.Context, identity careauth.Identity) ([]repository.Dependent, error) {
	if err := s.gate.AuthorizeOperation(identity, careauth.OperationDependentList, ""); err != nil {
		return nil, err
	}
	provider, err := s.accounts.FindByProviderID(ctx, identity.ProviderID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListDependents(ctx, provider.ProviderID)
}

// owned loads the caller's provider record and the dependent, then checks
// ownership through the gate.
func (s *Service) owned(ctx context.Context, identity careauth.Identity, operation, dependentID string) (repository.Dependent, error) {
	if _, err := s.accounts.FindByProviderID(ctx, identity.ProviderID); err != nil {
		return repository.Dependent{}, err
	}
	d, err := s.repo.FindDependent(ctx, dependentID)
	if err != nil {
		return repository.Dependent{}, err
	}
	if err := s.gate.AuthorizeOperation(identity, operation, d.ProviderID); err != nil {
		return repository.Dependent{}, err
	}
	return d, nil
}

func apply(d *repository.Dependent, in UpdateInput) {
	setString(&d.FirstName, in.FirstName)
	setString(&d.LastName, in.LastName)
	setString(&d.Gender, in.Gender)
	setString(&d.Mobile, in.Mobile)
	setString(&d.MedicalCondition, in.MedicalCondition)
	setString(&d.Relationship, in.Relationship)
	if in.Email != nil {
		d.Email = strings.ToLower(*in.Email)
	}
	if in.Age != nil {
		d.Age = *in.Age
	}
	if in.Hospitalised != nil {
		d.Hospitalised = *in.Hospitalised
	}
	if in.DOB != nil {
		d.DOB = parseDOB(*in.DOB)
	}
	if a := in.Address; a != nil {
		setString(&d.Address.Street, a.Street)
		setString(&d.Address.City, a.City)
		setString(&d.Address.State, a.State)
		setString(&d.Address.ZipCode, a.ZipCode)
		setString(&d.Address.Country, a.Country)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// parseDOB expects input already checked by the datetime rule.
func parseDOB(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dobLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func conflict(err error) error {
	if errors.Is(err, careauth.ErrConflict) {
		return ErrDependentExists
	}
	return err
}

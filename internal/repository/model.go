package repository

import (
	"context"
	"time"

	"github.com/techcare/careauth"
)

// Address is a dependent's postal address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Dependent is a care recipient managed by one provider.
type Dependent struct {
	ID               string     `json:"dependentId"`
	ProviderID       string     `json:"providerId"`
	ProviderName     string     `json:"providerName"`
	ProviderMobile   string     `json:"providerMobileNo"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Email            string     `json:"email"`
	Mobile           string     `json:"mobile"`
	Gender           string     `json:"gender"`
	Age              int        `json:"age"`
	DOB              *time.Time `json:"DOB"`
	Relationship     string     `json:"relationship"`
	MedicalCondition string     `json:"medicalCondition"`
	Hospitalised     bool       `json:"hospitalised"`
	Address          Address    `json:"address"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Accounts stores account records and resolves them for the engine.
type Accounts interface {
	careauth.AccountProvider
	CreateAccount(ctx context.Context, account careauth.Account) error
}

// Dependents stores dependent records.
type Dependents interface {
	CreateDependent(ctx context.Context, d Dependent) error
	FindDependent(ctx context.Context, dependentID string) (Dependent, error)
	UpdateDependent(ctx context.Context, d Dependent) error
	DeleteDependent(ctx context.Context, dependentID string) error
	ListDependents(ctx context.Context, providerID string) ([]Dependent, error)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/techcare/careauth"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type accountModel struct {
	AccountID  string    `gorm:"column:account_id;primaryKey"`
	FirstName  string    `gorm:"column:first_name"`
	LastName   string    `gorm:"column:last_name"`
	Email      string    `gorm:"column:email;uniqueIndex"`
	Mobile     string    `gorm:"column:mobile;uniqueIndex"`
	Role       string    `gorm:"column:role"`
	ProviderID *string   `gorm:"column:provider_id;uniqueIndex"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (accountModel) TableName() string { return "accounts" }

type addressModel struct {
	Street  string `gorm:"column:street"`
	City    string `gorm:"column:city"`
	State   string `gorm:"column:state"`
	ZipCode string `gorm:"column:zip_code"`
	Country string `gorm:"column:country"`
}

type dependentModel struct {
	DependentID      string       `gorm:"column:dependent_id;primaryKey"`
	ProviderID       string       `gorm:"column:provider_id;index"`
	ProviderName     string       `gorm:"column:provider_name"`
	ProviderMobile   string       `gorm:"column:provider_mobile"`
	FirstName        string       `gorm:"column:first_name"`
	LastName         string       `gorm:"column:last_name"`
	Email            string       `gorm:"column:email;uniqueIndex"`
	Mobile           string       `gorm:"column:mobile"`
	Gender           string       `gorm:"column:gender"`
	Age              int          `gorm:"column:age"`
	DOB              *time.Time   `gorm:"column:dob"`
	Relationship     string       `gorm:"column:relationship"`
	MedicalCondition string       `gorm:"column:medical_condition"`
	Hospitalised     bool         `gorm:"column:hospitalised"`
	Address          addressModel `gorm:"embedded;embeddedPrefix:address_"`
	CreatedAt        time.Time    `gorm:"column:created_at"`
	UpdatedAt        time.Time    `gorm:"column:updated_at"`
}

func (dependentModel) TableName() string { return "dependents" }

// Postgres implements Accounts and Dependents on GORM.
type Postgres struct {
	db *gorm.DB
}

// Connect opens a pooled GORM connection and pings it.
func Connect(ctx context.Context, databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(15 * time.Minute)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgres wraps an open GORM handle.
func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates or updates the accounts and dependents tables.
func (p *Postgres) Migrate(ctx context.Context) error {
	if err := p.db.WithContext(ctx).AutoMigrate(&accountModel{}, &dependentModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// CreateAccount inserts account. A duplicate email, mobile or provider ID
// returns careauth.ErrConflict.
func (p *Postgres) CreateAccount(ctx context.Context, account careauth.Account) error {
	rec := toAccountModel(account)
	if err := p.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return mapError(err, nil)
	}
	return nil
}

// FindByMobile implements careauth.AccountProvider.
func (p *Postgres) FindByMobile(ctx context.Context, mobile string) (careauth.Account, error) {
	var rec accountModel
	if err := p.db.WithContext(ctx).Where("mobile = ?", mobile).Take(&rec).Error; err != nil {
		return careauth.Account{}, mapError(err, careauth.ErrAccountNotFound)
	}
	return toAccount(rec), nil
}

// FindByProviderID implements careauth.AccountProvider.
func (p *Postgres) FindByProviderID(ctx context.Context, providerID string) (careauth.Account, error) {
	var rec accountModel
	err := p.db.WithContext(ctx).
		Where("provider_id = ? AND role = ?", providerID, string(careauth.RoleProvider)).
		Take(&rec).Error
	if err != nil {
		return careauth.Account{}, mapError(err, careauth.ErrProviderNotFound)
	}
	return toAccount(rec), nil
}

// CreateDependent inserts d. A duplicate email returns careauth.ErrConflict.
func (p *Postgres) CreateDependent(ctx context.Context, d Dependent) error {
	rec := toDependentModel(d)
	if err := p.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return mapError(err, nil)
	}
	return nil
}

// FindDependent loads one dependent by ID.
func (p *Postgres) FindDependent(ctx context.Context, dependentID string) (Dependent, error) {
	var rec dependentModel
	if err := p.db.WithContext(ctx).Where("dependent_id = ?", dependentID).Take(&rec).Error; err != nil {
		return Dependent{}, mapError(err, careauth.ErrDependentNotFound)
	}
	return toDependent(rec), nil
}

// UpdateDependent overwrites the mutable columns of d.
func (p *Postgres) UpdateDependent(ctx context.Context, d Dependent) error {
	rec := toDependentModel(d)
	res := p.db.WithContext(ctx).
		Model(&dependentModel{}).
		Where("dependent_id = ?", d.ID).
		Updates(map[string]any{
			"first_name":        rec.FirstName,
			"last_name":         rec.LastName,
			"email":             rec.Email,
			"mobile":            rec.Mobile,
			"gender":            rec.Gender,
			"age":               rec.Age,
			"dob":               rec.DOB,
			"relationship":      rec.Relationship,
			"medical_condition": rec.MedicalCondition,
			"hospitalised":      rec.Hospitalised,
			"address_street":    rec.Address.Street,
			"address_city":      rec.Address.City,
			"address_state":     rec.Address.State,
			"address_zip_code":  rec.Address.ZipCode,
			"address_country":   rec.Address.Country,
			"updated_at":        rec.UpdatedAt,
		})
	if res.Error != nil {
		return mapError(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return careauth.ErrDependentNotFound
	}
	return nil
}

// DeleteDependent removes a dependent by ID.
func (p *Postgres) DeleteDependent(ctx context.Context, dependentID string) error {
	res := p.db.WithContext(ctx).Where("dependent_id = ?", dependentID).Delete(&dependentModel{})
	if res.Error != nil {
		return mapError(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return careauth.ErrDependentNotFound
	}
	return nil
}

// ListDependents returns the dependents owned by providerID, oldest first.
func (p *Postgres) ListDependents(ctx context.Context, providerID string) ([]Dependent, error) {
	var recs []dependentModel
	err := p.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at").
		Find(&recs).Error
	if err != nil {
		return nil, mapError(err, nil)
	}
	out := make([]Dependent, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDependent(rec))
	}
	return out, nil
}

// mapError translates driver errors into careauth sentinels. notFound is
// returned for gorm.ErrRecordNotFound when non-nil.
func mapError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case notFound != nil && errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", careauth.ErrConflict, err)
	default:
		return fmt.Errorf("%w: %v", careauth.ErrUnavailable, err)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func toAccountModel(a careauth.Account) accountModel {
	rec := accountModel{
		AccountID: a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Mobile:    a.Mobile,
		Role:      string(a.Role),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.ProviderID != "" {
		id := a.ProviderID
		rec.ProviderID = &id
	}
	return rec
}

func toAccount(rec accountModel) careauth.Account {
	a := careauth.Account{
		ID:        rec.AccountID,
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		Email:     rec.Email,
		Mobile:    rec.Mobile,
		Role:      careauth.Role(rec.Role),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.ProviderID != nil {
		a.ProviderID = *rec.ProviderID
	}
	return a
}

func toDependentModel(d Dependent) dependentModel {
	return dependentModel{
		DependentID:      d.ID,
		ProviderID:       d.ProviderID,
		ProviderName:     d.ProviderName,
		ProviderMobile:   d.ProviderMobile,
		FirstName:        d.FirstName,
		LastName:         d.LastName,
		Email:            d.Email,
		Mobile:           d.Mobile,
		Gender:           d.Gender,
		Age:              d.Age,
		DOB:              d.DOB,
		Relationship:     d.Relationship,
		MedicalCondition: d.MedicalCondition,
		Hospitalised:     d.Hospitalised,
		Address: addressModel{
			Street:  d.Address.Street,
			City:    d.Address.City,
			State:   d.Address.State,
			ZipCode: d.Address.ZipCode,
			Country: d.Address.Country,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toDependent(rec dependentModel) Dependent {
	return Dependent{
		ID:               rec.DependentID,
		ProviderID:       rec.ProviderID,
		ProviderName:     rec.ProviderName,
		ProviderMobile:   rec.ProviderMobile,
		FirstName:        rec.FirstName,
		LastName:         rec.LastName,
		Email:            rec.Email,
		Mobile:           rec.Mobile,
		Gender:           rec.Gender,
		Age:              rec.Age,
		DOB:              rec.DOB,
		Relationship:     rec.Relationship,
		MedicalCondition: rec.MedicalCondition,
		Hospitalised:     rec.Hospitalised,
		Address: Address{
			Street:  rec.Address.Street,
			City:    rec.Address.City,
			State:   rec.Address.State,
			ZipCode: rec.Address.ZipCode,
			Country: rec.Address.Country,
		},
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

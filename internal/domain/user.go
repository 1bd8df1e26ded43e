package domain

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Role distinguishes the two kinds of marketplace accounts.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleTenant || r == RoleLandlord
}

// Address is the postal address shared by tenants, landlords and properties.
type Address struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
}

// Complete reports whether the address has enough parts to be mailed to.
func (a Address) Complete() bool {
	return strings.TrimSpace(a.AddressLine1) != "" && strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.State) != "" && strings.TrimSpace(a.Zip) != ""
}

// LinkedAccount is the denormalized summary of a bank account linked through the aggregator.
type LinkedAccount struct {
	AccountID        string  `json:"accountId"`
	Name             string  `json:"name"`
	Mask             string  `json:"mask"`
	Type             string  `json:"type"`
	Subtype          string  `json:"subtype"`
	AvailableBalance float64 `json:"availableBalance"`
	CurrentBalance   float64 `json:"currentBalance"`
}

// Tenant represents an applicant.
type Tenant struct {
	Base
	SupabaseID      string     `json:"supabaseId" gorm:"type:varchar(64);uniqueIndex;not null"`
	Email           string     `json:"email" gorm:"index"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Phone           string     `json:"phone"`
	Address         Address    `json:"address" gorm:"embedded"`
	SSNHash         string     `json:"-"`
	SSNLastFour     string     `json:"ssnLastFour,omitempty" gorm:"type:varchar(4)"`
	DateOfBirth     *time.Time `json:"dateOfBirth,omitempty"`
	ProfileImageURL string     `json:"profileImageUrl"`

	IdentityVerified      bool            `json:"identityVerified" gorm:"default:false"`
	IdentityVerifiedAt    *time.Time      `json:"identityVerifiedAt,omitempty"`
	BankAccountVerified   bool            `json:"bankAccountVerified" gorm:"default:false"`
	BankAccountVerifiedAt *time.Time      `json:"bankAccountVerifiedAt,omitempty"`
	PlaidVerified         bool            `json:"plaidVerified" gorm:"default:false"`
	PlaidVerifiedAt       *time.Time      `json:"plaidVerifiedAt,omitempty"`
	VerifiedIncome        decimal.Decimal `json:"verifiedIncome" gorm:"type:numeric(12,2);default:0"`
	IncomeVerifiedAt      *time.Time      `json:"incomeVerifiedAt,omitempty"`
	PlaidAccessToken      string          `json:"-"`
	BankAccounts          datatypes.JSON  `json:"bankAccounts"`

	PendingApplications  int `json:"pendingApplications" gorm:"default:0"`
	ApprovedApplications int `json:"approvedApplications" gorm:"default:0"`
	RejectedApplications int `json:"rejectedApplications" gorm:"default:0"`
}

// FullName joins first and last name.
func (t *Tenant) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// LinkedAccounts decodes the stored bank account summaries.
func (t *Tenant) LinkedAccounts() ([]LinkedAccount, error) {
	if len(t.BankAccounts) == 0 {
		return nil, nil
	}
	var accounts []LinkedAccount
	if err := json.Unmarshal(t.BankAccounts, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Landlord represents a property owner.
type Landlord struct {
	Base
	SupabaseID      string     `json:"supabaseId" gorm:"type:varchar(64);uniqueIndex;not null"`
	Email           string     `json:"email" gorm:"index"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Phone           string     `json:"phone"`
	BusinessName    string     `json:"businessName"`
	BusinessAddress Address    `json:"businessAddress" gorm:"embedded;embeddedPrefix:business_"`
	ProfileImageURL string     `json:"profileImageUrl"`
	PayoutHolder    string     `json:"payoutAccountHolder"`
	PayoutRouting   string     `json:"payoutRoutingNumber"`
	PayoutLastFour  string     `json:"payoutAccountLastFour" gorm:"type:varchar(4)"`
	Properties      []Property `json:"properties,omitempty" gorm:"foreignKey:LandlordID"`
}

// VerificationUpdate lists the verification columns a single check may write.
// Nil fields are left untouched.
type VerificationUpdate struct {
	IdentityVerified      *bool
	IdentityVerifiedAt    *time.Time
	BankAccountVerified   *bool
	BankAccountVerifiedAt *time.Time
	BankAccounts          datatypes.JSON
	VerifiedIncome        *decimal.Decimal
	IncomeVerifiedAt      *time.Time
	PlaidVerified         *bool
	PlaidVerifiedAt       *time.Time
	PlaidAccessToken      *string
}

// TenantRepository defines data access for tenants
type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetBySupabaseID(ctx context.Context, supabaseID string) (*Tenant, error)
	Update(ctx context.Context, tenant *Tenant) error
	UpdateVerification(ctx context.Context, id string, update VerificationUpdate) error
	SetProfileImage(ctx context.Context, id, url string) error
}

// LandlordRepository defines data access for landlords
type LandlordRepository interface {
	Create(ctx context.Context, landlord *Landlord) error
	GetByID(ctx context.Context, id string) (*Landlord, error)
	GetBySupabaseID(ctx context.Context, supabaseID string) (*Landlord, error)
	Update(ctx context.Context, landlord *Landlord) error
	SetProfileImage(ctx context.Context, id, url string) error
}

// LocalCredential backs the development auth provider.
type LocalCredential struct {
	Base
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         Role   `gorm:"type:varchar(16)"`
}

// CredentialRepository defines data access for local credentials
type CredentialRepository interface {
	Create(ctx context.Context, cred *LocalCredential) error
	GetByEmail(ctx context.Context, email string) (*LocalCredential, error)
	GetByID(ctx context.Context, id string) (*LocalCredential, error)
}

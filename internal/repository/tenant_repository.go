package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yourorg/rentmatch/internal/domain"
	"gorm.io/gorm"
)

var tenantProfileColumns = []string{
	"email", "first_name", "last_name", "phone",
	"address_line1", "address_line2", "city", "state", "zip",
	"ssn_hash", "ssn_last_four", "date_of_birth",
}

// GormTenantRepository implements domain.TenantRepository using gorm
type GormTenantRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormTenantRepository creates a new tenant repository
func NewGormTenantRepository(db *gorm.DB, logger *slog.Logger) *GormTenantRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormTenantRepository{db: db, logger: logger}
}

// Create creates a new tenant
func (r *GormTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	if err := r.db.WithContext(ctx).Create(tenant).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict("tenant already exists")
		}
		r.logger.Error("failed to create tenant",
			slog.String("supabase_id", tenant.SupabaseID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *GormTenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	var t domain.Tenant
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "tenant")
	}
	return &t, nil
}

// GetBySupabaseID retrieves a tenant by auth provider user id
func (r *GormTenantRepository) GetBySupabaseID(ctx context.Context, supabaseID string) (*domain.Tenant, error) {
	var t domain.Tenant
	if err := r.db.WithContext(ctx).First(&t, "supabase_id = ?", supabaseID).Error; err != nil {
		return nil, lookupErr(err, "tenant")
	}
	return &t, nil
}

// Update writes the profile columns only; verification state is owned by UpdateVerification
func (r *GormTenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	res := r.db.WithContext(ctx).Model(tenant).Select(tenantProfileColumns).Updates(tenant)
	if res.Error != nil {
		return fmt.Errorf("failed to update tenant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("tenant not found")
	}
	return nil
}

// UpdateVerification writes the non-nil verification fields
func (r *GormTenantRepository) UpdateVerification(ctx context.Context, id string, u domain.VerificationUpdate) error {
	cols := map[string]interface{}{}
	if u.IdentityVerified != nil {
		cols["identity_verified"] = *u.IdentityVerified
	}
	if u.IdentityVerifiedAt != nil {
		cols["identity_verified_at"] = *u.IdentityVerifiedAt
	}
	if u.BankAccountVerified != nil {
		cols["bank_account_verified"] = *u.BankAccountVerified
	}
	if u.BankAccountVerifiedAt != nil {
		cols["bank_account_verified_at"] = *u.BankAccountVerifiedAt
	}
	if u.BankAccounts != nil {
		cols["bank_accounts"] = u.BankAccounts
	}
	if u.VerifiedIncome != nil {
		cols["verified_income"] = *u.VerifiedIncome
	}
	if u.IncomeVerifiedAt != nil {
		cols["income_verified_at"] = *u.IncomeVerifiedAt
	}
	if u.PlaidVerified != nil {
		cols["plaid_verified"] = *u.PlaidVerified
	}
	if u.PlaidVerifiedAt != nil {
		cols["plaid_verified_at"] = *u.PlaidVerifiedAt
	}
	if u.PlaidAccessToken != nil {
		cols["plaid_access_token"] = *u.PlaidAccessToken
	}
	if len(cols) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&domain.Tenant{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		r.logger.Error("failed to update tenant verification",
			slog.String("tenant_id", id),
			slog.String("error", res.Error.Error()),
		)
		return fmt.Errorf("failed to update verification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("tenant not found")
	}
	return nil
}

// SetProfileImage stores or clears the profile image URL
func (r *GormTenantRepository) SetProfileImage(ctx context.Context, id, url string) error {
	res := r.db.WithContext(ctx).Model(&domain.Tenant{}).Where("id = ?", id).Update("profile_image_url", url)
	if res.Error != nil {
		return fmt.Errorf("failed to set profile image: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("tenant not found")
	}
	return nil
}

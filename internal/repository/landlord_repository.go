package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yourorg/rentmatch/internal/domain"
	"gorm.io/gorm"
)

var landlordProfileColumns = []string{
	"email", "first_name", "last_name", "phone", "business_name",
	"business_address_line1", "business_address_line2", "business_city", "business_state", "business_zip",
	"payout_holder", "payout_routing", "payout_last_four",
}

// GormLandlordRepository implements domain.LandlordRepository using gorm
type GormLandlordRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormLandlordRepository creates a new landlord repository
func NewGormLandlordRepository(db *gorm.DB, logger *slog.Logger) *GormLandlordRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormLandlordRepository{db: db, logger: logger}
}

// Create creates a new landlord
func (r *GormLandlordRepository) Create(ctx context.Context, landlord *domain.Landlord) error {
	if err := r.db.WithContext(ctx).Create(landlord).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict("landlord already exists")
		}
		r.logger.Error("failed to create landlord",
			slog.String("supabase_id", landlord.SupabaseID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create landlord: %w", err)
	}
	return nil
}

// GetByID retrieves a landlord by ID
func (r *GormLandlordRepository) GetByID(ctx context.Context, id string) (*domain.Landlord, error) {
	var l domain.Landlord
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "landlord")
	}
	return &l, nil
}

// GetBySupabaseID retrieves a landlord by auth provider user id
func (r *GormLandlordRepository) GetBySupabaseID(ctx context.Context, supabaseID string) (*domain.Landlord, error) {
	var l domain.Landlord
	if err := r.db.WithContext(ctx).First(&l, "supabase_id = ?", supabaseID).Error; err != nil {
		return nil, lookupErr(err, "landlord")
	}
	return &l, nil
}

// Update writes the editable profile columns
func (r *GormLandlordRepository) Update(ctx context.Context, landlord *domain.Landlord) error {
	res := r.db.WithContext(ctx).Model(landlord).Select(landlordProfileColumns).Updates(landlord)
	if res.Error != nil {
		return fmt.Errorf("failed to update landlord: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("landlord not found")
	}
	return nil
}

// SetProfileImage stores or clears the profile image URL
func (r *GormLandlordRepository) SetProfileImage(ctx context.Context, id, url string) error {
	res := r.db.WithContext(ctx).Model(&domain.Landlord{}).Where("id = ?", id).Update("profile_image_url", url)
	if res.Error != nil {
		return fmt.Errorf("failed to set profile image: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("landlord not found")
	}
	return nil
}

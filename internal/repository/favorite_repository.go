package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yourorg/rentmatch/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFavoriteRepository implements domain.FavoriteRepository using gorm
type GormFavoriteRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormFavoriteRepository creates a new favorite repository
func NewGormFavoriteRepository(db *gorm.DB, logger *slog.Logger) *GormFavoriteRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormFavoriteRepository{db: db, logger: logger}
}

// Add saves a favorite; adding an existing one is a no-op
func (r *GormFavoriteRepository) Add(ctx context.Context, tenantID, propertyID string) error {
	fav := domain.Favorite{TenantID: tenantID, PropertyID: propertyID}
	err := r.db.WithContext(ctx).Omit("Property").Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Remove deletes a favorite; removing a missing one is a no-op
func (r *GormFavoriteRepository) Remove(ctx context.Context, tenantID, propertyID string) error {
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND property_id = ?", tenantID, propertyID).
		Delete(&domain.Favorite{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// ListByTenant returns a tenant's favorites with their properties, newest first
func (r *GormFavoriteRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.Favorite, error) {
	var out []domain.Favorite
	err := r.db.WithContext(ctx).Preload("Property").
		Where("tenant_id = ?", tenantID).Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return out, nil
}

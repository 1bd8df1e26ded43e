package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yourorg/rentmatch/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultPageSize = 50

// GormPropertyRepository implements domain.PropertyRepository using gorm
type GormPropertyRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormPropertyRepository creates a new property repository
func NewGormPropertyRepository(db *gorm.DB, logger *slog.Logger) *GormPropertyRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormPropertyRepository{db: db, logger: logger}
}

// Create stores a new listing
func (r *GormPropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	if err := r.db.WithContext(ctx).Omit("Landlord", "Applications").Create(p).Error; err != nil {
		r.logger.Error("failed to create property",
			slog.String("landlord_id", p.LandlordID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

// GetByID retrieves a listing with its landlord
func (r *GormPropertyRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	var p domain.Property
	if err := r.db.WithContext(ctx).Preload("Landlord").First(&p, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "property")
	}
	return &p, nil
}

// Update saves every editable column of an existing listing
func (r *GormPropertyRepository) Update(ctx context.Context, p *domain.Property) error {
	res := r.db.WithContext(ctx).Model(p).
		Select("title", "description", "property_type", "address_line1", "address_line2", "city", "state", "zip",
			"bedrooms", "bathrooms", "square_feet", "price", "available_date", "amenities").
		Updates(p)
	if res.Error != nil {
		return fmt.Errorf("failed to update property: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("property not found")
	}
	return nil
}

// Delete removes a listing; its applications go with it and the
// tenants' application counters drop by what was removed
func (r *GormPropertyRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var groups []struct {
			TenantID string
			Status   domain.ApplicationStatus
			N        int
		}
		err := tx.Model(&domain.Application{}).
			Select("tenant_id, status, COUNT(*) AS n").
			Where("property_id = ?", id).
			Group("tenant_id, status").
			Scan(&groups).Error
		if err != nil {
			return fmt.Errorf("failed to count applications: %w", err)
		}
		for _, g := range groups {
			col, ok := counterColumns[g.Status]
			if !ok || g.N == 0 {
				continue
			}
			if err := bumpCounters(tx, g.TenantID, map[string]int{col: -g.N}); err != nil {
				return err
			}
		}

		sub := tx.Model(&domain.Application{}).Select("id").Where("property_id = ?", id)
		if err := tx.Where("application_id IN (?)", sub).Delete(&domain.ApplicationNote{}).Error; err != nil {
			return fmt.Errorf("failed to delete application notes: %w", err)
		}
		if err := tx.Where("property_id = ?", id).Delete(&domain.Application{}).Error; err != nil {
			return fmt.Errorf("failed to delete applications: %w", err)
		}
		if err := tx.Where("property_id = ?", id).Delete(&domain.Favorite{}).Error; err != nil {
			return fmt.Errorf("failed to delete favorites: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&domain.Property{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete property: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.NotFound("property not found")
		}
		return nil
	})
}

// List returns the listings matching filter and the total match count
func (r *GormPropertyRepository) List(ctx context.Context, f domain.PropertyFilter) ([]domain.Property, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Property{})
	if city := strings.TrimSpace(f.City); city != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(city))
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", f.MinPrice.InexactFloat64())
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", f.MaxPrice.InexactFloat64())
	}
	if f.MinBedrooms > 0 {
		q = q.Where("bedrooms >= ?", f.MinBedrooms)
	}
	if f.AvailableOnly {
		q = q.Where("is_leased = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count properties: %w", err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = defaultPageSize
	}

	var out []domain.Property
	if err := q.Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list properties: %w", err)
	}
	return out, total, nil
}

// ListByLandlord returns every listing owned by a landlord, newest first
func (r *GormPropertyRepository) ListByLandlord(ctx context.Context, landlordID string) ([]domain.Property, error) {
	var out []domain.Property
	if err := r.db.WithContext(ctx).Where("landlord_id = ?", landlordID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list landlord properties: %w", err)
	}
	return out, nil
}

// SetPhotos replaces the photo URL list
func (r *GormPropertyRepository) SetPhotos(ctx context.Context, id string, urls []string) error {
	if urls == nil {
		urls = []string{}
	}
	raw, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("failed to encode photos: %w", err)
	}
	res := r.db.WithContext(ctx).Model(&domain.Property{}).Where("id = ?", id).Update("photos", datatypes.JSON(raw))
	if res.Error != nil {
		return fmt.Errorf("failed to set photos: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("property not found")
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/observability/metrics"
	"github.com/yourorg/rentmatch/internal/security"
	"github.com/yourorg/rentmatch/pkg/config"
)

// PropertyService handles listings for landlords and the public catalogue.
type PropertyService struct {
	profiles
	properties   domain.PropertyRepository
	applications domain.ApplicationRepository
	cache        domain.PropertyCache
	storage      domain.FileStorage
	authz        *security.AuthorizationService
	bucket       string
	limits       config.UploadLimits
	logger       *slog.Logger
}

// NewPropertyService creates a new property service. cache may be nil.
func NewPropertyService(
	landlords domain.LandlordRepository,
	properties domain.PropertyRepository,
	applications domain.ApplicationRepository,
	cache domain.PropertyCache,
	storage domain.FileStorage,
	authz *security.AuthorizationService,
	cfg *config.Config,
	logger *slog.Logger,
) *PropertyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PropertyService{
		profiles:     profiles{landlords: landlords},
		properties:   properties,
		applications: applications,
		cache:        cache,
		storage:      storage,
		authz:        authz,
		bucket:       cfg.Buckets.PropertyPhotos,
		limits:       cfg.Limits,
		logger:       logger,
	}
}

// PropertyInput is the create/update payload for a listing.
type PropertyInput struct {
	Title         string          `json:"title" validate:"required,max=200"`
	Description   string          `json:"description"`
	PropertyType  string          `json:"propertyType" validate:"omitempty,oneof=apartment house condo townhouse"`
	Address       domain.Address  `json:"address"`
	Bedrooms      int             `json:"bedrooms" validate:"gte=0,lte=50"`
	Bathrooms     float64         `json:"bathrooms" validate:"gte=0,lte=50"`
	SquareFeet    int             `json:"squareFeet" validate:"gte=0"`
	Price         decimal.Decimal `json:"price"`
	AvailableDate *time.Time      `json:"availableDate"`
	Amenities     []string        `json:"amenities"`
}

func (in PropertyInput) apply(p *domain.Property) error {
	if !in.Price.IsPositive() {
		return domain.Validation("price must be greater than zero")
	}
	if !in.Address.Complete() {
		return domain.Validation("address line 1, city, state and zip are required")
	}
	amenities, err := json.Marshal(in.Amenities)
	if err != nil {
		return fmt.Errorf("failed to encode amenities: %w", err)
	}
	p.Title = in.Title
	p.Description = in.Description
	p.PropertyType = in.PropertyType
	p.Address = in.Address
	p.Bedrooms = in.Bedrooms
	p.Bathrooms = in.Bathrooms
	p.SquareFeet = in.SquareFeet
	p.Price = in.Price
	p.AvailableDate = in.AvailableDate
	p.Amenities = datatypes.JSON(amenities)
	return nil
}

// Create adds a listing for the calling landlord.
func (s *PropertyService) Create(ctx context.Context, supabaseID string, in PropertyInput) (*domain.Property, error) {
	l, err := s.landlord(ctx, supabaseID)
	if err != nil {
		return nil, err
	}
	p := &domain.Property{LandlordID: l.ID, Photos: datatypes.JSON("[]")}
	if err := in.apply(p); err != nil {
		return nil, err
	}
	if err := s.properties.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("property created", slog.String("property_id", p.ID), slog.String("landlord_id", l.ID))
	return p, nil
}

// Update edits a listing the caller owns.
func (s *PropertyService) Update(ctx context.Context, supabaseID, id string, in PropertyInput) (*domain.Property, error) {
	p, err := s.owned(ctx, supabaseID, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(p); err != nil {
		return nil, err
	}
	if err := s.properties.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return p, nil
}

// Delete removes a listing the caller owns together with its applications.
func (s *PropertyService) Delete(ctx context.Context, supabaseID, id string) error {
	if _, err := s.owned(ctx, supabaseID, id); err != nil {
		return err
	}
	if err := s.properties.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.logger.Info("property deleted", slog.String("property_id", id))
	return nil
}

// ListMine returns the caller's listings.
func (s *PropertyService) ListMine(ctx context.Context, supabaseID string) ([]domain.Property, error) {
	l, err := s.landlord(ctx, supabaseID)
	if err != nil {
		return nil, err
	}
	return s.properties.ListByLandlord(ctx, l.ID)
}

// ListPublic searches the catalogue.
func (s *PropertyService) ListPublic(ctx context.Context, f domain.PropertyFilter) ([]domain.Property, int64, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, 0, domain.Validation("minPrice must not exceed maxPrice")
	}
	return s.properties.List(ctx, f)
}

// GetPublic returns one listing, served from the cache when possible.
func (s *PropertyService) GetPublic(ctx context.Context, id string) (*domain.Property, error) {
	if s.cache != nil {
		if p, ok := s.cache.Get(ctx, id); ok {
			metrics.ObserveCache("property", true)
			return p, nil
		}
		metrics.ObserveCache("property", false)
	}
	p, err := s.properties.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, p)
	}
	return p, nil
}

// UploadPhotos appends photos to a listing the caller owns.
func (s *PropertyService) UploadPhotos(ctx context.Context, supabaseID, id string, files []Upload) ([]string, error) {
	if len(files) == 0 {
		return nil, domain.Validation("no files uploaded")
	}
	if len(files) > s.limits.PhotoFiles {
		return nil, domain.Validation(fmt.Sprintf("at most %d photos per upload", s.limits.PhotoFiles))
	}
	for _, f := range files {
		if err := checkUpload(f, s.limits.PhotoBytes, "image/"); err != nil {
			return nil, err
		}
	}

	p, err := s.owned(ctx, supabaseID, id)
	if err != nil {
		return nil, err
	}

	urls := p.PhotoURLs()
	for _, f := range files {
		url, err := s.storage.Upload(ctx, s.bucket, objectName(p.ID, f.Filename), f.ContentType, f.Body)
		if err != nil {
			s.logger.Error("photo upload failed", slog.String("property_id", id), slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to upload photo: %w", err)
		}
		urls = append(urls, url)
	}
	if err := s.properties.SetPhotos(ctx, id, urls); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return urls, nil
}

// Applications lists the applications on a listing the caller owns.
func (s *PropertyService) Applications(ctx context.Context, supabaseID, id string) ([]domain.Application, error) {
	if _, err := s.owned(ctx, supabaseID, id); err != nil {
		return nil, err
	}
	return s.applications.ListByProperty(ctx, id)
}

func (s *PropertyService) owned(ctx context.Context, supabaseID, id string) (*domain.Property, error) {
	l, err := s.landlord(ctx, supabaseID)
	if err != nil {
		return nil, err
	}
	p, err := s.properties.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.ValidateOwnership(l.ID, p.LandlordID, "property", id); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PropertyService) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

package service

import (
	"context"
	"log/slog"

	"github.com/yourorg/rentmatch/internal/domain"
)

// FavoriteService manages a tenant's saved listings.
type FavoriteService struct {
	profiles
	favorites  domain.FavoriteRepository
	properties domain.PropertyRepository
	logger     *slog.Logger
}

// NewFavoriteService creates a new favorite service
func NewFavoriteService(tenants domain.TenantRepository, favorites domain.FavoriteRepository, properties domain.PropertyRepository, logger *slog.Logger) *FavoriteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FavoriteService{
		profiles:   profiles{tenants: tenants},
		favorites:  favorites,
		properties: properties,
		logger:     logger,
	}
}

// Add saves a listing. Saving it twice is not an error.
func (s *FavoriteService) Add(ctx context.Context, supabaseID, propertyID string) error {
	t, err := s.tenant(ctx, supabaseID)
	if err != nil {
		return err
	}
	if _, err := s.properties.GetByID(ctx, propertyID); err != nil {
		return err
	}
	return s.favorites.Add(ctx, t.ID, propertyID)
}

// Remove unsaves a listing. Removing a listing that was never saved is not an error.
func (s *FavoriteService) Remove(ctx context.Context, supabaseID, propertyID string) error {
	t, err := s.tenant(ctx, supabaseID)
	if err != nil {
		return err
	}
	return s.favorites.Remove(ctx, t.ID, propertyID)
}

// List returns the caller's saved listings.
func (s *FavoriteService) List(ctx context.Context, supabaseID string) ([]domain.Favorite, error) {
	t, err := s.tenant(ctx, supabaseID)
	if err != nil {
		return nil, err
	}
	return s.favorites.ListByTenant(ctx, t.ID)
}

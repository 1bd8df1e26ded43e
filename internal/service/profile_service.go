package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/pkg/config"
)

// ProfileService manages tenant and landlord profiles and their images.
type ProfileService struct {
	profiles
	storage domain.FileStorage
	buckets config.Buckets
	limits  config.UploadLimits
	logger  *slog.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(
	tenants domain.TenantRepository,
	landlords domain.LandlordRepository,
	storage domain.FileStorage,
	cfg *config.Config,
	logger *slog.Logger,
) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		profiles: profiles{tenants: tenants, landlords: landlords},
		storage:  storage,
		buckets:  cfg.Buckets,
		limits:   cfg.Limits,
		logger:   logger,
	}
}

// TenantProfileInput is the editable part of a tenant profile. SSN is accepted
// in full and stored only as a bcrypt hash plus its last four digits.
type TenantProfileInput struct {
	FirstName   string         `json:"firstName" validate:"required"`
	LastName    string         `json:"lastName" validate:"required"`
	Phone       string         `json:"phone" validate:"omitempty,min=7,max=20"`
	Address     domain.Address `json:"address"`
	SSN         string         `json:"ssn" validate:"omitempty,len=9,numeric"`
	DateOfBirth *time.Time     `json:"dateOfBirth"`
}

// LandlordProfileInput is the editable part of a landlord profile. The payout
// account number is reduced to its last four digits.
type LandlordProfileInput struct {
	FirstName           string         `json:"firstName" validate:"required"`
	LastName            string         `json:"lastName" validate:"required"`
	Phone               string         `json:"phone" validate:"omitempty,min=7,max=20"`
	BusinessName        string         `json:"businessName"`
	BusinessAddress     domain.Address `json:"businessAddress"`
	PayoutAccountHolder string         `json:"payoutAccountHolder"`
	PayoutRoutingNumber string         `json:"payoutRoutingNumber" validate:"omitempty,len=9,numeric"`
	PayoutAccountNumber string         `json:"payoutAccountNumber" validate:"omitempty,min=4,max=17,numeric"`
}

// GetTenant returns the caller's tenant profile.
func (s *ProfileService) GetTenant(ctx context.Context, supabaseID string) (*domain.Tenant, error) {
	return s.tenant(ctx, supabaseID)
}

// GetLandlord returns the caller's landlord profile with its listings.
func (s *ProfileService) GetLandlord(ctx context.Context, supabaseID string) (*domain.Landlord, error) {
	return s.landlord(ctx, supabaseID)
}

// UpdateTenant writes the profile fields. Verification state is not touched.
func (s *ProfileService) UpdateTenant(ctx context.Context, supabaseID string, in TenantProfileInput) (*domain.Tenant, error) {
	t, err := s.tenant(ctx, supabaseID)
	if err != nil {
		return nil, err
	}

	t.FirstName = strings.TrimSpace(in.FirstName)
	t.LastName = strings.TrimSpace(in.LastName)
	t.Phone = in.Phone
	t.Address = in.Address
	t.DateOfBirth = in.DateOfBirth
	if in.SSN != "" {
		if !allDigits(in.SSN) || len(in.SSN) != 9 {
			return nil, domain.Validation("ssn must be 9 digits")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.SSN), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash ssn: %w", err)
		}
		t.SSNHash = string(hash)
		t.SSNLastFour = in.SSN[len(in.SSN)-4:]
	}

	if err := s.tenants.Update(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("tenant profile updated", slog.String("tenant_id", t.ID))
	return t, nil
}

// UpdateLandlord writes the profile and payout fields.
func (s *ProfileService) UpdateLandlord(ctx context.Context, supabaseID string, in LandlordProfileInput) (*domain.Landlord, error) {
	l, err := s.landlord(ctx, supabaseID)
	if err != nil {
		return nil, err
	}

	l.FirstName = strings.TrimSpace(in.FirstName)
	l.LastName = strings.TrimSpace(in.LastName)
	l.Phone = in.Phone
	l.BusinessName = in.BusinessName
	l.BusinessAddress = in.BusinessAddress
	l.PayoutHolder = in.PayoutAccountHolder
	l.PayoutRouting = in.PayoutRoutingNumber
	if n := in.PayoutAccountNumber; n != "" {
		if !allDigits(n) || len(n) < 4 {
			return nil, domain.Validation("payout account number must be digits")
		}
		l.PayoutLastFour = n[len(n)-4:]
	}

	if err := s.landlords.Update(ctx, l); err != nil {
		return nil, err
	}
	s.logger.Info("landlord profile updated", slog.String("landlord_id", l.ID))
	return l, nil
}

// UploadImage replaces the caller's profile image and returns its URL.
func (s *ProfileService) UploadImage(ctx context.Context, c Caller, u Upload) (string, error) {
	if err := checkUpload(u, s.limits.ProfileImageBytes, "image/"); err != nil {
		return "", err
	}
	id, previous, err := s.currentImage(ctx, c)
	if err != nil {
		return "", err
	}

	url, err := s.storage.Upload(ctx, s.buckets.ProfileImages, objectName(string(c.Role)+"/"+id, u.Filename), u.ContentType, u.Body)
	if err != nil {
		s.logger.Error("profile image upload failed", slog.String("profile_id", id), slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	if err := s.setImage(ctx, c.Role, id, url); err != nil {
		return "", err
	}
	s.removeObject(ctx, previous)
	return url, nil
}

// DeleteImage clears the caller's profile image.
func (s *ProfileService) DeleteImage(ctx context.Context, c Caller) error {
	id, previous, err := s.currentImage(ctx, c)
	if err != nil {
		return err
	}
	if previous == "" {
		return domain.NotFound("no profile image")
	}
	if err := s.setImage(ctx, c.Role, id, ""); err != nil {
		return err
	}
	s.removeObject(ctx, previous)
	return nil
}

func (s *ProfileService) currentImage(ctx context.Context, c Caller) (id, url string, err error) {
	if c.Role == domain.RoleLandlord {
		l, err := s.landlord(ctx, c.SupabaseID)
		if err != nil {
			return "", "", err
		}
		return l.ID, l.ProfileImageURL, nil
	}
	t, err := s.tenant(ctx, c.SupabaseID)
	if err != nil {
		return "", "", err
	}
	return t.ID, t.ProfileImageURL, nil
}

func (s *ProfileService) setImage(ctx context.Context, role domain.Role, id, url string) error {
	if role == domain.RoleLandlord {
		return s.landlords.SetProfileImage(ctx, id, url)
	}
	return s.tenants.SetProfileImage(ctx, id, url)
}

// removeObject deletes a replaced image. Failures leave an orphan object and are only logged.
func (s *ProfileService) removeObject(ctx context.Context, url string) {
	p := objectPathFromURL(url, s.buckets.ProfileImages)
	if p == "" {
		return
	}
	if err := s.storage.Delete(ctx, s.buckets.ProfileImages, p); err != nil {
		s.logger.Warn("failed to delete old profile image", slog.String("path", p), slog.String("error", err.Error()))
	}
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

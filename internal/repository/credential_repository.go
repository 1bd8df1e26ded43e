package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yourorg/rentmatch/internal/domain"
	"gorm.io/gorm"
)

// GormCredentialRepository implements domain.CredentialRepository using gorm
type GormCredentialRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormCredentialRepository creates a new credential repository
func NewGormCredentialRepository(db *gorm.DB, logger *slog.Logger) *GormCredentialRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormCredentialRepository{db: db, logger: logger}
}

// Create stores a credential; a duplicate email is a Conflict
func (r *GormCredentialRepository) Create(ctx context.Context, cred *domain.LocalCredential) error {
	if err := r.db.WithContext(ctx).Create(cred).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict("email already registered")
		}
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

// GetByEmail retrieves a credential by email
func (r *GormCredentialRepository) GetByEmail(ctx context.Context, email string) (*domain.LocalCredential, error) {
	var c domain.LocalCredential
	if err := r.db.WithContext(ctx).First(&c, "email = ?", email).Error; err != nil {
		return nil, lookupErr(err, "credential")
	}
	return &c, nil
}

// GetByID retrieves a credential by ID
func (r *GormCredentialRepository) GetByID(ctx context.Context, id string) (*domain.LocalCredential, error) {
	var c domain.LocalCredential
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "credential")
	}
	return &c, nil
}

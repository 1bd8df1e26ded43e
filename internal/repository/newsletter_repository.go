package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yourorg/rentmatch/internal/domain"
	"gorm.io/gorm"
)

// GormNewsletterRepository implements domain.NewsletterRepository using gorm
type GormNewsletterRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormNewsletterRepository creates a new subscriber repository
func NewGormNewsletterRepository(db *gorm.DB, logger *slog.Logger) *GormNewsletterRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormNewsletterRepository{db: db, logger: logger}
}

// Create stores a subscriber; a duplicate email is a Conflict
func (r *GormNewsletterRepository) Create(ctx context.Context, sub *domain.NewsletterSubscriber) error {
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict("already subscribed")
		}
		return fmt.Errorf("failed to create subscriber: %w", err)
	}
	return nil
}

// GetByID retrieves a subscriber by ID
func (r *GormNewsletterRepository) GetByID(ctx context.Context, id string) (*domain.NewsletterSubscriber, error) {
	var s domain.NewsletterSubscriber
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "subscriber")
	}
	return &s, nil
}

// GetByEmail retrieves a subscriber by email
func (r *GormNewsletterRepository) GetByEmail(ctx context.Context, email string) (*domain.NewsletterSubscriber, error) {
	var s domain.NewsletterSubscriber
	if err := r.db.WithContext(ctx).First(&s, "email = ?", email).Error; err != nil {
		return nil, lookupErr(err, "subscriber")
	}
	return &s, nil
}

// List returns every subscriber, oldest first
func (r *GormNewsletterRepository) List(ctx context.Context) ([]domain.NewsletterSubscriber, error) {
	var out []domain.NewsletterSubscriber
	if err := r.db.WithContext(ctx).Order("subscribed_at ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	return out, nil
}

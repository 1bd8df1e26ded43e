package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewsletterSubscriber is one signup; email is unique.
type NewsletterSubscriber struct {
	ID           string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name         string    `json:"name"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	SubscribedAt time.Time `json:"subscribedAt" gorm:"autoCreateTime"`
}

// BeforeCreate assigns a random UUID when the caller did not set one.
func (s *NewsletterSubscriber) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// NewsletterRepository defines data access for subscribers
type NewsletterRepository interface {
	Create(ctx context.Context, sub *NewsletterSubscriber) error
	GetByID(ctx context.Context, id string) (*NewsletterSubscriber, error)
	GetByEmail(ctx context.Context, email string) (*NewsletterSubscriber, error)
	List(ctx context.Context) ([]NewsletterSubscriber, error)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/featureflags"
	"github.com/yourorg/rentmatch/internal/observability/metrics"
)

const guideLinkTTL = 10 * time.Minute

// SubscribeInput is the newsletter signup form.
type SubscribeInput struct {
	Name  string `json:"name" validate:"max=120"`
	Email string `json:"email" validate:"required,email"`
}

// SubscribeResult reports a signup. A repeat email is not an error.
type SubscribeResult struct {
	Success    bool                         `json:"success"`
	Message    string                       `json:"message"`
	Subscriber *domain.NewsletterSubscriber `json:"subscriber,omitempty"`
}

// NewsletterService handles newsletter signups and the guide download.
type NewsletterService struct {
	subscribers domain.NewsletterRepository
	mailer      domain.Mailer
	storage     domain.FileStorage
	bucket      string
	guidePath   string
	logger      *slog.Logger
}

// NewNewsletterService creates a new newsletter service. mailer may be nil.
func NewNewsletterService(
	subscribers domain.NewsletterRepository,
	mailer domain.Mailer,
	storage domain.FileStorage,
	bucket, guidePath string,
	logger *slog.Logger,
) *NewsletterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NewsletterService{
		subscribers: subscribers,
		mailer:      mailer,
		storage:     storage,
		bucket:      bucket,
		guidePath:   guidePath,
		logger:      logger,
	}
}

// Subscribe stores the subscriber and, when enabled, sends the welcome email.
func (s *NewsletterService) Subscribe(ctx context.Context, in SubscribeInput) (*SubscribeResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, domain.Validation("email is required")
	}

	if _, err := s.subscribers.GetByEmail(ctx, email); err == nil {
		metrics.ObserveNewsletter("duplicate")
		return &SubscribeResult{Success: false, Message: "already subscribed"}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	sub := &domain.NewsletterSubscriber{Name: strings.TrimSpace(in.Name), Email: email}
	if err := s.subscribers.Create(ctx, sub); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.ObserveNewsletter("duplicate")
			return &SubscribeResult{Success: false, Message: "already subscribed"}, nil
		}
		return nil, err
	}
	metrics.ObserveNewsletter("subscribed")
	s.logger.Info("newsletter subscriber added", slog.String("subscriber_id", sub.ID))

	if featureflags.Enabled(featureflags.NewsletterEmail) && s.mailer != nil {
		if err := s.mailer.Send(ctx, welcomeEmail(sub)); err != nil {
			metrics.ObserveNewsletter("email_failed")
			s.logger.Warn("failed to send welcome email",
				slog.String("subscriber_id", sub.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return &SubscribeResult{Success: true, Message: "subscribed", Subscriber: sub}, nil
}

// DownloadURL returns a short-lived link to the guide for a known subscriber.
func (s *NewsletterService) DownloadURL(ctx context.Context, subscriberID string) (string, error) {
	if _, err := s.subscribers.GetByID(ctx, subscriberID); err != nil {
		return "", err
	}
	url, err := s.storage.SignedURL(ctx, s.bucket, s.guidePath, guideLinkTTL)
	if err != nil {
		s.logger.Error("failed to sign guide url", slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to sign guide url: %w", err)
	}
	return url, nil
}

// List returns every subscriber.
func (s *NewsletterService) List(ctx context.Context) ([]domain.NewsletterSubscriber, error) {
	return s.subscribers.List(ctx)
}

func welcomeEmail(sub *domain.NewsletterSubscriber) domain.EmailMessage {
	name := sub.Name
	if name == "" {
		name = "there"
	}
	return domain.EmailMessage{
		To:      sub.Email,
		Subject: "Welcome to RentMatch",
		HTML: fmt.Sprintf("<p>Hi %s,</p><p>Thanks for subscribing. Your renter's guide is ready to download.</p>",
			html.EscapeString(name)),
	}
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/rentmatch/internal/domain"
)

// Compile-time interface check.
var _ domain.AuthProvider = (*LocalProvider)(nil)

// LocalProvider stands in for Supabase in development. Credentials live in
// the application database and tokens are signed with the same secret the
// middleware validates.
type LocalProvider struct {
	creds  domain.CredentialRepository
	tokens *TokenManager
	ttl    time.Duration
	logger *slog.Logger
}

// NewLocalProvider creates a new local auth provider
func NewLocalProvider(creds domain.CredentialRepository, tokens *TokenManager, ttl time.Duration, logger *slog.Logger) *LocalProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LocalProvider{creds: creds, tokens: tokens, ttl: ttl, logger: logger}
}

// SignUp stores a bcrypt hash and returns a session for the new subject.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string, role domain.Role) (*domain.AuthSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		p.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cred := &domain.LocalCredential{Email: email, PasswordHash: string(hash), Role: role}
	cred.ID = uuid.NewString()
	if err := p.creds.Create(ctx, cred); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Conflict("email already registered")
		}
		return nil, err
	}
	return p.session(cred)
}

// SignIn checks the password against the stored hash.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	cred, err := p.creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			p.logger.Info("login attempt with non-existent email", slog.String("email", email))
			return nil, domain.Unauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		p.logger.Info("login failed with wrong password", slog.String("email", email))
		return nil, domain.Unauthorized("invalid credentials")
	}
	return p.session(cred)
}

// SendPasswordReset only logs; there is no mail delivery in development.
func (p *LocalProvider) SendPasswordReset(ctx context.Context, email string) error {
	p.logger.Info("password reset requested (local provider, not sent)", slog.String("email", email))
	return nil
}

// GetUser validates a locally signed token.
func (p *LocalProvider) GetUser(ctx context.Context, accessToken string) (*domain.AuthUser, error) {
	claims, err := p.tokens.ValidateToken(accessToken)
	if err != nil {
		return nil, domain.Unauthorized("invalid token")
	}
	return &domain.AuthUser{ID: claims.Subject, Email: claims.Email}, nil
}

func (p *LocalProvider) session(cred *domain.LocalCredential) (*domain.AuthSession, error) {
	token, err := p.tokens.GenerateToken(cred.ID, cred.Email, cred.Role, p.ttl)
	if err != nil {
		p.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &domain.AuthSession{
		UserID:      cred.ID,
		Email:       cred.Email,
		AccessToken: token,
		ExpiresIn:   int(p.ttl.Seconds()),
		TokenType:   "bearer",
	}, nil
}

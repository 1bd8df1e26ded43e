package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yourorg/rentmatch/internal/domain"
)

// AuthService handles signup, login and OAuth for both account types.
// Credentials live with the auth provider; this service owns the profiles.
type AuthService struct {
	provider domain.AuthProvider
	profiles
	logger *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	provider domain.AuthProvider,
	tenants domain.TenantRepository,
	landlords domain.LandlordRepository,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		provider: provider,
		profiles: profiles{tenants: tenants, landlords: landlords},
		logger:   logger,
	}
}

// SignupInput is the signup payload shared by tenants and landlords.
type SignupInput struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	FirstName    string `json:"firstName" validate:"required"`
	LastName     string `json:"lastName" validate:"required"`
	Phone        string `json:"phone"`
	BusinessName string `json:"businessName"`
}

// AuthResult represents signup/login response
type AuthResult struct {
	Session *domain.AuthSession `json:"session"`
	Role    domain.Role         `json:"role"`
	Profile interface{}         `json:"profile"`
}

// Signup registers the user with the provider and creates the profile.
func (s *AuthService) Signup(ctx context.Context, role domain.Role, in SignupInput) (*AuthResult, error) {
	if !role.Valid() {
		return nil, domain.Validation("unknown account type")
	}
	if in.Email == "" || len(in.Password) < 8 {
		return nil, domain.Validation("email and a password of at least 8 characters are required")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	session, err := s.provider.SignUp(ctx, email, in.Password, role)
	if err != nil {
		return nil, err
	}

	profile, err := s.createProfile(ctx, role, session.UserID, email, in)
	if err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		slog.String("role", string(role)),
		slog.String("supabase_id", session.UserID),
	)
	return &AuthResult{Session: session, Role: role, Profile: profile}, nil
}

// Login authenticates with the provider and loads the profile of the requested type.
func (s *AuthService) Login(ctx context.Context, role domain.Role, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, domain.Validation("email and password are required")
	}

	session, err := s.provider.SignIn(ctx, strings.ToLower(strings.TrimSpace(email)), password)
	if err != nil {
		return nil, err
	}

	profile, err := s.loadProfile(ctx, role, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("login with wrong account type",
				slog.String("role", string(role)),
				slog.String("supabase_id", session.UserID),
			)
			return nil, domain.Unauthorized(fmt.Sprintf("no %s account for this user", role))
		}
		return nil, err
	}

	s.logger.Info("user logged in",
		slog.String("role", string(role)),
		slog.String("supabase_id", session.UserID),
	)
	return &AuthResult{Session: session, Role: role, Profile: profile}, nil
}

// ForgotPassword asks the provider to email a recovery link.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return domain.Validation("email is required")
	}
	return s.provider.SendPasswordReset(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// OAuthInput carries an access token obtained from a provider OAuth flow.
type OAuthInput struct {
	AccessToken string `json:"accessToken" validate:"required"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
}

// OAuth validates a provider token and creates the profile on first sign-in.
func (s *AuthService) OAuth(ctx context.Context, role domain.Role, in OAuthInput) (*AuthResult, error) {
	if !role.Valid() {
		return nil, domain.Validation("unknown account type")
	}
	user, err := s.provider.GetUser(ctx, in.AccessToken)
	if err != nil {
		return nil, err
	}

	session := &domain.AuthSession{UserID: user.ID, Email: user.Email, AccessToken: in.AccessToken, TokenType: "bearer"}

	profile, err := s.loadProfile(ctx, role, user.ID)
	if err == nil {
		return &AuthResult{Session: session, Role: role, Profile: profile}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	profile, err = s.createProfile(ctx, role, user.ID, user.Email, SignupInput{FirstName: in.FirstName, LastName: in.LastName})
	if err != nil {
		return nil, err
	}
	s.logger.Info("account created via oauth",
		slog.String("role", string(role)),
		slog.String("supabase_id", user.ID),
	)
	return &AuthResult{Session: session, Role: role, Profile: profile}, nil
}

func (s *AuthService) loadProfile(ctx context.Context, role domain.Role, supabaseID string) (interface{}, error) {
	if role == domain.RoleLandlord {
		return s.landlord(ctx, supabaseID)
	}
	return s.tenant(ctx, supabaseID)
}

func (s *AuthService) createProfile(ctx context.Context, role domain.Role, supabaseID, email string, in SignupInput) (interface{}, error) {
	if role == domain.RoleLandlord {
		l := &domain.Landlord{
			SupabaseID:   supabaseID,
			Email:        email,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Phone:        in.Phone,
			BusinessName: in.BusinessName,
		}
		if err := s.landlords.Create(ctx, l); err != nil {
			s.logger.Error("failed to create landlord profile", slog.String("error", err.Error()))
			return nil, err
		}
		return l, nil
	}

	t := &domain.Tenant{
		SupabaseID: supabaseID,
		Email:      email,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Phone:      in.Phone,
	}
	if err := s.tenants.Create(ctx, t); err != nil {
		s.logger.Error("failed to create tenant profile", slog.String("error", err.Error()))
		return nil, err
	}
	return t, nil
}

package supabase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/yourorg/rentmatch/internal/domain"
)

// Compile-time interface check.
var _ domain.AuthProvider = (*AuthClient)(nil)

// AuthClient implements domain.AuthProvider with Supabase GoTrue.
type AuthClient struct {
	*Client
	resetRedirect string
}

// NewAuthClient creates a new auth client. Password reset emails link to resetRedirect.
func NewAuthClient(c *Client, resetRedirect string) *AuthClient {
	return &AuthClient{Client: c, resetRedirect: resetRedirect}
}

type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gotrueSession struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int        `json:"expires_in"`
	TokenType    string     `json:"token_type"`
	User         gotrueUser `json:"user"`
	// Signup without auto-confirm returns the bare user.
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (s gotrueSession) toDomain() *domain.AuthSession {
	out := &domain.AuthSession{
		UserID:       s.User.ID,
		Email:        s.User.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		TokenType:    s.TokenType,
	}
	if out.UserID == "" {
		out.UserID, out.Email = s.ID, s.Email
	}
	return out
}

// SignUp registers a user and records the marketplace role as user metadata.
func (a *AuthClient) SignUp(ctx context.Context, email, password string, role domain.Role) (*domain.AuthSession, error) {
	payload := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     map[string]string{"role": string(role)},
	}
	var s gotrueSession
	if err := a.doJSON(ctx, http.MethodPost, "/auth/v1/signup", "", payload, &s); err != nil {
		return nil, mapAuthErr(err)
	}
	a.logger.Info("supabase signup", slog.String("user_id", s.toDomain().UserID), slog.String("role", string(role)))
	return s.toDomain(), nil
}

// SignIn exchanges email and password for a session.
func (a *AuthClient) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	payload := map[string]string{"email": email, "password": password}
	var s gotrueSession
	if err := a.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", payload, &s); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			return nil, domain.Unauthorized(apiErr.Message)
		}
		return nil, mapAuthErr(err)
	}
	return s.toDomain(), nil
}

// SendPasswordReset emails a recovery link.
func (a *AuthClient) SendPasswordReset(ctx context.Context, email string) error {
	path := "/auth/v1/recover"
	if a.resetRedirect != "" {
		path += "?redirect_to=" + url.QueryEscape(a.resetRedirect)
	}
	if err := a.doJSON(ctx, http.MethodPost, path, "", map[string]string{"email": email}, nil); err != nil {
		return mapAuthErr(err)
	}
	return nil
}

// GetUser resolves an access token to its user.
func (a *AuthClient) GetUser(ctx context.Context, accessToken string) (*domain.AuthUser, error) {
	var u gotrueUser
	if err := a.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, nil, &u); err != nil {
		return nil, mapAuthErr(err)
	}
	return &domain.AuthUser{ID: u.ID, Email: u.Email}, nil
}

func mapAuthErr(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.Validation(apiErr.Message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.Unauthorized(apiErr.Message)
	default:
		return err
	}
}

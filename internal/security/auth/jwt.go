package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yourorg/rentmatch/internal/domain"
)

// Claims mirrors the access tokens issued by Supabase GoTrue. The marketplace
// role lives in user_metadata, set at signup.
type Claims struct {
	Email        string                 `json:"email"`
	Role         string                 `json:"role"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// AppRole returns the marketplace role recorded at signup, or "" when absent.
func (c *Claims) AppRole() domain.Role {
	if c == nil || c.UserMetadata == nil {
		return ""
	}
	s, _ := c.UserMetadata["role"].(string)
	r := domain.Role(s)
	if !r.Valid() {
		return ""
	}
	return r
}

type TokenManager struct {
	secret string
	issuer string
}

// NewTokenManager validates and signs HS256 tokens with the project JWT secret.
func NewTokenManager(secret, issuer string) *TokenManager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if issuer == "" {
		issuer = "rentmatch"
	}
	return &TokenManager{secret: secret, issuer: issuer}
}

// GenerateToken signs a token in the same shape Supabase issues. Used by the local provider.
func (tm *TokenManager) GenerateToken(subject, email string, role domain.Role, expiresIn time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("subject required")
	}
	now := time.Now()
	claims := Claims{
		Email:        email,
		Role:         "authenticated",
		UserMetadata: map[string]interface{}{"role": string(role)},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(tm.secret))
}

func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

func ExtractToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return parts[1], nil
}

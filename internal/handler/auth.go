package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/service"
)

// AuthHandler handles signup, login, password recovery and OAuth for one account type.
type AuthHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// AuthLoginRequest represents login request
type AuthLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest asks for a recovery email.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Signup handles POST /api/{tenant|landlord}/signup
func (h *AuthHandler) Signup(role domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.SignupInput
		if err := decode(r, &req); err != nil {
			writeError(w, h.logger, r, err)
			return
		}

		result, err := h.authService.Signup(r.Context(), role, req)
		if err != nil {
			h.logger.Info("signup failed",
				slog.String("role", string(role)),
				slog.String("error", err.Error()),
			)
			writeError(w, h.logger, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, result)
	}
}

// Login handles POST /api/{tenant|landlord}/login
func (h *AuthHandler) Login(role domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AuthLoginRequest
		if err := decode(r, &req); err != nil {
			writeError(w, h.logger, r, err)
			return
		}

		result, err := h.authService.Login(r.Context(), role, req.Email, req.Password)
		if err != nil {
			writeError(w, h.logger, r, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// ForgotPassword handles POST /api/{tenant|landlord}/forgot-password. The
// response is the same whether or not the email is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), req.Email); err != nil {
		h.logger.Warn("password reset request failed", slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "if the account exists, a reset link has been sent"})
}

// OAuth handles POST /api/{tenant|landlord}/oauth
func (h *AuthHandler) OAuth(role domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.OAuthInput
		if err := decode(r, &req); err != nil {
			writeError(w, h.logger, r, err)
			return
		}

		result, err := h.authService.OAuth(r.Context(), role, req)
		if err != nil {
			writeError(w, h.logger, r, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

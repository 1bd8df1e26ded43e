package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/rentmatch/internal/security"
	"github.com/yourorg/rentmatch/internal/service"
)

// ScoringHandler serves the scoring endpoints shared by both roles.
type ScoringHandler struct {
	scoring *service.ScoringService
	authz   *security.AuthorizationService
	logger  *slog.Logger
}

// NewScoringHandler creates a new scoring handler
func NewScoringHandler(scoring *service.ScoringService, authz *security.AuthorizationService, logger *slog.Logger) *ScoringHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoringHandler{scoring: scoring, authz: authz, logger: logger}
}

// CalculateScore handles POST /api/scoring/calculate-score
func (h *ScoringHandler) CalculateScore(w http.ResponseWriter, r *http.Request) {
	c, ok := h.permitted(w, r, security.PermCalculateScore)
	if !ok {
		return
	}
	var req service.ScoreInput
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	report, err := h.scoring.CalculateScore(r.Context(), c, req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// CheckCreditScore handles POST /api/scoring/check-credit-score
func (h *ScoringHandler) CheckCreditScore(w http.ResponseWriter, r *http.Request) {
	c, ok := h.permitted(w, r, security.PermCalculateScore)
	if !ok {
		return
	}
	var req service.ScoreInput
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	credit, err := h.scoring.CheckCreditScore(r.Context(), c, req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, credit)
}

// CheckCompatibility handles POST /api/scoring/check-compatibility
func (h *ScoringHandler) CheckCompatibility(w http.ResponseWriter, r *http.Request) {
	c, ok := h.permitted(w, r, security.PermCheckCompatibility)
	if !ok {
		return
	}
	var req service.CompatibilityInput
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	res, err := h.scoring.CheckCompatibility(r.Context(), c, req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// permitted checks the role claim when the token carries one. Tokens without
// a role are resolved to a profile by the service.
func (h *ScoringHandler) permitted(w http.ResponseWriter, r *http.Request, perm security.Permission) (service.Caller, bool) {
	c := callerFromClaims(r)
	if c.Role == "" {
		return c, true
	}
	if err := h.authz.ValidatePermission(c.Role, perm); err != nil {
		writeError(w, h.logger, r, err)
		return c, false
	}
	return c, true
}

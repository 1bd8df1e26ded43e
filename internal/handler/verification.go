package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/rentmatch/internal/service"
)

// VerificationHandler serves the bank-link and verification endpoints.
type VerificationHandler struct {
	verification *service.VerificationService
	logger       *slog.Logger
}

// NewVerificationHandler creates a new verification handler
func NewVerificationHandler(verification *service.VerificationService, logger *slog.Logger) *VerificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerificationHandler{verification: verification, logger: logger}
}

// LinkTokenResponse carries the token for the bank-link widget.
type LinkTokenResponse struct {
	LinkToken string `json:"linkToken"`
}

// CompleteRequest carries the public token returned by the widget.
type CompleteRequest struct {
	PublicToken string `json:"publicToken" validate:"required"`
}

// Init handles POST /api/tenant/verify/plaid/init
func (h *VerificationHandler) Init(w http.ResponseWriter, r *http.Request) {
	tok, err := h.verification.InitLink(r.Context(), subject(r))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LinkTokenResponse{LinkToken: tok})
}

// Complete handles POST /api/tenant/verify/plaid/complete. Partial
// verification is a normal 200 response.
func (h *VerificationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	res, err := h.verification.Complete(r.Context(), subject(r), req.PublicToken)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Status handles GET /api/tenant/verify/status
func (h *VerificationHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.verification.Status(r.Context(), subject(r))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

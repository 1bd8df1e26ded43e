package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/service"
)

// FavoriteHandler serves a tenant's saved listings.
type FavoriteHandler struct {
	favorites *service.FavoriteService
	logger    *slog.Logger
}

// NewFavoriteHandler creates a new favorites handler
func NewFavoriteHandler(favorites *service.FavoriteService, logger *slog.Logger) *FavoriteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FavoriteHandler{favorites: favorites, logger: logger}
}

// List handles GET /api/tenant/favorites
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	favs, err := h.favorites.List(r.Context(), subject(r))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if favs == nil {
		favs = []domain.Favorite{}
	}
	writeJSON(w, http.StatusOK, favs)
}

// Add handles POST /api/tenant/favorites/{propertyId}
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	if err := h.favorites.Add(r.Context(), subject(r), r.PathValue("propertyId")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "saved"})
}

// Remove handles DELETE /api/tenant/favorites/{propertyId}
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.favorites.Remove(r.Context(), subject(r), r.PathValue("propertyId")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "removed"})
}

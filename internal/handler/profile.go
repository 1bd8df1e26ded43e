package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/service"
)

// ProfileHandler serves the tenant and landlord profile endpoints.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// ImageResponse carries the new profile image URL.
type ImageResponse struct {
	URL string `json:"url"`
}

// GetTenant handles GET /api/tenant/profile
func (h *ProfileHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := h.profiles.GetTenant(r.Context(), subject(r))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UpdateTenant handles PUT /api/tenant/profile
func (h *ProfileHandler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	var req service.TenantProfileInput
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	t, err := h.profiles.UpdateTenant(r.Context(), subject(r), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// GetLandlord handles GET /api/landlord/profile
func (h *ProfileHandler) GetLandlord(w http.ResponseWriter, r *http.Request) {
	l, err := h.profiles.GetLandlord(r.Context(), subject(r))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// UpdateLandlord handles PUT /api/landlord/profile
func (h *ProfileHandler) UpdateLandlord(w http.ResponseWriter, r *http.Request) {
	var req service.LandlordProfileInput
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	l, err := h.profiles.UpdateLandlord(r.Context(), subject(r), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// UploadImage handles POST /api/{tenant|landlord}/profile/image (multipart field "image")
func (h *ProfileHandler) UploadImage(role domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, cleanup, err := readUploads(w, r, "image")
		if err != nil {
			writeError(w, h.logger, r, err)
			return
		}
		defer cleanup()
		if len(files) != 1 {
			writeError(w, h.logger, r, domain.Validation("exactly one image is required"))
			return
		}

		url, err := h.profiles.UploadImage(r.Context(), caller(r, role), files[0])
		if err != nil {
			writeError(w, h.logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ImageResponse{URL: url})
	}
}

// DeleteImage handles DELETE /api/{tenant|landlord}/profile/image
func (h *ProfileHandler) DeleteImage(role domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.profiles.DeleteImage(r.Context(), caller(r, role)); err != nil {
			writeError(w, h.logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "profile image removed"})
	}
}

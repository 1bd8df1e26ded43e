package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/service"
)

// ApplicationHandler serves the application workflow for both parties.
type ApplicationHandler struct {
	applications *service.ApplicationService
	logger       *slog.Logger
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(applications *service.ApplicationService, logger *slog.Logger) *ApplicationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplicationHandler{applications: applications, logger: logger}
}

// BulkRevokeRequest names the applications to revoke.
type BulkRevokeRequest struct {
	ApplicationIDs []string `json:"applicationIds" validate:"required,min=1,max=50,dive,uuid"`
}

// BulkRevokeResponse reports each id separately.
type BulkRevokeResponse struct {
	Results []service.RevokeResult `json:"results"`
}

// StatusRequest is the landlord decision.
type StatusRequest struct {
	Status domain.ApplicationStatus `json:"status" validate:"required,oneof=Approved Rejected"`
}

// NoteRequest is a note body.
type NoteRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

// Apply handles POST /api/tenant/applications
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req service.ApplyInput
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	app, err := h.applications.Apply(r.Context(), subject(r), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// ListMine handles GET /api/tenant/applications
func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applications.ListForTenant(r.Context(), subject(r))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if apps == nil {
		apps = []domain.Application{}
	}
	writeJSON(w, http.StatusOK, apps)
}

// Revoke handles DELETE /api/tenant/applications/{id}
func (h *ApplicationHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	if err := h.applications.Revoke(r.Context(), subject(r), r.PathValue("id")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "application revoked"})
}

// RevokeMany handles POST /api/tenant/applications/revoke
func (h *ApplicationHandler) RevokeMany(w http.ResponseWriter, r *http.Request) {
	var req BulkRevokeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	results, err := h.applications.RevokeMany(r.Context(), subject(r), req.ApplicationIDs)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BulkRevokeResponse{Results: results})
}

// UpdateStatus handles PUT /api/landlord/properties/{id}/applications/{appId}/status
func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	app, err := h.applications.UpdateStatus(r.Context(), subject(r), r.PathValue("id"), r.PathValue("appId"), req.Status)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// UploadDocument handles POST /api/tenant/applications/{id}/documents. The
// multipart form carries one file per document kind, keyed by the kind name.
func (h *ApplicationHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	form, err := parseUploadForm(w, r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	defer form.Close()

	var app *domain.Application
	uploaded := 0
	for _, kind := range []domain.DocumentKind{domain.DocumentID, domain.DocumentPayStub, domain.DocumentBankStatement, domain.DocumentReference} {
		files, err := form.Files(string(kind))
		if err != nil {
			writeError(w, h.logger, r, err)
			return
		}
		for _, f := range files {
			app, err = h.applications.UploadDocument(r.Context(), subject(r), r.PathValue("id"), kind, f)
			if err != nil {
				writeError(w, h.logger, r, err)
				return
			}
			uploaded++
		}
	}
	if uploaded == 0 {
		writeError(w, h.logger, r, domain.Validation("no documents uploaded"))
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// Documents handles GET /api/{tenant|landlord}/applications/{id}/documents
func (h *ApplicationHandler) Documents(role domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links, err := h.applications.Documents(r.Context(), caller(r, role), r.PathValue("id"))
		if err != nil {
			writeError(w, h.logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, links)
	}
}

// AddNote handles POST /api/{tenant|landlord}/applications/{id}/notes
func (h *ApplicationHandler) AddNote(role domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NoteRequest
		if err := decode(r, &req); err != nil {
			writeError(w, h.logger, r, err)
			return
		}
		note, err := h.applications.AddNote(r.Context(), caller(r, role), r.PathValue("id"), req.Body)
		if err != nil {
			writeError(w, h.logger, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, note)
	}
}

// Notes handles GET /api/{tenant|landlord}/applications/{id}/notes
func (h *ApplicationHandler) Notes(role domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notes, err := h.applications.Notes(r.Context(), caller(r, role), r.PathValue("id"))
		if err != nil {
			writeError(w, h.logger, r, err)
			return
		}
		if notes == nil {
			notes = []domain.ApplicationNote{}
		}
		writeJSON(w, http.StatusOK, notes)
	}
}

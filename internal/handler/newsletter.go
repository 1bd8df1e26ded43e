package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/rentmatch/internal/service"
)

// NewsletterHandler serves the public newsletter endpoints.
type NewsletterHandler struct {
	newsletter *service.NewsletterService
	logger     *slog.Logger
}

// NewNewsletterHandler creates a new newsletter handler
func NewNewsletterHandler(newsletter *service.NewsletterService, logger *slog.Logger) *NewsletterHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NewsletterHandler{newsletter: newsletter, logger: logger}
}

// DownloadResponse is the short-lived guide link.
type DownloadResponse struct {
	URL string `json:"url"`
}

// Subscribe handles POST /api/newsletter/subscribe. A repeat signup is a 200
// with success=false.
func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req service.SubscribeInput
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	res, err := h.newsletter.Subscribe(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	status := http.StatusCreated
	if !res.Success {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// Download handles GET /api/newsletter/download/{id}. With ?redirect=true the
// client is sent straight to the file.
func (h *NewsletterHandler) Download(w http.ResponseWriter, r *http.Request) {
	url, err := h.newsletter.DownloadURL(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if r.URL.Query().Get("redirect") == "true" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, DownloadResponse{URL: url})
}

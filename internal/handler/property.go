package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/service"
)

// PropertyHandler serves the public catalogue and landlord listing management.
type PropertyHandler struct {
	properties *service.PropertyService
	logger     *slog.Logger
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(properties *service.PropertyService, logger *slog.Logger) *PropertyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PropertyHandler{properties: properties, logger: logger}
}

// PropertyListResponse is a page of listings.
type PropertyListResponse struct {
	Properties []domain.Property `json:"properties"`
	Total      int64             `json:"total"`
}

// PhotosResponse lists every photo of a listing after an upload.
type PhotosResponse struct {
	Photos []string `json:"photos"`
}

// ListPublic handles GET /api/properties
func (h *PropertyHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	props, total, err := h.properties.ListPublic(r.Context(), f)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if props == nil {
		props = []domain.Property{}
	}
	writeJSON(w, http.StatusOK, PropertyListResponse{Properties: props, Total: total})
}

// GetPublic handles GET /api/properties/{id}/public
func (h *PropertyHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	p, err := h.properties.GetPublic(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListMine handles GET /api/landlord/properties
func (h *PropertyHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	props, err := h.properties.ListMine(r.Context(), subject(r))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if props == nil {
		props = []domain.Property{}
	}
	writeJSON(w, http.StatusOK, props)
}

// Create handles POST /api/landlord/properties
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.PropertyInput
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	p, err := h.properties.Create(r.Context(), subject(r), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Update handles PUT /api/landlord/properties/{id}
func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.PropertyInput
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	p, err := h.properties.Update(r.Context(), subject(r), r.PathValue("id"), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/landlord/properties/{id}
func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.properties.Delete(r.Context(), subject(r), r.PathValue("id")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "property deleted"})
}

// UploadPhotos handles POST /api/landlord/properties/{id}/photos (multipart field "photos")
func (h *PropertyHandler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	files, cleanup, err := readUploads(w, r, "photos")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	defer cleanup()

	urls, err := h.properties.UploadPhotos(r.Context(), subject(r), r.PathValue("id"), files)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PhotosResponse{Photos: urls})
}

// Applications handles GET /api/landlord/properties/{id}/applications
func (h *PropertyHandler) Applications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.properties.Applications(r.Context(), subject(r), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if apps == nil {
		apps = []domain.Application{}
	}
	writeJSON(w, http.StatusOK, apps)
}

func parseFilter(q url.Values) (domain.PropertyFilter, error) {
	f := domain.PropertyFilter{City: q.Get("city")}

	price := func(key string) (*decimal.Decimal, error) {
		v := q.Get(key)
		if v == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			return nil, domain.Validation(key + " must be a non-negative number")
		}
		return &d, nil
	}
	var err error
	if f.MinPrice, err = price("minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = price("maxPrice"); err != nil {
		return f, err
	}

	ints := map[string]*int{"bedrooms": &f.MinBedrooms, "limit": &f.Limit, "offset": &f.Offset}
	for key, dst := range ints {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, domain.Validation(key + " must be a non-negative integer")
		}
		*dst = n
	}

	if v := q.Get("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, domain.Validation("available must be true or false")
		}
		f.AvailableOnly = b
	}
	return f, nil
}

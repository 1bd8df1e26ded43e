package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/scoring"
	"github.com/yourorg/rentmatch/internal/service"
	"github.com/yourorg/rentmatch/internal/security/middleware"
)

var testProperty = map[string]interface{}{
	"title":     "Sunny flat",
	"bedrooms":  2,
	"bathrooms": 1,
	"price":     "2000",
	"address": map[string]string{
		"addressLine1": "1 Main St",
		"city":         "Austin",
		"state":        "TX",
		"zip":          "78701",
	},
}

// TestHealthEndpoints verifies liveness and readiness without Redis configured
func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/healthz", nil, nil)
	var health HealthResponse
	decodeBody(t, resp, &health)
	assert.Equal(t, "ok", health.Status)

	resp = s.do(t, http.MethodGet, "/readyz", nil, nil)
	assertStatusCode(t, resp, http.StatusOK)
	var ready ReadinessResponse
	decodeBody(t, resp, &ready)
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "ok", ready.Checks["database"])
	assert.Equal(t, "not configured", ready.Checks["redis"])
}

type downDatabase struct{}

func (downDatabase) Health(context.Context) error { return errors.New("connection refused") }

func TestReadyFailsWhenDatabaseDown(t *testing.T) {
	h := NewHealthHandler(downDatabase{}, nil, discard())

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var ready ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ready))
	assert.Equal(t, "not_ready", ready.Status)
	assert.Equal(t, "error: connection refused", ready.Checks["database"])
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, domain.RoleTenant, "renter@example.com")

	creds := map[string]string{"email": "renter@example.com", "password": "correct-horse"}

	resp := s.do(t, http.MethodPost, "/api/tenant/login", nil, creds)
	assertStatusCode(t, resp, http.StatusOK)
	var res service.AuthResult
	decodeBody(t, resp, &res)
	assert.Equal(t, domain.RoleTenant, res.Role)
	assert.NotEmpty(t, res.Session.AccessToken)

	resp = s.do(t, http.MethodPost, "/api/landlord/login", nil, creds)
	assertStatusCode(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/tenant/signup", nil, map[string]string{
		"email": "renter@example.com", "password": "correct-horse", "firstName": "A", "lastName": "B",
	})
	assertStatusCode(t, resp, http.StatusConflict)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/tenant/signup", nil, map[string]string{"email": "not-an-email"})
	assertStatusCode(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/tenant/forgot-password", nil, map[string]string{"email": "nobody@example.com"})
	assertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestProtectedRoutes(t *testing.T) {
	s := newTestServer(t)
	tenant := s.signup(t, domain.RoleTenant, "renter@example.com")

	resp := s.do(t, http.MethodGet, "/api/tenant/profile", nil, nil)
	assertStatusCode(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/api/tenant/profile", &tenant, nil)
	assertStatusCode(t, resp, http.StatusOK)
	var profile domain.Tenant
	decodeBody(t, resp, &profile)
	assert.Equal(t, "renter@example.com", profile.Email)

	resp = s.do(t, http.MethodGet, "/api/landlord/profile", &tenant, nil)
	assertStatusCode(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/api/tenant/verify/status", &tenant, nil)
	assertStatusCode(t, resp, http.StatusOK)
	var status service.VerificationStatus
	decodeBody(t, resp, &status)
	assert.False(t, status.PlaidVerified)
	assert.Empty(t, status.BankAccounts)
}

func TestApplicationLifecycle(t *testing.T) {
	s := newTestServer(t)
	landlord := s.signup(t, domain.RoleLandlord, "owner@example.com")
	tenant := s.signup(t, domain.RoleTenant, "renter@example.com")

	resp := s.do(t, http.MethodPost, "/api/landlord/properties", &landlord, testProperty)
	assertStatusCode(t, resp, http.StatusCreated)
	var prop domain.Property
	decodeBody(t, resp, &prop)
	require.NotEmpty(t, prop.ID)

	resp = s.do(t, http.MethodGet, "/api/properties?city=Austin&maxPrice=2500", nil, nil)
	assertStatusCode(t, resp, http.StatusOK)
	var list PropertyListResponse
	decodeBody(t, resp, &list)
	assert.EqualValues(t, 1, list.Total)

	resp = s.do(t, http.MethodPost, "/api/tenant/applications", &tenant, service.ApplyInput{PropertyID: prop.ID, Message: "hello"})
	assertStatusCode(t, resp, http.StatusCreated)
	var app domain.Application
	decodeBody(t, resp, &app)
	assert.Equal(t, domain.StatusPending, app.Status)

	resp = s.do(t, http.MethodPost, "/api/tenant/applications", &tenant, service.ApplyInput{PropertyID: prop.ID})
	assertStatusCode(t, resp, http.StatusConflict)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/tenant/applications/"+app.ID+"/notes", &tenant, NoteRequest{Body: "available from June"})
	assertStatusCode(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/api/landlord/applications/"+app.ID+"/notes", &landlord, nil)
	assertStatusCode(t, resp, http.StatusOK)
	var notes []domain.ApplicationNote
	decodeBody(t, resp, &notes)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.RoleTenant, notes[0].AuthorRole)

	resp = s.do(t, http.MethodGet, "/api/landlord/properties/"+prop.ID+"/applications", &landlord, nil)
	assertStatusCode(t, resp, http.StatusOK)
	var apps []domain.Application
	decodeBody(t, resp, &apps)
	require.Len(t, apps, 1)

	statusPath := fmt.Sprintf("/api/landlord/properties/%s/applications/%s/status", prop.ID, app.ID)
	resp = s.do(t, http.MethodPut, statusPath, &landlord, StatusRequest{Status: "Withdrawn"})
	assertStatusCode(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = s.do(t, http.MethodPut, statusPath, &landlord, StatusRequest{Status: domain.StatusApproved})
	assertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/api/properties/"+prop.ID+"/public", nil, nil)
	var leased domain.Property
	decodeBody(t, resp, &leased)
	assert.True(t, leased.IsLeased)

	resp = s.do(t, http.MethodDelete, "/api/tenant/applications/"+app.ID, &tenant, nil)
	assertStatusCode(t, resp, http.StatusConflict)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/tenant/applications/revoke", &tenant, BulkRevokeRequest{ApplicationIDs: []string{"not-a-uuid"}})
	assertStatusCode(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestUploadPhotos(t *testing.T) {
	s := newTestServer(t)
	landlord := s.signup(t, domain.RoleLandlord, "owner@example.com")

	resp := s.do(t, http.MethodPost, "/api/landlord/properties", &landlord, testProperty)
	var prop domain.Property
	decodeBody(t, resp, &prop)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range []string{"front.png", "kitchen.png"} {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photos"; filename="%s"`, name))
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("png-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, s.URL()+"/api/landlord/properties/"+prop.ID+"/photos", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+landlord.Token)
	req.Header.Set(middleware.SupabaseIDHeader, landlord.Subject)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assertStatusCode(t, resp, http.StatusOK)
	var photos PhotosResponse
	decodeBody(t, resp, &photos)
	assert.Len(t, photos.Photos, 2)
	assert.Len(t, s.Storage.objects, 2)
}

func TestNewsletterRoutes(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/api/newsletter/subscribe", nil, service.SubscribeInput{Name: "Pat", Email: "Pat@Example.com"})
	assertStatusCode(t, resp, http.StatusCreated)
	var res service.SubscribeResult
	decodeBody(t, resp, &res)
	require.True(t, res.Success)

	resp = s.do(t, http.MethodPost, "/api/newsletter/subscribe", nil, service.SubscribeInput{Email: "pat@example.com"})
	assertStatusCode(t, resp, http.StatusOK)
	var dup service.SubscribeResult
	decodeBody(t, resp, &dup)
	assert.False(t, dup.Success)

	resp = s.do(t, http.MethodGet, "/api/newsletter/download/"+res.Subscriber.ID, nil, nil)
	assertStatusCode(t, resp, http.StatusOK)
	var dl DownloadResponse
	decodeBody(t, resp, &dl)
	assert.Equal(t, "https://storage.test/signed/guides/renters-guide.pdf", dl.URL)

	resp = s.do(t, http.MethodGet, "/api/newsletter/download/"+res.Subscriber.ID+"?redirect=true", nil, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, dl.URL, resp.Header.Get("Location"))

	resp = s.do(t, http.MethodGet, "/api/newsletter/download/00000000-0000-0000-0000-000000000000", nil, nil)
	assertStatusCode(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestCheckCompatibilityRoute(t *testing.T) {
	s := newTestServer(t)
	tenant := s.signup(t, domain.RoleTenant, "renter@example.com")

	resp := s.do(t, http.MethodPost, "/api/scoring/check-compatibility", &tenant, service.CompatibilityInput{MonthlyIncome: 6000, Rent: 2000})
	assertStatusCode(t, resp, http.StatusOK)
	var res scoring.Compatibility
	decodeBody(t, resp, &res)
	assert.True(t, res.Compatible)
	assert.Equal(t, scoring.RiskLow, res.RiskLevel)

	resp = s.do(t, http.MethodPost, "/api/scoring/check-compatibility", &tenant, service.CompatibilityInput{})
	assertStatusCode(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

package handler

import (
	"net/http"

	"github.com/yourorg/rentmatch/internal/domain"
)

// Handlers groups every HTTP handler the server mounts.
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	Profile      *ProfileHandler
	Property     *PropertyHandler
	Application  *ApplicationHandler
	Favorite     *FavoriteHandler
	Verification *VerificationHandler
	Scoring      *ScoringHandler
	Newsletter   *NewsletterHandler
}

// Register mounts the REST API on mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Health.Health)
	mux.HandleFunc("GET /readyz", h.Health.Ready)

	for _, role := range []domain.Role{domain.RoleTenant, domain.RoleLandlord} {
		base := "/api/" + string(role)
		mux.HandleFunc("POST "+base+"/signup", h.Auth.Signup(role))
		mux.HandleFunc("POST "+base+"/login", h.Auth.Login(role))
		mux.HandleFunc("POST "+base+"/forgot-password", h.Auth.ForgotPassword)
		mux.HandleFunc("POST "+base+"/oauth", h.Auth.OAuth(role))

		mux.HandleFunc("POST "+base+"/profile/image", h.Profile.UploadImage(role))
		mux.HandleFunc("DELETE "+base+"/profile/image", h.Profile.DeleteImage(role))

		mux.HandleFunc("GET "+base+"/applications/{id}/documents", h.Application.Documents(role))
		mux.HandleFunc("POST "+base+"/applications/{id}/notes", h.Application.AddNote(role))
		mux.HandleFunc("GET "+base+"/applications/{id}/notes", h.Application.Notes(role))
	}

	// Public catalogue
	mux.HandleFunc("GET /api/properties", h.Property.ListPublic)
	mux.HandleFunc("GET /api/properties/{id}/public", h.Property.GetPublic)

	// Tenant
	mux.HandleFunc("GET /api/tenant/profile", h.Profile.GetTenant)
	mux.HandleFunc("PUT /api/tenant/profile", h.Profile.UpdateTenant)
	mux.HandleFunc("POST /api/tenant/applications", h.Application.Apply)
	mux.HandleFunc("GET /api/tenant/applications", h.Application.ListMine)
	mux.HandleFunc("DELETE /api/tenant/applications/{id}", h.Application.Revoke)
	mux.HandleFunc("POST /api/tenant/applications/revoke", h.Application.RevokeMany)
	mux.HandleFunc("POST /api/tenant/applications/{id}/documents", h.Application.UploadDocument)
	mux.HandleFunc("GET /api/tenant/favorites", h.Favorite.List)
	mux.HandleFunc("POST /api/tenant/favorites/{propertyId}", h.Favorite.Add)
	mux.HandleFunc("DELETE /api/tenant/favorites/{propertyId}", h.Favorite.Remove)
	mux.HandleFunc("POST /api/tenant/verify/plaid/init", h.Verification.Init)
	mux.HandleFunc("POST /api/tenant/verify/plaid/complete", h.Verification.Complete)
	mux.HandleFunc("GET /api/tenant/verify/status", h.Verification.Status)

	// Landlord
	mux.HandleFunc("GET /api/landlord/profile", h.Profile.GetLandlord)
	mux.HandleFunc("PUT /api/landlord/profile", h.Profile.UpdateLandlord)
	mux.HandleFunc("GET /api/landlord/properties", h.Property.ListMine)
	mux.HandleFunc("POST /api/landlord/properties", h.Property.Create)
	mux.HandleFunc("PUT /api/landlord/properties/{id}", h.Property.Update)
	mux.HandleFunc("DELETE /api/landlord/properties/{id}", h.Property.Delete)
	mux.HandleFunc("POST /api/landlord/properties/{id}/photos", h.Property.UploadPhotos)
	mux.HandleFunc("GET /api/landlord/properties/{id}/applications", h.Property.Applications)
	mux.HandleFunc("PUT /api/landlord/properties/{id}/applications/{appId}/status", h.Application.UpdateStatus)

	// Scoring, either role
	mux.HandleFunc("POST /api/scoring/calculate-score", h.Scoring.CalculateScore)
	mux.HandleFunc("POST /api/scoring/check-credit-score", h.Scoring.CheckCreditScore)
	mux.HandleFunc("POST /api/scoring/check-compatibility", h.Scoring.CheckCompatibility)

	// Newsletter
	mux.HandleFunc("POST /api/newsletter/subscribe", h.Newsletter.Subscribe)
	mux.HandleFunc("GET /api/newsletter/download/{id}", h.Newsletter.Download)
}

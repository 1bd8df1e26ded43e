package security

import (
	"log/slog"

	"github.com/yourorg/rentmatch/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermApply              Permission = "apply"
	PermRevokeApplication  Permission = "revoke_application"
	PermUploadDocuments    Permission = "upload_documents"
	PermManageFavorites    Permission = "manage_favorites"
	PermVerifyIncome       Permission = "verify_income"
	PermManageProperties   Permission = "manage_properties"
	PermDecideApplication  Permission = "decide_application"
	PermViewApplications   Permission = "view_applications"
	PermWriteNotes         Permission = "write_notes"
	PermCalculateScore     Permission = "calculate_score"
	PermCheckCompatibility Permission = "check_compatibility"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleTenant: {
		PermApply,
		PermRevokeApplication,
		PermUploadDocuments,
		PermManageFavorites,
		PermVerifyIncome,
		PermViewApplications,
		PermWriteNotes,
		PermCalculateScore,
		PermCheckCompatibility,
	},
	domain.RoleLandlord: {
		PermManageProperties,
		PermDecideApplication,
		PermViewApplications,
		PermWriteNotes,
		PermCalculateScore,
		PermCheckCompatibility,
	},
}

// AuthorizationService handles role and ownership checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidatePermission returns a Forbidden error when role lacks permission
func (as *AuthorizationService) ValidatePermission(role domain.Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return domain.Forbidden("a " + string(role) + " account cannot " + string(permission))
	}
	return nil
}

// ValidateOwnership allows access only to the owner of a resource.
func (as *AuthorizationService) ValidateOwnership(userID, ownerID, resource, resourceID string) error {
	if userID == "" || userID != ownerID {
		as.logger.Warn("resource access denied",
			slog.String("user_id", userID),
			slog.String("resource_id", resourceID),
			slog.String("resource_type", resource),
			slog.String("owner_id", ownerID),
		)
		return domain.Forbidden("you do not own this " + resource)
	}
	return nil
}

// ValidateParticipant allows either side of an application.
func (as *AuthorizationService) ValidateParticipant(userID string, app *domain.Application) error {
	if userID != "" && (userID == app.TenantID || userID == app.LandlordID) {
		return nil
	}
	as.logger.Warn("application access denied",
		slog.String("user_id", userID),
		slog.String("application_id", app.ID),
	)
	return domain.Forbidden("you are not a party to this application")
}

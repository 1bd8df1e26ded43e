package security

import (
	"errors"
	"testing"

	"github.com/yourorg/rentmatch/internal/domain"
)

func TestRolePermissions(t *testing.T) {
	as := NewAuthorizationService(nil)
	if !as.HasPermission(domain.RoleTenant, PermApply) {
		t.Fatalf("tenant should apply")
	}
	if as.HasPermission(domain.RoleTenant, PermDecideApplication) {
		t.Fatalf("tenant must not decide applications")
	}
	if err := as.ValidatePermission(domain.RoleLandlord, PermApply); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := as.ValidatePermission(domain.Role("admin"), PermApply); err == nil {
		t.Fatalf("unknown role should be denied")
	}
}

func TestOwnershipAndParticipant(t *testing.T) {
	as := NewAuthorizationService(nil)
	if err := as.ValidateOwnership("u1", "u1", "property", "p1"); err != nil {
		t.Fatalf("owner denied: %v", err)
	}
	if err := as.ValidateOwnership("", "", "property", "p1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("empty user must be denied")
	}

	app := &domain.Application{TenantID: "t1", LandlordID: "l1"}
	for _, id := range []string{"t1", "l1"} {
		if err := as.ValidateParticipant(id, app); err != nil {
			t.Fatalf("%s denied: %v", id, err)
		}
	}
	if err := as.ValidateParticipant("x", app); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("outsider allowed")
	}
}

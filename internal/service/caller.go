package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/yourorg/rentmatch/internal/domain"
)

// Caller is the authenticated user behind a request.
type Caller struct {
	SupabaseID string
	Role       domain.Role
}

// Upload is one file taken from a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// profiles resolves auth provider ids to marketplace profiles.
type profiles struct {
	tenants   domain.TenantRepository
	landlords domain.LandlordRepository
}

func (p profiles) tenant(ctx context.Context, supabaseID string) (*domain.Tenant, error) {
	t, err := p.tenants.GetBySupabaseID(ctx, supabaseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("tenant profile not found")
		}
		return nil, err
	}
	return t, nil
}

func (p profiles) landlord(ctx context.Context, supabaseID string) (*domain.Landlord, error) {
	l, err := p.landlords.GetBySupabaseID(ctx, supabaseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("landlord profile not found")
		}
		return nil, err
	}
	return l, nil
}

// profileID returns the marketplace id of the caller. An unknown role is
// resolved by trying tenant first, then landlord.
func (p profiles) profileID(ctx context.Context, c Caller) (string, domain.Role, error) {
	switch c.Role {
	case domain.RoleTenant:
		t, err := p.tenant(ctx, c.SupabaseID)
		if err != nil {
			return "", "", err
		}
		return t.ID, domain.RoleTenant, nil
	case domain.RoleLandlord:
		l, err := p.landlord(ctx, c.SupabaseID)
		if err != nil {
			return "", "", err
		}
		return l.ID, domain.RoleLandlord, nil
	}
	if t, err := p.tenants.GetBySupabaseID(ctx, c.SupabaseID); err == nil {
		return t.ID, domain.RoleTenant, nil
	}
	if l, err := p.landlords.GetBySupabaseID(ctx, c.SupabaseID); err == nil {
		return l.ID, domain.RoleLandlord, nil
	}
	return "", "", domain.NotFound("profile not found")
}

// checkUpload enforces the size cap and, when prefix is set, the content type family.
func checkUpload(u Upload, maxBytes int64, typePrefix string) error {
	if u.Size <= 0 {
		return domain.Validation("file is empty")
	}
	if u.Size > maxBytes {
		return domain.Validation(fmt.Sprintf("file %q exceeds %d MB limit", u.Filename, maxBytes>>20))
	}
	if typePrefix != "" && !strings.HasPrefix(u.ContentType, typePrefix) {
		return domain.Validation(fmt.Sprintf("file %q must be of type %s*", u.Filename, typePrefix))
	}
	return nil
}

// objectName builds a collision-free storage path under dir, keeping the extension.
func objectName(dir, filename string) string {
	return dir + "/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
}

// objectPathFromURL recovers the storage path from a public object URL.
func objectPathFromURL(url, bucket string) string {
	marker := "/" + bucket + "/"
	if i := strings.LastIndex(url, marker); i >= 0 {
		return url[i+len(marker):]
	}
	return ""
}

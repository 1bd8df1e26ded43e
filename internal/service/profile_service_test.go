package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/rentmatch/internal/domain"
)

func TestProfileServiceUpdateTenantHashesSSN(t *testing.T) {
	e := newEnv(t)
	svc := NewProfileService(e.tenants, e.landlords, e.storage, e.cfg, nil)
	ctx := context.Background()

	updated, err := svc.UpdateTenant(ctx, e.tenant.SupabaseID, TenantProfileInput{
		FirstName: " Samira ",
		LastName:  "Lee",
		SSN:       "123456789",
		Address:   domain.Address{AddressLine1: "2 Oak Ave", City: "Austin", State: "TX", Zip: "78703"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Samira", updated.FirstName)
	assert.Equal(t, "6789", updated.SSNLastFour)

	stored, err := e.tenants.GetByID(ctx, e.tenant.ID)
	require.NoError(t, err)
	assert.NotContains(t, stored.SSNHash, "123456789")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.SSNHash), []byte("123456789")))
	assert.Equal(t, "2 Oak Ave", stored.Address.AddressLine1)
}

func TestProfileServiceRejectsBadSSN(t *testing.T) {
	e := newEnv(t)
	svc := NewProfileService(e.tenants, e.landlords, e.storage, e.cfg, nil)

	_, err := svc.UpdateTenant(context.Background(), e.tenant.SupabaseID, TenantProfileInput{FirstName: "S", LastName: "L", SSN: "12345678x"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProfileServiceUpdateLandlordKeepsLastFour(t *testing.T) {
	e := newEnv(t)
	svc := NewProfileService(e.tenants, e.landlords, e.storage, e.cfg, nil)

	l, err := svc.UpdateLandlord(context.Background(), e.landlord.SupabaseID, LandlordProfileInput{
		FirstName:           "Dana",
		LastName:            "Reyes",
		PayoutAccountHolder: "Dana Reyes",
		PayoutRoutingNumber: "021000021",
		PayoutAccountNumber: "000123456789",
	})
	require.NoError(t, err)
	assert.Equal(t, "6789", l.PayoutLastFour)
}

func TestProfileServiceMissingProfile(t *testing.T) {
	e := newEnv(t)
	svc := NewProfileService(e.tenants, e.landlords, e.storage, e.cfg, nil)

	_, err := svc.GetTenant(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProfileServiceImageLifecycle(t *testing.T) {
	e := newEnv(t)
	svc := NewProfileService(e.tenants, e.landlords, e.storage, e.cfg, nil)
	ctx := context.Background()
	c := e.tenantCaller()

	first, err := svc.UploadImage(ctx, c, upload("me.PNG", "image/png", 1024))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(first, ".png"))

	second, err := svc.UploadImage(ctx, c, upload("me2.jpg", "image/jpeg", 2048))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, e.storage.count("profile-images/"), "replaced image should be deleted")

	require.NoError(t, svc.DeleteImage(ctx, c))
	assert.Equal(t, 0, e.storage.count("profile-images/"))
	assert.ErrorIs(t, svc.DeleteImage(ctx, c), domain.ErrNotFound)
}

func TestProfileServiceImageLimits(t *testing.T) {
	e := newEnv(t)
	svc := NewProfileService(e.tenants, e.landlords, e.storage, e.cfg, nil)
	ctx := context.Background()

	_, err := svc.UploadImage(ctx, e.landlordCaller(), upload("big.png", "image/png", 5<<20+1))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UploadImage(ctx, e.landlordCaller(), upload("cv.pdf", "application/pdf", 100))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, e.storage.count(""))
}

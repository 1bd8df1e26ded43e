package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/yourorg/rentmatch/internal/domain"
)

func TestTenant_DuplicateSupabaseID(t *testing.T) {
	f := newFixture(t)

	err := f.tenants.Create(context.Background(), &domain.Tenant{SupabaseID: "sb-tenant", Email: "again@example.com"})
	assert.True(t, errors.Is(err, domain.ErrConflict), "got %v", err)
}

func TestTenant_UpdateKeepsVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	verified := true
	now := time.Now().UTC()
	income := decimal.NewFromFloat(4340)
	require.NoError(t, f.tenants.UpdateVerification(ctx, f.tenant.ID, domain.VerificationUpdate{
		IdentityVerified:   &verified,
		IdentityVerifiedAt: &now,
		VerifiedIncome:     &income,
		IncomeVerifiedAt:   &now,
		BankAccounts:       datatypes.JSON(`[{"accountId":"a1","subtype":"checking"}]`),
	}))

	// A stale copy without verification state must not clobber it.
	stale := *f.tenant
	stale.Phone = "+15555550100"
	stale.Address = domain.Address{AddressLine1: "9 Oak Ave", City: "Austin", State: "TX", Zip: "78702"}
	require.NoError(t, f.tenants.Update(ctx, &stale))

	got, err := f.tenants.GetBySupabaseID(ctx, "sb-tenant")
	require.NoError(t, err)
	assert.Equal(t, "+15555550100", got.Phone)
	assert.Equal(t, "Austin", got.Address.City)
	assert.True(t, got.IdentityVerified)
	assert.False(t, got.BankAccountVerified)
	assert.True(t, got.VerifiedIncome.Equal(income))

	accounts, err := got.LinkedAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "checking", accounts[0].Subtype)
}

func TestTenant_ProfileImageAndMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tenants.SetProfileImage(ctx, f.tenant.ID, "https://cdn/me.png"))
	got, err := f.tenants.GetByID(ctx, f.tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/me.png", got.ProfileImageURL)

	_, err = f.tenants.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	err = f.tenants.SetProfileImage(ctx, "missing", "")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestLandlord_UpdateBusinessAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.landlord.BusinessName = "Lone Star Rentals"
	f.landlord.BusinessAddress = domain.Address{AddressLine1: "500 Congress", City: "Austin", State: "TX", Zip: "78701"}
	f.landlord.PayoutLastFour = "6789"
	require.NoError(t, f.landlords.Update(ctx, f.landlord))

	got, err := f.landlords.GetBySupabaseID(ctx, "sb-landlord")
	require.NoError(t, err)
	assert.Equal(t, "Lone Star Rentals", got.BusinessName)
	assert.Equal(t, "500 Congress", got.BusinessAddress.AddressLine1)
	assert.Equal(t, "6789", got.PayoutLastFour)
}

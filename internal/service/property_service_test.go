package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/rentmatch/internal/domain"
)

func validPropertyInput() PropertyInput {
	return PropertyInput{
		Title:        "Garden cottage",
		PropertyType: "house",
		Address:      domain.Address{AddressLine1: "5 Pine Rd", City: "Denver", State: "CO", Zip: "80203"},
		Bedrooms:     3,
		Bathrooms:    2,
		Price:        decimal.NewFromInt(2400),
		Amenities:    []string{"parking", "yard"},
	}
}

func newPropertyService(e *env, cache domain.PropertyCache) *PropertyService {
	return NewPropertyService(e.landlords, e.properties, e.apps, cache, e.storage, e.authz, e.cfg, nil)
}

func TestPropertyServiceCreateValidates(t *testing.T) {
	e := newEnv(t)
	svc := newPropertyService(e, nil)
	ctx := context.Background()

	in := validPropertyInput()
	in.Price = decimal.Zero
	_, err := svc.Create(ctx, e.landlord.SupabaseID, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = validPropertyInput()
	in.Address.Zip = ""
	_, err = svc.Create(ctx, e.landlord.SupabaseID, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	p, err := svc.Create(ctx, e.landlord.SupabaseID, validPropertyInput())
	require.NoError(t, err)
	assert.Equal(t, e.landlord.ID, p.LandlordID)
	assert.JSONEq(t, `["parking","yard"]`, string(p.Amenities))

	_, err = svc.Create(ctx, e.tenant.SupabaseID, validPropertyInput())
	assert.ErrorIs(t, err, domain.ErrNotFound, "tenants have no landlord profile")
}

func TestPropertyServiceOwnership(t *testing.T) {
	e := newEnv(t)
	svc := newPropertyService(e, nil)
	ctx := context.Background()
	other := e.addLandlord(t, "sb-other-landlord")

	_, err := svc.Update(ctx, other.SupabaseID, e.property.ID, validPropertyInput())
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, other.SupabaseID, e.property.ID), domain.ErrForbidden)
	_, err = svc.Applications(ctx, other.SupabaseID, e.property.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := svc.Update(ctx, e.landlord.SupabaseID, e.property.ID, validPropertyInput())
	require.NoError(t, err)
	assert.Equal(t, "Garden cottage", updated.Title)

	mine, err := svc.ListMine(ctx, e.landlord.SupabaseID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, svc.Delete(ctx, e.landlord.SupabaseID, e.property.ID))
	_, err = svc.GetPublic(ctx, e.property.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPropertyServiceListPublicPriceRange(t *testing.T) {
	e := newEnv(t)
	svc := newPropertyService(e, nil)
	lo, hi := decimal.NewFromInt(3000), decimal.NewFromInt(1000)

	_, _, err := svc.ListPublic(context.Background(), domain.PropertyFilter{MinPrice: &lo, MaxPrice: &hi})
	assert.ErrorIs(t, err, domain.ErrValidation)

	props, total, err := svc.ListPublic(context.Background(), domain.PropertyFilter{City: "austin"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, props, 1)
}

func TestPropertyServiceGetPublicUsesCache(t *testing.T) {
	e := newEnv(t)
	cache := newFakePropertyCache()
	svc := newPropertyService(e, cache)
	ctx := context.Background()

	p, err := svc.GetPublic(ctx, e.property.ID)
	require.NoError(t, err)
	_, cached := cache.Get(ctx, p.ID)
	assert.True(t, cached)

	cache.items[p.ID] = domain.Property{Base: p.Base, Title: "from cache"}
	again, err := svc.GetPublic(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "from cache", again.Title)

	_, err = svc.Update(ctx, e.landlord.SupabaseID, p.ID, validPropertyInput())
	require.NoError(t, err)
	assert.Contains(t, cache.invalidated, p.ID)
}

func TestPropertyServiceUploadPhotos(t *testing.T) {
	e := newEnv(t)
	svc := newPropertyService(e, nil)
	ctx := context.Background()

	urls, err := svc.UploadPhotos(ctx, e.landlord.SupabaseID, e.property.ID, []Upload{
		upload("a.jpg", "image/jpeg", 10),
		upload("b.webp", "image/webp", 10),
	})
	require.NoError(t, err)
	assert.Len(t, urls, 2)

	urls, err = svc.UploadPhotos(ctx, e.landlord.SupabaseID, e.property.ID, []Upload{upload("c.jpg", "image/jpeg", 10)})
	require.NoError(t, err)
	assert.Len(t, urls, 3, "photos are appended")

	stored, err := e.properties.GetByID(ctx, e.property.ID)
	require.NoError(t, err)
	assert.Len(t, stored.PhotoURLs(), 3)
}

func TestPropertyServiceUploadPhotosLimits(t *testing.T) {
	e := newEnv(t)
	svc := newPropertyService(e, nil)
	ctx := context.Background()

	tooMany := make([]Upload, 11)
	for i := range tooMany {
		tooMany[i] = upload("p.jpg", "image/jpeg", 1)
	}
	_, err := svc.UploadPhotos(ctx, e.landlord.SupabaseID, e.property.ID, tooMany)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UploadPhotos(ctx, e.landlord.SupabaseID, e.property.ID, []Upload{upload("huge.jpg", "image/jpeg", 50<<20+1)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UploadPhotos(ctx, e.landlord.SupabaseID, e.property.ID, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, e.storage.count(""))
}

func TestFavoriteServiceRoundTrip(t *testing.T) {
	e := newEnv(t)
	svc := NewFavoriteService(e.tenants, e.favorites, e.properties, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Add(ctx, e.tenant.SupabaseID, "00000000-0000-0000-0000-000000000000"), domain.ErrNotFound)

	require.NoError(t, svc.Add(ctx, e.tenant.SupabaseID, e.property.ID))
	require.NoError(t, svc.Add(ctx, e.tenant.SupabaseID, e.property.ID))
	favs, err := svc.List(ctx, e.tenant.SupabaseID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, e.property.ID, favs[0].PropertyID)

	require.NoError(t, svc.Remove(ctx, e.tenant.SupabaseID, e.property.ID))
	favs, err = svc.List(ctx, e.tenant.SupabaseID)
	require.NoError(t, err)
	assert.Empty(t, favs)
}

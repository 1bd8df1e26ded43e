package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/rentmatch/internal/domain"
)

func TestUpdateStatus_ApproveLeasesProperty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.apply(t)

	updated, err := f.apps.UpdateStatus(ctx, app.ID, domain.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)

	p, err := f.properties.GetByID(ctx, f.property.ID)
	require.NoError(t, err)
	assert.True(t, p.IsLeased)

	tenant, err := f.tenants.GetByID(ctx, f.tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, tenant.PendingApplications)
	assert.Equal(t, 1, tenant.ApprovedApplications)
}

func TestUpdateStatus_RejectLeavesPropertyAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.apply(t)

	_, err := f.apps.UpdateStatus(ctx, app.ID, domain.StatusRejected)
	require.NoError(t, err)

	p, err := f.properties.GetByID(ctx, f.property.ID)
	require.NoError(t, err)
	assert.False(t, p.IsLeased)

	tenant, err := f.tenants.GetByID(ctx, f.tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tenant.RejectedApplications)
}

func TestUpdateStatus_TerminalIsFinal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.apply(t)

	_, err := f.apps.UpdateStatus(ctx, app.ID, domain.StatusRejected)
	require.NoError(t, err)

	_, err = f.apps.UpdateStatus(ctx, app.ID, domain.StatusApproved)
	assert.True(t, errors.Is(err, domain.ErrConflict), "got %v", err)

	p, err := f.properties.GetByID(ctx, f.property.ID)
	require.NoError(t, err)
	assert.False(t, p.IsLeased)
}

func TestUpdateStatus_RollsBackWhenPropertyMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// An application pointing at a property that no longer exists.
	require.NoError(t, f.db.Exec("PRAGMA foreign_keys = OFF").Error)
	orphan := &domain.Application{TenantID: f.tenant.ID, PropertyID: "missing-property", LandlordID: f.landlord.ID}
	require.NoError(t, f.apps.Create(ctx, orphan))

	_, err := f.apps.UpdateStatus(ctx, orphan.ID, domain.StatusApproved)
	require.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

	got, err := f.apps.GetByID(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	tenant, err := f.tenants.GetByID(ctx, f.tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tenant.PendingApplications)
	assert.Equal(t, 0, tenant.ApprovedApplications)
}

func TestUpdateStatus_RejectsPending(t *testing.T) {
	f := newFixture(t)
	app := f.apply(t)

	_, err := f.apps.UpdateStatus(context.Background(), app.ID, domain.StatusPending)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestUpdateStatus_UnknownApplication(t *testing.T) {
	f := newFixture(t)

	_, err := f.apps.UpdateStatus(context.Background(), "nope", domain.StatusApproved)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDelete_OnlyPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.apply(t)
	require.NoError(t, f.apps.AddNote(ctx, &domain.ApplicationNote{ApplicationID: pending.ID, AuthorID: f.tenant.ID, AuthorRole: domain.RoleTenant, Body: "hi"}))
	require.NoError(t, f.apps.Delete(ctx, pending.ID))

	_, err := f.apps.GetByID(ctx, pending.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	approved := f.apply(t)
	_, err = f.apps.UpdateStatus(ctx, approved.ID, domain.StatusApproved)
	require.NoError(t, err)

	err = f.apps.Delete(ctx, approved.ID)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	tenant, err := f.tenants.GetByID(ctx, f.tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, tenant.PendingApplications)
}

func TestExistsInPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.apply(t)

	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	ok, err := f.apps.ExistsInPeriod(ctx, f.tenant.ID, f.property.ID, from, to)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.apps.ExistsInPeriod(ctx, f.tenant.ID, f.property.ID, to, to.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocumentsAndNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.apply(t)

	require.NoError(t, app.SetDocument(domain.DocumentPayStub, "apps/"+app.ID+"/payStub.pdf"))
	require.NoError(t, f.apps.SaveDocuments(ctx, app))

	got, err := f.apps.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.True(t, got.HasPayStub)
	assert.False(t, got.HasIDDocument)
	assert.Equal(t, "apps/"+app.ID+"/payStub.pdf", got.DocumentPaths()[domain.DocumentPayStub])

	require.NoError(t, f.apps.AddNote(ctx, &domain.ApplicationNote{ApplicationID: app.ID, AuthorID: f.tenant.ID, AuthorRole: domain.RoleTenant, Body: "first"}))
	require.NoError(t, f.apps.AddNote(ctx, &domain.ApplicationNote{ApplicationID: app.ID, AuthorID: f.landlord.ID, AuthorRole: domain.RoleLandlord, Body: "second"}))

	notes, err := f.apps.ListNotes(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "first", notes[0].Body)
	assert.Equal(t, domain.RoleLandlord, notes[1].AuthorRole)
}

func TestListByTenantAndProperty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.apply(t)

	byTenant, err := f.apps.ListByTenant(ctx, f.tenant.ID)
	require.NoError(t, err)
	require.Len(t, byTenant, 1)
	require.NotNil(t, byTenant[0].Property)
	assert.Equal(t, f.property.Title, byTenant[0].Property.Title)

	byProperty, err := f.apps.ListByProperty(ctx, f.property.ID)
	require.NoError(t, err)
	require.Len(t, byProperty, 1)
	require.NotNil(t, byProperty[0].Tenant)
	assert.Equal(t, "Sam Lee", byProperty[0].Tenant.FullName())
}

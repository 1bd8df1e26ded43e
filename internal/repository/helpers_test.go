package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=1"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

type fixture struct {
	db         *gorm.DB
	tenants    *GormTenantRepository
	landlords  *GormLandlordRepository
	properties *GormPropertyRepository
	apps       *GormApplicationRepository
	tenant     *domain.Tenant
	landlord   *domain.Landlord
	property   *domain.Property
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	ctx := context.Background()

	f := &fixture{
		db:         db,
		tenants:    NewGormTenantRepository(db, nil),
		landlords:  NewGormLandlordRepository(db, nil),
		properties: NewGormPropertyRepository(db, nil),
		apps:       NewGormApplicationRepository(db, nil),
	}

	f.landlord = &domain.Landlord{SupabaseID: "sb-landlord", Email: "owner@example.com", FirstName: "Dana"}
	require.NoError(t, f.landlords.Create(ctx, f.landlord))

	f.tenant = &domain.Tenant{SupabaseID: "sb-tenant", Email: "renter@example.com", FirstName: "Sam", LastName: "Lee"}
	require.NoError(t, f.tenants.Create(ctx, f.tenant))

	f.property = newProperty(f.landlord.ID, "Austin", 1400, 2)
	require.NoError(t, f.properties.Create(ctx, f.property))
	return f
}

func newProperty(landlordID, city string, price int64, beds int) *domain.Property {
	return &domain.Property{
		LandlordID: landlordID,
		Title:      "Sunny " + city + " flat",
		Address:    domain.Address{AddressLine1: "1 Main St", City: city, State: "TX", Zip: "78701"},
		Bedrooms:   beds,
		Bathrooms:  1,
		Price:      decimal.NewFromInt(price),
	}
}

func (f *fixture) apply(t *testing.T) *domain.Application {
	t.Helper()
	app := &domain.Application{TenantID: f.tenant.ID, PropertyID: f.property.ID, LandlordID: f.property.LandlordID}
	require.NoError(t, f.apps.Create(context.Background(), app))
	return app
}

package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Property is a rental listing owned by a landlord.
type Property struct {
	Base
	LandlordID    string          `json:"landlordId" gorm:"type:varchar(36);index;not null"`
	Landlord      *Landlord       `json:"landlord,omitempty" gorm:"foreignKey:LandlordID"`
	Title         string          `json:"title"`
	Description   string          `json:"description" gorm:"type:text"`
	PropertyType  string          `json:"propertyType"` // apartment, house, condo, townhouse
	Address       Address         `json:"address" gorm:"embedded"`
	Bedrooms      int             `json:"bedrooms"`
	Bathrooms     float64         `json:"bathrooms"`
	SquareFeet    int             `json:"squareFeet"`
	Price         decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	AvailableDate *time.Time      `json:"availableDate,omitempty"`
	Photos        datatypes.JSON  `json:"photos"`
	Amenities     datatypes.JSON  `json:"amenities"`
	IsLeased      bool            `json:"isLeased" gorm:"default:false;index"`
	Applications  []Application   `json:"-" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
}

// PhotoURLs decodes the photo list.
func (p *Property) PhotoURLs() []string {
	var urls []string
	if len(p.Photos) > 0 {
		_ = json.Unmarshal(p.Photos, &urls)
	}
	return urls
}

// MonthlyRent returns the listing price as a float for ratio arithmetic.
func (p *Property) MonthlyRent() float64 {
	f, _ := p.Price.Float64()
	return f
}

// PropertyFilter narrows the public listing query.
type PropertyFilter struct {
	City          string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	MinBedrooms   int
	AvailableOnly bool
	Limit         int
	Offset        int
}

// PropertyRepository defines data access for properties
type PropertyRepository interface {
	Create(ctx context.Context, property *Property) error
	GetByID(ctx context.Context, id string) (*Property, error)
	Update(ctx context.Context, property *Property) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter PropertyFilter) ([]Property, int64, error)
	ListByLandlord(ctx context.Context, landlordID string) ([]Property, error)
	SetPhotos(ctx context.Context, id string, urls []string) error
}

// Favorite pairs a tenant with a saved property.
type Favorite struct {
	TenantID   string    `json:"tenantId" gorm:"type:varchar(36);primaryKey"`
	PropertyID string    `json:"propertyId" gorm:"type:varchar(36);primaryKey"`
	Property   *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FavoriteRepository defines data access for favorites
type FavoriteRepository interface {
	Add(ctx context.Context, tenantID, propertyID string) error
	Remove(ctx context.Context, tenantID, propertyID string) error
	ListByTenant(ctx context.Context, tenantID string) ([]Favorite, error)
}

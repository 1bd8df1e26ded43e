package domain

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// ApplicationStatus is the lifecycle state of an application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "Pending"
	StatusApproved ApplicationStatus = "Approved"
	StatusRejected ApplicationStatus = "Rejected"
)

// Terminal reports whether no further transition is allowed.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransitionTo allows only Pending -> Approved and Pending -> Rejected.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	return s == StatusPending && next.Terminal()
}

// DocumentKind names the documents an applicant can attach.
type DocumentKind string

const (
	DocumentID            DocumentKind = "id"
	DocumentPayStub       DocumentKind = "payStub"
	DocumentBankStatement DocumentKind = "bankStatement"
	DocumentReference     DocumentKind = "reference"
)

// Valid reports whether k is a known document kind.
func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentID, DocumentPayStub, DocumentBankStatement, DocumentReference:
		return true
	}
	return false
}

// Application joins a tenant to a property.
//
// LandlordID is copied from the property when the application is created and
// is never re-derived: it records who owned the listing at that moment.
type Application struct {
	Base
	TenantID         string            `json:"tenantId" gorm:"type:varchar(36);index;not null"`
	Tenant           *Tenant           `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	PropertyID       string            `json:"propertyId" gorm:"type:varchar(36);index;not null"`
	Property         *Property         `json:"property,omitempty" gorm:"foreignKey:PropertyID"`
	LandlordID       string            `json:"landlordId" gorm:"type:varchar(36);index;not null"`
	Status           ApplicationStatus `json:"status" gorm:"type:varchar(16);default:'Pending';index"`
	Message          string            `json:"message" gorm:"type:text"`
	MoveInDate       *time.Time        `json:"moveInDate,omitempty"`
	Documents        datatypes.JSON    `json:"documents"`
	HasIDDocument    bool              `json:"hasIdDocument"`
	HasPayStub       bool              `json:"hasPayStub"`
	HasBankStatement bool              `json:"hasBankStatement"`
	Notes            []ApplicationNote `json:"notes,omitempty" gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
}

// DocumentPaths decodes the kind -> storage path map.
func (a *Application) DocumentPaths() map[DocumentKind]string {
	paths := map[DocumentKind]string{}
	if len(a.Documents) > 0 {
		_ = json.Unmarshal(a.Documents, &paths)
	}
	return paths
}

// SetDocument records a stored document and mirrors its presence flag.
func (a *Application) SetDocument(kind DocumentKind, path string) error {
	paths := a.DocumentPaths()
	paths[kind] = path
	raw, err := json.Marshal(paths)
	if err != nil {
		return err
	}
	a.Documents = datatypes.JSON(raw)
	switch kind {
	case DocumentID:
		a.HasIDDocument = true
	case DocumentPayStub:
		a.HasPayStub = true
	case DocumentBankStatement:
		a.HasBankStatement = true
	}
	return nil
}

// ApplicationNote is an append-only annotation written by either party.
type ApplicationNote struct {
	Base
	ApplicationID string `json:"applicationId" gorm:"type:varchar(36);index;not null"`
	AuthorID      string `json:"authorId" gorm:"type:varchar(36);not null"`
	AuthorRole    Role   `json:"authorRole" gorm:"type:varchar(16)"`
	Body          string `json:"body" gorm:"type:text;not null"`
}

// ApplicationRepository defines data access for applications
type ApplicationRepository interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id string) (*Application, error)
	ExistsInPeriod(ctx context.Context, tenantID, propertyID string, from, to time.Time) (bool, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Application, error)
	ListByProperty(ctx context.Context, propertyID string) ([]Application, error)
	// UpdateStatus moves a Pending application to a terminal status. Approval
	// also marks the property leased; both writes share one transaction.
	UpdateStatus(ctx context.Context, id string, status ApplicationStatus) (*Application, error)
	Delete(ctx context.Context, id string) error
	SaveDocuments(ctx context.Context, app *Application) error
	AddNote(ctx context.Context, note *ApplicationNote) error
	ListNotes(ctx context.Context, applicationID string) ([]ApplicationNote, error)
}

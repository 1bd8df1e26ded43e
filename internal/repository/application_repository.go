package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/rentmatch/internal/domain"
	"gorm.io/gorm"
)

// GormApplicationRepository implements domain.ApplicationRepository using gorm
type GormApplicationRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormApplicationRepository creates a new application repository
func NewGormApplicationRepository(db *gorm.DB, logger *slog.Logger) *GormApplicationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormApplicationRepository{db: db, logger: logger}
}

// Create stores a Pending application and bumps the tenant's pending counter
func (r *GormApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	app.Status = domain.StatusPending
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tenant", "Property", "Notes").Create(app).Error; err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}
		return bumpCounters(tx, app.TenantID, map[string]int{"pending_applications": 1})
	})
}

// GetByID retrieves an application with its property
func (r *GormApplicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	var app domain.Application
	if err := r.db.WithContext(ctx).Preload("Property").First(&app, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "application")
	}
	return &app, nil
}

// ExistsInPeriod reports whether the tenant applied to the property in [from, to)
func (r *GormApplicationRepository) ExistsInPeriod(ctx context.Context, tenantID, propertyID string, from, to time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Application{}).
		Where("tenant_id = ? AND property_id = ? AND created_at >= ? AND created_at < ?", tenantID, propertyID, from, to).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing application: %w", err)
	}
	return n > 0, nil
}

// ListByTenant returns a tenant's applications with their properties, newest first
func (r *GormApplicationRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.Application, error) {
	var out []domain.Application
	err := r.db.WithContext(ctx).Preload("Property").
		Where("tenant_id = ?", tenantID).Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant applications: %w", err)
	}
	return out, nil
}

// ListByProperty returns a property's applications with their tenants, newest first
func (r *GormApplicationRepository) ListByProperty(ctx context.Context, propertyID string) ([]domain.Application, error) {
	var out []domain.Application
	err := r.db.WithContext(ctx).Preload("Tenant").
		Where("property_id = ?", propertyID).Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list property applications: %w", err)
	}
	return out, nil
}

// UpdateStatus moves a Pending application to Approved or Rejected. The
// status change, the lease flag and the tenant counters commit together.
func (r *GormApplicationRepository) UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus) (*domain.Application, error) {
	if !domain.StatusPending.CanTransitionTo(status) {
		return nil, domain.Validation("status must be Approved or Rejected")
	}

	var app domain.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Application{}).
			Where("id = ? AND status = ?", id, domain.StatusPending).
			Update("status", status)
		if res.Error != nil {
			return fmt.Errorf("failed to update application status: %w", res.Error)
		}
		if err := tx.First(&app, "id = ?", id).Error; err != nil {
			return lookupErr(err, "application")
		}
		if res.RowsAffected == 0 {
			return domain.Conflict(fmt.Sprintf("application is already %s", app.Status))
		}

		if status == domain.StatusApproved {
			lease := tx.Model(&domain.Property{}).Where("id = ?", app.PropertyID).Update("is_leased", true)
			if lease.Error != nil {
				return fmt.Errorf("failed to mark property leased: %w", lease.Error)
			}
			if lease.RowsAffected == 0 {
				return domain.NotFound("property not found")
			}
		}

		delta := map[string]int{"pending_applications": -1}
		if status == domain.StatusApproved {
			delta["approved_applications"] = 1
		} else {
			delta["rejected_applications"] = 1
		}
		return bumpCounters(tx, app.TenantID, delta)
	})
	if err != nil {
		var kind *domain.KindError
		if !errors.As(err, &kind) {
			r.logger.Error("application status transaction failed",
				slog.String("application_id", id),
				slog.String("status", string(status)),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}
	return &app, nil
}

// Delete removes a Pending application and its notes
func (r *GormApplicationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app domain.Application
		if err := tx.First(&app, "id = ?", id).Error; err != nil {
			return lookupErr(err, "application")
		}
		if err := tx.Where("application_id = ?", id).Delete(&domain.ApplicationNote{}).Error; err != nil {
			return fmt.Errorf("failed to delete notes: %w", err)
		}
		res := tx.Where("id = ? AND status = ?", id, domain.StatusPending).Delete(&domain.Application{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete application: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.Conflict("only pending applications can be revoked")
		}
		return bumpCounters(tx, app.TenantID, map[string]int{"pending_applications": -1})
	})
}

// SaveDocuments persists the documents blob and presence flags
func (r *GormApplicationRepository) SaveDocuments(ctx context.Context, app *domain.Application) error {
	res := r.db.WithContext(ctx).Model(&domain.Application{}).Where("id = ?", app.ID).Updates(map[string]interface{}{
		"documents":          app.Documents,
		"has_id_document":    app.HasIDDocument,
		"has_pay_stub":       app.HasPayStub,
		"has_bank_statement": app.HasBankStatement,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to save documents: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("application not found")
	}
	return nil
}

// AddNote appends a note
func (r *GormApplicationRepository) AddNote(ctx context.Context, note *domain.ApplicationNote) error {
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}
	return nil
}

// ListNotes returns an application's notes, oldest first
func (r *GormApplicationRepository) ListNotes(ctx context.Context, applicationID string) ([]domain.ApplicationNote, error) {
	var out []domain.ApplicationNote
	err := r.db.WithContext(ctx).Where("application_id = ?", applicationID).Order("created_at ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return out, nil
}

// bumpCounters adjusts the tenant's application counters by the given deltas.
// Counters never go below zero.
// counterColumns maps a status to the tenant counter that tracks it
var counterColumns = map[domain.ApplicationStatus]string{
	domain.StatusPending:  "pending_applications",
	domain.StatusApproved: "approved_applications",
	domain.StatusRejected: "rejected_applications",
}

func bumpCounters(tx *gorm.DB, tenantID string, delta map[string]int) error {
	cols := map[string]interface{}{}
	for col, d := range delta {
		if d >= 0 {
			cols[col] = gorm.Expr(col+" + ?", d)
		} else {
			cols[col] = gorm.Expr("CASE WHEN "+col+" >= ? THEN "+col+" - ? ELSE 0 END", -d, -d)
		}
	}
	if err := tx.Model(&domain.Tenant{}).Where("id = ?", tenantID).Updates(cols).Error; err != nil {
		return fmt.Errorf("failed to update application counters: %w", err)
	}
	return nil
}

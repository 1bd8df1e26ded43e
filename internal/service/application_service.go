package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/featureflags"
	"github.com/yourorg/rentmatch/internal/observability/metrics"
	"github.com/yourorg/rentmatch/internal/security"
	"github.com/yourorg/rentmatch/internal/security/audit"
	"github.com/yourorg/rentmatch/pkg/config"
)

const (
	applyLockTTL    = 10 * time.Second
	documentLinkTTL = 15 * time.Minute
)

// ApplicationService runs the apply / decide / revoke workflow.
type ApplicationService struct {
	profiles
	applications domain.ApplicationRepository
	properties   domain.PropertyRepository
	lock         domain.ApplyLock
	cache        domain.PropertyCache
	storage      domain.FileStorage
	authz        *security.AuthorizationService
	audit        *audit.Logger
	bucket       string
	maxDocBytes  int64
	now          func() time.Time
	logger       *slog.Logger
}

// NewApplicationService creates a new application service. lock and cache may be nil.
func NewApplicationService(
	tenants domain.TenantRepository,
	landlords domain.LandlordRepository,
	applications domain.ApplicationRepository,
	properties domain.PropertyRepository,
	lock domain.ApplyLock,
	cache domain.PropertyCache,
	storage domain.FileStorage,
	authz *security.AuthorizationService,
	auditLog *audit.Logger,
	cfg *config.Config,
	logger *slog.Logger,
) *ApplicationService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	return &ApplicationService{
		profiles:     profiles{tenants: tenants, landlords: landlords},
		applications: applications,
		properties:   properties,
		lock:         lock,
		cache:        cache,
		storage:      storage,
		authz:        authz,
		audit:        auditLog,
		bucket:       cfg.Buckets.Documents,
		maxDocBytes:  cfg.Limits.DocumentBytes,
		now:          time.Now,
		logger:       logger,
	}
}

// ApplyInput is the apply-to-property payload.
type ApplyInput struct {
	PropertyID string     `json:"propertyId" validate:"required,uuid"`
	Message    string     `json:"message" validate:"max=2000"`
	MoveInDate *time.Time `json:"moveInDate"`
}

// Apply creates a Pending application. A tenant may apply to a property once
// per calendar month. The check is not a database constraint; the Redis lock
// only narrows the window between the check and the insert.
func (s *ApplicationService) Apply(ctx context.Context, supabaseID string, in ApplyInput) (*domain.Application, error) {
	t, err := s.tenant(ctx, supabaseID)
	if err != nil {
		return nil, err
	}
	p, err := s.properties.GetByID(ctx, in.PropertyID)
	if err != nil {
		return nil, err
	}
	if p.IsLeased {
		return nil, domain.Conflict("property is already leased")
	}

	from, to := monthWindow(s.now())
	if s.lock != nil && featureflags.EnabledByDefault(featureflags.ApplyLock) {
		key := fmt.Sprintf("apply:%s:%s:%s", t.ID, p.ID, from.Format("2006-01"))
		ok, err := s.lock.Acquire(ctx, key, applyLockTTL)
		if err != nil {
			s.logger.Warn("apply lock unavailable, continuing without it", slog.String("error", err.Error()))
		} else if !ok {
			return nil, domain.Conflict("an application for this property is already being submitted")
		} else {
			defer func() {
				if err := s.lock.Release(context.WithoutCancel(ctx), key); err != nil {
					s.logger.Warn("failed to release apply lock", slog.String("key", key), slog.String("error", err.Error()))
				}
			}()
		}
	}

	exists, err := s.applications.ExistsInPeriod(ctx, t.ID, p.ID, from, to)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.Conflict("you have already applied to this property this month")
	}

	app := &domain.Application{
		TenantID:   t.ID,
		PropertyID: p.ID,
		LandlordID: p.LandlordID,
		Message:    strings.TrimSpace(in.Message),
		MoveInDate: in.MoveInDate,
	}
	if err := s.applications.Create(ctx, app); err != nil {
		return nil, err
	}

	metrics.ObserveApplication("created")
	s.logger.Info("application created",
		slog.String("application_id", app.ID),
		slog.String("tenant_id", t.ID),
		slog.String("property_id", p.ID),
	)
	return app, nil
}

// ListForTenant returns the caller's applications.
func (s *ApplicationService) ListForTenant(ctx context.Context, supabaseID string) ([]domain.Application, error) {
	t, err := s.tenant(ctx, supabaseID)
	if err != nil {
		return nil, err
	}
	return s.applications.ListByTenant(ctx, t.ID)
}

// Revoke deletes one of the caller's Pending applications. Ownership is
// checked before status, so another tenant's decided application is Forbidden.
func (s *ApplicationService) Revoke(ctx context.Context, supabaseID, id string) error {
	t, err := s.tenant(ctx, supabaseID)
	if err != nil {
		return err
	}
	return s.revoke(ctx, t, id)
}

func (s *ApplicationService) revoke(ctx context.Context, t *domain.Tenant, id string) error {
	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.ValidateOwnership(t.ID, app.TenantID, "application", id); err != nil {
		return err
	}
	if app.Status != domain.StatusPending {
		return domain.Conflict(fmt.Sprintf("cannot revoke an application that is %s", app.Status))
	}
	if err := s.applications.Delete(ctx, id); err != nil {
		return err
	}
	metrics.ObserveApplication("revoked")
	s.logger.Info("application revoked", slog.String("application_id", id), slog.String("tenant_id", t.ID))
	return nil
}

// RevokeResult is the per-id outcome of a bulk revoke.
type RevokeResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RevokeMany revokes each id independently; one failure does not stop the rest.
func (s *ApplicationService) RevokeMany(ctx context.Context, supabaseID string, ids []string) ([]RevokeResult, error) {
	if len(ids) == 0 {
		return nil, domain.Validation("applicationIds must not be empty")
	}
	t, err := s.tenant(ctx, supabaseID)
	if err != nil {
		return nil, err
	}

	results := make([]RevokeResult, 0, len(ids))
	for _, id := range ids {
		r := RevokeResult{ID: id, Success: true}
		if err := s.revoke(ctx, t, id); err != nil {
			r.Success = false
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results, nil
}

// UpdateStatus approves or rejects a Pending application on a property the
// caller currently owns. Approval leases the property in the same transaction.
func (s *ApplicationService) UpdateStatus(ctx context.Context, supabaseID, propertyID, id string, status domain.ApplicationStatus) (*domain.Application, error) {
	if status != domain.StatusApproved && status != domain.StatusRejected {
		return nil, domain.Validation("status must be Approved or Rejected")
	}
	l, err := s.landlord(ctx, supabaseID)
	if err != nil {
		return nil, err
	}
	p, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.ValidateOwnership(l.ID, p.LandlordID, "property", propertyID); err != nil {
		return nil, err
	}
	current, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.PropertyID != propertyID {
		return nil, domain.NotFound("application not found for this property")
	}

	app, err := s.applications.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && status == domain.StatusApproved {
		s.cache.Invalidate(ctx, propertyID)
	}
	metrics.ObserveApplication(strings.ToLower(string(status)))
	s.audit.LogStatusChange(ctx, l.ID, id, string(current.Status), string(status))
	return app, nil
}

// UploadDocument attaches one document of the given kind to the caller's application.
func (s *ApplicationService) UploadDocument(ctx context.Context, supabaseID, id string, kind domain.DocumentKind, u Upload) (*domain.Application, error) {
	if !kind.Valid() {
		return nil, domain.Validation(fmt.Sprintf("unknown document type %q", kind))
	}
	if err := checkUpload(u, s.maxDocBytes, ""); err != nil {
		return nil, err
	}
	t, err := s.tenant(ctx, supabaseID)
	if err != nil {
		return nil, err
	}
	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.ValidateOwnership(t.ID, app.TenantID, "application", id); err != nil {
		return nil, err
	}

	path := objectName("applications/"+app.ID+"/"+string(kind), u.Filename)
	if _, err := s.storage.Upload(ctx, s.bucket, path, u.ContentType, u.Body); err != nil {
		s.logger.Error("document upload failed", slog.String("application_id", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to upload document: %w", err)
	}
	if err := app.SetDocument(kind, path); err != nil {
		return nil, fmt.Errorf("failed to record document: %w", err)
	}
	if err := s.applications.SaveDocuments(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// DocumentLink is a time-limited download link for one document.
type DocumentLink struct {
	Kind      domain.DocumentKind `json:"kind"`
	URL       string              `json:"url"`
	ExpiresAt time.Time           `json:"expiresAt"`
}

// Documents returns signed links for either party of the application.
func (s *ApplicationService) Documents(ctx context.Context, c Caller, id string) ([]DocumentLink, error) {
	app, err := s.participantApp(ctx, c, id)
	if err != nil {
		return nil, err
	}

	expires := s.now().Add(documentLinkTTL)
	links := []DocumentLink{}
	for kind, path := range app.DocumentPaths() {
		url, err := s.storage.SignedURL(ctx, s.bucket, path, documentLinkTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to sign %s document: %w", kind, err)
		}
		links = append(links, DocumentLink{Kind: kind, URL: url, ExpiresAt: expires})
	}
	return links, nil
}

// AddNote appends a note written by either party.
func (s *ApplicationService) AddNote(ctx context.Context, c Caller, id, body string) (*domain.ApplicationNote, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domain.Validation("note body is required")
	}
	authorID, role, err := s.profileID(ctx, c)
	if err != nil {
		return nil, err
	}
	if _, err := s.participantApp(ctx, Caller{SupabaseID: c.SupabaseID, Role: role}, id); err != nil {
		return nil, err
	}

	note := &domain.ApplicationNote{ApplicationID: id, AuthorID: authorID, AuthorRole: role, Body: body}
	if err := s.applications.AddNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// Notes lists the notes on an application for either party.
func (s *ApplicationService) Notes(ctx context.Context, c Caller, id string) ([]domain.ApplicationNote, error) {
	if _, err := s.participantApp(ctx, c, id); err != nil {
		return nil, err
	}
	return s.applications.ListNotes(ctx, id)
}

func (s *ApplicationService) participantApp(ctx context.Context, c Caller, id string) (*domain.Application, error) {
	callerID, _, err := s.profileID(ctx, c)
	if err != nil {
		return nil, err
	}
	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.ValidateParticipant(callerID, app); err != nil {
		if c.Role == domain.RoleLandlord {
			// The landlord snapshot can be stale; the current owner also qualifies.
			if p, perr := s.properties.GetByID(ctx, app.PropertyID); perr == nil && p.LandlordID == callerID {
				return app, nil
			}
		}
		return nil, err
	}
	return app, nil
}

// monthWindow returns [first of month, first of next month) in UTC.
func monthWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}


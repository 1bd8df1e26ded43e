package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/observability/metrics"
	"github.com/yourorg/rentmatch/internal/scoring"
	"github.com/yourorg/rentmatch/pkg/cache"
)

// ScoreInput names the tenant and property to score. A tenant caller may omit TenantID.
type ScoreInput struct {
	TenantID   string `json:"tenantId" validate:"omitempty,uuid"`
	PropertyID string `json:"propertyId" validate:"required,uuid"`
}

// CompatibilityInput accepts either ids or raw figures.
type CompatibilityInput struct {
	TenantID      string  `json:"tenantId" validate:"omitempty,uuid"`
	PropertyID    string  `json:"propertyId" validate:"omitempty,uuid"`
	MonthlyIncome float64 `json:"monthlyIncome" validate:"gte=0"`
	Rent          float64 `json:"rent" validate:"gte=0"`
}

// ScoreReport is the engine result for one tenant and property.
type ScoreReport struct {
	TenantID   string         `json:"tenantId"`
	PropertyID string         `json:"propertyId"`
	Rent       float64        `json:"rent"`
	Result     scoring.Result `json:"result"`
	ScoredAt   time.Time      `json:"scoredAt"`
}

// CreditReport is the score mapped onto a credit-style band.
type CreditReport struct {
	TenantID string             `json:"tenantId"`
	Score    int                `json:"score"`
	Band     scoring.CreditBand `json:"band"`
}

// ScoringService re-reads the tenant's bank data and scores it against a property's rent.
type ScoringService struct {
	profiles
	properties domain.PropertyRepository
	provider   domain.FinancialDataProvider
	guard      *ProviderGuard
	cache      *cache.Cache
	ttl        time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewScoringService creates a new scoring service
func NewScoringService(
	tenants domain.TenantRepository,
	landlords domain.LandlordRepository,
	properties domain.PropertyRepository,
	provider domain.FinancialDataProvider,
	resultCache *cache.Cache,
	ttl time.Duration,
	logger *slog.Logger,
) *ScoringService {
	if logger == nil {
		logger = slog.Default()
	}
	if resultCache == nil {
		resultCache = cache.New()
	}
	return &ScoringService{
		profiles:   profiles{tenants: tenants, landlords: landlords},
		properties: properties,
		provider:   provider,
		guard:      NewProviderGuard("plaid", logger),
		cache:      resultCache,
		ttl:        ttl,
		now:        time.Now,
		logger:     logger,
	}
}

// WithProviderGuard replaces the service's own guard with a shared one.
func (s *ScoringService) WithProviderGuard(g *ProviderGuard) *ScoringService {
	if g != nil {
		s.guard = g
	}
	return s
}

// CalculateScore scores a tenant for a property. The tenant may score
// themselves; a landlord may score applicants for a property they own.
func (s *ScoringService) CalculateScore(ctx context.Context, c Caller, in ScoreInput) (*ScoreReport, error) {
	t, p, err := s.subjects(ctx, c, in.TenantID, in.PropertyID)
	if err != nil {
		return nil, err
	}

	key := "score:" + t.ID + ":" + p.ID
	if v, ok := s.cache.Get(key); ok {
		metrics.ObserveCache("score", true)
		return v.(*ScoreReport), nil
	}
	metrics.ObserveCache("score", false)

	if t.PlaidAccessToken == "" {
		return nil, domain.Validation("tenant has not linked a bank account")
	}

	applicant, err := s.loadApplicant(ctx, t)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rent := p.MonthlyRent()
	report := &ScoreReport{
		TenantID:   t.ID,
		PropertyID: p.ID,
		Rent:       rent,
		Result:     scoring.NewEngineAt(now).Score(applicant, rent),
		ScoredAt:   now.UTC(),
	}
	s.cache.Set(key, report, s.ttl)

	metrics.ObserveScore(string(report.Result.Recommendation))
	s.logger.Info("tenant scored",
		slog.String("tenant_id", t.ID),
		slog.String("property_id", p.ID),
		slog.Int("score", report.Result.Score),
		slog.String("recommendation", string(report.Result.Recommendation)),
	)
	return report, nil
}

// CheckCreditScore maps the tenant score onto the 300-850 band.
func (s *ScoringService) CheckCreditScore(ctx context.Context, c Caller, in ScoreInput) (*CreditReport, error) {
	report, err := s.CalculateScore(ctx, c, in)
	if err != nil {
		return nil, err
	}
	return &CreditReport{
		TenantID: report.TenantID,
		Score:    report.Result.Score,
		Band:     scoring.EstimateCreditBand(report.Result.Score),
	}, nil
}

// CheckCompatibility runs the quick affordability check. Raw figures win when
// both are given; otherwise the tenant's verified income and the property rent are used.
func (s *ScoringService) CheckCompatibility(ctx context.Context, c Caller, in CompatibilityInput) (*scoring.Compatibility, error) {
	if in.MonthlyIncome > 0 && in.Rent > 0 {
		res := scoring.CheckCompatibility(in.MonthlyIncome, in.Rent)
		return &res, nil
	}
	if in.PropertyID == "" {
		return nil, domain.Validation("provide propertyId or both monthlyIncome and rent")
	}

	t, p, err := s.subjects(ctx, c, in.TenantID, in.PropertyID)
	if err != nil {
		return nil, err
	}
	income, _ := t.VerifiedIncome.Float64()
	res := scoring.CheckCompatibility(income, p.MonthlyRent())
	return &res, nil
}

// subjects loads the tenant and property and checks the caller may see them together.
func (s *ScoringService) subjects(ctx context.Context, c Caller, tenantID, propertyID string) (*domain.Tenant, *domain.Property, error) {
	callerID, role, err := s.profileID(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	if tenantID == "" {
		if role != domain.RoleTenant {
			return nil, nil, domain.Validation("tenantId is required")
		}
		tenantID = callerID
	}

	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, nil, err
	}

	switch role {
	case domain.RoleTenant:
		if t.ID != callerID {
			return nil, nil, domain.Forbidden("tenants can only score themselves")
		}
	case domain.RoleLandlord:
		if p.LandlordID != callerID {
			return nil, nil, domain.Forbidden("you do not own this property")
		}
	}
	return t, p, nil
}

// loadApplicant fetches identity, balances and transactions concurrently.
// Unlike verification, any failure fails the whole score.
func (s *ScoringService) loadApplicant(ctx context.Context, t *domain.Tenant) (scoring.Applicant, error) {
	end := s.now()
	start := end.Add(-scoring.DepositWindow)

	var (
		identity *domain.IdentityReport
		accounts []domain.Account
		txns     []domain.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		identity, err = guardedCall(gctx, s.guard, "identity", func(ctx context.Context) (*domain.IdentityReport, error) {
			return s.provider.GetIdentity(ctx, t.PlaidAccessToken)
		})
		return err
	})
	g.Go(func() error {
		var err error
		accounts, err = guardedCall(gctx, s.guard, "balances", func(ctx context.Context) ([]domain.Account, error) {
			return s.provider.GetBalances(ctx, t.PlaidAccessToken)
		})
		return err
	})
	g.Go(func() error {
		var err error
		txns, err = guardedCall(gctx, s.guard, "transactions", func(ctx context.Context) ([]domain.Transaction, error) {
			return s.provider.GetTransactions(ctx, t.PlaidAccessToken, start, end)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load bank data for scoring", slog.String("tenant_id", t.ID), slog.String("error", err.Error()))
		return scoring.Applicant{}, fmt.Errorf("failed to load bank data: %w", err)
	}

	a := scoring.Applicant{
		Name:         t.FullName(),
		Email:        t.Email,
		Phone:        t.Phone,
		Address:      formatAddress(t.Address),
		Accounts:     accounts,
		Transactions: txns,
	}
	fillFromIdentity(&a, identity)
	return a, nil
}

// fillFromIdentity uses bank-reported identity for fields the profile lacks.
func fillFromIdentity(a *scoring.Applicant, r *domain.IdentityReport) {
	if r == nil {
		return
	}
	for _, o := range r.Owners {
		if a.Name == "" && len(o.Names) > 0 {
			a.Name = o.Names[0]
		}
		if a.Email == "" && len(o.Emails) > 0 {
			a.Email = o.Emails[0]
		}
		if a.Phone == "" && len(o.Phones) > 0 {
			a.Phone = o.Phones[0]
		}
		if a.Address == "" {
			for _, addr := range o.Addresses {
				a.Address = strings.TrimSpace(strings.Join([]string{addr.Street, addr.City, addr.Region, addr.PostalCode}, " "))
				if addr.Primary {
					break
				}
			}
		}
	}
}

func formatAddress(a domain.Address) string {
	if !a.Complete() {
		return strings.TrimSpace(a.AddressLine1)
	}
	return fmt.Sprintf("%s, %s, %s %s", a.AddressLine1, a.City, a.State, a.Zip)
}

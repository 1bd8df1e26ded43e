package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/observability/metrics"
	"github.com/yourorg/rentmatch/internal/scoring"
	"github.com/yourorg/rentmatch/internal/security/audit"
)

const linkTokenTTL = 30 * time.Minute

// CheckResult is the outcome of one verification check. Data carries the
// provider payload the check looked at.
type CheckResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// VerificationResult is the combined outcome of the three checks.
type VerificationResult struct {
	Identity      CheckResult `json:"identity"`
	Income        CheckResult `json:"income"`
	BankAccount   CheckResult `json:"bankAccount"`
	PlaidVerified bool        `json:"plaidVerified"`
}

// VerificationStatus is the stored verification state of a tenant.
type VerificationStatus struct {
	IdentityVerified    bool                   `json:"identityVerified"`
	BankAccountVerified bool                   `json:"bankAccountVerified"`
	PlaidVerified       bool                   `json:"plaidVerified"`
	VerifiedIncome      decimal.Decimal        `json:"verifiedIncome"`
	BankAccounts        []domain.LinkedAccount `json:"bankAccounts"`
	IdentityVerifiedAt  *time.Time             `json:"identityVerifiedAt,omitempty"`
	IncomeVerifiedAt    *time.Time             `json:"incomeVerifiedAt,omitempty"`
	PlaidVerifiedAt     *time.Time             `json:"plaidVerifiedAt,omitempty"`
}

// VerificationService links a tenant's bank through the aggregator and runs
// the identity, income and bank checks.
type VerificationService struct {
	profiles
	provider   domain.FinancialDataProvider
	linkTokens domain.LinkTokenCache
	guard      *ProviderGuard
	audit      *audit.Logger
	now        func() time.Time
	logger     *slog.Logger
}

// NewVerificationService creates a new verification service. linkTokens may be nil.
func NewVerificationService(
	tenants domain.TenantRepository,
	provider domain.FinancialDataProvider,
	linkTokens domain.LinkTokenCache,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *VerificationService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	return &VerificationService{
		profiles:   profiles{tenants: tenants},
		provider:   provider,
		linkTokens: linkTokens,
		guard:      NewProviderGuard("plaid", logger),
		audit:      auditLog,
		now:        time.Now,
		logger:     logger,
	}
}

// WithProviderGuard replaces the service's own guard with a shared one.
func (s *VerificationService) WithProviderGuard(g *ProviderGuard) *VerificationService {
	if g != nil {
		s.guard = g
	}
	return s
}

// InitLink returns a link token for the bank-link widget, reusing a recent one.
func (s *VerificationService) InitLink(ctx context.Context, supabaseID string) (string, error) {
	t, err := s.tenant(ctx, supabaseID)
	if err != nil {
		return "", err
	}
	if s.linkTokens != nil {
		if tok, ok := s.linkTokens.Get(ctx, t.ID); ok {
			metrics.ObserveCache("link_token", true)
			return tok, nil
		}
		metrics.ObserveCache("link_token", false)
	}

	tok, err := guardedCall(ctx, s.guard, "link_token", func(ctx context.Context) (string, error) {
		return s.provider.CreateLinkToken(ctx, t.ID)
	})
	if err != nil {
		s.logger.Error("failed to create link token", slog.String("tenant_id", t.ID), slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to create link token: %w", err)
	}
	if s.linkTokens != nil {
		s.linkTokens.Set(ctx, t.ID, tok, linkTokenTTL)
	}
	return tok, nil
}

// Complete exchanges the public token from the widget, stores the access
// token and runs the checks.
func (s *VerificationService) Complete(ctx context.Context, supabaseID, publicToken string) (*VerificationResult, error) {
	if strings.TrimSpace(publicToken) == "" {
		return nil, domain.Validation("publicToken is required")
	}
	t, err := s.tenant(ctx, supabaseID)
	if err != nil {
		return nil, err
	}

	accessToken, err := guardedCall(ctx, s.guard, "exchange", func(ctx context.Context) (string, error) {
		return s.provider.ExchangePublicToken(ctx, publicToken)
	})
	if err != nil {
		s.logger.Error("public token exchange failed", slog.String("tenant_id", t.ID), slog.String("error", err.Error()))
		return nil, domain.Validation("could not link bank account")
	}
	if err := s.tenants.UpdateVerification(ctx, t.ID, domain.VerificationUpdate{PlaidAccessToken: &accessToken}); err != nil {
		return nil, err
	}

	return s.Verify(ctx, t.ID, accessToken)
}

// Verify runs the three checks concurrently. Each check persists its own
// fields when it succeeds; a failing check never cancels or rolls back the
// others, so partial verification is possible. plaid_verified is set only
// when all three pass.
func (s *VerificationService) Verify(ctx context.Context, tenantID, accessToken string) (*VerificationResult, error) {
	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	log := s.logger.With(slog.String("tenant_id", tenantID))

	var res VerificationResult
	var g errgroup.Group
	g.Go(func() error {
		res.Identity = s.record(ctx, tenantID, "identity", s.verifyIdentity(ctx, t, accessToken))
		return nil
	})
	g.Go(func() error {
		res.Income = s.record(ctx, tenantID, "income", s.verifyIncome(ctx, tenantID, accessToken))
		return nil
	})
	g.Go(func() error {
		res.BankAccount = s.record(ctx, tenantID, "bank", s.verifyBank(ctx, tenantID, accessToken))
		return nil
	})
	_ = g.Wait()

	if res.Identity.Success && res.Income.Success && res.BankAccount.Success {
		now := s.now().UTC()
		verified := true
		if err := s.tenants.UpdateVerification(ctx, tenantID, domain.VerificationUpdate{PlaidVerified: &verified, PlaidVerifiedAt: &now}); err != nil {
			log.Error("failed to set plaid_verified", slog.String("error", err.Error()))
		} else {
			res.PlaidVerified = true
		}
	}

	log.Info("verification finished",
		slog.Bool("identity", res.Identity.Success),
		slog.Bool("income", res.Income.Success),
		slog.Bool("bank", res.BankAccount.Success),
	)
	return &res, nil
}

// Status reports the stored verification state.
func (s *VerificationService) Status(ctx context.Context, supabaseID string) (*VerificationStatus, error) {
	t, err := s.tenant(ctx, supabaseID)
	if err != nil {
		return nil, err
	}
	accounts, err := t.LinkedAccounts()
	if err != nil {
		s.logger.Warn("stored bank accounts unreadable", slog.String("tenant_id", t.ID), slog.String("error", err.Error()))
	}
	if accounts == nil {
		accounts = []domain.LinkedAccount{}
	}
	return &VerificationStatus{
		IdentityVerified:    t.IdentityVerified,
		BankAccountVerified: t.BankAccountVerified,
		PlaidVerified:       t.PlaidVerified,
		VerifiedIncome:      t.VerifiedIncome,
		BankAccounts:        accounts,
		IdentityVerifiedAt:  t.IdentityVerifiedAt,
		IncomeVerifiedAt:    t.IncomeVerifiedAt,
		PlaidVerifiedAt:     t.PlaidVerifiedAt,
	}, nil
}

func (s *VerificationService) record(ctx context.Context, tenantID, check string, r CheckResult) CheckResult {
	metrics.ObserveVerification(check, r.Success)
	s.audit.LogVerification(ctx, tenantID, check, r.Success, r.Message)
	return r
}

func failed(msg string, err error) CheckResult {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return CheckResult{Success: false, Message: msg}
}

// verifyIdentity passes when the bank reports at least one named owner.
func (s *VerificationService) verifyIdentity(ctx context.Context, t *domain.Tenant, accessToken string) CheckResult {
	report, err := guardedCall(ctx, s.guard, "identity", func(ctx context.Context) (*domain.IdentityReport, error) {
		return s.provider.GetIdentity(ctx, accessToken)
	})
	if err != nil {
		return failed("identity check failed", err)
	}

	named := false
	for _, o := range report.Owners {
		for _, n := range o.Names {
			if strings.TrimSpace(n) != "" {
				named = true
			}
		}
	}
	if !named {
		return CheckResult{Success: false, Message: "bank did not report an account holder", Data: report}
	}

	now := s.now().UTC()
	verified := true
	if err := s.tenants.UpdateVerification(ctx, t.ID, domain.VerificationUpdate{IdentityVerified: &verified, IdentityVerifiedAt: &now}); err != nil {
		return failed("failed to save identity verification", err)
	}
	return CheckResult{Success: true, Data: report}
}

// verifyIncome estimates monthly income from the last 90 days of deposits.
func (s *VerificationService) verifyIncome(ctx context.Context, tenantID, accessToken string) CheckResult {
	end := s.now()
	start := end.Add(-scoring.DepositWindow)
	txns, err := guardedCall(ctx, s.guard, "transactions", func(ctx context.Context) ([]domain.Transaction, error) {
		return s.provider.GetTransactions(ctx, accessToken, start, end)
	})
	if err != nil {
		return failed("income check failed", err)
	}

	est := scoring.EstimateIncome(scoring.ClassifyDeposits(txns, end))
	if est.MonthlyIncome <= 0 {
		return CheckResult{Success: false, Message: "no recurring income detected", Data: est}
	}

	income := decimal.NewFromFloat(est.MonthlyIncome).Round(2)
	now := end.UTC()
	if err := s.tenants.UpdateVerification(ctx, tenantID, domain.VerificationUpdate{VerifiedIncome: &income, IncomeVerifiedAt: &now}); err != nil {
		return failed("failed to save income verification", err)
	}
	return CheckResult{Success: true, Data: est}
}

// verifyBank passes when at least one account is linked and stores the account summaries.
func (s *VerificationService) verifyBank(ctx context.Context, tenantID, accessToken string) CheckResult {
	accounts, err := guardedCall(ctx, s.guard, "balances", func(ctx context.Context) ([]domain.Account, error) {
		return s.provider.GetBalances(ctx, accessToken)
	})
	if err != nil {
		return failed("bank account check failed", err)
	}
	if len(accounts) == 0 {
		return CheckResult{Success: false, Message: "no bank accounts found"}
	}

	summaries := make([]domain.LinkedAccount, 0, len(accounts))
	for _, a := range accounts {
		summaries = append(summaries, a.Summary())
	}
	raw, err := json.Marshal(summaries)
	if err != nil {
		return failed("failed to encode accounts", err)
	}

	now := s.now().UTC()
	verified := true
	if err := s.tenants.UpdateVerification(ctx, tenantID, domain.VerificationUpdate{
		BankAccountVerified:   &verified,
		BankAccountVerifiedAt: &now,
		BankAccounts:          datatypes.JSON(raw),
	}); err != nil {
		return failed("failed to save bank verification", err)
	}
	return CheckResult{Success: true, Data: summaries}
}

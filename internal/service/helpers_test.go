package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/repository"
	"github.com/yourorg/rentmatch/internal/security"
	"github.com/yourorg/rentmatch/pkg/config"
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

func testConfig() *config.Config {
	return &config.Config{
		Buckets: config.Buckets{
			ProfileImages:  "profile-images",
			PropertyPhotos: "property-photos",
			Documents:      "application-documents",
			Guides:         "guides",
		},
		Limits: config.UploadLimits{
			ProfileImageBytes: 5 << 20,
			PhotoBytes:        50 << 20,
			PhotoFiles:        10,
			DocumentBytes:     10 << 20,
		},
		NewsletterGuidePath: "renters-guide.pdf",
		ScoreCacheTTL:       time.Minute,
	}
}

// env wires real gorm repositories over sqlite with fake providers.
type env struct {
	db          *gorm.DB
	cfg         *config.Config
	tenants     *repository.GormTenantRepository
	landlords   *repository.GormLandlordRepository
	properties  *repository.GormPropertyRepository
	apps        *repository.GormApplicationRepository
	favorites   *repository.GormFavoriteRepository
	subscribers *repository.GormNewsletterRepository
	creds       *repository.GormCredentialRepository
	storage     *fakeStorage
	authz       *security.AuthorizationService

	tenant   *domain.Tenant
	landlord *domain.Landlord
	property *domain.Property
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := newTestDB(t)
	e := &env{
		db:          db,
		cfg:         testConfig(),
		tenants:     repository.NewGormTenantRepository(db, nil),
		landlords:   repository.NewGormLandlordRepository(db, nil),
		properties:  repository.NewGormPropertyRepository(db, nil),
		apps:        repository.NewGormApplicationRepository(db, nil),
		favorites:   repository.NewGormFavoriteRepository(db, nil),
		subscribers: repository.NewGormNewsletterRepository(db, nil),
		creds:       repository.NewGormCredentialRepository(db, nil),
		storage:     newFakeStorage(),
		authz:       security.NewAuthorizationService(nil),
	}

	ctx := context.Background()
	e.landlord = &domain.Landlord{SupabaseID: "sb-landlord", Email: "owner@example.com", FirstName: "Dana", LastName: "Reyes"}
	require.NoError(t, e.landlords.Create(ctx, e.landlord))
	e.tenant = &domain.Tenant{
		SupabaseID: "sb-tenant",
		Email:      "renter@example.com",
		FirstName:  "Sam",
		LastName:   "Lee",
		Phone:      "5125550100",
		Address:    domain.Address{AddressLine1: "9 Elm St", City: "Austin", State: "TX", Zip: "78702"},
	}
	require.NoError(t, e.tenants.Create(ctx, e.tenant))
	e.property = e.addProperty(t, e.landlord.ID, 2000)
	return e
}

func (e *env) addProperty(t *testing.T, landlordID string, price int64) *domain.Property {
	t.Helper()
	p := &domain.Property{
		LandlordID: landlordID,
		Title:      "Sunny flat",
		Address:    domain.Address{AddressLine1: "1 Main St", City: "Austin", State: "TX", Zip: "78701"},
		Bedrooms:   2,
		Bathrooms:  1,
		Price:      decimal.NewFromInt(price),
	}
	require.NoError(t, e.properties.Create(context.Background(), p))
	return p
}

func (e *env) addTenant(t *testing.T, supabaseID string) *domain.Tenant {
	t.Helper()
	tn := &domain.Tenant{SupabaseID: supabaseID, Email: supabaseID + "@example.com", FirstName: "Other"}
	require.NoError(t, e.tenants.Create(context.Background(), tn))
	return tn
}

func (e *env) addLandlord(t *testing.T, supabaseID string) *domain.Landlord {
	t.Helper()
	l := &domain.Landlord{SupabaseID: supabaseID, Email: supabaseID + "@example.com", FirstName: "Other"}
	require.NoError(t, e.landlords.Create(context.Background(), l))
	return l
}

func (e *env) tenantCaller() Caller {
	return Caller{SupabaseID: e.tenant.SupabaseID, Role: domain.RoleTenant}
}

func (e *env) landlordCaller() Caller {
	return Caller{SupabaseID: e.landlord.SupabaseID, Role: domain.RoleLandlord}
}

func upload(name, contentType string, size int) Upload {
	return Upload{Filename: name, ContentType: contentType, Size: int64(size), Body: bytes.NewReader(make([]byte, size))}
}

// fakeStorage keeps uploaded objects in memory.
type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Upload(_ context.Context, bucket, path, _ string, body io.Reader) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+path] = data
	return "https://storage.test/storage/v1/object/public/" + bucket + "/" + path, nil
}

func (f *fakeStorage) Delete(_ context.Context, bucket, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, bucket+"/"+path)
	f.deleted = append(f.deleted, bucket+"/"+path)
	return nil
}

func (f *fakeStorage) SignedURL(_ context.Context, bucket, path string, expiresIn time.Duration) (string, error) {
	return "https://storage.test/signed/" + bucket + "/" + path + "?ttl=" + expiresIn.String(), nil
}

func (f *fakeStorage) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n
}

// fakeMailer records sent messages.
type fakeMailer struct {
	mu   sync.Mutex
	sent []domain.EmailMessage
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg domain.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

// fakeProvider serves canned aggregator data. Errors are domain errors so
// the provider guard does not retry them.
type fakeProvider struct {
	mu           sync.Mutex
	identity     *domain.IdentityReport
	accounts     []domain.Account
	transactions []domain.Transaction
	identityErr  error
	balancesErr  error
	txnErr       error
	exchangeErr  error
	linkErr      error
	linkCalls    int
}

func (f *fakeProvider) CreateLinkToken(_ context.Context, clientUserID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkCalls++
	if f.linkErr != nil {
		return "", f.linkErr
	}
	return "link-" + clientUserID, nil
}

func (f *fakeProvider) ExchangePublicToken(_ context.Context, publicToken string) (string, error) {
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	return "access-" + publicToken, nil
}

func (f *fakeProvider) GetIdentity(context.Context, string) (*domain.IdentityReport, error) {
	return f.identity, f.identityErr
}

func (f *fakeProvider) GetBalances(context.Context, string) ([]domain.Account, error) {
	return f.accounts, f.balancesErr
}

func (f *fakeProvider) GetTransactions(context.Context, string, time.Time, time.Time) ([]domain.Transaction, error) {
	return f.transactions, f.txnErr
}

// healthyBank reports a named owner, two accounts and six bi-weekly paychecks.
func healthyBank(now time.Time) *fakeProvider {
	var txns []domain.Transaction
	for i := 0; i < 6; i++ {
		txns = append(txns, domain.Transaction{
			ID:         "pay",
			Amount:     -2500,
			Date:       now.AddDate(0, 0, -14*i-1),
			Categories: []string{"Payroll"},
		})
	}
	for i := 0; i < 5; i++ {
		txns = append(txns, domain.Transaction{Amount: 120, Date: now.AddDate(0, 0, -7*i-2), Categories: []string{"Utilities"}})
	}
	return &fakeProvider{
		identity: &domain.IdentityReport{Owners: []domain.AccountOwner{{Names: []string{"Sam Lee"}, Emails: []string{"renter@example.com"}}}},
		accounts: []domain.Account{
			{ID: "acc-1", Name: "Checking", Mask: "0001", Type: "depository", Subtype: "checking", AvailableBalance: 9000, CurrentBalance: 9000},
			{ID: "acc-2", Name: "Savings", Mask: "0002", Type: "depository", Subtype: "savings", AvailableBalance: 6000, CurrentBalance: 6000},
		},
		transactions: txns,
	}
}

// fakeLock is an in-memory SETNX.
type fakeLock struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	acquired []string
}

func newFakeLock() *fakeLock { return &fakeLock{held: map[string]bool{}} }

func (f *fakeLock) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	f.acquired = append(f.acquired, key)
	return true, nil
}

func (f *fakeLock) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, key)
	return nil
}

// fakePropertyCache is a map-backed domain.PropertyCache.
type fakePropertyCache struct {
	mu          sync.Mutex
	items       map[string]domain.Property
	invalidated []string
}

func newFakePropertyCache() *fakePropertyCache {
	return &fakePropertyCache{items: map[string]domain.Property{}}
}

func (f *fakePropertyCache) Get(_ context.Context, id string) (*domain.Property, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, false
	}
	return &p, true
}

func (f *fakePropertyCache) Set(_ context.Context, p *domain.Property) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[p.ID] = *p
}

func (f *fakePropertyCache) Invalidate(_ context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	f.invalidated = append(f.invalidated, id)
}

// fakeLinkTokens is a map-backed domain.LinkTokenCache.
type fakeLinkTokens struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (f *fakeLinkTokens) Get(_ context.Context, tenantID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.tokens[tenantID]
	return tok, ok
}

func (f *fakeLinkTokens) Set(_ context.Context, tenantID, token string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokens == nil {
		f.tokens = map[string]string{}
	}
	f.tokens[tenantID] = token
}

var errProviderDown = errors.New("provider unavailable")

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourorg/rentmatch/internal/domain"
	applog "github.com/yourorg/rentmatch/internal/infrastructure/logger"
	"github.com/yourorg/rentmatch/internal/repository"
	"github.com/yourorg/rentmatch/internal/security"
	"github.com/yourorg/rentmatch/internal/security/auth"
	"github.com/yourorg/rentmatch/internal/security/middleware"
	"github.com/yourorg/rentmatch/internal/service"
	"github.com/yourorg/rentmatch/pkg/config"
	"github.com/yourorg/rentmatch/pkg/database"
)

const testSecret = "handler-test-secret"

// testServer runs the full route table behind the JWT middleware.
type testServer struct {
	Server  *httptest.Server
	DB      *gorm.DB
	Tokens  *auth.TokenManager
	Storage *memStorage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=1"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	cfg := &config.Config{
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

	tenants := repository.NewGormTenantRepository(db, nil)
	landlords := repository.NewGormLandlordRepository(db, nil)
	properties := repository.NewGormPropertyRepository(db, nil)
	apps := repository.NewGormApplicationRepository(db, nil)
	favorites := repository.NewGormFavoriteRepository(db, nil)
	subscribers := repository.NewGormNewsletterRepository(db, nil)
	creds := repository.NewGormCredentialRepository(db, nil)

	tokens := auth.NewTokenManager(testSecret, "rentmatch")
	provider := auth.NewLocalProvider(creds, tokens, time.Hour, nil)
	storage := &memStorage{objects: map[string]int{}}
	authz := security.NewAuthorizationService(nil)

	h := &Handlers{
		Health:       NewHealthHandler(database.FromDB(sqlDB, nil), nil, nil),
		Auth:         NewAuthHandler(service.NewAuthService(provider, tenants, landlords, nil), nil),
		Profile:      NewProfileHandler(service.NewProfileService(tenants, landlords, storage, cfg, nil), nil),
		Property:     NewPropertyHandler(service.NewPropertyService(landlords, properties, apps, nil, storage, authz, cfg, nil), nil),
		Application:  NewApplicationHandler(service.NewApplicationService(tenants, landlords, apps, properties, nil, nil, storage, authz, nil, cfg, nil), nil),
		Favorite:     NewFavoriteHandler(service.NewFavoriteService(tenants, favorites, properties, nil), nil),
		Verification: NewVerificationHandler(service.NewVerificationService(tenants, nil, nil, nil, nil), nil),
		Scoring:      NewScoringHandler(service.NewScoringService(tenants, landlords, properties, nil, nil, time.Minute, nil), authz, nil),
		Newsletter:   NewNewsletterHandler(service.NewNewsletterService(subscribers, nil, storage, cfg.Buckets.Guides, cfg.NewsletterGuidePath, nil), nil),
	}

	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(middleware.JWTMiddleware(tokens, nil, discard())(mux))
	t.Cleanup(func() {
		srv.Close()
		sqlDB.Close()
	})

	return &testServer{Server: srv, DB: db, Tokens: tokens, Storage: storage}
}

func discard() *slog.Logger {
	return applog.New(io.Discard, "error")
}

func (s *testServer) URL() string {
	return s.Server.URL
}

// session is a signed-up user.
type session struct {
	Subject string
	Token   string
}

func (s *testServer) signup(t *testing.T, role domain.Role, email string) session {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/"+string(role)+"/signup", nil, map[string]string{
		"email":     email,
		"password":  "correct-horse",
		"firstName": "Alex",
		"lastName":  "Kim",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var res service.AuthResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return session{Subject: res.Session.UserID, Token: res.Session.AccessToken}
}

// do sends a JSON request, authenticated when sess is non-nil.
func (s *testServer) do(t *testing.T, method, path string, sess *session, body interface{}) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL()+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess != nil {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
		req.Header.Set(middleware.SupabaseIDHeader, sess.Subject)
	}
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func assertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		t.Errorf("expected status %d, got %d: %s", expected, resp.StatusCode, body)
	}
}

// memStorage records uploads and signs predictable URLs.
type memStorage struct {
	mu      sync.Mutex
	objects map[string]int
}

func (m *memStorage) Upload(_ context.Context, bucket, path, _ string, body io.Reader) (string, error) {
	n, err := io.Copy(io.Discard, body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.objects[bucket+"/"+path] = int(n)
	m.mu.Unlock()
	return "https://storage.test/storage/v1/object/public/" + bucket + "/" + path, nil
}

func (m *memStorage) Delete(_ context.Context, bucket, path string) error {
	m.mu.Lock()
	delete(m.objects, bucket+"/"+path)
	m.mu.Unlock()
	return nil
}

func (m *memStorage) SignedURL(_ context.Context, bucket, path string, _ time.Duration) (string, error) {
	return "https://storage.test/signed/" + bucket + "/" + path, nil
}

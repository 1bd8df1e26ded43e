package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/handler"
	"github.com/yourorg/rentmatch/internal/infrastructure/email"
	"github.com/yourorg/rentmatch/internal/infrastructure/logger"
	"github.com/yourorg/rentmatch/internal/infrastructure/plaid"
	"github.com/yourorg/rentmatch/internal/infrastructure/redis"
	"github.com/yourorg/rentmatch/internal/infrastructure/supabase"
	"github.com/yourorg/rentmatch/internal/observability/metrics"
	"github.com/yourorg/rentmatch/internal/observability/tracing"
	"github.com/yourorg/rentmatch/internal/repository"
	"github.com/yourorg/rentmatch/internal/security"
	"github.com/yourorg/rentmatch/internal/security/audit"
	"github.com/yourorg/rentmatch/internal/security/auth"
	"github.com/yourorg/rentmatch/internal/security/middleware"
	"github.com/yourorg/rentmatch/internal/security/ratelimit"
	"github.com/yourorg/rentmatch/internal/service"
	"github.com/yourorg/rentmatch/internal/worker"
	"github.com/yourorg/rentmatch/pkg/cache"
	"github.com/yourorg/rentmatch/pkg/config"
	"github.com/yourorg/rentmatch/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting RentMatch server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, "rentmatch", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 3. Initialize Postgres
	pool, err := database.NewConnectionPool(ctx, &database.Config{
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		User:         cfg.DBUser,
		Password:     cfg.DBPassword,
		Database:     cfg.DBName,
		SSLMode:      cfg.DBSSLMode,
		MaxOpenConns: cfg.DBMaxOpenConns,
	}, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	db, err := pool.OpenGorm(cfg.LogLevel)
	if err != nil {
		log.Error("failed to open gorm", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Initialize Redis client
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// 5. Initialize repositories
	tenants := repository.NewGormTenantRepository(db, log)
	landlords := repository.NewGormLandlordRepository(db, log)
	properties := repository.NewGormPropertyRepository(db, log)
	applications := repository.NewGormApplicationRepository(db, log)
	favorites := repository.NewGormFavoriteRepository(db, log)
	subscribers := repository.NewGormNewsletterRepository(db, log)
	applyLock := repository.NewApplyLockRepository(redisClient, log)
	propertyCache := repository.NewPropertyCacheRepository(redisClient, cfg.PublicCacheTTL, log)
	linkTokens := repository.NewLinkTokenRepository(redisClient, log)

	// 6. External providers
	tokenManager := auth.NewTokenManager(cfg.TokenSecret(), "rentmatch")
	supabaseClient := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SupabaseServiceKey, log)
	storage := supabase.NewStorageClient(supabaseClient)

	var authProvider domain.AuthProvider
	if cfg.LocalAuth() {
		log.Warn("SUPABASE_URL not set, using local auth provider")
		creds := repository.NewGormCredentialRepository(db, log)
		authProvider = auth.NewLocalProvider(creds, tokenManager, time.Hour, log)
	} else {
		authProvider = supabase.NewAuthClient(supabaseClient, cfg.PasswordResetURL)
	}

	plaidClient := plaid.NewClient(cfg.PlaidClientID, cfg.PlaidSecret, plaid.BaseURL(cfg.PlaidEnv), log)

	var mailer domain.Mailer
	if cfg.EmailAPIKey != "" {
		mailer = email.NewClient(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom, log)
	} else {
		log.Warn("EMAIL_API_KEY not set, newsletter emails disabled")
	}

	// 7. Initialize services
	authz := security.NewAuthorizationService(log)
	auditLogger := audit.NewLogger(log)
	plaidGuard := service.NewProviderGuard("plaid", log)
	scoreCache := cache.New()

	authService := service.NewAuthService(authProvider, tenants, landlords, log)
	profileService := service.NewProfileService(tenants, landlords, storage, cfg, log)
	propertyService := service.NewPropertyService(landlords, properties, applications, propertyCache, storage, authz, cfg, log)
	applicationService := service.NewApplicationService(tenants, landlords, applications, properties, applyLock, propertyCache, storage, authz, auditLogger, cfg, log)
	favoriteService := service.NewFavoriteService(tenants, favorites, properties, log)
	verificationService := service.NewVerificationService(tenants, plaidClient, linkTokens, auditLogger, log).WithProviderGuard(plaidGuard)
	scoringService := service.NewScoringService(tenants, landlords, properties, plaidClient, scoreCache, cfg.ScoreCacheTTL, log).WithProviderGuard(plaidGuard)
	newsletterService := service.NewNewsletterService(subscribers, mailer, storage, cfg.Buckets.Guides, cfg.NewsletterGuidePath, log)

	// 8. Initialize handlers
	handlers := &handler.Handlers{
		Health:       handler.NewHealthHandler(pool, redisClient, log),
		Auth:         handler.NewAuthHandler(authService, log),
		Profile:      handler.NewProfileHandler(profileService, log),
		Property:     handler.NewPropertyHandler(propertyService, log),
		Application:  handler.NewApplicationHandler(applicationService, log),
		Favorite:     handler.NewFavoriteHandler(favoriteService, log),
		Verification: handler.NewVerificationHandler(verificationService, log),
		Scoring:      handler.NewScoringHandler(scoringService, authz, log),
		Newsletter:   handler.NewNewsletterHandler(newsletterService, log),
	}

	// 9. Setup HTTP routes
	mux := http.NewServeMux()
	handlers.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)

	// Chain middleware: request ID -> metrics -> CORS -> JWT -> audit -> rate limit -> sanitize -> content type
	var chain http.Handler = mux
	chain = middleware.ValidateJSONContentType(log)(chain)
	chain = middleware.SanitizeInputs(log)(chain)
	chain = middleware.RateLimitMiddleware(rateLimiter, log)(chain)
	chain = middleware.AuditMiddleware(auditLogger)(chain)
	chain = middleware.JWTMiddleware(tokenManager, auditLogger, log)(chain)
	chain = middleware.CORSMiddleware(cfg.CORSAllowedOrigins)(chain)
	chain = metrics.HTTPMetricsMiddleware(chain)
	chain = withRequestID(chain, log)
	rootHandler := otelhttp.NewHandler(chain, "rentmatch",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + metrics.NormalizePath(r.URL.Path)
		}),
	)

	// 10. Start cleanup worker in background
	cleanupWorker := worker.NewCleanupWorker(properties, scoreCache, log, cfg.CleanupInterval)
	go cleanupWorker.Start(ctx)

	// 11. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Bool("local_auth", cfg.LocalAuth()),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop cleanup worker
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", reqID)

		ctx := audit.WithRequestID(r.Context(), reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}

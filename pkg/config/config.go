package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	LogLevel           string
	CORSAllowedOrigins []string
	RateLimitPerMinute int

	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	DBMaxOpenConns int

	RedisURL        string
	PublicCacheTTL  time.Duration
	ScoreCacheTTL   time.Duration
	CleanupInterval time.Duration

	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	SupabaseJWTSecret  string
	PasswordResetURL   string
	LocalJWTSecret     string

	PlaidClientID string
	PlaidSecret   string
	PlaidEnv      string

	EmailAPIURL string
	EmailAPIKey string
	EmailFrom   string

	Buckets Buckets
	Limits  UploadLimits

	NewsletterGuidePath string
}

// Buckets names the storage buckets per upload kind.
type Buckets struct {
	ProfileImages  string
	PropertyPhotos string
	Documents      string
	Guides         string
}

// UploadLimits caps multipart uploads.
type UploadLimits struct {
	ProfileImageBytes int64
	PhotoBytes        int64
	PhotoFiles        int
	DocumentBytes     int64
}

// Load reads configuration from environment variables. In development a
// .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if getEnv("ENVIRONMENT", "development") == "development" {
		_ = godotenv.Load()
	}

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	dbMaxOpen, err := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	publicTTL, err := time.ParseDuration(getEnv("PUBLIC_CACHE_TTL", "2m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUBLIC_CACHE_TTL: %w", err)
	}

	scoreTTL, err := time.ParseDuration(getEnv("SCORE_CACHE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCORE_CACHE_TTL: %w", err)
	}

	cleanupInterval, err := time.ParseDuration(getEnv("CLEANUP_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLEANUP_INTERVAL: %w", err)
	}

	return &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		ServerPort:         port,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		RateLimitPerMinute: rateLimit,

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         dbPort,
		DBUser:         getEnv("DB_USER", "rentmatch"),
		DBPassword:     getEnv("DB_PASSWORD", "dev"),
		DBName:         getEnv("DB_NAME", "rentmatch"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns: dbMaxOpen,

		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),
		PublicCacheTTL:  publicTTL,
		ScoreCacheTTL:   scoreTTL,
		CleanupInterval: cleanupInterval,

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseJWTSecret:  getEnv("SUPABASE_JWT_SECRET", ""),
		PasswordResetURL:   getEnv("PASSWORD_RESET_REDIRECT_URL", "http://localhost:5173/reset-password"),
		LocalJWTSecret:     getEnv("JWT_SECRET", "rentmatch-dev-secret"),

		PlaidClientID: getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:   getEnv("PLAID_SECRET", ""),
		PlaidEnv:      getEnv("PLAID_ENV", "sandbox"),

		EmailAPIURL: getEnv("EMAIL_API_URL", "https://api.resend.com/emails"),
		EmailAPIKey: getEnv("EMAIL_API_KEY", ""),
		EmailFrom:   getEnv("EMAIL_FROM", "RentMatch <hello@rentmatch.dev>"),

		Buckets: Buckets{
			ProfileImages:  getEnv("BUCKET_PROFILE_IMAGES", "profile-images"),
			PropertyPhotos: getEnv("BUCKET_PROPERTY_PHOTOS", "property-photos"),
			Documents:      getEnv("BUCKET_DOCUMENTS", "application-documents"),
			Guides:         getEnv("BUCKET_GUIDES", "guides"),
		},
		Limits: UploadLimits{
			ProfileImageBytes: 5 << 20,
			PhotoBytes:        50 << 20,
			PhotoFiles:        10,
			DocumentBytes:     10 << 20,
		},

		NewsletterGuidePath: getEnv("NEWSLETTER_GUIDE_PATH", "renters-guide.pdf"),
	}, nil
}

// LocalAuth reports whether the development auth provider should be used.
func (c *Config) LocalAuth() bool {
	return c.SupabaseURL == ""
}

// TokenSecret is the HMAC secret bearer tokens are validated against.
func (c *Config) TokenSecret() string {
	if c.LocalAuth() {
		return c.LocalJWTSecret
	}
	return c.SupabaseJWTSecret
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/security/audit"
	"github.com/yourorg/rentmatch/internal/security/auth"
	"github.com/yourorg/rentmatch/internal/security/ratelimit"
)

// SupabaseIDHeader carries the caller's auth provider user id. It must match the token subject.
const SupabaseIDHeader = "x-supabase-id"

type SubjectContextKey struct{}
type ClaimsContextKey struct{}

var authPaths = []string{"signup", "login", "forgot-password", "oauth"}

// IsPublic reports whether a route is reachable without a bearer token.
func IsPublic(method, path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics":
		return true
	}
	if method == http.MethodOptions {
		return true
	}
	if method == http.MethodGet && (path == "/api/properties" ||
		(strings.HasPrefix(path, "/api/properties/") && strings.HasSuffix(path, "/public"))) {
		return true
	}
	if strings.HasPrefix(path, "/api/newsletter/") {
		return true
	}
	return isAuthPath(path)
}

func isAuthPath(path string) bool {
	for _, prefix := range []string{"/api/tenant/", "/api/landlord/"} {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		for _, p := range authPaths {
			if rest == p {
				return true
			}
		}
	}
	return false
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}

// JWTMiddleware validates the bearer token and checks that x-supabase-id names
// the token subject. A token whose role claim disagrees with the /api/tenant or
// /api/landlord prefix is refused with 403 and recorded on auditLog when set.
func JWTMiddleware(tm *auth.TokenManager, auditLog *audit.Logger, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublic(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing auth")
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid auth")
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				log.Debug("token rejected", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			if r.Header.Get(SupabaseIDHeader) != claims.Subject {
				log.Warn("supabase id mismatch",
					slog.String("path", r.URL.Path),
					slog.String("subject", claims.Subject),
				)
				writeError(w, http.StatusUnauthorized, "supabase id mismatch")
				return
			}

			if role := claims.AppRole(); role != "" && !roleMayAccess(role, r.URL.Path) {
				if auditLog != nil {
					auditLog.LogDenied(r.Context(), string(role), claims.Subject, "wrong account type for "+r.URL.Path)
				}
				writeError(w, http.StatusForbidden, "wrong account type")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			ctx = context.WithValue(ctx, SubjectContextKey{}, claims.Subject)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func roleMayAccess(role domain.Role, path string) bool {
	switch {
	case strings.HasPrefix(path, "/api/tenant/"):
		return role == domain.RoleTenant
	case strings.HasPrefix(path, "/api/landlord/"):
		return role == domain.RoleLandlord
	}
	return true
}

// RateLimitMiddleware limits authenticated callers by subject and anonymous
// callers by client address. Credential endpoints get a stricter budget.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/healthz", "/readyz", "/metrics":
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			if r.Method == http.MethodPost && isAuthPath(r.URL.Path) {
				if !limiter.AllowStrict(ip, 10, time.Minute) {
					log.Warn("auth rate limit exceeded", slog.String("ip", ip), slog.String("path", r.URL.Path))
					writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
					return
				}
			}

			key := GetSubjectFromContext(r.Context())
			if key == "" {
				key = "ip:" + ip
			}
			if !limiter.Allow(key) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records state-changing marketplace actions.
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			action, resource, ok := auditAction(r.Method, r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			sw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			status := "success"
			if sw.status >= 400 {
				status = "failed"
			}
			role := ""
			if c := GetClaimsFromContext(r.Context()); c != nil {
				role = string(c.AppRole())
			}
			auditLog.LogAction(r.Context(), role, GetSubjectFromContext(r.Context()), action, resource, lastSegmentID(r.URL.Path), status, r.URL.Path)
		})
	}
}

func auditAction(method, path string) (action, resource string, ok bool) {
	switch {
	case method == http.MethodPost && path == "/api/tenant/applications":
		return "apply", "application", true
	case method == http.MethodDelete && strings.HasPrefix(path, "/api/tenant/applications/"):
		return "revoke", "application", true
	case method == http.MethodPost && path == "/api/tenant/applications/revoke":
		return "bulk_revoke", "application", true
	case method == http.MethodPut && strings.HasPrefix(path, "/api/landlord/properties/") && strings.HasSuffix(path, "/status"):
		return "update_status", "application", true
	case method == http.MethodPost && path == "/api/landlord/properties":
		return "create", "property", true
	case method == http.MethodDelete && strings.HasPrefix(path, "/api/landlord/properties/"):
		return "delete", "property", true
	case method == http.MethodPost && path == "/api/tenant/verify/plaid/complete":
		return "verify", "tenant", true
	}
	return "", "", false
}

func lastSegmentID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if len(parts[i]) == 36 && strings.Count(parts[i], "-") == 4 {
			return parts[i]
		}
	}
	return ""
}

// CORSMiddleware honors the configured origin allow-list.
func CORSMiddleware(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if OriginAllowed(allowed, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, x-supabase-id")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OriginAllowed reports whether origin is on the allow-list. "*" allows everything.
func OriginAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func GetSubjectFromContext(ctx context.Context) string {
	if s := ctx.Value(SubjectContextKey{}); s != nil {
		return s.(string)
	}
	return ""
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}

// WithClaims stores claims the way JWTMiddleware does. Handlers' tests use it.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, ClaimsContextKey{}, claims)
	return context.WithValue(ctx, SubjectContextKey{}, claims.Subject)
}

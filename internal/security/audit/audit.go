package audit

import (
	"context"
	"log/slog"
	"time"
)

type requestIDKey struct{}

// WithRequestID stores the request id so audit records can be correlated with access logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With(slog.String("component", "audit"))}
}

// LogAction writes one audit record. role is the caller's account type.
func (al *Logger) LogAction(ctx context.Context, role, userID, action, resource, resourceID, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("role", role),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", RequestID(ctx)),
		slog.Time("timestamp", time.Now()),
	)
}

// LogStatusChange records a landlord decision on an application.
func (al *Logger) LogStatusChange(ctx context.Context, landlordID, applicationID, from, to string) {
	al.LogAction(ctx, "landlord", landlordID, "update_status", "application", applicationID, "success", from+"->"+to)
}

// LogVerification records the outcome of one verification check.
func (al *Logger) LogVerification(ctx context.Context, tenantID, check string, ok bool, details string) {
	status := "success"
	if !ok {
		status = "failed"
	}
	al.LogAction(ctx, "tenant", tenantID, "verify_"+check, "tenant", tenantID, status, details)
}

func (al *Logger) LogDenied(ctx context.Context, role, userID, reason string) {
	al.LogAction(ctx, role, userID, "access_denied", "api", "", "denied", reason)
}

package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/rentmatch/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table the service owns, in migration order.
func Models() []interface{} {
	return []interface{}{
		&domain.Tenant{},
		&domain.Landlord{},
		&domain.Property{},
		&domain.Application{},
		&domain.ApplicationNote{},
		&domain.Favorite{},
		&domain.NewsletterSubscriber{},
		&domain.LocalCredential{},
	}
}

// OpenGorm layers gorm over the existing lib/pq pool so both share one set
// of connections.
func (cp *ConnectionPool) OpenGorm(logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: cp.db}), &gorm.Config{
		Logger:  NewGormLogger(cp.logger, logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates every table in Models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// GormLogger routes gorm's logging through slog.
type GormLogger struct {
	log           *slog.Logger
	level         logger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger builds a gorm logger. Only "debug" logs every statement;
// otherwise slow queries and errors are reported.
func NewGormLogger(log *slog.Logger, level string) *GormLogger {
	if log == nil {
		log = slog.Default()
	}
	lvl := logger.Warn
	if level == "debug" {
		lvl = logger.Info
	}
	return &GormLogger{log: log.With(slog.String("component", "gorm")), level: lvl, slowThreshold: 200 * time.Millisecond}
}

// LogMode returns a copy at the given level.
func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		l.log.InfoContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		l.log.WarnContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		l.log.ErrorContext(ctx, fmt.Sprintf(msg, args...))
	}
}

// Trace logs a finished statement.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.log.ErrorContext(ctx, "query failed",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	case elapsed > l.slowThreshold && l.level >= logger.Warn:
		sql, rows := fc()
		l.log.WarnContext(ctx, "slow query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	case l.level >= logger.Info:
		sql, rows := fc()
		l.log.DebugContext(ctx, "query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/infrastructure/logger"
	"github.com/yourorg/rentmatch/internal/repository"
	"github.com/yourorg/rentmatch/pkg/config"
	"github.com/yourorg/rentmatch/pkg/database"
)

// openDB connects with the server's configuration. The returned func closes the pool.
func openDB(ctx context.Context) (*gorm.DB, *slog.Logger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(os.Stderr, cfg.LogLevel)

	pool, err := database.NewConnectionPool(ctx, &database.Config{
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		User:         cfg.DBUser,
		Password:     cfg.DBPassword,
		Database:     cfg.DBName,
		SSLMode:      cfg.DBSSLMode,
		MaxOpenConns: 2,
	}, log)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := pool.OpenGorm(cfg.LogLevel)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	return db, log, func() { pool.Close() }, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, log, closeDB, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := database.AutoMigrate(db); err != nil {
				return err
			}
			log.Info("migration complete", slog.Int("tables", len(database.Models())))
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Database schema is up to date")
			return nil
		},
	}
}

func subscribersCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "Export newsletter subscribers as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, log, closeDB, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			subs, err := repository.NewGormNewsletterRepository(db, log).List(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if err := writeSubscribersCSV(w, subs); err != nil {
				return err
			}
			log.Info("exported subscribers", slog.Int("count", len(subs)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	return cmd
}

func writeSubscribersCSV(w io.Writer, subs []domain.NewsletterSubscriber) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "name", "email", "subscribed_at"}); err != nil {
		return err
	}
	for _, s := range subs {
		if err := cw.Write([]string{s.ID, s.Name, s.Email, s.SubscribedAt.UTC().Format(time.RFC3339)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

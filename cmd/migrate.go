package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/gigmatch/internal/adapters/repository"
	"github.com/okian/gigmatch/internal/config"
	"github.com/okian/gigmatch/pkg/logger"
)

var (
	migrateDSN   string
	migratePrint bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the postgres schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if migratePrint {
			_, err := io.WriteString(cmd.OutOrStdout(), repository.Schema())
			return err
		}

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		if migrateDSN != "" {
			cfg.PostgresDSN = migrateDSN
		}
		return migrate(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().StringVar(&migrateDSN, "dsn", "", "postgres DSN (overrides postgres_dsn)")
	migrateCmd.Flags().BoolVar(&migratePrint, "print", false, "print the schema instead of applying it")
}

func migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("%w: postgres_dsn is required", config.ErrInvalidConfig)
	}

	db, err := repository.OpenPostgres(ctx, repository.PostgresConfig{
		DSN:      cfg.PostgresDSN,
		MaxConns: cfg.PostgresMaxConns,
		MaxIdle:  cfg.PostgresMaxIdle,
	})
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}
	logger.Get().Info(ctx, "schema applied")
	return nil
}

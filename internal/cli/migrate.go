package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quizbot/internal/config"
	pgmigrations "quizbot/internal/infra/postgres/migrations"
	"quizbot/internal/infra/sqlite"
)

// NewMigrateCmd prepares whichever database the config points at:
// versioned bun migrations for Postgres, schema bootstrap for SQLite.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Prepare the configured database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			switch {
			case cfg.Postgres.URL != "":
				return migratePostgres(cmd.Context(), cfg.Postgres.URL)
			case cfg.SQLite.Path != "":
				// Opening the store applies its schema idempotently.
				store, err := sqlite.Open(cfg.SQLite.Path)
				if err != nil {
					return err
				}
				log.Printf("sqlite schema ready at %s", cfg.SQLite.Path)
				return store.Close()
			default:
				return fmt.Errorf("no database configured (set postgres.url or sqlite.path)")
			}
		},
	}
}

func migratePostgres(ctx context.Context, dsn string) error {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Printf("database up to date")
		return nil
	}
	log.Printf("migrated to %s", group)
	return nil
}

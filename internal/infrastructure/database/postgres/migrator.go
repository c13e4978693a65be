package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/taxdesk/caselaw-intelligence/internal/config"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
	appErrors "github.com/taxdesk/caselaw-intelligence/pkg/errors"
)

// RunMigrations applies every pending migration from cfg.MigrationPath.
// A database that is already current is not an error.  Migrations use their
// own short-lived database/sql connection rather than the pgx pool because
// golang-migrate drives the lib/pq driver directly.
func RunMigrations(cfg config.DatabaseConfig, logger logging.Logger) error {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return appErrors.Wrap(err, appErrors.CodeDBConnectionError, "failed to open migration connection")
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return appErrors.Wrap(err, appErrors.CodeDBConnectionError, "failed to init migration driver")
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cfg.MigrationPath), cfg.DBName, driver)
	if err != nil {
		return appErrors.Wrap(err, appErrors.CodeDBConnectionError, "failed to init migrator")
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("schema already up to date")
			return nil
		}
		return appErrors.Wrap(err, appErrors.CodeDBQueryError, "migration failed")
	}

	version, dirty, _ := m.Version()
	logger.Info("migrations applied",
		logging.Int("version", int(version)),
		logging.Bool("dirty", dirty))
	return nil
}

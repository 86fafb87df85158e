package data

import (
	"context"
	"database/sql"
	"sort"

	"github.com/pkg/errors"

	apperrors "mautic-installer/internal/errors"
	"mautic-installer/internal/logger"
)

// Migration is a versioned schema change applied after the baseline.
type Migration struct {
	Version     string
	Description string
	Statements  []string
}

// Migrations lists every schema change newer than BaselineVersion.
var Migrations = []Migration{
	{
		Version:     "20240615000000",
		Description: "track user logins",
		Statements:  []string{"ALTER TABLE {prefix}users ADD COLUMN last_login {datetime} NULL"},
	},
	{
		Version:     "20240901000000",
		Description: "track contact activity",
		Statements:  []string{"ALTER TABLE {prefix}leads ADD COLUMN last_active {datetime} NULL"},
	},
	{
		Version:     "20241120000000",
		Description: "store company phone numbers",
		Statements:  []string{"ALTER TABLE {prefix}companies ADD COLUMN companyphone VARCHAR(191) NULL"},
	},
}

// Migrator applies outstanding migrations.
type Migrator struct {
	db         *Database
	migrations []Migration
	logger     logger.Logger
}

// NewMigrator wires a Migrator over the given migrations, applied in version order.
func NewMigrator(db *Database, migrations []Migration, log logger.Logger) *Migrator {
	if log == nil {
		log = logger.NewStandardLogger()
	}
	sorted := append([]Migration(nil), migrations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	return &Migrator{db: db, migrations: sorted, logger: log}
}

// Pending returns the migrations not yet recorded as applied.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	dialect, err := m.db.Dialect()
	if err != nil {
		return nil, err
	}

	if _, err := conn.ExecContext(ctx, dialect.Render(migrationsTableDDL, m.db.Params().TablePrefix)); err != nil {
		return nil, errors.Wrap(err, "failed to ensure migrations table")
	}

	applied, err := appliedVersions(ctx, conn, m.db)
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, migration := range m.migrations {
		if _, done := applied[migration.Version]; !done {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}

// RunMigrations applies every pending migration in version order, stopping
// at the first failure.
func (m *Migrator) RunMigrations(ctx context.Context) error {
	pending, err := m.Pending(ctx)
	if err != nil {
		return apperrors.DatabaseError(apperrors.CodeDatabaseMigration, "failed to determine pending migrations", err).
			WithModule("data").WithOperation("RunMigrations")
	}
	if len(pending) == 0 {
		m.logger.InfoContext(ctx, "schema is up to date")
		return nil
	}

	conn, err := m.db.Conn(ctx)
	if err != nil {
		return err
	}
	dialect, err := m.db.Dialect()
	if err != nil {
		return err
	}
	prefix := m.db.Params().TablePrefix

	for _, migration := range pending {
		err := withTx(ctx, conn, func(tx *sql.Tx) error {
			for _, stmt := range migration.Statements {
				if _, err := tx.ExecContext(ctx, dialect.Render(stmt, prefix)); err != nil {
					return err
				}
			}
			return recordVersion(ctx, tx, m.db, migration.Version)
		})
		if err != nil {
			return apperrors.DatabaseError(apperrors.CodeDatabaseMigration, "migration failed", err).
				WithModule("data").
				WithOperation("RunMigrations").
				WithField("version", migration.Version)
		}
		m.logger.InfoContext(ctx, "migration applied",
			logger.String("version", migration.Version),
			logger.String("description", migration.Description))
	}
	return nil
}

func appliedVersions(ctx context.Context, q queryer, db *Database) (map[string]struct{}, error) {
	rows, err := q.QueryContext(ctx, "SELECT version FROM "+db.Table("migrations"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read applied migrations")
	}
	defer rows.Close()

	applied := map[string]struct{}{}
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, errors.Wrap(err, "failed to scan migration version")
		}
		applied[version] = struct{}{}
	}
	return applied, errors.Wrap(rows.Err(), "failed to read applied migrations")
}

package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	apperrors "mautic-installer/internal/errors"
	"mautic-installer/internal/install"
	"mautic-installer/internal/logger"
)

// BaselineVersion is the migration version the schema below corresponds to.
// Migrations newer than it are applied by the migration runner.
const BaselineVersion = "20240101000000"

const migrationsTableDDL = `CREATE TABLE IF NOT EXISTS {prefix}migrations (
	version VARCHAR(191) NOT NULL PRIMARY KEY,
	executed_at {datetime} NOT NULL
){options}`

var schemaDDL = []string{
	`CREATE TABLE {prefix}roles (
	id {pk},
	name VARCHAR(191) NOT NULL,
	description {text} NULL,
	is_admin SMALLINT NOT NULL DEFAULT 0,
	readable_permissions {text} NOT NULL,
	date_added {datetime} NULL,
	UNIQUE (name)
){options}`,
	`CREATE TABLE {prefix}users (
	id {pk},
	role_id {ref} NOT NULL,
	username VARCHAR(191) NOT NULL,
	password VARCHAR(64) NOT NULL,
	first_name VARCHAR(191) NOT NULL,
	last_name VARCHAR(191) NOT NULL,
	email VARCHAR(191) NOT NULL,
	is_published SMALLINT NOT NULL DEFAULT 1,
	date_added {datetime} NULL,
	UNIQUE (username),
	UNIQUE (email),
	FOREIGN KEY (role_id) REFERENCES {prefix}roles (id)
){options}`,
	`CREATE TABLE {prefix}lead_fields (
	id {pk},
	label VARCHAR(191) NOT NULL,
	alias VARCHAR(191) NOT NULL,
	type VARCHAR(50) NOT NULL,
	field_group VARCHAR(191) NOT NULL,
	object VARCHAR(50) NOT NULL,
	is_required SMALLINT NOT NULL DEFAULT 0,
	is_fixed SMALLINT NOT NULL DEFAULT 0,
	is_published SMALLINT NOT NULL DEFAULT 1,
	field_order INT NOT NULL DEFAULT 0,
	UNIQUE (alias)
){options}`,
	`CREATE TABLE {prefix}companies (
	id {pk},
	owner_id {ref} NULL,
	companyname VARCHAR(191) NULL,
	companyemail VARCHAR(191) NULL,
	companywebsite VARCHAR(191) NULL,
	date_added {datetime} NULL,
	FOREIGN KEY (owner_id) REFERENCES {prefix}users (id)
){options}`,
	`CREATE TABLE {prefix}leads (
	id {pk},
	owner_id {ref} NULL,
	firstname VARCHAR(191) NULL,
	lastname VARCHAR(191) NULL,
	email VARCHAR(191) NULL,
	company VARCHAR(191) NULL,
	points INT NOT NULL DEFAULT 0,
	date_added {datetime} NULL,
	FOREIGN KEY (owner_id) REFERENCES {prefix}users (id)
){options}`,
	`CREATE TABLE {prefix}categories (
	id {pk},
	title VARCHAR(191) NOT NULL,
	alias VARCHAR(191) NOT NULL,
	bundle VARCHAR(50) NOT NULL,
	is_published SMALLINT NOT NULL DEFAULT 1
){options}`,
	migrationsTableDDL,
}

// SchemaApplier creates the full schema in a freshly provisioned database.
type SchemaApplier struct {
	db     *Database
	logger logger.Logger
}

// NewSchemaApplier wires a SchemaApplier.
func NewSchemaApplier(db *Database, log logger.Logger) *SchemaApplier {
	if log == nil {
		log = logger.NewStandardLogger()
	}
	return &SchemaApplier{db: db, logger: log}
}

// ApplySchema creates every table and records the baseline version.
func (s *SchemaApplier) ApplySchema(ctx context.Context, params install.DbParams) error {
	if params != s.db.Params() {
		if err := s.db.Use(params); err != nil {
			return err
		}
	}

	dialect, err := s.db.Dialect()
	if err != nil {
		return err
	}
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}

	err = withTx(ctx, conn, func(tx *sql.Tx) error {
		for _, ddl := range schemaDDL {
			if _, err := tx.ExecContext(ctx, dialect.Render(ddl, params.TablePrefix)); err != nil {
				return errors.Wrap(err, "failed to create table")
			}
		}
		return recordVersion(ctx, tx, s.db, BaselineVersion)
	})
	if err != nil {
		return apperrors.DatabaseError(apperrors.CodeDatabaseSchema, "failed to apply schema", err).
			WithModule("data").WithOperation("ApplySchema")
	}

	s.logger.InfoContext(ctx, "schema applied",
		logger.Int("tables", len(schemaDDL)),
		logger.String("version", BaselineVersion))
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func recordVersion(ctx context.Context, ex execer, db *Database, version string) error {
	_, err := ex.ExecContext(ctx,
		"INSERT INTO "+db.Table("migrations")+" (version, executed_at) VALUES (?, ?)",
		version, time.Now().UTC())
	return errors.Wrapf(err, "failed to record migration %s", version)
}

package data

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	apperrors "mautic-installer/internal/errors"
	"mautic-installer/internal/install"
	"mautic-installer/internal/logger"
)

type serverParams struct {
	Driver       string `key:"db_driver" validate:"required,db_driver"`
	Host         string `key:"db_host" validate:"required,hostname_rfc1123|ip"`
	Port         string `key:"db_port" validate:"required,port"`
	Name         string `key:"db_name" validate:"required,max=64,db_identifier"`
	User         string `key:"db_user" validate:"required,max=80"`
	TablePrefix  string `key:"db_table_prefix" validate:"max=20,db_identifier"`
	BackupPrefix string `key:"db_backup_prefix" validate:"max=20,db_identifier"`
}

type fileParams struct {
	Driver       string `key:"db_driver" validate:"required,db_driver"`
	Name         string `key:"db_name" validate:"required"`
	TablePrefix  string `key:"db_table_prefix" validate:"max=20,db_identifier"`
	BackupPrefix string `key:"db_backup_prefix" validate:"max=20,db_identifier"`
}

// DatabaseSaver persists database parameters once provisioning succeeds.
type DatabaseSaver interface {
	SaveDatabase(ctx context.Context, params install.DbParams) error
}

// Provisioner validates connection parameters, creates the target database
// when absent and clears tables left by a previous installation.
type Provisioner struct {
	db     *Database
	saver  DatabaseSaver
	logger logger.Logger
}

// NewProvisioner wires a Provisioner. saver may be nil.
func NewProvisioner(db *Database, saver DatabaseSaver, log logger.Logger) *Provisioner {
	if log == nil {
		log = logger.NewStandardLogger()
	}
	return &Provisioner{db: db, saver: saver, logger: log}
}

// ValidateParams checks params without touching the server.
func ValidateParams(params install.DbParams) error {
	fields := apperrors.FieldErrors{}

	dialect, ok := DialectFor(params.Driver)
	var err error
	switch {
	case !ok:
		err = validateStruct(fileParams{Driver: params.Driver, Name: params.Name})
	case dialect == sqliteDialect:
		err = validateStruct(fileParams{
			Driver:       params.Driver,
			Name:         params.Name,
			TablePrefix:  params.TablePrefix,
			BackupPrefix: params.BackupPrefix,
		})
	default:
		err = validateStruct(serverParams{
			Driver:       params.Driver,
			Host:         params.Host,
			Port:         params.Port,
			Name:         params.Name,
			User:         params.User,
			TablePrefix:  params.TablePrefix,
			BackupPrefix: params.BackupPrefix,
		})
	}
	if fe, ok := apperrors.AsFieldErrors(err); ok {
		for field, msg := range fe {
			fields.Add(field, msg)
		}
	} else if err != nil {
		return err
	}

	if _, ok := params.BackupTables.Bool(); !ok && params.BackupTables != "" {
		fields.Add(install.KeyDBBackupTables, "must be a boolean value")
	}
	if params.TablePrefix != "" && params.TablePrefix == params.BackupPrefix {
		fields.Add(install.KeyDBBackupPrefix, "must differ from the table prefix")
	}

	return fields.OrNil()
}

// Provision implements the database provisioning sub-step. Validation and
// connection problems are returned as FieldErrors.
func (p *Provisioner) Provision(ctx context.Context, params install.DbParams) error {
	if err := ValidateParams(params); err != nil {
		return err
	}
	if err := p.db.Use(params); err != nil {
		return err
	}

	dialect, err := p.db.Dialect()
	if err != nil {
		return err
	}

	if err := dialect.ensure(ctx, params); err != nil {
		return apperrors.FieldErrors{connectionField(dialect): err.Error()}
	}

	conn, err := p.db.Conn(ctx)
	if err != nil {
		return apperrors.FieldErrors{connectionField(dialect): err.Error()}
	}

	existing, err := dialect.listTables(ctx, conn, params)
	if err != nil {
		return apperrors.DatabaseError(apperrors.CodeDatabaseCreate, "failed to inspect existing tables", err).
			WithModule("data").WithOperation("Provision")
	}

	stale := staleTables(existing, params.TablePrefix, params.BackupPrefix)
	if len(stale) > 0 {
		if err := p.clearTables(ctx, dialect, params, stale); err != nil {
			return err
		}
	}

	if p.saver != nil {
		if err := p.saver.SaveDatabase(ctx, params); err != nil {
			return errors.Wrap(err, "failed to persist database parameters")
		}
	}

	p.logger.InfoContext(ctx, "database provisioned",
		logger.String("driver", dialect.Name),
		logger.String("database", params.Name),
		logger.Int("cleared_tables", len(stale)))
	return nil
}

func (p *Provisioner) clearTables(ctx context.Context, dialect *Dialect, params install.DbParams, tables []string) error {
	backup, _ := params.BackupTables.Bool()

	conn, err := p.db.Conn(ctx)
	if err != nil {
		return err
	}
	single, err := conn.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to reserve connection")
	}
	defer single.Close()

	if _, err := single.ExecContext(ctx, dialect.fkOff); err != nil {
		return errors.Wrap(err, "failed to disable foreign key checks")
	}
	defer func() {
		if _, err := single.ExecContext(context.WithoutCancel(ctx), dialect.fkOn); err != nil {
			p.logger.Warn("Failed to re-enable foreign key checks: %v", err)
		}
	}()

	for _, table := range tables {
		var stmts []string
		if backup {
			target := params.BackupPrefix + strings.TrimPrefix(table, params.TablePrefix)
			stmts = []string{
				"DROP TABLE IF EXISTS " + dialect.Quote(target),
				"ALTER TABLE " + dialect.Quote(table) + " RENAME TO " + dialect.Quote(target),
			}
			p.logger.Debug("Backing up table %s as %s", table, target)
		} else {
			stmts = []string{"DROP TABLE IF EXISTS " + dialect.Quote(table)}
			p.logger.Debug("Dropping table %s", table)
		}

		for _, stmt := range stmts {
			if _, err := single.ExecContext(ctx, stmt); err != nil {
				return apperrors.DatabaseError(apperrors.CodeDatabaseBackup, "failed to clear existing table", err).
					WithModule("data").
					WithOperation("Provision").
					WithField("table", table).
					WithField("backup", backup)
			}
		}
	}
	return nil
}

// staleTables selects tables carrying prefix that are not themselves backups.
func staleTables(tables []string, prefix, backupPrefix string) []string {
	var stale []string
	for _, table := range tables {
		if !strings.HasPrefix(table, prefix) {
			continue
		}
		if backupPrefix != "" && strings.HasPrefix(table, backupPrefix) {
			continue
		}
		stale = append(stale, table)
	}
	return stale
}

func connectionField(dialect *Dialect) string {
	if dialect == sqliteDialect {
		return install.KeyDBName
	}
	return install.KeyDBHost
}

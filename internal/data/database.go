package data

import (
	"context"
	"database/sql"
	"sync"

	"github.com/pkg/errors"

	apperrors "mautic-installer/internal/errors"
	"mautic-installer/internal/install"
	"mautic-installer/internal/logger"
)

// Database is the connection shared by the database collaborators. It is
// opened lazily from the current parameters so that a run resumed after the
// provisioning step can still reach the target database.
type Database struct {
	mu      sync.Mutex
	params  install.DbParams
	dialect *Dialect
	db      *sql.DB
	logger  logger.Logger
}

// NewDatabase returns a handle for params. No connection is made.
func NewDatabase(params install.DbParams, log logger.Logger) *Database {
	if log == nil {
		log = logger.NewStandardLogger()
	}
	return &Database{params: params, logger: log.With(logger.String("module", "data"))}
}

// Use replaces the parameters, closing any connection opened with the old ones.
func (d *Database) Use(params install.DbParams) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.params = params
	d.dialect = nil
	return d.closeLocked()
}

// Params returns the parameters currently in use.
func (d *Database) Params() install.DbParams {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params
}

// Dialect resolves the dialect of the configured driver.
func (d *Database) Dialect() (*Dialect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dialectLocked()
}

// Conn returns the open connection pool, opening and pinging it on first use.
func (d *Database) Conn(ctx context.Context) (*sql.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		return d.db, nil
	}

	dialect, err := d.dialectLocked()
	if err != nil {
		return nil, err
	}

	db, err := dialect.open(d.params)
	if err != nil {
		return nil, apperrors.DatabaseError(apperrors.CodeDatabaseConnect, "failed to open database", err).
			WithModule("data").WithOperation("Conn")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.DatabaseError(apperrors.CodeDatabaseConnect, "failed to connect to database", err).
			WithModule("data").WithOperation("Conn").WithField("database", d.params.Name)
	}
	if dialect == sqliteDialect {
		// sqlite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	d.logger.Debug("Connected to %s database %s", dialect.Name, d.params.Name)
	d.db = db
	return db, nil
}

// Table returns the prefixed, quoted name of a table.
func (d *Database) Table(name string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	dialect, err := d.dialectLocked()
	if err != nil {
		return d.params.TablePrefix + name
	}
	return dialect.Quote(d.params.TablePrefix + name)
}

// Close releases the connection pool.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeLocked()
}

func (d *Database) closeLocked() error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return errors.Wrap(err, "failed to close database")
}

func (d *Database) dialectLocked() (*Dialect, error) {
	if d.dialect != nil {
		return d.dialect, nil
	}
	dialect, ok := DialectFor(d.params.Driver)
	if !ok {
		return nil, apperrors.FieldErrors{install.KeyDBDriver: "unsupported database driver " + d.params.Driver}
	}
	d.dialect = dialect
	return dialect, nil
}

// withTx runs fn inside a transaction, rolling back when fn fails.
func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rollback also failed: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}

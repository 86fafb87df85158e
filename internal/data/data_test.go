package data

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mautic-installer/internal/errors"
	"mautic-installer/internal/install"
	"mautic-installer/internal/logger"
)

type recordingSaver struct {
	saved []install.DbParams
}

func (s *recordingSaver) SaveDatabase(_ context.Context, params install.DbParams) error {
	s.saved = append(s.saved, params)
	return nil
}

func sqliteParams(t *testing.T) install.DbParams {
	t.Helper()
	return install.DbParams{
		Driver:       "pdo_sqlite",
		Name:         filepath.Join(t.TempDir(), "var", "mautic.db"),
		BackupTables: "true",
		BackupPrefix: "bak_",
	}
}

type fixture struct {
	db          *Database
	provisioner *Provisioner
	schema      *SchemaApplier
	fixtures    *FixtureLoader
	accounts    *AccountCreator
	migrator    *Migrator
	saver       *recordingSaver
}

func newFixture(t *testing.T, params install.DbParams) *fixture {
	t.Helper()
	log := logger.NewMockLogger()
	db := NewDatabase(params, log)
	t.Cleanup(func() { _ = db.Close() })

	saver := &recordingSaver{}
	accounts := NewAccountCreator(db, log)
	accounts.cost = 4

	return &fixture{
		db:          db,
		provisioner: NewProvisioner(db, saver, log),
		schema:      NewSchemaApplier(db, log),
		fixtures:    NewFixtureLoader(db, log),
		accounts:    accounts,
		migrator:    NewMigrator(db, Migrations, log),
		saver:       saver,
	}
}

func (f *fixture) install(t *testing.T, ctx context.Context, params install.DbParams) {
	t.Helper()
	require.NoError(t, f.provisioner.Provision(ctx, params))
	require.NoError(t, f.schema.ApplySchema(ctx, params))
	require.NoError(t, f.fixtures.LoadFixtures(ctx))
}

func tableNames(t *testing.T, ctx context.Context, db *Database) []string {
	t.Helper()
	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	tables, err := sqliteDialect.listTables(ctx, conn, db.Params())
	require.NoError(t, err)
	return tables
}

func admin() install.AdminParams {
	return install.AdminParams{
		FirstName: "Admin",
		LastName:  "Mautic",
		Username:  "admin",
		Email:     "a@b.com",
		Password:  "s3cret-pw",
	}
}

func TestDialectFor(t *testing.T) {
	d, ok := DialectFor("pdo_mysql")
	require.True(t, ok)
	assert.Equal(t, "mysql", d.Name)
	assert.Equal(t, "`a``b`", d.Quote("a`b"))

	d, ok = DialectFor("PDO_SQLITE")
	require.True(t, ok)
	assert.Equal(t, "sqlite", d.Name)

	_, ok = DialectFor("pdo_pgsql")
	assert.False(t, ok)
}

func TestMySQLDSN(t *testing.T) {
	params := install.DbParams{Driver: "pdo_mysql", Host: "db", Port: "3307", Name: "m1", User: "u", Password: "p"}
	assert.Equal(t, "u:p@tcp(db:3307)/m1?parseTime=true", mysqlDialect.dsn(params))
}

func TestValidateParamsServer(t *testing.T) {
	err := ValidateParams(install.DbParams{
		Driver:       "pdo_mysql",
		Port:         "abc",
		Name:         "mautic",
		User:         "mautic",
		TablePrefix:  "mt-",
		BackupTables: "maybe",
		BackupPrefix: "bak_",
	})
	fe, ok := apperrors.AsFieldErrors(err)
	require.True(t, ok, "expected field errors, got %v", err)

	assert.Equal(t, "is required", fe[install.KeyDBHost])
	assert.Contains(t, fe[install.KeyDBPort], "port number")
	assert.Contains(t, fe[install.KeyDBTablePrefix], "letters, digits and underscores")
	assert.Equal(t, "must be a boolean value", fe[install.KeyDBBackupTables])
}

func TestValidateParamsAcceptsDefaults(t *testing.T) {
	p := install.BuildParameters(install.DefaultValues())
	require.NoError(t, ValidateParams(p.Db))
}

func TestValidateParamsUnknownDriver(t *testing.T) {
	fe, ok := apperrors.AsFieldErrors(ValidateParams(install.DbParams{Driver: "oracle", Name: "x"}))
	require.True(t, ok)
	assert.Contains(t, fe[install.KeyDBDriver], "unsupported driver")
}

func TestProvisionCreatesDatabaseAndPersistsParams(t *testing.T) {
	ctx := context.Background()
	params := sqliteParams(t)
	f := newFixture(t, install.DbParams{})

	require.NoError(t, f.provisioner.Provision(ctx, params))

	assert.FileExists(t, params.Name)
	require.Len(t, f.saver.saved, 1)
	assert.Equal(t, params, f.saver.saved[0])
}

func TestFullDatabaseStep(t *testing.T) {
	ctx := context.Background()
	params := sqliteParams(t)
	f := newFixture(t, params)

	f.install(t, ctx, params)

	tables := tableNames(t, ctx, f.db)
	for _, name := range []string{"roles", "users", "lead_fields", "companies", "leads", "categories", "migrations"} {
		assert.Contains(t, tables, name)
	}

	conn, err := f.db.Conn(ctx)
	require.NoError(t, err)
	var fields int
	require.NoError(t, conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM lead_fields").Scan(&fields))
	assert.Equal(t, len(contactFieldFixtures), fields)
}

func TestCreateAdmin(t *testing.T) {
	ctx := context.Background()
	params := sqliteParams(t)
	f := newFixture(t, params)
	f.install(t, ctx, params)

	require.NoError(t, f.accounts.CreateAdmin(ctx, admin()))

	conn, err := f.db.Conn(ctx)
	require.NoError(t, err)
	var hash, role string
	require.NoError(t, conn.QueryRowContext(ctx,
		"SELECT u.password, r.name FROM users u JOIN roles r ON r.id = u.role_id WHERE u.username = ?", "admin").
		Scan(&hash, &role))
	assert.Equal(t, AdministratorRole, role)
	assert.NotEqual(t, "s3cret-pw", hash)

	err = f.accounts.CreateAdmin(ctx, admin())
	fe, ok := apperrors.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "is already in use", fe[install.KeyAdminUsername])
	assert.Equal(t, "is already in use", fe[install.KeyAdminEmail])
}

func TestCreateAdminValidation(t *testing.T) {
	f := newFixture(t, sqliteParams(t))

	err := f.accounts.CreateAdmin(context.Background(), install.AdminParams{
		FirstName: "Admin",
		LastName:  "Mautic",
		Username:  "admin",
		Email:     "not-an-email",
		Password:  "pw",
	})
	fe, ok := apperrors.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email address", fe[install.KeyAdminEmail])
	assert.Equal(t, "must be at least 6 characters long", fe[install.KeyAdminPassword])
	assert.NotContains(t, fe, install.KeyAdminUsername)
}

func TestCreateAdminPasswordByteLimit(t *testing.T) {
	f := newFixture(t, sqliteParams(t))

	params := admin()
	params.Password = strings.Repeat("é", 40)
	err := f.accounts.CreateAdmin(context.Background(), params)

	fe, ok := apperrors.AsFieldErrors(err)
	require.True(t, ok, "%v", err)
	assert.Equal(t, "must be at most 72 bytes long", fe[install.KeyAdminPassword])
	assert.Len(t, fe, 1)
}

func TestCreateAdminWithoutFixtures(t *testing.T) {
	ctx := context.Background()
	params := sqliteParams(t)
	f := newFixture(t, params)
	require.NoError(t, f.provisioner.Provision(ctx, params))
	require.NoError(t, f.schema.ApplySchema(ctx, params))

	err := f.accounts.CreateAdmin(ctx, admin())
	require.Error(t, err)
	_, isField := apperrors.AsFieldErrors(err)
	assert.False(t, isField)
}

func TestMigrationsRunOnce(t *testing.T) {
	ctx := context.Background()
	params := sqliteParams(t)
	f := newFixture(t, params)
	f.install(t, ctx, params)

	pending, err := f.migrator.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, len(Migrations))

	require.NoError(t, f.migrator.RunMigrations(ctx))

	pending, err = f.migrator.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, f.migrator.RunMigrations(ctx))

	conn, err := f.db.Conn(ctx)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, "UPDATE users SET last_login = NULL")
	require.NoError(t, err)
}

func TestReprovisionBacksUpTables(t *testing.T) {
	ctx := context.Background()
	params := sqliteParams(t)
	f := newFixture(t, params)
	f.install(t, ctx, params)

	require.NoError(t, f.provisioner.Provision(ctx, params))

	tables := tableNames(t, ctx, f.db)
	assert.Contains(t, tables, "bak_users")
	assert.Contains(t, tables, "bak_roles")
	assert.NotContains(t, tables, "users")

	f.install(t, ctx, params)
	tables = tableNames(t, ctx, f.db)
	assert.Contains(t, tables, "users")
	assert.Contains(t, tables, "bak_users")
}

func TestReprovisionDropsTables(t *testing.T) {
	ctx := context.Background()
	params := sqliteParams(t)
	params.BackupTables = "false"
	f := newFixture(t, params)
	f.install(t, ctx, params)

	require.NoError(t, f.provisioner.Provision(ctx, params))

	assert.Empty(t, tableNames(t, ctx, f.db))
}

func TestSchemaFailsOnExistingTables(t *testing.T) {
	ctx := context.Background()
	params := sqliteParams(t)
	f := newFixture(t, params)
	f.install(t, ctx, params)

	err := f.schema.ApplySchema(ctx, params)
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeDatabaseSchema, appErr.Code)
}

func TestStaleTables(t *testing.T) {
	tables := []string{"mt_users", "bak_users", "users", "mt_roles"}
	assert.Equal(t, []string{"mt_users", "mt_roles"}, staleTables(tables, "mt_", "bak_"))
	assert.Equal(t, []string{"mt_users", "users", "mt_roles"}, staleTables(tables, "", "bak_"))
}

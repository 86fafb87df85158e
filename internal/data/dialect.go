package data

import (
	"context"
	"database/sql"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"mautic-installer/internal/install"
)

// Dialect isolates the SQL differences between supported servers.
type Dialect struct {
	Name       string
	driverName string
	// tokens substituted into DDL templates.
	primaryKey    string
	reference     string
	text          string
	datetime      string
	tableOptions  string
	fkOff, fkOn   string
	quote         func(string) string
	dsn           func(params install.DbParams) string
	ensure        func(ctx context.Context, params install.DbParams) error
	listTablesSQL string
	listTableArgs func(params install.DbParams) []any
}

var (
	mysqlDialect = &Dialect{
		Name:          "mysql",
		driverName:    "mysql",
		primaryKey:    "INT UNSIGNED AUTO_INCREMENT NOT NULL PRIMARY KEY",
		reference:     "INT UNSIGNED",
		text:          "LONGTEXT",
		datetime:      "DATETIME",
		tableOptions:  " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci",
		fkOff:         "SET FOREIGN_KEY_CHECKS = 0",
		fkOn:          "SET FOREIGN_KEY_CHECKS = 1",
		quote:         quoteMySQL,
		dsn:           func(p install.DbParams) string { return mysqlConfig(p, true).FormatDSN() },
		ensure:        ensureMySQLDatabase,
		listTablesSQL: "SELECT table_name FROM information_schema.tables WHERE table_schema = ? ORDER BY table_name",
		listTableArgs: func(p install.DbParams) []any { return []any{p.Name} },
	}

	sqliteDialect = &Dialect{
		Name:          "sqlite",
		driverName:    "sqlite",
		primaryKey:    "INTEGER PRIMARY KEY AUTOINCREMENT",
		reference:     "INTEGER",
		text:          "TEXT",
		datetime:      "DATETIME",
		fkOff:         "PRAGMA foreign_keys = OFF",
		fkOn:          "PRAGMA foreign_keys = ON",
		quote:         func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` },
		dsn:           func(p install.DbParams) string { return p.Name },
		ensure:        ensureSQLiteFile,
		listTablesSQL: "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name",
		listTableArgs: func(install.DbParams) []any { return nil },
	}
)

// DialectFor resolves a driver option such as "pdo_mysql" to its dialect.
func DialectFor(driver string) (*Dialect, bool) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "pdo_mysql", "mysql", "mysqli":
		return mysqlDialect, true
	case "pdo_sqlite", "sqlite", "sqlite3":
		return sqliteDialect, true
	default:
		return nil, false
	}
}

// SupportedDrivers lists the driver option values accepted by DialectFor.
func SupportedDrivers() []string {
	return []string{"pdo_mysql", "pdo_sqlite"}
}

// Quote quotes an identifier.
func (d *Dialect) Quote(name string) string {
	return d.quote(name)
}

// Render substitutes dialect tokens in a DDL template.
func (d *Dialect) Render(ddl, prefix string) string {
	return strings.NewReplacer(
		"{prefix}", prefix,
		"{pk}", d.primaryKey,
		"{ref}", d.reference,
		"{text}", d.text,
		"{datetime}", d.datetime,
		"{options}", d.tableOptions,
	).Replace(ddl)
}

func (d *Dialect) open(params install.DbParams) (*sql.DB, error) {
	db, err := sql.Open(d.driverName, d.dsn(params))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s connection", d.Name)
	}
	return db, nil
}

func (d *Dialect) listTables(ctx context.Context, q queryer, params install.DbParams) ([]string, error) {
	rows, err := q.QueryContext(ctx, d.listTablesSQL, d.listTableArgs(params)...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tables")
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan table name")
		}
		tables = append(tables, name)
	}
	return tables, errors.Wrap(rows.Err(), "failed to list tables")
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func quoteMySQL(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func mysqlConfig(p install.DbParams, withDatabase bool) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(p.Host, p.Port)
	cfg.ParseTime = true
	if withDatabase {
		cfg.DBName = p.Name
	}
	return cfg
}

func ensureMySQLDatabase(ctx context.Context, p install.DbParams) error {
	db, err := sql.Open("mysql", mysqlConfig(p, false).FormatDSN())
	if err != nil {
		return errors.Wrap(err, "failed to open server connection")
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return errors.Wrapf(err, "could not connect to %s", net.JoinHostPort(p.Host, p.Port))
	}

	stmt := "CREATE DATABASE IF NOT EXISTS " + quoteMySQL(p.Name) +
		" DEFAULT CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci"
	_, err = db.ExecContext(ctx, stmt)
	return errors.Wrapf(err, "failed to create database %s", p.Name)
}

func ensureSQLiteFile(_ context.Context, p install.DbParams) error {
	if p.Name == ":memory:" {
		return nil
	}
	dir := filepath.Dir(p.Name)
	return errors.Wrapf(os.MkdirAll(dir, 0o755), "failed to create database directory %s", dir)
}

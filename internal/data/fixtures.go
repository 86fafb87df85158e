package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	apperrors "mautic-installer/internal/errors"
	"mautic-installer/internal/logger"
)

// AdministratorRole is the role granted to the first administrator.
const AdministratorRole = "Administrator"

type roleFixture struct {
	name        string
	description string
	isAdmin     bool
}

type fieldFixture struct {
	alias string
	label string
	kind  string
	group string
	order int
}

var roleFixtures = []roleFixture{
	{name: AdministratorRole, description: "Has access to everything.", isAdmin: true},
	{name: "Sales Team", description: "Has access to sales"},
}

var contactFieldFixtures = []fieldFixture{
	{alias: "title", label: "Title", kind: "lookup", group: "core", order: 1},
	{alias: "firstname", label: "First Name", kind: "text", group: "core", order: 2},
	{alias: "lastname", label: "Last Name", kind: "text", group: "core", order: 3},
	{alias: "company", label: "Primary company", kind: "text", group: "core", order: 4},
	{alias: "position", label: "Position", kind: "text", group: "core", order: 5},
	{alias: "email", label: "Email", kind: "email", group: "core", order: 6},
	{alias: "mobile", label: "Mobile", kind: "tel", group: "core", order: 7},
	{alias: "phone", label: "Phone", kind: "tel", group: "core", order: 8},
	{alias: "points", label: "Points", kind: "number", group: "core", order: 9},
	{alias: "city", label: "City", kind: "text", group: "core", order: 10},
	{alias: "country", label: "Country", kind: "country", group: "core", order: 11},
	{alias: "website", label: "Website", kind: "url", group: "social", order: 12},
}

// FixtureLoader inserts the reference data later steps rely on.
type FixtureLoader struct {
	db     *Database
	logger logger.Logger
}

// NewFixtureLoader wires a FixtureLoader.
func NewFixtureLoader(db *Database, log logger.Logger) *FixtureLoader {
	if log == nil {
		log = logger.NewStandardLogger()
	}
	return &FixtureLoader{db: db, logger: log}
}

// LoadFixtures inserts roles and core contact fields in one transaction.
func (f *FixtureLoader) LoadFixtures(ctx context.Context) error {
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	err = withTx(ctx, conn, func(tx *sql.Tx) error {
		for _, role := range roleFixtures {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO "+f.db.Table("roles")+
					" (name, description, is_admin, readable_permissions, date_added) VALUES (?, ?, ?, ?, ?)",
				role.name, role.description, boolToInt(role.isAdmin), "[]", now)
			if err != nil {
				return errors.Wrapf(err, "failed to insert role %s", role.name)
			}
		}

		for _, field := range contactFieldFixtures {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO "+f.db.Table("lead_fields")+
					" (label, alias, type, field_group, object, is_required, is_fixed, is_published, field_order)"+
					" VALUES (?, ?, ?, ?, 'lead', 0, 1, 1, ?)",
				field.label, field.alias, field.kind, field.group, field.order)
			if err != nil {
				return errors.Wrapf(err, "failed to insert contact field %s", field.alias)
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.DatabaseError(apperrors.CodeDatabaseFixtures, "failed to load fixtures", err).
			WithModule("data").WithOperation("LoadFixtures")
	}

	f.logger.InfoContext(ctx, "fixtures loaded",
		logger.Int("roles", len(roleFixtures)),
		logger.Int("contact_fields", len(contactFieldFixtures)))
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

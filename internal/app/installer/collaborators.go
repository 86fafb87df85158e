package installer

import (
	"context"

	"github.com/pkg/errors"

	"mautic-installer/internal/install"
)

// RequirementsProbe lists unmet hard requirements for a site URL.
type RequirementsProbe interface {
	CheckRequirements(ctx context.Context, siteURL string) []string
}

// OptionalSettingsProbe lists unmet recommendations for a site URL.
type OptionalSettingsProbe interface {
	CheckOptionalSettings(ctx context.Context, siteURL string) []string
}

// DatabaseProvisioner validates connection parameters and creates the database.
type DatabaseProvisioner interface {
	Provision(ctx context.Context, params install.DbParams) error
}

// SchemaApplier creates the schema in a provisioned database.
type SchemaApplier interface {
	ApplySchema(ctx context.Context, params install.DbParams) error
}

// FixtureLoader loads baseline reference data.
type FixtureLoader interface {
	LoadFixtures(ctx context.Context) error
}

// AdminAccountCreator validates and stores the first administrator.
type AdminAccountCreator interface {
	CreateAdmin(ctx context.Context, params install.AdminParams) error
}

// ConfigurationSaver persists the runtime configuration of the last phase.
type ConfigurationSaver interface {
	SaveConfiguration(ctx context.Context, params install.CombinedParams) error
}

// ConfigWriter writes and verifies the final configuration artifact.
type ConfigWriter interface {
	WriteFinal(ctx context.Context, siteURL string, params install.CombinedParams) error
}

// MigrationRunner applies outstanding schema migrations.
type MigrationRunner interface {
	RunMigrations(ctx context.Context) error
}

// InstalledStateChecker reports whether a previous run completed.
type InstalledStateChecker interface {
	IsInstalled(ctx context.Context) bool
}

// Collaborators groups every external component the installer drives.
type Collaborators struct {
	Requirements  RequirementsProbe
	Optional      OptionalSettingsProbe
	Provisioner   DatabaseProvisioner
	Schema        SchemaApplier
	Fixtures      FixtureLoader
	Admin         AdminAccountCreator
	Configuration ConfigurationSaver
	ConfigWriter  ConfigWriter
	Migrations    MigrationRunner
	State         InstalledStateChecker
}

func (c Collaborators) validate() error {
	required := []struct {
		name    string
		missing bool
	}{
		{"requirements probe", c.Requirements == nil},
		{"optional settings probe", c.Optional == nil},
		{"database provisioner", c.Provisioner == nil},
		{"schema applier", c.Schema == nil},
		{"fixture loader", c.Fixtures == nil},
		{"admin account creator", c.Admin == nil},
		{"configuration saver", c.Configuration == nil},
		{"config writer", c.ConfigWriter == nil},
		{"migration runner", c.Migrations == nil},
		{"installed state checker", c.State == nil},
	}
	for _, r := range required {
		if r.missing {
			return errors.Errorf("installer collaborator %q is not configured", r.name)
		}
	}
	return nil
}

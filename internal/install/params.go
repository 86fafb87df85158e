package install

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Parameter keys shared by CLI options and the persisted configuration.
const (
	KeySiteURL         = "site_url"
	KeyDBDriver        = "db_driver"
	KeyDBHost          = "db_host"
	KeyDBPort          = "db_port"
	KeyDBName          = "db_name"
	KeyDBUser          = "db_user"
	KeyDBPassword      = "db_password"
	KeyDBTablePrefix   = "db_table_prefix"
	KeyDBBackupTables  = "db_backup_tables"
	KeyDBBackupPrefix  = "db_backup_prefix"
	KeyAdminFirstName  = "admin_firstname"
	KeyAdminLastName   = "admin_lastname"
	KeyAdminUsername   = "admin_username"
	KeyAdminEmail      = "admin_email"
	KeyAdminPassword   = "admin_password"
	KeyMailerFromName  = "mailer_from_name"
	KeyMailerFromEmail = "mailer_from_email"
)

// Flag holds a boolean option that may be supplied either as a YAML boolean
// or as a string token. The raw form is kept and interpreted by whoever
// consumes it.
type Flag string

// Bool interprets the flag. ok is false for tokens that are not recognised.
func (f Flag) Bool() (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(string(f))) {
	case "1", "true", "yes", "on", "y":
		return true, true
	case "0", "false", "no", "off", "n":
		return false, true
	default:
		return false, false
	}
}

// UnmarshalYAML accepts both `true` and `"true"`.
func (f *Flag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return &yaml.TypeError{Errors: []string{"db_backup_tables must be a boolean or a string"}}
	}
	*f = Flag(node.Value)
	return nil
}

// SiteParams is the input of the check phase.
type SiteParams struct {
	SiteURL string
}

// DbParams is the input of the database phase.
type DbParams struct {
	Driver       string
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	TablePrefix  string
	BackupTables Flag
	BackupPrefix string
}

// AdminParams is the input of the admin phase.
type AdminParams struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

// MailerParams carries the sender identity saved with the configuration.
type MailerParams struct {
	FromName  string
	FromEmail string
}

// CombinedParams is the input of the configuration phase.
type CombinedParams struct {
	Db     DbParams
	Site   SiteParams
	Mailer MailerParams
}

// Parameters is the full input bag of one run.
type Parameters struct {
	Site  SiteParams
	Db    DbParams
	Admin AdminParams
}

// Combined derives the configuration phase input. The mailer identity
// defaults to the administrator's.
func (p Parameters) Combined() CombinedParams {
	return CombinedParams{
		Db:   p.Db,
		Site: p.Site,
		Mailer: MailerParams{
			FromName:  strings.TrimSpace(p.Admin.FirstName + " " + p.Admin.LastName),
			FromEmail: p.Admin.Email,
		},
	}
}

// DefaultValues are the built-in option defaults.
func DefaultValues() map[string]string {
	return map[string]string{
		KeyDBDriver:       "pdo_mysql",
		KeyDBHost:         "localhost",
		KeyDBPort:         "3306",
		KeyDBName:         "mautic",
		KeyDBUser:         "mautic",
		KeyDBBackupTables: "true",
		KeyDBBackupPrefix: "bak_",
		KeyAdminFirstName: "Admin",
		KeyAdminLastName:  "Mautic",
		KeyAdminUsername:  "admin",
	}
}

// BuildParameters merges layers of flat key/value options, later layers
// winning. Unknown keys are ignored. Values are not validated.
func BuildParameters(layers ...map[string]string) Parameters {
	var p Parameters
	for _, layer := range layers {
		for key, value := range layer {
			p.set(key, value)
		}
	}
	return p
}

func (p *Parameters) set(key, value string) {
	switch key {
	case KeySiteURL:
		p.Site.SiteURL = value
	case KeyDBDriver:
		p.Db.Driver = value
	case KeyDBHost:
		p.Db.Host = value
	case KeyDBPort:
		p.Db.Port = value
	case KeyDBName:
		p.Db.Name = value
	case KeyDBUser:
		p.Db.User = value
	case KeyDBPassword:
		p.Db.Password = value
	case KeyDBTablePrefix:
		p.Db.TablePrefix = value
	case KeyDBBackupTables:
		p.Db.BackupTables = Flag(value)
	case KeyDBBackupPrefix:
		p.Db.BackupPrefix = value
	case KeyAdminFirstName:
		p.Admin.FirstName = value
	case KeyAdminLastName:
		p.Admin.LastName = value
	case KeyAdminUsername:
		p.Admin.Username = value
	case KeyAdminEmail:
		p.Admin.Email = value
	case KeyAdminPassword:
		p.Admin.Password = value
	}
}

// Values flattens the database parameters back into option keys, skipping
// empty values.
func (d DbParams) Values() map[string]string {
	values := map[string]string{
		KeyDBDriver:       d.Driver,
		KeyDBHost:         d.Host,
		KeyDBPort:         d.Port,
		KeyDBName:         d.Name,
		KeyDBUser:         d.User,
		KeyDBPassword:     d.Password,
		KeyDBTablePrefix:  d.TablePrefix,
		KeyDBBackupTables: string(d.BackupTables),
		KeyDBBackupPrefix: d.BackupPrefix,
	}
	for k, v := range values {
		if v == "" {
			delete(values, k)
		}
	}
	return values
}

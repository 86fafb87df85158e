package localconfig

import (
	"mautic-installer/internal/install"
)

// Document is the persisted local configuration. An installation is
// complete once both DBDriver and SiteURL are present.
type Document struct {
	SiteURL         string       `yaml:"site_url,omitempty"`
	DBDriver        string       `yaml:"db_driver,omitempty"`
	DBHost          string       `yaml:"db_host,omitempty"`
	DBPort          string       `yaml:"db_port,omitempty"`
	DBName          string       `yaml:"db_name,omitempty"`
	DBUser          string       `yaml:"db_user,omitempty"`
	DBPassword      string       `yaml:"db_password,omitempty"`
	DBTablePrefix   string       `yaml:"db_table_prefix,omitempty"`
	DBBackupTables  install.Flag `yaml:"db_backup_tables,omitempty"`
	DBBackupPrefix  string       `yaml:"db_backup_prefix,omitempty"`
	MailerFromName  string       `yaml:"mailer_from_name,omitempty"`
	MailerFromEmail string       `yaml:"mailer_from_email,omitempty"`
	SecretKey       string       `yaml:"secret_key,omitempty"`
	InstallID       string       `yaml:"install_id,omitempty"`
}

// Installed reports whether the document describes a finished installation.
func (d *Document) Installed() bool {
	return d != nil && d.DBDriver != "" && d.SiteURL != ""
}

// Values flattens the document into parameter keys, skipping empty values.
func (d *Document) Values() map[string]string {
	if d == nil {
		return map[string]string{}
	}
	values := map[string]string{
		install.KeySiteURL:         d.SiteURL,
		install.KeyDBDriver:        d.DBDriver,
		install.KeyDBHost:          d.DBHost,
		install.KeyDBPort:          d.DBPort,
		install.KeyDBName:          d.DBName,
		install.KeyDBUser:          d.DBUser,
		install.KeyDBPassword:      d.DBPassword,
		install.KeyDBTablePrefix:   d.DBTablePrefix,
		install.KeyDBBackupTables:  string(d.DBBackupTables),
		install.KeyDBBackupPrefix:  d.DBBackupPrefix,
		install.KeyMailerFromName:  d.MailerFromName,
		install.KeyMailerFromEmail: d.MailerFromEmail,
	}
	for k, v := range values {
		if v == "" {
			delete(values, k)
		}
	}
	return values
}

// ApplyDatabase overwrites the database section.
func (d *Document) ApplyDatabase(db install.DbParams) {
	d.DBDriver = db.Driver
	d.DBHost = db.Host
	d.DBPort = db.Port
	d.DBName = db.Name
	d.DBUser = db.User
	d.DBPassword = db.Password
	d.DBTablePrefix = db.TablePrefix
	d.DBBackupTables = db.BackupTables
	d.DBBackupPrefix = db.BackupPrefix
}

// ApplyCombined overwrites the database, site and mailer sections.
func (d *Document) ApplyCombined(params install.CombinedParams) {
	d.ApplyDatabase(params.Db)
	d.SiteURL = params.Site.SiteURL
	if params.Mailer.FromName != "" {
		d.MailerFromName = params.Mailer.FromName
	}
	if params.Mailer.FromEmail != "" {
		d.MailerFromEmail = params.Mailer.FromEmail
	}
}

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mautic-installer/internal/install"
)

// installOptions are the parsed command line inputs.
type installOptions struct {
	SiteURL    string
	Step       int
	Force      bool
	ConfigFile string
	Verbose    bool
	// Overrides holds only the parameter flags set on the command line.
	Overrides map[string]string
}

// installRunner performs the installation and returns the process exit code.
type installRunner func(ctx context.Context, cmd *cobra.Command, opts installOptions) (int, error)

// exitCodeError carries a non-zero exit status out of Execute.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("installation failed with exit code %d", e.code)
}

var parameterFlags = []struct {
	key   string
	usage string
}{
	{install.KeyDBDriver, "Database driver (pdo_mysql or pdo_sqlite)"},
	{install.KeyDBHost, "Database host"},
	{install.KeyDBPort, "Database port"},
	{install.KeyDBName, "Database name, or the file path for pdo_sqlite"},
	{install.KeyDBUser, "Database user"},
	{install.KeyDBPassword, "Database password"},
	{install.KeyDBTablePrefix, "Prefix for every table name"},
	{install.KeyDBBackupTables, "Back up existing tables instead of dropping them (true/false)"},
	{install.KeyDBBackupPrefix, "Prefix for backed up tables"},
	{install.KeyAdminFirstName, "Admin first name"},
	{install.KeyAdminLastName, "Admin last name"},
	{install.KeyAdminUsername, "Admin username"},
	{install.KeyAdminEmail, "Admin email"},
	{install.KeyAdminPassword, "Admin password"},
}

func newRootCmd(run installRunner) *cobra.Command {
	opts := installOptions{}
	defaults := install.DefaultValues()

	cmd := &cobra.Command{
		Use:   "mautic-install <site_url> [step]",
		Short: "Install Mautic from the command line",
		Long: "Install Mautic from the command line.\n\n" +
			"Steps: 0 checks requirements, 1 creates the database, 2 creates the admin user,\n" +
			"3 saves the configuration. A failed run exits with the negated step number and can\n" +
			"be resumed from that step.",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SiteURL = args[0]
			opts.Step = 0
			if len(args) > 1 {
				step, err := strconv.Atoi(args[1])
				if err != nil {
					// unknown steps run the full installation
					step = -1
				}
				opts.Step = step
			}

			opts.Overrides = map[string]string{install.KeySiteURL: opts.SiteURL}
			for _, flag := range parameterFlags {
				if cmd.Flags().Changed(flag.key) {
					value, _ := cmd.Flags().GetString(flag.key)
					opts.Overrides[flag.key] = value
				}
			}

			code, err := run(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			if code != 0 {
				return &exitCodeError{code: code}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Do not ask for confirmation when optional settings are missing")
	cmd.Flags().StringVar(&opts.ConfigFile, "config-file", "", "Path of the local configuration file")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")
	for _, flag := range parameterFlags {
		cmd.Flags().String(flag.key, defaults[flag.key], flag.usage)
	}

	return cmd
}

package main

import (
	"context"

	"github.com/spf13/cobra"

	"mautic-installer/internal/app/installer"
	"mautic-installer/internal/logger"
	"mautic-installer/internal/system"
	"mautic-installer/internal/ui"
)

func runInstall(ctx context.Context, cmd *cobra.Command, opts installOptions) (int, error) {
	level := logger.LevelWarn
	if opts.Verbose {
		level = logger.LevelDebug
	}
	log := logger.NewColoredLogger(logger.WithLevel(level), logger.WithOutput(cmd.ErrOrStderr()))

	cfg, err := system.LoadConfig()
	if err != nil {
		return 1, err
	}
	if opts.ConfigFile != "" {
		cfg.ConfigPath = opts.ConfigFile
	}

	app, err := installer.New(cfg, log, ui.NewPromptConfirmer(), cmd.OutOrStdout())
	if err != nil {
		return 1, err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Debug("Failed to close database: %v", err)
		}
	}()

	log.Debug("Parsing options and arguments...")
	outcome := app.Run(ctx, installer.Options{
		Start:  opts.Step,
		Force:  opts.Force,
		Params: app.Parameters(opts.Overrides),
	})
	return exitCode(outcome), nil
}

// exitCode maps an outcome to the process status: the negated index of the
// failed step. An abort in the check step therefore exits 0.
func exitCode(outcome installer.Outcome) int {
	if !outcome.Failed {
		return 0
	}
	return outcome.Code
}

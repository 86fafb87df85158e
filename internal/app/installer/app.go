package installer

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"mautic-installer/internal/data"
	"mautic-installer/internal/install"
	"mautic-installer/internal/localconfig"
	"mautic-installer/internal/logger"
	"mautic-installer/internal/requirements"
	"mautic-installer/internal/system"
	"mautic-installer/internal/ui"
)

// App wires the default collaborators around an Orchestrator.
type App struct {
	config       *system.Config
	logger       logger.Logger
	store        *localconfig.Store
	db           *data.Database
	orchestrator *Orchestrator
}

// New builds an App for cfg. Console output goes to output; questions are
// asked through confirmer.
func New(cfg *system.Config, log logger.Logger, confirmer ui.Confirmer, output io.Writer) (*App, error) {
	if cfg == nil {
		return nil, errors.New("installer configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewStandardLogger()
	}

	store := localconfig.NewStore(cfg.ConfigPath, log)
	db := data.NewDatabase(install.DbParams{}, log)
	probe := requirements.NewProbe(cfg, log)

	service, err := NewService(Collaborators{
		Requirements:  probe,
		Optional:      probe,
		Provisioner:   data.NewProvisioner(db, store, log),
		Schema:        data.NewSchemaApplier(db, log),
		Fixtures:      data.NewFixtureLoader(db, log),
		Admin:         data.NewAccountCreator(db, log),
		Configuration: store,
		ConfigWriter:  store,
		Migrations:    data.NewMigrator(db, data.Migrations, log),
		State:         store,
	}, log)
	if err != nil {
		return nil, err
	}

	console := ui.NewConsole(log, output)
	return &App{
		config:       cfg,
		logger:       log,
		store:        store,
		db:           db,
		orchestrator: NewOrchestrator(service, confirmer, console, log),
	}, nil
}

// Parameters merges the built-in defaults, the persisted configuration and
// overrides, later sources winning.
func (a *App) Parameters(overrides map[string]string) install.Parameters {
	persisted, err := a.store.Values()
	if err != nil {
		a.logger.Warn("Ignoring unreadable local configuration %s: %v", a.store.Path(), err)
		persisted = nil
	}
	return install.BuildParameters(install.DefaultValues(), persisted, overrides)
}

// Run installs with opts.
func (a *App) Run(ctx context.Context, opts Options) Outcome {
	if err := a.db.Use(opts.Params.Db); err != nil {
		a.logger.Warn("Failed to reset database handle: %v", err)
	}
	return a.orchestrator.Run(ctx, opts)
}

// Close releases the database connection.
func (a *App) Close() error {
	return a.db.Close()
}

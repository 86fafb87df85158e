package installer

import (
	"context"

	"mautic-installer/internal/install"
	"mautic-installer/internal/logger"
	"mautic-installer/internal/ui"
)

const confirmQuestion = "Continue with install anyway?"

// Options are the inputs of one installation run.
type Options struct {
	// Start is the requested first phase. Values outside the known phases
	// run the whole pipeline.
	Start int
	// Force skips the confirmation asked when only optional settings are missing.
	Force  bool
	Params install.Parameters
}

// Outcome summarises a run.
type Outcome struct {
	// Code is 0 on success and the negated index of the failed phase otherwise.
	Code             int
	AlreadyInstalled bool
	Failed           bool
	Step             install.StepID
	Messages         install.Messages
}

// Orchestrator drives the phases in order, applies the confirmation gate and
// runs the finalization tail.
type Orchestrator struct {
	service   *Service
	confirmer ui.Confirmer
	console   *ui.Console
	logger    logger.Logger
}

// NewOrchestrator wires an Orchestrator. A nil confirmer declines every question.
func NewOrchestrator(service *Service, confirmer ui.Confirmer, console *ui.Console, log logger.Logger) *Orchestrator {
	if confirmer == nil {
		confirmer = ui.ConfirmFunc(func(string) (bool, error) { return false, nil })
	}
	if log == nil {
		log = console.Logger()
	}
	return &Orchestrator{service: service, confirmer: confirmer, console: console, logger: log}
}

// Run executes the pipeline from opts.Start. Each phase must succeed before
// the next one starts.
func (o *Orchestrator) Run(ctx context.Context, opts Options) Outcome {
	o.console.Printer().PrintHeading("Mautic Install")

	if o.service.c.State.IsInstalled(ctx) {
		o.console.WriteLine("Mautic already installed")
		return Outcome{AlreadyInstalled: true}
	}

	start := install.NormalizeIndex(opts.Start)
	if int(start) != opts.Start {
		o.logger.Debug("Unknown step %d, running the full installation", opts.Start)
	}

	for _, step := range install.Steps[start:] {
		result, id := NewPipeline(o.console, o.logger, o.tasks(step, opts.Params)).Execute(ctx)

		if step == install.StepCheck {
			if result.Failed() && !o.passGate(result.Messages(), opts.Force) {
				o.console.WriteLine("Install canceled")
				return o.failed(id, result.Messages())
			}
			o.console.WriteLine("Ready to Install!")
			continue
		}

		if result.Failed() {
			o.report(result.Messages())
			return o.failed(id, result.Messages())
		}

		if result.NeedsFinalize() {
			result, id = NewPipeline(o.console, o.logger, o.finalizeTasks(opts.Params)).Execute(ctx)
			if result.Failed() {
				o.report(result.Messages())
				return o.failed(id, result.Messages())
			}
		}
	}

	o.console.Printer().PrintBanner("Install complete")
	o.logger.InfoContext(ctx, "installation complete", logger.String("site_url", opts.Params.Site.SiteURL))
	return Outcome{}
}

func (o *Orchestrator) tasks(step install.StepIndex, params install.Parameters) []Task {
	switch step {
	case install.StepCheck:
		return []Task{{
			ID:    install.StepID{Index: install.StepCheck},
			Title: "Checking installation requirements",
			Run: func(ctx context.Context) install.StepResult {
				return o.service.Check(ctx, params.Site)
			},
		}}
	case install.StepDatabase:
		return []Task{
			{
				ID:    install.StepID{Index: install.StepDatabase, Sub: install.SubNone},
				Title: "Creating database",
				Run: func(ctx context.Context) install.StepResult {
					return o.service.Provision(ctx, params.Db)
				},
			},
			{
				ID:    install.StepID{Index: install.StepDatabase, Sub: install.SubSchema},
				Title: "Creating schema",
				Run: func(ctx context.Context) install.StepResult {
					return o.service.Schema(ctx, params.Db)
				},
			},
			{
				ID:    install.StepID{Index: install.StepDatabase, Sub: install.SubFixtures},
				Title: "Loading fixtures",
				Run:   o.service.Fixtures,
			},
		}
	case install.StepAdmin:
		return []Task{{
			ID:    install.StepID{Index: install.StepAdmin},
			Title: "Creating admin user",
			Run: func(ctx context.Context) install.StepResult {
				return o.service.CreateAdmin(ctx, params.Admin)
			},
		}}
	case install.StepConfiguration:
		return []Task{{
			ID:    install.StepID{Index: install.StepConfiguration},
			Title: "Email configuration and final steps",
			Run: func(ctx context.Context) install.StepResult {
				return o.service.SaveConfiguration(ctx, params.Combined())
			},
		}}
	default:
		return nil
	}
}

func (o *Orchestrator) finalizeTasks(params install.Parameters) []Task {
	return []Task{{
		ID:    install.StepID{Index: install.StepConfiguration},
		Title: "Writing final configuration",
		Run: func(ctx context.Context) install.StepResult {
			return o.service.Finalize(ctx, params.Site.SiteURL, params.Combined())
		},
	}}
}

// passGate prints the check report and decides whether the run may go on.
// Missing requirements always stop it; missing optional settings need force
// or the operator's consent.
func (o *Orchestrator) passGate(messages install.Messages, force bool) bool {
	if messages.Has(install.CategoryRequirements) {
		o.console.WriteLine("Missing requirements:")
		o.report(messages)
		return false
	}

	o.console.WriteLine("Missing optional settings:")
	o.report(messages)
	if force {
		o.logger.Debug("Optional settings missing, continuing because of --force")
		return true
	}

	ok, err := o.confirmer.Confirm(confirmQuestion)
	if err != nil {
		o.logger.Warn("Confirmation failed: %v", err)
		return false
	}
	return ok
}

func (o *Orchestrator) report(messages install.Messages) {
	lines := make([]ui.Line, 0, len(messages))
	for _, m := range messages {
		severity := ui.SeverityError
		if m.Category == install.CategoryOptional {
			severity = ui.SeverityWarning
		}
		lines = append(lines, ui.Line{Label: m.Label(), Text: m.Detail(), Severity: severity})
	}
	o.console.Printer().PrintLines(lines)
}

func (o *Orchestrator) failed(id install.StepID, messages install.Messages) Outcome {
	o.logger.Error("Installation stopped at step %s", id)
	return Outcome{
		Code:     id.Index.ExitCode(),
		Failed:   true,
		Step:     id,
		Messages: messages,
	}
}

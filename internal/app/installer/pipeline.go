package installer

import (
	"context"

	"mautic-installer/internal/install"
	"mautic-installer/internal/logger"
	"mautic-installer/internal/ui"
)

// Task is a single unit of a phase, reported with its own progress line.
type Task struct {
	ID    install.StepID
	Title string
	Run   func(ctx context.Context) install.StepResult
}

// Pipeline executes tasks sequentially.
type Pipeline struct {
	tasks   []Task
	console *ui.Console
	logger  logger.Logger
}

// NewPipeline constructs a new pipeline.
func NewPipeline(console *ui.Console, log logger.Logger, tasks []Task) *Pipeline {
	return &Pipeline{
		tasks:   tasks,
		console: console,
		logger:  log,
	}
}

// Execute runs the tasks in order and stops at the first failed one,
// returning its result and id. When every task succeeds the result of the
// last task is returned, so a trailing Finalize signal reaches the caller.
func (p *Pipeline) Execute(ctx context.Context) (install.StepResult, install.StepID) {
	result := install.Success()
	var id install.StepID

	for _, task := range p.tasks {
		id = task.ID
		if p.logger != nil {
			p.logger.Debug("Executing step: %s", task.ID)
		}

		p.console.StartProgress(task.Title)
		result = task.Run(ctx)
		if result.Failed() {
			p.console.FailProgress(task.Title)
			return result, id
		}
		p.console.StopProgress(task.Title)
	}

	return result, id
}

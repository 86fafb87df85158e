package installer

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mautic-installer/internal/errors"
	"mautic-installer/internal/install"
	"mautic-installer/internal/logger"
	"mautic-installer/internal/ui"
)

func newTestService(t *testing.T, rec *recorder) (*Service, *logger.MockLogger) {
	t.Helper()
	log := logger.NewMockLogger()
	s, err := NewService(rec.collaborators(), log)
	require.NoError(t, err)
	return s, log
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	c := newRecorder().collaborators()
	c.Migrations = nil

	_, err := NewService(c, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration runner")
}

func TestCheckSkipsOptionalWhenRequirementsMissing(t *testing.T) {
	rec := newRecorder()
	rec.requirements = []string{"a", "b"}
	rec.optional = []string{"c"}
	s, _ := newTestService(t, rec)

	result := s.Check(context.Background(), install.SiteParams{SiteURL: "https://x.test"})

	require.True(t, result.Failed())
	assert.True(t, result.Messages().Only(install.CategoryRequirements))
	assert.Equal(t, "[requirements] a\n[requirements] b", result.Messages().String())
	assert.Equal(t, []string{"requirements"}, rec.calls)
}

func TestCheckReportsOptional(t *testing.T) {
	rec := newRecorder()
	rec.optional = []string{"c"}
	s, _ := newTestService(t, rec)

	result := s.Check(context.Background(), install.SiteParams{})

	require.True(t, result.Failed())
	assert.True(t, result.Messages().Only(install.CategoryOptional))
}

func TestCheckSucceedsSilently(t *testing.T) {
	s, _ := newTestService(t, newRecorder())

	result := s.Check(context.Background(), install.SiteParams{})
	assert.False(t, result.Failed())
	assert.False(t, result.NeedsFinalize())
}

func TestResultTranslation(t *testing.T) {
	rec := newRecorder()
	rec.errs["provision"] = apperrors.FieldErrors{"db_port": "bad", "db_host": "missing"}
	rec.errs["schema"] = apperrors.DatabaseError(apperrors.CodeDatabaseSchema, "failed to apply schema", errors.New("near CREATE"))
	s, log := newTestService(t, rec)
	ctx := context.Background()

	provision := s.Provision(ctx, install.DbParams{})
	assert.Equal(t, install.Messages{
		{Category: install.CategoryValidation, Field: "db_host", Text: "missing"},
		{Category: install.CategoryValidation, Field: "db_port", Text: "bad"},
	}, provision.Messages())

	schema := s.Schema(ctx, install.DbParams{})
	assert.Equal(t, install.Messages{
		{Category: install.CategoryGeneral, Text: "failed to apply schema: near CREATE"},
	}, schema.Messages())

	assert.Equal(t, 2, log.CountEntries(logger.LevelError))
}

func TestSaveConfigurationRequestsFinalize(t *testing.T) {
	rec := newRecorder()
	s, _ := newTestService(t, rec)

	result := s.SaveConfiguration(context.Background(), install.CombinedParams{})

	assert.False(t, result.Failed())
	assert.True(t, result.NeedsFinalize())
	assert.Equal(t, []string{"configuration"}, rec.calls)
}

func TestFinalizeWritesBeforeMigrating(t *testing.T) {
	rec := newRecorder()
	s, _ := newTestService(t, rec)

	result := s.Finalize(context.Background(), "https://x.test", install.CombinedParams{})

	assert.False(t, result.Failed())
	assert.Equal(t, []string{"write_final", "migrations"}, rec.calls)
	assert.Equal(t, "https://x.test", rec.final.Site.SiteURL)
}

func TestPipelineStopsAtFirstFailure(t *testing.T) {
	var out bytes.Buffer
	console := ui.NewConsole(logger.NewMockLogger(), &out)
	var ran []string

	task := func(name string, result install.StepResult) Task {
		return Task{
			ID:    install.StepID{Index: install.StepDatabase},
			Title: name,
			Run: func(context.Context) install.StepResult {
				ran = append(ran, name)
				return result
			},
		}
	}
	failure := install.Failure(install.Messages{}.Add(install.CategoryGeneral, "", "boom"))

	result, _ := NewPipeline(console, nil, []Task{
		task("one", install.Success()),
		task("two", failure),
		task("three", install.Success()),
	}).Execute(context.Background())

	assert.True(t, result.Failed())
	assert.Equal(t, []string{"one", "two"}, ran)
	assert.Equal(t, "one...\n✓ one\ntwo...\n✕ two\n", out.String())
}

func TestPipelinePassesFinalizeThrough(t *testing.T) {
	console := ui.NewConsole(logger.NewMockLogger(), &bytes.Buffer{})
	result, id := NewPipeline(console, nil, []Task{{
		ID:  install.StepID{Index: install.StepConfiguration},
		Run: func(context.Context) install.StepResult { return install.Finalize() },
	}}).Execute(context.Background())

	assert.True(t, result.NeedsFinalize())
	assert.Equal(t, install.StepConfiguration, id.Index)
}

package installer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"mautic-installer/internal/install"
	"mautic-installer/internal/logger"
	"mautic-installer/internal/ui"
)

// recorder is a fake for every collaborator. It records each call in order
// and returns the configured outcome.
type recorder struct {
	calls []string

	installed    bool
	requirements []string
	optional     []string
	errs         map[string]error

	siteURL string
	db      install.DbParams
	admin   install.AdminParams
	final   install.CombinedParams
}

func newRecorder() *recorder {
	return &recorder{errs: map[string]error{}}
}

func (r *recorder) record(name string) error {
	r.calls = append(r.calls, name)
	return r.errs[name]
}

func (r *recorder) count(name string) int {
	n := 0
	for _, c := range r.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (r *recorder) IsInstalled(context.Context) bool {
	r.calls = append(r.calls, "installed")
	return r.installed
}

func (r *recorder) CheckRequirements(_ context.Context, siteURL string) []string {
	r.calls = append(r.calls, "requirements")
	r.siteURL = siteURL
	return r.requirements
}

func (r *recorder) CheckOptionalSettings(context.Context, string) []string {
	r.calls = append(r.calls, "optional")
	return r.optional
}

func (r *recorder) Provision(_ context.Context, params install.DbParams) error {
	r.db = params
	return r.record("provision")
}

func (r *recorder) ApplySchema(context.Context, install.DbParams) error {
	return r.record("schema")
}

func (r *recorder) LoadFixtures(context.Context) error {
	return r.record("fixtures")
}

func (r *recorder) CreateAdmin(_ context.Context, params install.AdminParams) error {
	r.admin = params
	return r.record("admin")
}

func (r *recorder) SaveConfiguration(context.Context, install.CombinedParams) error {
	return r.record("configuration")
}

func (r *recorder) WriteFinal(_ context.Context, siteURL string, params install.CombinedParams) error {
	r.final = params
	r.final.Site.SiteURL = siteURL
	return r.record("write_final")
}

func (r *recorder) RunMigrations(context.Context) error {
	return r.record("migrations")
}

func (r *recorder) collaborators() Collaborators {
	return Collaborators{
		Requirements:  r,
		Optional:      r,
		Provisioner:   r,
		Schema:        r,
		Fixtures:      r,
		Admin:         r,
		Configuration: r,
		ConfigWriter:  r,
		Migrations:    r,
		State:         r,
	}
}

type harness struct {
	rec       *recorder
	log       *logger.MockLogger
	out       *bytes.Buffer
	asked     int
	answer    bool
	answerErr error
	orch      *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{rec: newRecorder(), log: logger.NewMockLogger(), out: &bytes.Buffer{}}

	service, err := NewService(h.rec.collaborators(), h.log)
	require.NoError(t, err)

	confirmer := ui.ConfirmFunc(func(string) (bool, error) {
		h.asked++
		return h.answer, h.answerErr
	})
	h.orch = NewOrchestrator(service, confirmer, ui.NewConsole(h.log, h.out), h.log)
	return h
}

func (h *harness) run(start int, force bool) Outcome {
	return h.orch.Run(context.Background(), Options{
		Start:  start,
		Force:  force,
		Params: testParams(),
	})
}

func testParams() install.Parameters {
	return install.BuildParameters(install.DefaultValues(), map[string]string{
		install.KeySiteURL:       "http://x.test",
		install.KeyDBName:        "m1",
		install.KeyAdminEmail:    "a@b.com",
		install.KeyAdminPassword: "pw",
	})
}

var fullRun = []string{
	"installed",
	"requirements", "optional",
	"provision", "schema", "fixtures",
	"admin",
	"configuration", "write_final", "migrations",
}

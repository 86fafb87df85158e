package requirements

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mautic-installer/internal/logger"
	"mautic-installer/internal/system"
)

func newTestProbe(t *testing.T, free uint64) *Probe {
	t.Helper()
	dir := t.TempDir()
	cfg := &system.Config{
		WorkingDir:           dir,
		ConfigPath:           filepath.Join(dir, "app", "config", "local.yaml"),
		MinDiskSpace:         100 * humanize.MiByte,
		RecommendedDiskSpace: humanize.GiByte,
	}
	p := NewProbe(cfg, logger.NewMockLogger())
	p.freeSpace = func(string) (uint64, error) { return free, nil }
	p.writable = func(string) bool { return true }
	p.host = func() (system.Host, error) { return system.Host{OS: "linux", Arch: "amd64"}, nil }
	return p
}

func TestCheckRequirementsPass(t *testing.T) {
	p := newTestProbe(t, 10*humanize.GiByte)
	assert.Empty(t, p.CheckRequirements(context.Background(), "https://mautic.example.com"))
	assert.Empty(t, p.CheckOptionalSettings(context.Background(), "https://mautic.example.com"))
}

func TestCheckRequirementsSiteURL(t *testing.T) {
	p := newTestProbe(t, 10*humanize.GiByte)

	cases := map[string]string{
		"":                   "the site URL is required",
		"ftp://x.test":       "must start with http:// or https://",
		"http://":            "has no host",
		"mautic.example.com": "must start with http:// or https://",
	}
	for input, want := range cases {
		missing := p.CheckRequirements(context.Background(), input)
		require.Len(t, missing, 1, input)
		assert.Contains(t, missing[0], want, input)
	}
}

func TestCheckRequirementsDiskAndWritable(t *testing.T) {
	p := newTestProbe(t, 10*humanize.MiByte)
	p.writable = func(string) bool { return false }

	missing := p.CheckRequirements(context.Background(), "https://x.test")
	require.Len(t, missing, 2)
	assert.Contains(t, missing[0], "is not writable")
	assert.Contains(t, missing[0], p.config.WorkingDir)
	assert.Contains(t, missing[1], "at least 100 MiB of free disk space is required")
	assert.Contains(t, missing[1], "10 MiB available")
}

func TestCheckRequirementsStatfsError(t *testing.T) {
	p := newTestProbe(t, 0)
	p.freeSpace = func(string) (uint64, error) { return 0, errors.New("boom") }

	missing := p.CheckRequirements(context.Background(), "https://x.test")
	require.Len(t, missing, 1)
	assert.Contains(t, missing[0], "unable to determine free disk space")

	assert.Empty(t, p.CheckOptionalSettings(context.Background(), "https://x.test"))
}

func TestCheckOptionalSettings(t *testing.T) {
	p := newTestProbe(t, 500*humanize.MiByte)

	warnings := p.CheckOptionalSettings(context.Background(), "http://127.0.0.1:8080")
	require.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "does not use https")
	assert.Contains(t, warnings[1], "127.0.0.1 is not publicly reachable")
	assert.Contains(t, warnings[2], "1.0 GiB of free disk space is recommended")
}

func TestCheckOptionalSettingsArchitecture(t *testing.T) {
	p := newTestProbe(t, 10*humanize.GiByte)
	p.host = func() (system.Host, error) { return system.Host{OS: "linux", Arch: "riscv64"}, nil }

	warnings := p.CheckOptionalSettings(context.Background(), "https://x.test")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "riscv64 architecture is not tested")

	p.host = func() (system.Host, error) { return system.Host{}, errors.New("uname failed") }
	assert.Empty(t, p.CheckOptionalSettings(context.Background(), "https://x.test"))
}

func TestPublicHost(t *testing.T) {
	assert.True(t, publicHost("mautic.example.com"))
	assert.True(t, publicHost("8.8.8.8"))
	assert.False(t, publicHost("localhost"))
	assert.False(t, publicHost("app.localhost"))
	assert.False(t, publicHost("192.168.1.10"))
	assert.False(t, publicHost("::1"))
}

func TestExistingAncestor(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, existingAncestor(filepath.Join(dir, "a", "b", "c.yaml")))
}

func TestProbeAgainstHost(t *testing.T) {
	dir := t.TempDir()
	free, err := statfsAvailable(dir)
	require.NoError(t, err)
	assert.Positive(t, free)
	assert.True(t, accessWritable(dir))
}

package system

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

const (
	envConfigPath = "MAUTIC_INSTALL_CONFIG"
	envWorkingDir = "MAUTIC_INSTALL_WORKDIR"
	envMinDisk    = "MAUTIC_INSTALL_MIN_DISK"
)

// Config captures the runtime settings of an installer invocation.
type Config struct {
	WorkingDir string `json:"working_dir"`
	// ConfigPath is the local configuration artifact whose validity marks
	// the application as installed.
	ConfigPath string `json:"config_path"`
	// MinDiskSpace is the free space required below WorkingDir.
	MinDiskSpace uint64 `json:"min_disk_space"`
	// RecommendedDiskSpace is reported as an optional setting when unmet.
	RecommendedDiskSpace uint64 `json:"recommended_disk_space"`
}

// LoadConfig builds a Config from defaults and environment overrides.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve working directory")
	}

	cfg := &Config{
		WorkingDir:           wd,
		MinDiskSpace:         100 * humanize.MiByte,
		RecommendedDiskSpace: 1 * humanize.GiByte,
	}

	if dir := strings.TrimSpace(os.Getenv(envWorkingDir)); dir != "" {
		cfg.WorkingDir = dir
	}
	if path := strings.TrimSpace(os.Getenv(envConfigPath)); path != "" {
		cfg.ConfigPath = path
	}
	if size := strings.TrimSpace(os.Getenv(envMinDisk)); size != "" {
		parsed, err := humanize.ParseBytes(size)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s value %q", envMinDisk, size)
		}
		cfg.MinDiskSpace = parsed
	}

	if cfg.ConfigPath == "" {
		cfg.ConfigPath = cfg.DefaultConfigPath()
	}

	return cfg, nil
}

// DefaultConfigPath returns the artifact location inside WorkingDir.
func (c *Config) DefaultConfigPath() string {
	return filepath.Join(c.WorkingDir, "app", "config", "local.yaml")
}

// ConfigDir returns the directory holding the configuration artifact.
func (c *Config) ConfigDir() string {
	return filepath.Dir(c.ConfigPath)
}

// Validate ensures the working directory exists.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.WorkingDir) == "" {
		return errors.New("working directory is not set")
	}
	if strings.TrimSpace(c.ConfigPath) == "" {
		return errors.New("config path is not set")
	}
	if err := os.MkdirAll(c.WorkingDir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create working directory %s", c.WorkingDir)
	}
	return nil
}

package requirements

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"mautic-installer/internal/logger"
	"mautic-installer/internal/system"
)

// Probe inspects the host an installation is about to run on. Hard
// requirements and recommendations are reported as ordered descriptions.
type Probe struct {
	config *system.Config
	logger logger.Logger
	// freeSpace reports the bytes available to unprivileged users below path.
	freeSpace func(path string) (uint64, error)
	// writable reports whether the current user may write to path.
	writable func(path string) bool
	host     func() (system.Host, error)
}

// NewProbe creates a Probe checking the directories named in cfg.
func NewProbe(cfg *system.Config, log logger.Logger) *Probe {
	if log == nil {
		log = logger.NewStandardLogger()
	}
	return &Probe{
		config:    cfg,
		logger:    log,
		freeSpace: statfsAvailable,
		writable:  accessWritable,
		host:      system.DetectHost,
	}
}

// CheckRequirements lists unmet hard requirements for siteURL.
func (p *Probe) CheckRequirements(ctx context.Context, siteURL string) []string {
	var missing []string

	if msg := checkSiteURL(siteURL); msg != "" {
		missing = append(missing, msg)
	}

	configTarget := existingAncestor(p.config.ConfigPath)
	if !p.writable(configTarget) {
		missing = append(missing, fmt.Sprintf(
			"the configuration file %s is not writable (checked %s)", p.config.ConfigPath, configTarget))
	}

	dir := existingAncestor(p.config.WorkingDir)
	free, err := p.freeSpace(dir)
	switch {
	case err != nil:
		missing = append(missing, fmt.Sprintf("unable to determine free disk space in %s: %v", dir, err))
	case free < p.config.MinDiskSpace:
		missing = append(missing, fmt.Sprintf("at least %s of free disk space is required in %s, %s available",
			humanize.IBytes(p.config.MinDiskSpace), dir, humanize.IBytes(free)))
	default:
		p.logger.DebugContext(ctx, "disk space available",
			logger.String("path", dir),
			logger.String("free", humanize.IBytes(free)))
	}

	return missing
}

// CheckOptionalSettings lists recommendations siteURL and the host do not meet.
func (p *Probe) CheckOptionalSettings(ctx context.Context, siteURL string) []string {
	var warnings []string

	if u, err := url.Parse(strings.TrimSpace(siteURL)); err == nil && u.Host != "" {
		if strings.EqualFold(u.Scheme, "http") {
			warnings = append(warnings, "the site URL does not use https; browsers will treat logins as insecure")
		}
		if host := u.Hostname(); !publicHost(host) {
			warnings = append(warnings, fmt.Sprintf(
				"the site URL host %s is not publicly reachable; tracking links will not work outside this network", host))
		}
	}

	if host, err := p.host(); err != nil {
		p.logger.Debug("Host detection failed: %v", err)
	} else {
		p.logger.DebugContext(ctx, "host detected", logger.String("host", host.String()))
		if !host.SupportedArchitecture() {
			warnings = append(warnings, fmt.Sprintf("the %s architecture is not tested; amd64 or arm64 is recommended", host.Arch))
		}
	}

	dir := existingAncestor(p.config.WorkingDir)
	if free, err := p.freeSpace(dir); err == nil && free < p.config.RecommendedDiskSpace {
		warnings = append(warnings, fmt.Sprintf("%s of free disk space is recommended in %s, %s available",
			humanize.IBytes(p.config.RecommendedDiskSpace), dir, humanize.IBytes(free)))
	}

	if len(warnings) > 0 {
		p.logger.DebugContext(ctx, "optional settings not met", logger.Int("count", len(warnings)))
	}
	return warnings
}

func checkSiteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "the site URL is required"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("the site URL %q is not a valid URL", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("the site URL %q must start with http:// or https://", raw)
	}
	if u.Hostname() == "" {
		return fmt.Sprintf("the site URL %q has no host", raw)
	}
	return ""
}

func publicHost(host string) bool {
	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".localhost") {
		return false
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return true
	}
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified())
}

// existingAncestor returns path or its closest existing parent.
func existingAncestor(path string) string {
	path = filepath.Clean(path)
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}

func statfsAvailable(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, errors.Wrapf(err, "statfs %s", path)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

func accessWritable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}

package system

import (
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Host describes the machine the installer runs on.
type Host struct {
	OS       string
	Arch     string
	Kernel   string
	Hostname string
}

var supportedArchitectures = map[string]struct{}{
	"amd64": {},
	"arm64": {},
}

// DetectHost reads the kernel identification through uname.
func DetectHost() (Host, error) {
	host := Host{OS: runtime.GOOS, Arch: runtime.GOARCH}

	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return host, errors.Wrap(err, "uname failed")
	}
	host.Kernel = unix.ByteSliceToString(uts.Release[:])
	host.Hostname = unix.ByteSliceToString(uts.Nodename[:])
	return host, nil
}

// SupportedArchitecture reports whether release builds exist for Arch.
func (h Host) SupportedArchitecture() bool {
	_, ok := supportedArchitectures[strings.ToLower(h.Arch)]
	return ok
}

func (h Host) String() string {
	parts := []string{h.OS + "/" + h.Arch}
	if h.Kernel != "" {
		parts = append(parts, "kernel "+h.Kernel)
	}
	if h.Hostname != "" {
		parts = append(parts, "host "+h.Hostname)
	}
	return strings.Join(parts, ", ")
}

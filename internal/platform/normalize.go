package platform

import (
	"fmt"
	"strings"
)

// NormalizeArch converts a raw architecture name to the published naming.
// amd64 is reported by Go and Windows, x86_64 by uname.
func NormalizeArch(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "amd64", ArchX86_64:
		return ArchX86_64, nil
	default:
		return "", fmt.Errorf("%w: machine architecture %q (only %s is supported)", ErrUnsupportedPlatform, raw, ArchX86_64)
	}
}

// NormalizeOS validates a GOOS value.
func NormalizeOS(goos string) (string, error) {
	switch goos {
	case OSLinux, OSDarwin, OSWindows:
		return goos, nil
	default:
		return "", fmt.Errorf("%w: operating system %q (only linux, darwin and windows are supported)", ErrUnsupportedPlatform, goos)
	}
}

// NewTarget validates an OS/architecture pair and returns the normalized target.
func NewTarget(goos, arch string) (Target, error) {
	osName, err := NormalizeOS(goos)
	if err != nil {
		return Target{}, err
	}

	normalized, err := NormalizeArch(arch)
	if err != nil {
		return Target{}, err
	}

	return Target{OS: osName, Arch: normalized, ArchRaw: arch}, nil
}

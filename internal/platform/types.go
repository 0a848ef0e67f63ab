// Package platform maps the running operating system and machine architecture
// to the target identifiers Bazel publishes binaries for.
//
// Only x86_64 builds are published for linux, darwin and windows. Everything
// else is rejected with ErrUnsupportedPlatform before any network access.
package platform

import (
	"context"
	"errors"
)

// Supported operating systems.
const (
	OSLinux   = "linux"
	OSDarwin  = "darwin"
	OSWindows = "windows"
)

// ArchX86_64 is the only architecture release binaries exist for.
const ArchX86_64 = "x86_64"

// ErrUnsupportedPlatform is returned for any OS or architecture outside the
// supported set.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// ciPlatforms maps an operating system to the platform key used by the
// continuous-build artifact host.
var ciPlatforms = map[string]string{
	OSLinux:   "ubuntu1404",
	OSWindows: "windows",
	OSDarwin:  "macos",
}

// Target identifies a supported OS/architecture pair.
type Target struct {
	OS      string // "linux", "darwin", "windows"
	Arch    string // always "x86_64"
	ArchRaw string // architecture as reported by the host, e.g. "amd64"
}

// IsWindows returns true if the target OS is Windows.
func (t Target) IsWindows() bool {
	return t.OS == OSWindows
}

// ExecutableSuffix returns ".exe" on Windows and "" elsewhere.
func (t Target) ExecutableSuffix() string {
	if t.IsWindows() {
		return ".exe"
	}
	return ""
}

// CIPlatform returns the platform key of the continuous-build artifact host.
func (t Target) CIPlatform() string {
	return ciPlatforms[t.OS]
}

// String returns "<os>-<arch>".
func (t Target) String() string {
	return t.OS + "-" + t.Arch
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (Target, error)
}

package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using the running host.
type RealDetector struct {
	// kernelArch reports the machine architecture. Defaults to gopsutil.
	kernelArch func() (string, error)
}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{kernelArch: host.KernelArch}
}

// Detect returns the target for the running host.
//
// The architecture comes from the kernel (uname machine on Unix, the native
// system info on Windows) rather than GOARCH, so an emulated launcher still
// picks the binary matching the machine. If the kernel query fails, GOARCH is
// used instead.
func (d *RealDetector) Detect(ctx context.Context) (Target, error) {
	if err := ctx.Err(); err != nil {
		return Target{}, fmt.Errorf("platform detection cancelled: %w", err)
	}

	arch := runtime.GOARCH
	if d.kernelArch != nil {
		if raw, err := d.kernelArch(); err == nil && raw != "" {
			arch = raw
		}
	}

	target, err := NewTarget(runtime.GOOS, arch)
	if err != nil {
		return Target{}, fmt.Errorf("platform detection failed: %w", err)
	}

	return target, nil
}

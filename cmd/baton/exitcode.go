package main

import (
	"errors"

	"github.com/ZebulonRouseFrantzich/baton/internal/binary"
)

const (
	// ExitFailure covers configuration, network, and I/O errors.
	ExitFailure = 1
	// ExitAuthenticationFailed is used only when a download fails signature
	// verification.
	ExitAuthenticationFailed = 77
)

// exitCodeFor maps a fatal error to the launcher's exit code.
func exitCodeFor(err error) int {
	if errors.Is(err, binary.ErrAuthenticationFailed) {
		return ExitAuthenticationFailed
	}
	return ExitFailure
}

package binary

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAuthenticationFailed is returned when a downloaded binary does not match
// its signature.
var ErrAuthenticationFailed = errors.New("authentication failed")

// ErrDigestMismatch is returned when a binary does not have the SHA256 digest
// the configuration requires.
var ErrDigestMismatch = errors.New("sha256 mismatch")

// Mode selects how signatures are checked.
type Mode string

const (
	// ModeAuto uses gpg when it is installed and openpgp otherwise.
	ModeAuto Mode = "auto"
	// ModeGPG runs the external gpg tool.
	ModeGPG Mode = "gpg"
	// ModeOpenPGP verifies in-process.
	ModeOpenPGP Mode = "openpgp"
)

// String returns the string representation of the mode
func (m Mode) String() string {
	return string(m)
}

// ParseMode parses a BATON_VERIFIER value. Empty selects ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeGPG, ModeOpenPGP:
		return m, nil
	default:
		return "", fmt.Errorf("unknown verifier %q (want auto, gpg or openpgp)", s)
	}
}

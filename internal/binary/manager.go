package binary

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ZebulonRouseFrantzich/baton/internal/artifact"
	"github.com/ZebulonRouseFrantzich/baton/internal/platform"
	"github.com/ZebulonRouseFrantzich/baton/internal/version"
)

const stagingSuffix = ".staging"

// Verifier checks a downloaded binary against its detached signature.
type Verifier interface {
	Verify(ctx context.Context, binaryPath, signaturePath string) (bool, error)
}

// Manager orchestrates binary download, verification, and installation
type Manager struct {
	binDir    string
	target    platform.Target
	locator   artifact.Locator
	transport Transport
	verifier  Verifier
	sha256    string
	logger    *slog.Logger
	newID     func() string
}

// Config holds configuration for the binary manager
type Config struct {
	// Home is the cache root; binaries live in Home/bin.
	Home          string
	Target        platform.Target
	Locator       artifact.Locator
	Transport     Transport
	Authenticator Verifier
	// SHA256 is the hex digest the binary must have, for any version. Empty
	// skips the check.
	SHA256 string
	Logger *slog.Logger
}

// NewManager creates a new binary manager
func NewManager(config Config) (*Manager, error) {
	if config.Home == "" {
		return nil, fmt.Errorf("Home is required")
	}
	if config.Target.OS == "" {
		return nil, fmt.Errorf("Target is required")
	}
	if config.Transport == nil {
		return nil, fmt.Errorf("Transport is required")
	}
	if config.Authenticator == nil {
		return nil, fmt.Errorf("Authenticator is required")
	}
	digest := strings.ToLower(strings.TrimSpace(config.SHA256))
	if digest != "" {
		if b, err := hex.DecodeString(digest); err != nil || len(b) != 32 {
			return nil, fmt.Errorf("SHA256 must be 64 hex digits, got %q", config.SHA256)
		}
	}

	m := &Manager{
		binDir:    filepath.Join(config.Home, "bin"),
		target:    config.Target,
		locator:   config.Locator,
		transport: config.Transport,
		verifier:  config.Authenticator,
		sha256:    digest,
		logger:    config.Logger,
		newID:     uuid.NewString,
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}

	return m, nil
}

// BinaryPath returns where resolved is cached, whether or not it exists yet.
func (m *Manager) BinaryPath(resolved version.Resolved) string {
	return filepath.Join(m.binDir, artifact.Filename(resolved.ID, m.target))
}

// Acquire returns the path of an authenticated, executable binary for
// resolved, downloading it first if it is not cached.
func (m *Manager) Acquire(ctx context.Context, resolved version.Resolved) (string, error) {
	loc, err := m.locator.Locate(resolved, m.target)
	if err != nil {
		return "", fmt.Errorf("locate %s: %w", resolved, err)
	}

	destPath := filepath.Join(m.binDir, loc.Filename)
	if fileExists(destPath) {
		m.logger.Debug("using cached binary", "path", destPath)
		if err := m.checkDigest(destPath); err != nil {
			return "", err
		}
		return destPath, nil
	}

	if resolved.IsCommit {
		m.logger.Warn(fmt.Sprintf("Using unreleased version at commit %s", resolved.ID))
	}

	if err := os.MkdirAll(m.binDir, 0o755); err != nil {
		return "", fmt.Errorf("create bin dir: %w", err)
	}

	stagingPath := fmt.Sprintf("%s.%s%s", destPath, m.newID(), stagingSuffix)
	defer os.Remove(stagingPath) // no-op once renamed

	m.logger.Info("Downloading Bazel", "version", resolved.String(), "url", loc.BinaryURL)
	if err := downloadToFile(ctx, m.transport, loc.BinaryURL, stagingPath); err != nil {
		return "", fmt.Errorf("download binary: %w", err)
	}

	if loc.Signed() {
		signaturePath := stagingPath + artifact.SignatureSuffix
		defer os.Remove(signaturePath)

		if err := downloadToFile(ctx, m.transport, loc.SignatureURL, signaturePath); err != nil {
			return "", fmt.Errorf("download signature: %w", err)
		}

		ok, err := m.verifier.Verify(ctx, stagingPath, signaturePath)
		if err != nil {
			return "", fmt.Errorf("verify binary: %w", err)
		}
		if !ok {
			return "", fmt.Errorf("%w: %s does not match signature %s", ErrAuthenticationFailed, loc.BinaryURL, loc.SignatureURL)
		}
	}

	if err := m.checkDigest(stagingPath); err != nil {
		return "", err
	}

	if err := SetExecutable(stagingPath); err != nil {
		return "", fmt.Errorf("set executable: %w", err)
	}

	if err := os.Rename(stagingPath, destPath); err != nil {
		return "", fmt.Errorf("install binary: %w", err)
	}

	return destPath, nil
}

// checkDigest compares path against the configured SHA256, if any.
func (m *Manager) checkDigest(path string) error {
	if m.sha256 == "" {
		return nil
	}
	got, err := calculateSHA256(path)
	if err != nil {
		return fmt.Errorf("hash binary: %w", err)
	}
	if got != m.sha256 {
		return fmt.Errorf("%w: %s has sha256=%s but need sha256=%s", ErrDigestMismatch, filepath.Base(path), got, m.sha256)
	}
	return nil
}

// SetExecutable sets the executable permission on a file
func SetExecutable(path string) error {
	return os.Chmod(path, 0o755)
}

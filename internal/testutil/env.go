// Package testutil provides utilities for testing Baton in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// launcherEnv lists every variable the launcher reads. SetupTestEnv clears
// them so a developer's own settings never leak into a test.
var launcherEnv = []string{
	"USE_BAZEL_VERSION",
	"USE_BAZEL_FALLBACK_VERSION",
	"BATON_HOME",
	"BATON_BASE_URL",
	"BATON_GITHUB_TOKEN",
	"BATON_USER_AGENT",
	"BATON_SKIP_WRAPPER",
	"BATON_VERIFIER",
	"BATON_RELEASE_KEY_FILE",
	"BATON_RELEASE_KEY_URL",
	"BATON_VERIFY_SHA256",
	"BATON_DEBUG",
}

// Env describes the isolated directories created by SetupTestEnv.
type Env struct {
	// Home is the user's home directory (holds the user rc file).
	Home string
	// Cache is the launcher's cache root, exported as BATON_HOME.
	Cache string
}

// SetupTestEnv creates isolated test directories for each test.
// This ensures Baton tests never interfere with:
// - The user's real download cache
// - The user's own rc file and environment overrides
//
// The cleanup function is automatically handled by t.TempDir(),
// so callers don't need to manually clean up.
func SetupTestEnv(t *testing.T) Env {
	t.Helper()

	// Create temp directory (auto-cleaned by testing framework)
	tmpDir := t.TempDir()

	env := Env{
		Home:  filepath.Join(tmpDir, "home"),
		Cache: filepath.Join(tmpDir, "cache"),
	}

	for _, key := range launcherEnv {
		t.Setenv(key, "")
	}
	t.Setenv("HOME", env.Home)
	t.Setenv("USERPROFILE", env.Home)
	t.Setenv("BATON_HOME", env.Cache)

	for _, dir := range []string{env.Home, env.Cache} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return env
}

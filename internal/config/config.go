package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config is a read-only view over the layered configuration sources.
type Config struct {
	v             *viper.Viper
	workspaceRoot string
}

// Options controls where Load looks for rc files.
type Options struct {
	// WorkspaceRoot is the enclosing workspace, or "" outside a workspace.
	WorkspaceRoot string
	// UserHome is the directory holding the user rc file. Defaults to
	// os.UserHomeDir().
	UserHome string
	// Logger receives warnings about rc file contents. Optional.
	Logger *slog.Logger
}

// Load reads the rc files named by opts and layers the environment on top.
// Missing rc files are skipped.
func Load(opts Options) (*Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	v := viper.New()
	v.SetConfigType("env")
	v.AutomaticEnv()

	userHome := opts.UserHome
	if userHome == "" {
		// No home directory just means no user rc file.
		userHome, _ = os.UserHomeDir()
	}

	var rcFiles []string
	if userHome != "" {
		rcFiles = append(rcFiles, filepath.Join(userHome, RCFileName))
	}
	if opts.WorkspaceRoot != "" {
		rcFiles = append(rcFiles, filepath.Join(opts.WorkspaceRoot, RCFileName))
	}

	// Later files override earlier ones.
	for _, path := range rcFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		if opts.WorkspaceRoot != "" && filepath.Dir(path) == opts.WorkspaceRoot {
			for _, finding := range DetectSensitiveData(string(data)) {
				logger.Warn("workspace rc file may contain a secret",
					"file", path, "line", finding.Line, "kind", finding.PatternName)
			}
		}

		if err := v.MergeConfig(strings.NewReader(string(data))); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	return &Config{v: v, workspaceRoot: opts.WorkspaceRoot}, nil
}

// Get returns the value for key, or "" if unset.
func (c *Config) Get(key string) string {
	return strings.TrimSpace(c.v.GetString(key))
}

// IsSet reports whether key has a non-empty value.
func (c *Config) IsSet(key string) bool {
	return c.Get(key) != ""
}

// WorkspaceRoot returns the workspace root the config was loaded for.
func (c *Config) WorkspaceRoot() string {
	return c.workspaceRoot
}

// Home returns the cache root directory. It is not created.
func (c *Config) Home() (string, error) {
	for _, key := range []string{KeyHome + "_" + strings.ToUpper(runtime.GOOS), KeyHome} {
		value := c.Get(key)
		if value == "" {
			continue
		}

		expanded, err := homedir.Expand(value)
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", key, err)
		}
		return os.ExpandEnv(expanded), nil
	}

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("determine user cache directory: %w", err)
	}
	return filepath.Join(cacheDir, homeDirName), nil
}

// UserAgent returns the User-Agent header for outgoing requests.
func (c *Config) UserAgent(launcherVersion string) string {
	if agent := c.Get(KeyUserAgent); agent != "" {
		return agent
	}
	return "Baton/" + launcherVersion
}

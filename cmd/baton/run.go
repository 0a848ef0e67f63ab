package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/baton/internal/artifact"
	"github.com/ZebulonRouseFrantzich/baton/internal/binary"
	"github.com/ZebulonRouseFrantzich/baton/internal/catalog"
	"github.com/ZebulonRouseFrantzich/baton/internal/config"
	"github.com/ZebulonRouseFrantzich/baton/internal/httpclient"
	"github.com/ZebulonRouseFrantzich/baton/internal/launcher"
	"github.com/ZebulonRouseFrantzich/baton/internal/platform"
	"github.com/ZebulonRouseFrantzich/baton/internal/version"
	"github.com/ZebulonRouseFrantzich/baton/internal/workspace"
)

// environment is the process state run depends on.
type environment struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	getwd    func() (string, error)
	detector platform.Detector
	// releasesURL overrides the release list endpoint. Empty uses the default.
	releasesURL string
}

func defaultEnvironment() environment {
	return environment{
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		getwd:    os.Getwd,
		detector: platform.NewDetector(),
	}
}

// run resolves, acquires, and launches Bazel, returning the process exit code.
// A non-nil error is always paired with a launcher exit code.
func run(ctx context.Context, args []string, env environment) (int, error) {
	cwd, err := env.getwd()
	if err != nil {
		return ExitFailure, fmt.Errorf("get working directory: %w", err)
	}
	root, _ := workspace.FindRoot(cwd)

	cfg, err := config.Load(config.Options{
		WorkspaceRoot: root,
		Logger:        config.NewLogger(env.stderr, false),
	})
	if err != nil {
		return ExitFailure, fmt.Errorf("load configuration: %w", err)
	}
	logger := config.NewLogger(env.stderr, cfg.IsSet(config.KeyDebug))
	logger.Debug("workspace", "root", root, "cwd", cwd)

	path, err := acquire(ctx, cfg, env, logger)
	if err != nil {
		return exitCodeFor(err), err
	}

	executor := launcher.NewExecutor(launcher.Config{
		WorkspaceRoot:   root,
		SkipWrapper:     cfg.IsSet(config.KeySkipWrapper),
		LauncherVersion: Version,
		Stdin:           env.stdin,
		Stdout:          env.stdout,
		Stderr:          env.stderr,
		Logger:          logger,
	})
	return executor.Run(path, args)
}

// acquire returns the path of the binary the configuration selects.
func acquire(ctx context.Context, cfg *config.Config, env environment, logger *slog.Logger) (string, error) {
	directive, err := version.ResolveDirective(cfg, cfg.WorkspaceRoot(), logger)
	if err != nil {
		return "", err
	}
	spec, err := directive.Specifier()
	if err != nil {
		return "", err
	}
	logger.Debug("version directive", "value", directive.Value, "source", directive.Source.String(), "kind", spec.Kind.String())

	home, err := cfg.Home()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		return "", fmt.Errorf("create home directory: %w", err)
	}

	target, err := env.detector.Detect(ctx)
	if err != nil {
		return "", err
	}

	client := httpclient.New(cfg.UserAgent(Version))

	releases, err := catalog.NewClient(catalog.Config{
		Home:        home,
		Fetcher:     client,
		Logger:      logger,
		ReleasesURL: env.releasesURL,
		GitHubToken: cfg.Get(config.KeyGitHubToken),
	})
	if err != nil {
		return "", err
	}

	resolved, err := releases.Resolve(ctx, spec)
	if err != nil {
		return "", err
	}
	logger.Debug("resolved version", "version", resolved.String())

	auth, err := newAuthenticator(cfg, home, client, logger)
	if err != nil {
		return "", err
	}

	mgr, err := binary.NewManager(binary.Config{
		Home:          home,
		Target:        target,
		Locator:       artifact.Locator{ReleaseBaseURL: cfg.Get(config.KeyBaseURL)},
		Transport:     client,
		Authenticator: auth,
		SHA256:        cfg.Get(config.KeyVerifySHA256),
		Logger:        logger,
	})
	if err != nil {
		return "", err
	}

	return mgr.Acquire(ctx, resolved)
}

// newAuthenticator trusts BATON_RELEASE_KEY_FILE when set, and otherwise the
// Bazel release key fetched from BATON_RELEASE_KEY_URL and cached under home.
func newAuthenticator(cfg *config.Config, home string, transport binary.Transport, logger *slog.Logger) (*binary.Authenticator, error) {
	mode, err := binary.ParseMode(cfg.Get(config.KeyVerifier))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.KeyVerifier, err)
	}

	var key []byte
	if path := cfg.Get(config.KeyReleaseKeyFile); path != "" {
		key, err = binary.ReadKeyFile(path)
		if err != nil {
			return nil, err
		}
	}

	return binary.NewAuthenticator(binary.AuthenticatorConfig{
		Mode: mode,
		Key:  key,
		Source: &binary.RemoteKey{
			URL:       cfg.Get(config.KeyReleaseKeyURL),
			Path:      filepath.Join(home, "keys", binary.ReleaseKeyFileName),
			Transport: transport,
			Logger:    logger,
		},
		Logger: logger,
	})
}

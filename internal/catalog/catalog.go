// Package catalog resolves version specifiers against the published Bazel
// releases and the green-commit markers of the continuous build.
//
// The release list is cached verbatim in <home>/releases.json and reused for
// one hour after it was written. A refetch replaces the file atomically.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/baton/internal/httpclient"
	"github.com/ZebulonRouseFrantzich/baton/internal/version"
)

const (
	// DefaultReleasesURL lists the published releases, newest first.
	DefaultReleasesURL = "https://api.github.com/repos/bazelbuild/bazel/releases"
	// DefaultGreenCommitBaseURL holds one plain-text commit marker per alias.
	DefaultGreenCommitBaseURL = "https://storage.googleapis.com/bazel-untrusted-builds/last_green_commit/"

	// CacheFileName is the cached release list under the home directory.
	CacheFileName = "releases.json"
	// FreshnessWindow is how long a cached release list is reused.
	FreshnessWindow = time.Hour
)

// aliasPaths maps commit aliases to their marker path under the green commit base URL.
var aliasPaths = map[string]string{
	version.AliasLastGreen:           "github.com/bazelbuild/bazel.git/bazel-bazel",
	version.AliasLastDownstreamGreen: "downstream_pipeline",
}

// ErrNotEnoughReleases is returned when latest-N points past the release history.
var ErrNotEnoughReleases = errors.New("not enough releases")

// Fetcher retrieves a remote resource.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers ...httpclient.Header) ([]byte, error)
}

// Config configures a Client.
type Config struct {
	// Home is the cache root. Required.
	Home string
	// Fetcher performs HTTP requests. Required.
	Fetcher Fetcher
	// Clock defaults to RealClock.
	Clock Clock
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
	// ReleasesURL defaults to DefaultReleasesURL.
	ReleasesURL string
	// GreenCommitBaseURL defaults to DefaultGreenCommitBaseURL.
	GreenCommitBaseURL string
	// GitHubToken is sent as a bearer token on release list requests.
	GitHubToken string
}

// Client resolves specifiers to concrete versions.
type Client struct {
	home         string
	fetcher      Fetcher
	clock        Clock
	logger       *slog.Logger
	releasesURL  string
	greenBaseURL string
	token        string
}

// NewClient creates a catalog client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Home == "" {
		return nil, fmt.Errorf("Home is required")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("Fetcher is required")
	}

	c := &Client{
		home:         cfg.Home,
		fetcher:      cfg.Fetcher,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		releasesURL:  cfg.ReleasesURL,
		greenBaseURL: cfg.GreenCommitBaseURL,
		token:        cfg.GitHubToken,
	}
	if c.clock == nil {
		c.clock = RealClock{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.releasesURL == "" {
		c.releasesURL = DefaultReleasesURL
	}
	if c.greenBaseURL == "" {
		c.greenBaseURL = DefaultGreenCommitBaseURL
	}

	return c, nil
}

// Resolve turns a specifier into a concrete release or commit.
func (c *Client) Resolve(ctx context.Context, spec version.Specifier) (version.Resolved, error) {
	switch spec.Kind {
	case version.KindRelease, version.KindCandidate:
		return version.Resolved{ID: spec.Raw}, nil
	case version.KindCommit:
		return version.Resolved{ID: spec.Raw, IsCommit: true}, nil
	case version.KindCommitAlias:
		commit, err := c.GreenCommit(ctx, spec.Raw)
		if err != nil {
			return version.Resolved{}, err
		}
		return version.Resolved{ID: commit, IsCommit: true}, nil
	case version.KindLastCandidate:
		candidate, err := c.LastCandidate(ctx)
		if err != nil {
			return version.Resolved{}, err
		}
		return version.Resolved{ID: candidate}, nil
	case version.KindLatest:
		history, err := c.History(ctx)
		if err != nil {
			return version.Resolved{}, err
		}
		release, err := ResolveLatest(history, spec.Offset)
		if err != nil {
			return version.Resolved{}, err
		}
		return version.Resolved{ID: release}, nil
	default:
		return version.Resolved{}, fmt.Errorf("%w %q: unknown kind %v", version.ErrInvalidVersion, spec.Raw, spec.Kind)
	}
}

// History returns the published, non-prerelease versions in descending order.
func (c *Client) History(ctx context.Context) ([]string, error) {
	releases, err := c.releases(ctx)
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(releases))
	for _, r := range releases {
		if !r.Prerelease {
			tags = append(tags, r.TagName)
		}
	}
	return version.SortDescending(tags, c.logger), nil
}

// LastCandidate returns the newest release candidate in the release list,
// whether or not its release has since shipped.
func (c *Client) LastCandidate(ctx context.Context) (string, error) {
	releases, err := c.releases(ctx)
	if err != nil {
		return "", err
	}

	var candidates []string
	for _, r := range releases {
		if version.IsCandidate(r.TagName) {
			candidates = append(candidates, r.TagName)
		}
	}

	sorted := version.SortDescending(candidates, c.logger)
	if len(sorted) == 0 {
		return "", fmt.Errorf("%w: cannot resolve version %q: there are no release candidates",
			ErrNotEnoughReleases, version.AliasLastCandidate)
	}
	return sorted[0], nil
}

// releases returns every entry of the release list, from the cache when it
// is fresh and from the network otherwise.
func (c *Client) releases(ctx context.Context) ([]release, error) {
	if releases, ok := c.cachedReleases(); ok {
		return releases, nil
	}

	body, err := c.fetcher.Fetch(ctx, c.releasesURL, httpclient.Bearer(c.token)...)
	if err != nil {
		return nil, fmt.Errorf("fetch release list: %w", err)
	}

	releases, err := parseReleases(body)
	if err != nil {
		return nil, fmt.Errorf("parse release list from %s: %w", c.releasesURL, err)
	}

	if err := writeFileAtomically(c.cachePath(), body); err != nil {
		return nil, fmt.Errorf("cache release list: %w", err)
	}

	return releases, nil
}

// cachedReleases returns the entries of a fresh, parsable cache file.
func (c *Client) cachedReleases() ([]release, bool) {
	path := c.cachePath()

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	age := cacheAge(c.clock, info.ModTime())
	if age >= FreshnessWindow {
		c.logger.Debug("release list cache is stale", "path", path, "age", age)
		return nil, false
	}

	body, err := os.ReadFile(path)
	if err != nil {
		c.logger.Warn("could not read cached release list", "path", path, "error", err)
		return nil, false
	}

	releases, err := parseReleases(body)
	if err != nil {
		c.logger.Warn("could not parse cached release list", "path", path, "error", err)
		return nil, false
	}

	return releases, true
}

func (c *Client) cachePath() string {
	return filepath.Join(c.home, CacheFileName)
}

// ResolveLatest returns history[offset]. history must be in descending order.
func ResolveLatest(history []string, offset int) (string, error) {
	if offset < 0 || offset >= len(history) {
		label := version.DefaultVersion
		if offset != 0 {
			label = fmt.Sprintf("latest-%d", offset)
		}
		return "", fmt.Errorf("%w: cannot resolve version %q: there are only %d Bazel releases",
			ErrNotEnoughReleases, label, len(history))
	}
	return history[offset], nil
}

// GreenCommit returns the commit currently published for alias.
func (c *Client) GreenCommit(ctx context.Context, alias string) (string, error) {
	suffix, ok := aliasPaths[alias]
	if !ok {
		return "", fmt.Errorf("%w %q: unknown commit alias", version.ErrInvalidVersion, alias)
	}

	body, err := c.fetcher.Fetch(ctx, c.greenBaseURL+suffix)
	if err != nil {
		return "", fmt.Errorf("fetch %s commit: %w", alias, err)
	}

	commit := strings.TrimSpace(string(body))
	if commit == "" {
		return "", fmt.Errorf("fetch %s commit: empty response", alias)
	}
	// The commit becomes part of a cache file name.
	if !version.IsCommit(commit) {
		return "", fmt.Errorf("%w: %s marker is not a commit hash: %q", version.ErrInvalidVersion, alias, truncate(commit, 64))
	}
	return commit, nil
}

// release models only the fields of a GitHub release needed here.
type release struct {
	TagName    string `json:"tag_name"`
	Prerelease bool   `json:"prerelease"`
}

func parseReleases(body []byte) ([]release, error) {
	var all []release
	if err := json.Unmarshal(body, &all); err != nil {
		return nil, fmt.Errorf("decode release JSON: %w", err)
	}

	releases := all[:0]
	for _, r := range all {
		if r.TagName != "" {
			releases = append(releases, r)
		}
	}
	return releases, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// writeFileAtomically writes data next to path and renames it into place.
func writeFileAtomically(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	// Removing after a successful rename is a no-op.
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

package version

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ZebulonRouseFrantzich/baton/internal/config"
	"github.com/ZebulonRouseFrantzich/baton/internal/workspace"
)

// Source records which precedence level produced a directive.
type Source int

const (
	// SourceOverride is the USE_BAZEL_VERSION setting.
	SourceOverride Source = iota
	// SourcePinFile is the workspace's .bazelversion file.
	SourcePinFile
	// SourceFallback is the USE_BAZEL_FALLBACK_VERSION setting.
	SourceFallback
	// SourceDefault is the built-in "latest".
	SourceDefault
)

// String returns the name of the source.
func (s Source) String() string {
	switch s {
	case SourceOverride:
		return config.KeyVersion
	case SourcePinFile:
		return workspace.VersionFile
	case SourceFallback:
		return config.KeyFallbackVersion
	case SourceDefault:
		return "default"
	default:
		return "unknown"
	}
}

// DefaultVersion is used when nothing else selects a version.
const DefaultVersion = "latest"

// ErrFallbackForbidden is returned when the fallback mode is "error" and no
// higher precedence source selected a version.
var ErrFallbackForbidden = errors.New("fallback version not allowed")

// Lookup reads configuration values.
type Lookup interface {
	Get(key string) string
}

// Directive is the version string chosen for an invocation and where it came from.
type Directive struct {
	Value  string
	Source Source
}

// Specifier parses the directive's value.
func (d Directive) Specifier() (Specifier, error) {
	return Parse(d.Value)
}

// ResolveDirective decides which version string applies. First match wins:
// the override setting, the pin file under workspaceRoot, the fallback
// setting, then "latest". An empty workspaceRoot or an unreadable pin file
// falls through to the next level. No network access happens here.
func ResolveDirective(cfg Lookup, workspaceRoot string, logger *slog.Logger) (Directive, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if v := strings.TrimSpace(cfg.Get(config.KeyVersion)); v != "" {
		return Directive{Value: v, Source: SourceOverride}, nil
	}

	if workspaceRoot != "" {
		pinned, err := workspace.ReadPinnedVersion(workspaceRoot)
		if err != nil {
			logger.Debug("ignoring unreadable version file", "root", workspaceRoot, "error", err)
		} else if pinned != "" {
			return Directive{Value: pinned, Source: SourcePinFile}, nil
		}
	}

	return resolveFallback(cfg.Get(config.KeyFallbackVersion), logger)
}

// resolveFallback interprets "[silent:|warn:|error:]<version>".
func resolveFallback(format string, logger *slog.Logger) (Directive, error) {
	format = strings.TrimSpace(format)
	if format == "" {
		return Directive{Value: DefaultVersion, Source: SourceDefault}, nil
	}

	mode, value, found := strings.Cut(format, ":")
	if !found {
		mode, value = "silent", format
	}
	if value == "" {
		value = DefaultVersion
	}

	switch mode {
	case "silent":
		return Directive{Value: value, Source: SourceFallback}, nil
	case "warn":
		logger.Warn("using fallback version", "version", value)
		return Directive{Value: value, Source: SourceFallback}, nil
	case "error":
		return Directive{}, fmt.Errorf("%w: %q", ErrFallbackForbidden, value)
	default:
		return Directive{}, fmt.Errorf("%w: invalid %s %q (expected [silent:|warn:|error:]<version>)",
			ErrInvalidVersion, config.KeyFallbackVersion, format)
	}
}

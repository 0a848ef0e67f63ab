// Package artifact names Bazel binaries and builds their download URLs.
package artifact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ZebulonRouseFrantzich/baton/internal/platform"
	"github.com/ZebulonRouseFrantzich/baton/internal/version"
)

const (
	// DefaultReleaseBaseURL hosts signed release and candidate binaries.
	DefaultReleaseBaseURL = "https://releases.bazel.build"
	// DefaultCommitBaseURL hosts unsigned binaries built from every green commit.
	DefaultCommitBaseURL = "https://storage.googleapis.com/bazel-builds/artifacts"
	// SignatureSuffix is appended to a binary URL to locate its detached signature.
	SignatureSuffix = ".sig"
)

// releaseParts splits "0.20.0rc1" into "0.20.0" and "rc1".
var releaseParts = regexp.MustCompile(`^(\d+\.\d+(?:\.\d+)?)(rc\d+)?$`)

// Location is where one version/platform pair can be downloaded from.
type Location struct {
	Filename  string
	BinaryURL string
	// SignatureURL is empty for commit builds, which are not signed.
	SignatureURL string
}

// Signed reports whether the artifact has a detached signature.
func (l Location) Signed() bool {
	return l.SignatureURL != ""
}

// Locator builds Locations. The zero value uses the default hosts.
type Locator struct {
	ReleaseBaseURL string
	CommitBaseURL  string
}

// Filename returns the cache filename for id on target.
func Filename(id string, target platform.Target) string {
	return fmt.Sprintf("bazel-%s-%s-%s%s", id, target.OS, target.Arch, target.ExecutableSuffix())
}

// Locate returns the filename and URLs for resolved on target.
func (l Locator) Locate(resolved version.Resolved, target platform.Target) (Location, error) {
	filename := Filename(resolved.ID, target)

	if resolved.IsCommit {
		ci := target.CIPlatform()
		if ci == "" {
			return Location{}, fmt.Errorf("%w: no continuous builds for %s", platform.ErrUnsupportedPlatform, target)
		}
		return Location{
			Filename:  filename,
			BinaryURL: fmt.Sprintf("%s/%s/%s/bazel", baseURL(l.CommitBaseURL, DefaultCommitBaseURL), ci, resolved.ID),
		}, nil
	}

	m := releaseParts.FindStringSubmatch(resolved.ID)
	if m == nil {
		return Location{}, fmt.Errorf("%w %q: not a release number", version.ErrInvalidVersion, resolved.ID)
	}

	kind := "release"
	if m[2] != "" {
		kind = m[2]
	}

	binaryURL := fmt.Sprintf("%s/%s/%s/%s", baseURL(l.ReleaseBaseURL, DefaultReleaseBaseURL), m[1], kind, filename)
	return Location{
		Filename:     filename,
		BinaryURL:    binaryURL,
		SignatureURL: binaryURL + SignatureSuffix,
	}, nil
}

func baseURL(configured, fallback string) string {
	if configured == "" {
		return fallback
	}
	return strings.TrimRight(configured, "/")
}

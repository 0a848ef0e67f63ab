// Package version parses Bazel version specifiers, decides which specifier
// applies to an invocation, and orders release tags.
package version

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Kind classifies a version specifier.
type Kind int

const (
	// KindRelease is an explicit release number such as "7.1.0".
	KindRelease Kind = iota
	// KindCandidate is an explicit release candidate such as "7.1.0rc2".
	KindCandidate
	// KindLatest is "latest" or "latest-N".
	KindLatest
	// KindCommitAlias names a continuously updated green commit.
	KindCommitAlias
	// KindCommit is an explicit 40 character commit hash.
	KindCommit
	// KindLastCandidate is "last_rc", the newest published release candidate.
	KindLastCandidate
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRelease:
		return "release"
	case KindCandidate:
		return "release-candidate"
	case KindLatest:
		return "latest"
	case KindCommitAlias:
		return "commit-alias"
	case KindCommit:
		return "commit"
	case KindLastCandidate:
		return "last-candidate"
	default:
		return "unknown"
	}
}

// Named commit aliases.
const (
	AliasLastGreen           = "last_green"
	AliasLastDownstreamGreen = "last_downstream_green"
	// AliasLastCandidate resolves against the release list, not a commit marker.
	AliasLastCandidate = "last_rc"
)

// ErrInvalidVersion is returned for specifiers that match no known syntax.
var ErrInvalidVersion = errors.New("invalid version")

var (
	latestPattern    = regexp.MustCompile(`^latest(?:-(\d+))?$`)
	releasePattern   = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?$`)
	candidatePattern = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?rc\d+$`)
	commitPattern    = regexp.MustCompile(`^[0-9a-f]{40}$`)
)

// Specifier is a parsed version specifier. The zero value is not valid; use Parse.
type Specifier struct {
	Kind Kind
	// Raw is the specifier as written.
	Raw string
	// Offset is N for "latest-N"; zero otherwise.
	Offset int
}

// Parse classifies raw.
func Parse(raw string) (Specifier, error) {
	switch {
	case raw == AliasLastGreen || raw == AliasLastDownstreamGreen:
		return Specifier{Kind: KindCommitAlias, Raw: raw}, nil
	case raw == AliasLastCandidate:
		return Specifier{Kind: KindLastCandidate, Raw: raw}, nil
	case releasePattern.MatchString(raw):
		return Specifier{Kind: KindRelease, Raw: raw}, nil
	case candidatePattern.MatchString(raw):
		return Specifier{Kind: KindCandidate, Raw: raw}, nil
	case commitPattern.MatchString(raw):
		return Specifier{Kind: KindCommit, Raw: raw}, nil
	}

	if m := latestPattern.FindStringSubmatch(raw); m != nil {
		offset := 0
		if m[1] != "" {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return Specifier{}, fmt.Errorf("%w %q: could not parse offset: %v", ErrInvalidVersion, raw, err)
			}
			offset = n
		}
		return Specifier{Kind: KindLatest, Raw: raw, Offset: offset}, nil
	}

	return Specifier{}, fmt.Errorf("%w %q: in addition to a version number such as \"0.20.0\" "+
		"or a release candidate such as \"0.20.0rc1\", you can use \"latest\", \"latest-N\" "+
		"(N being a non-negative integer), %q, %q or %q", ErrInvalidVersion, raw, AliasLastCandidate, AliasLastGreen, AliasLastDownstreamGreen)
}

// IsCommit reports whether s is a full 40 character lower-case commit hash.
func IsCommit(s string) bool {
	return commitPattern.MatchString(s)
}

// IsCandidate reports whether s is a release candidate tag such as "7.1.0rc2".
func IsCandidate(s string) bool {
	return candidatePattern.MatchString(s)
}

// String returns the specifier as written.
func (s Specifier) String() string {
	return s.Raw
}

// Resolved is a concrete release number, release candidate, or commit.
// IsCommit discriminates the two: ID is a commit hash iff IsCommit is true.
type Resolved struct {
	ID       string
	IsCommit bool
}

// String returns the identifier, prefixed with "commit " for commits.
func (r Resolved) String() string {
	if r.IsCommit {
		return "commit " + r.ID
	}
	return r.ID
}

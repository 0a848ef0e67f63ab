package version

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// SortDescending returns tags ordered newest first. Numeric components compare
// numerically and a pre-release suffix such as "rc1" sorts below the bare
// release of the same number. Candidates of one release compare by their
// number, so rc10 is newer than rc2. Tags that do not parse as versions are dropped
// with a warning.
func SortDescending(tags []string, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	parsed := make(goversion.Collection, 0, len(tags))
	for _, tag := range tags {
		v, err := goversion.NewVersion(tag)
		if err != nil {
			logger.Warn("skipping unparsable release tag", "tag", tag, "error", err)
			continue
		}
		parsed = append(parsed, v)
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		return newer(parsed[i], parsed[j])
	})

	sorted := make([]string, len(parsed))
	for i, v := range parsed {
		sorted[i] = v.Original()
	}
	return sorted
}

// newer reports whether a sorts before b in a newest-first list.
func newer(a, b *goversion.Version) bool {
	if c := a.Core().Compare(b.Core()); c != 0 {
		return c > 0
	}

	pa, pb := a.Prerelease(), b.Prerelease()
	switch {
	case pa == pb:
		return false
	case pa == "":
		return true
	case pb == "":
		return false
	}

	na, okA := candidateNumber(pa)
	nb, okB := candidateNumber(pb)
	if okA && okB {
		return na > nb
	}
	return pa > pb
}

// candidateNumber extracts N from a pre-release part "rcN".
func candidateNumber(prerelease string) (int, bool) {
	digits, found := strings.CutPrefix(prerelease, "rc")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Package workspace locates the Bazel workspace enclosing a directory and
// reads the files the launcher consults there.
package workspace

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// VersionFile is the pin file holding the Bazel version for a workspace.
const VersionFile = ".bazelversion"

// markers are the files whose presence identifies a workspace root.
var markers = [...]string{"MODULE.bazel", "REPO.bazel", "WORKSPACE.bazel", "WORKSPACE"}

// FindRoot walks upward from startDir and returns the first directory holding
// a workspace marker file. ok is false if the filesystem root is reached first.
func FindRoot(startDir string) (root string, ok bool) {
	dir := filepath.Clean(startDir)
	for {
		for _, marker := range markers {
			if isRegularFile(filepath.Join(dir, marker)) {
				return dir, true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// ReadPinnedVersion returns the first line of the workspace's version file,
// trimmed. An empty string and nil error mean no usable pin exists.
func ReadPinnedVersion(root string) (string, error) {
	path := filepath.Join(root, VersionFile)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Scan()
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return strings.TrimSpace(scanner.Text()), nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

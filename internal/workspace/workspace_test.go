package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestFindRoot(t *testing.T) {
	tests := []struct {
		name     string
		marker   string
		startRel string
		wantOK   bool
	}{
		{"module file in start dir", "MODULE.bazel", ".", true},
		{"workspace file two levels up", "WORKSPACE", "a/b", true},
		{"workspace.bazel", "WORKSPACE.bazel", "pkg", true},
		{"repo.bazel", "REPO.bazel", "pkg", true},
		{"no marker", "", "a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			if tt.marker != "" {
				writeFile(t, filepath.Join(root, tt.marker), "")
			}
			start := filepath.Join(root, tt.startRel)
			if err := os.MkdirAll(start, 0755); err != nil {
				t.Fatalf("failed to create start dir: %v", err)
			}

			got, ok := FindRoot(start)
			if ok != tt.wantOK {
				t.Fatalf("FindRoot() ok = %v, want %v (root %q)", ok, tt.wantOK, got)
			}
			if tt.wantOK && got != root {
				t.Errorf("FindRoot() = %q, want %q", got, root)
			}
		})
	}
}

func TestFindRoot_DirectoryMarkerIgnored(t *testing.T) {
	root := t.TempDir()
	inner := filepath.Join(root, "inner")
	// A directory named WORKSPACE is not a marker.
	if err := os.MkdirAll(filepath.Join(inner, "WORKSPACE"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	writeFile(t, filepath.Join(root, "MODULE.bazel"), "")

	got, ok := FindRoot(inner)
	if !ok || got != root {
		t.Errorf("FindRoot() = %q, %v; want %q, true", got, ok, root)
	}
}

func TestReadPinnedVersion(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		want    string
	}{
		{"missing file", nil, ""},
		{"single line", strPtr("7.1.0\n"), "7.1.0"},
		{"only first line used", strPtr("6.4.0\nlatest\n"), "6.4.0"},
		{"surrounding whitespace", strPtr("  latest-1  \n"), "latest-1"},
		{"empty file", strPtr(""), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			if tt.content != nil {
				writeFile(t, filepath.Join(root, VersionFile), *tt.content)
			}

			got, err := ReadPinnedVersion(root)
			if err != nil {
				t.Fatalf("ReadPinnedVersion() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadPinnedVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func strPtr(s string) *string { return &s }

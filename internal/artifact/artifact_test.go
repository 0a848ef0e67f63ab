package artifact

import (
	"errors"
	"testing"

	"github.com/ZebulonRouseFrantzich/baton/internal/platform"
	"github.com/ZebulonRouseFrantzich/baton/internal/version"
)

func mustTarget(t *testing.T, goos string) platform.Target {
	t.Helper()
	target, err := platform.NewTarget(goos, "amd64")
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}
	return target
}

func TestFilename(t *testing.T) {
	tests := []struct {
		goos string
		id   string
		want string
	}{
		{"linux", "0.20.0", "bazel-0.20.0-linux-x86_64"},
		{"darwin", "0.20.0rc1", "bazel-0.20.0rc1-darwin-x86_64"},
		{"windows", "7.1.0", "bazel-7.1.0-windows-x86_64.exe"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Filename(tt.id, mustTarget(t, tt.goos)); got != tt.want {
				t.Errorf("Filename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocatorLocate(t *testing.T) {
	commit := "0123456789abcdef0123456789abcdef01234567"

	tests := []struct {
		name      string
		locator   Locator
		goos      string
		resolved  version.Resolved
		wantBin   string
		wantSig   string
		wantErr   error
		wantFname string
	}{
		{
			name:      "release",
			goos:      "linux",
			resolved:  version.Resolved{ID: "0.19.1"},
			wantFname: "bazel-0.19.1-linux-x86_64",
			wantBin:   "https://releases.bazel.build/0.19.1/release/bazel-0.19.1-linux-x86_64",
			wantSig:   "https://releases.bazel.build/0.19.1/release/bazel-0.19.1-linux-x86_64.sig",
		},
		{
			name:      "release candidate",
			goos:      "darwin",
			resolved:  version.Resolved{ID: "0.20.0rc1"},
			wantFname: "bazel-0.20.0rc1-darwin-x86_64",
			wantBin:   "https://releases.bazel.build/0.20.0/rc1/bazel-0.20.0rc1-darwin-x86_64",
			wantSig:   "https://releases.bazel.build/0.20.0/rc1/bazel-0.20.0rc1-darwin-x86_64.sig",
		},
		{
			name:      "two component release on windows",
			goos:      "windows",
			resolved:  version.Resolved{ID: "7.1"},
			wantFname: "bazel-7.1-windows-x86_64.exe",
			wantBin:   "https://releases.bazel.build/7.1/release/bazel-7.1-windows-x86_64.exe",
			wantSig:   "https://releases.bazel.build/7.1/release/bazel-7.1-windows-x86_64.exe.sig",
		},
		{
			name:      "custom release host",
			locator:   Locator{ReleaseBaseURL: "https://mirror.example/bazel/"},
			goos:      "linux",
			resolved:  version.Resolved{ID: "6.0.0"},
			wantFname: "bazel-6.0.0-linux-x86_64",
			wantBin:   "https://mirror.example/bazel/6.0.0/release/bazel-6.0.0-linux-x86_64",
			wantSig:   "https://mirror.example/bazel/6.0.0/release/bazel-6.0.0-linux-x86_64.sig",
		},
		{
			name:      "commit on linux",
			goos:      "linux",
			resolved:  version.Resolved{ID: commit, IsCommit: true},
			wantFname: "bazel-" + commit + "-linux-x86_64",
			wantBin:   "https://storage.googleapis.com/bazel-builds/artifacts/ubuntu1404/" + commit + "/bazel",
		},
		{
			name:      "commit on macos",
			goos:      "darwin",
			resolved:  version.Resolved{ID: commit, IsCommit: true},
			wantFname: "bazel-" + commit + "-darwin-x86_64",
			wantBin:   "https://storage.googleapis.com/bazel-builds/artifacts/macos/" + commit + "/bazel",
		},
		{
			name:     "malformed release",
			goos:     "linux",
			resolved: version.Resolved{ID: "banana"},
			wantErr:  version.ErrInvalidVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := tt.locator.Locate(tt.resolved, mustTarget(t, tt.goos))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Locate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Locate() error = %v", err)
			}
			if loc.Filename != tt.wantFname {
				t.Errorf("Filename = %q, want %q", loc.Filename, tt.wantFname)
			}
			if loc.BinaryURL != tt.wantBin {
				t.Errorf("BinaryURL = %q, want %q", loc.BinaryURL, tt.wantBin)
			}
			if loc.SignatureURL != tt.wantSig {
				t.Errorf("SignatureURL = %q, want %q", loc.SignatureURL, tt.wantSig)
			}
			if loc.Signed() != (tt.wantSig != "") {
				t.Errorf("Signed() = %v", loc.Signed())
			}
		})
	}
}

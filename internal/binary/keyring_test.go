package binary

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ZebulonRouseFrantzich/baton/internal/httpclient"
)

// keyServer publishes one keyring and counts how often it is fetched.
type keyServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newKeyServer(t *testing.T, key []byte) *keyServer {
	t.Helper()
	s := &keyServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		if key == nil {
			http.NotFound(w, r)
			return
		}
		w.Write(key)
	}))
	t.Cleanup(s.Close)
	return s
}

func newRemoteKey(srv *keyServer, path, fingerprint string) *RemoteKey {
	return &RemoteKey{
		URL:         srv.URL + "/bazel-release.pub.gpg",
		Path:        path,
		Fingerprint: fingerprint,
		Transport:   httpclient.New(""),
	}
}

func TestRemoteKey_FetchesOnceAndCaches(t *testing.T) {
	signer := newTestSigner(t)
	published := signer.publicKey(t)
	srv := newKeyServer(t, published)
	path := filepath.Join(t.TempDir(), "keys", ReleaseKeyFileName)
	source := newRemoteKey(srv, path, signer.fingerprint())

	for i := 0; i < 2; i++ {
		key, err := source.ReleaseKey(context.Background())
		if err != nil {
			t.Fatalf("ReleaseKey() #%d error = %v", i+1, err)
		}
		if _, err := pinnedEntity(key, signer.fingerprint()); err != nil {
			t.Fatalf("ReleaseKey() #%d returned an unpinned key: %v", i+1, err)
		}
	}

	if got := srv.hits.Load(); got != 1 {
		t.Errorf("key fetched %d times, want 1", got)
	}
	cached, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("key not cached: %v", err)
	}
	if !bytes.Equal(cached, published) {
		t.Error("cached key differs from the published key")
	}
	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestRemoteKey_RejectsUnpinnedKey(t *testing.T) {
	served, pinned := newTestSigner(t), newTestSigner(t)
	srv := newKeyServer(t, served.publicKey(t))
	path := filepath.Join(t.TempDir(), "keys", ReleaseKeyFileName)
	source := newRemoteKey(srv, path, pinned.fingerprint())

	_, err := source.ReleaseKey(context.Background())
	if err == nil {
		t.Fatal("ReleaseKey() expected error for a key without the pinned fingerprint")
	}
	if !strings.Contains(err.Error(), "pinned fingerprint") {
		t.Errorf("error = %v, want pinned fingerprint message", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("unpinned key was cached: %v", err)
	}
}

func TestRemoteKey_ReplacesUnusableCache(t *testing.T) {
	stale, signer := newTestSigner(t), newTestSigner(t)
	srv := newKeyServer(t, signer.publicKey(t))
	dir := t.TempDir()

	tests := []struct {
		name   string
		cached []byte
	}{
		{"garbage", []byte("not a key")},
		{"other key", stale.publicKey(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name+".gpg", tt.cached)
			source := newRemoteKey(srv, path, signer.fingerprint())
			before := srv.hits.Load()

			if _, err := source.ReleaseKey(context.Background()); err != nil {
				t.Fatalf("ReleaseKey() error = %v", err)
			}
			if srv.hits.Load() != before+1 {
				t.Error("expected the key to be fetched again")
			}

			cached, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read cache: %v", err)
			}
			if _, err := pinnedEntity(cached, signer.fingerprint()); err != nil {
				t.Errorf("cache was not replaced: %v", err)
			}
		})
	}
}

func TestRemoteKey_DownloadFailure(t *testing.T) {
	srv := newKeyServer(t, nil)
	path := filepath.Join(t.TempDir(), ReleaseKeyFileName)
	source := newRemoteKey(srv, path, ReleaseKeyFingerprint)

	if _, err := source.ReleaseKey(context.Background()); err == nil {
		t.Fatal("ReleaseKey() expected error")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("nothing should be cached after a failed fetch: %v", err)
	}
}

func TestRemoteKey_FetchedOnlyForSignedArtifacts(t *testing.T) {
	signer := newTestSigner(t)
	srv := newKeyServer(t, signer.publicKey(t))
	a, err := NewAuthenticator(AuthenticatorConfig{
		Mode:        ModeOpenPGP,
		Source:      newRemoteKey(srv, filepath.Join(t.TempDir(), ReleaseKeyFileName), signer.fingerprint()),
		Fingerprint: signer.fingerprint(),
		TempDir:     t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}
	if got := srv.hits.Load(); got != 0 {
		t.Fatalf("key fetched %d times before any verification", got)
	}

	payload := []byte("payload")
	dir := t.TempDir()
	bin := writeFile(t, dir, "bazel", payload)
	sig := writeFile(t, dir, "bazel.sig", signer.sign(t, payload))

	ok, err := a.Verify(context.Background(), bin, sig)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Error("Verify() = false, want true")
	}
	if got := srv.hits.Load(); got != 1 {
		t.Errorf("key fetched %d times, want 1", got)
	}
}

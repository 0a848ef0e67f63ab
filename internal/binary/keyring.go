package binary

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"       //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/ProtonMail/go-crypto/openpgp/armor" //nolint:staticcheck // Using ProtonMail's maintained fork
)

const (
	// DefaultReleaseKeyURL publishes the key that signs Bazel releases.
	DefaultReleaseKeyURL = "https://bazel.build/bazel-release.pub.gpg"

	// ReleaseKeyFingerprint is the primary key fingerprint of the Bazel
	// release key. Keys fetched from DefaultReleaseKeyURL must carry it.
	ReleaseKeyFingerprint = "71A1D0EFCFEB6281FD0437C93D5919B448457EE0"

	// ReleaseKeyFileName is the cached copy of the release key under Home/keys.
	ReleaseKeyFileName = "bazel-release.pub.gpg"
)

const (
	trustStoreKeyFile        = "release.asc"
	trustStoreOwnertrustFile = "ownertrust.txt"
)

// KeySource supplies the public keyring holding the release key.
type KeySource interface {
	ReleaseKey(ctx context.Context) ([]byte, error)
}

// StaticKey is a keyring supplied up front, such as BATON_RELEASE_KEY_FILE.
type StaticKey []byte

// ReleaseKey returns the key bytes.
func (k StaticKey) ReleaseKey(context.Context) ([]byte, error) {
	return k, nil
}

// RemoteKey downloads the release key on first use and keeps a copy at Path.
// A download is cached only if it holds the pinned fingerprint.
type RemoteKey struct {
	URL         string
	Path        string
	Fingerprint string
	Transport   Transport
	Logger      *slog.Logger
}

// ReleaseKey returns the cached key, fetching it when the cache is missing or
// does not hold the pinned fingerprint.
func (k *RemoteKey) ReleaseKey(ctx context.Context) ([]byte, error) {
	logger := k.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	url := k.URL
	if url == "" {
		url = DefaultReleaseKeyURL
	}
	fingerprint := k.Fingerprint
	if fingerprint == "" {
		fingerprint = ReleaseKeyFingerprint
	}

	if key, err := os.ReadFile(k.Path); err == nil {
		if _, err := pinnedEntity(key, fingerprint); err == nil {
			return key, nil
		}
		logger.Warn("cached release key is unusable, fetching it again", "path", k.Path, "error", err)
	}

	if k.Transport == nil {
		return nil, fmt.Errorf("fetch release key: no transport")
	}

	logger.Debug("fetching release key", "url", url)
	var buf bytes.Buffer
	if err := k.Transport.Download(ctx, url, &buf); err != nil {
		return nil, fmt.Errorf("fetch release key: %w", err)
	}
	key := buf.Bytes()

	if _, err := pinnedEntity(key, fingerprint); err != nil {
		return nil, fmt.Errorf("release key from %s: %w", url, err)
	}

	if err := writeKeyFile(k.Path, key); err != nil {
		return nil, fmt.Errorf("cache release key: %w", err)
	}
	return key, nil
}

// writeKeyFile replaces path with data through a temporary sibling.
func writeKeyFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// ReadKeyFile loads an armored public key from disk, for BATON_RELEASE_KEY_FILE.
func ReadKeyFile(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read release key: %w", err)
	}
	if _, err := readKeyRing(key); err != nil {
		return nil, fmt.Errorf("parse release key %s: %w", path, err)
	}
	return key, nil
}

// readKeyRing parses an armored or binary public keyring.
func readKeyRing(key []byte) (openpgp.EntityList, error) {
	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(key))
	if err != nil {
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(key))
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

// pinnedEntity returns the entity of keyring whose primary key has fingerprint.
func pinnedEntity(keyring []byte, fingerprint string) (*openpgp.Entity, error) {
	entities, err := readKeyRing(keyring)
	if err != nil {
		return nil, err
	}
	for _, e := range entities {
		if fingerprintOf(e) == strings.ToUpper(fingerprint) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("release key does not match pinned fingerprint %s", fingerprint)
}

// armorPublicKey serializes the public half of e as a single armored block.
func armorPublicKey(e *openpgp.Entity) ([]byte, error) {
	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		return nil, fmt.Errorf("armor release key: %w", err)
	}
	if err := e.Serialize(w); err != nil {
		return nil, fmt.Errorf("serialize release key: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("armor release key: %w", err)
	}
	return buf.Bytes(), nil
}

// fingerprintOf formats an entity's primary key fingerprint as upper-case hex.
func fingerprintOf(e *openpgp.Entity) string {
	return fmt.Sprintf("%X", e.PrimaryKey.Fingerprint)
}

// trustStore is a throwaway keyring directory for a single verification.
type trustStore struct {
	dir string
}

// newTrustStore creates a private directory under parent (the system temp dir
// when empty) holding key and an ultimate-trust record for fingerprint.
func newTrustStore(parent string, key []byte, fingerprint string) (*trustStore, error) {
	dir, err := os.MkdirTemp(parent, "baton-trust-*")
	if err != nil {
		return nil, fmt.Errorf("create trust store: %w", err)
	}
	s := &trustStore{dir: dir}

	if err := os.WriteFile(s.keyPath(), key, 0o600); err != nil {
		s.Close()
		return nil, fmt.Errorf("write trust store key: %w", err)
	}

	ownertrust := strings.ToUpper(fingerprint) + ":6:\n"
	if err := os.WriteFile(s.ownertrustPath(), []byte(ownertrust), 0o600); err != nil {
		s.Close()
		return nil, fmt.Errorf("write trust store ownertrust: %w", err)
	}

	return s, nil
}

func (s *trustStore) keyPath() string {
	return filepath.Join(s.dir, trustStoreKeyFile)
}

func (s *trustStore) ownertrustPath() string {
	return filepath.Join(s.dir, trustStoreOwnertrustFile)
}

// Close removes the store and everything in it.
func (s *trustStore) Close() error {
	return os.RemoveAll(s.dir)
}

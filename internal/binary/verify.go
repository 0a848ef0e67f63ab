package binary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

const (
	gpgTool     = "gpg"
	gpgconfTool = "gpgconf"
)

// AuthenticatorConfig holds configuration for an Authenticator
type AuthenticatorConfig struct {
	Mode Mode
	// Key is a public keyring supplied up front. It takes precedence over Source.
	Key []byte
	// Source fetches the keyring when a signature is first checked.
	Source KeySource
	// Fingerprint pins the signing key. Defaults to the first key's
	// fingerprint for Key and to ReleaseKeyFingerprint for Source.
	Fingerprint string
	Logger      *slog.Logger
	// TempDir is where trust stores are created. Defaults to os.TempDir().
	TempDir string
}

// Authenticator checks detached signatures against a pinned release key.
type Authenticator struct {
	mode        Mode
	source      KeySource
	fingerprint string
	logger      *slog.Logger
	tempDir     string
	lookPath    func(string) (string, error)
}

// NewAuthenticator creates an authenticator
func NewAuthenticator(cfg AuthenticatorConfig) (*Authenticator, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeAuto
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	source, fingerprint := cfg.Source, strings.ToUpper(cfg.Fingerprint)
	switch {
	case cfg.Key != nil:
		keyring, err := readKeyRing(cfg.Key)
		if err != nil {
			return nil, fmt.Errorf("load release key: %w", err)
		}
		if fingerprint == "" {
			fingerprint = fingerprintOf(keyring[0])
		}
		source = StaticKey(cfg.Key)
	case source != nil:
		if fingerprint == "" {
			fingerprint = ReleaseKeyFingerprint
		}
	default:
		return nil, fmt.Errorf("no release key configured")
	}

	a := &Authenticator{
		mode:        mode,
		source:      source,
		fingerprint: fingerprint,
		logger:      cfg.Logger,
		tempDir:     cfg.TempDir,
		lookPath:    exec.LookPath,
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}

	return a, nil
}

// Verify reports whether signaturePath is a valid signature of binaryPath by
// the pinned key. A false result with a nil error means the signature did not
// match; errors are reserved for problems running the check at all.
func (a *Authenticator) Verify(ctx context.Context, binaryPath, signaturePath string) (bool, error) {
	key, err := a.pinnedKey(ctx)
	if err != nil {
		return false, err
	}

	store, err := newTrustStore(a.tempDir, key, a.fingerprint)
	if err != nil {
		return false, err
	}
	defer store.Close()

	switch a.mode {
	case ModeGPG:
		return a.verifyGPG(ctx, store, binaryPath, signaturePath)
	case ModeOpenPGP:
		return a.verifyOpenPGP(store, binaryPath, signaturePath)
	default:
		if _, err := a.lookPath(gpgTool); err == nil {
			return a.verifyGPG(ctx, store, binaryPath, signaturePath)
		}
		a.logger.Debug("gpg not found, verifying in-process")
		return a.verifyOpenPGP(store, binaryPath, signaturePath)
	}
}

// pinnedKey returns the pinned key alone, armored, so a trust store never
// holds any other key.
func (a *Authenticator) pinnedKey(ctx context.Context) ([]byte, error) {
	keyring, err := a.source.ReleaseKey(ctx)
	if err != nil {
		return nil, err
	}
	entity, err := pinnedEntity(keyring, a.fingerprint)
	if err != nil {
		return nil, err
	}
	return armorPublicKey(entity)
}

// verifyGPG imports the store's key and trust record into an isolated gpg home
// and runs gpg --verify.
func (a *Authenticator) verifyGPG(ctx context.Context, store *trustStore, binaryPath, signaturePath string) (bool, error) {
	gpg, err := a.lookPath(gpgTool)
	if err != nil {
		a.logger.Warn("gpg is not installed, skipping signature verification", "binary", binaryPath)
		return true, nil
	}
	defer a.stopAgent(store.dir)

	if out, err := runGPG(ctx, gpg, store.dir, "--import-ownertrust", store.ownertrustPath()); err != nil {
		return false, fmt.Errorf("import ownertrust: %w: %s", err, out)
	}
	if out, err := runGPG(ctx, gpg, store.dir, "--import", store.keyPath()); err != nil {
		return false, fmt.Errorf("import release key: %w: %s", err, out)
	}

	out, err := runGPG(ctx, gpg, store.dir, "--status-fd", "1", "--verify", signaturePath, binaryPath)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			a.logger.Debug("gpg rejected signature", "output", strings.TrimSpace(string(out)))
			return false, nil
		}
		return false, fmt.Errorf("run gpg: %w", err)
	}

	if !validSignatureBy(out, a.fingerprint) {
		a.logger.Debug("gpg accepted a signature from an unpinned key", "output", strings.TrimSpace(string(out)))
		return false, nil
	}

	return true, nil
}

// validSignatureBy reports whether gpg status output has a VALIDSIG line whose
// signing key or primary key fingerprint is fingerprint.
//
//	[GNUPG:] VALIDSIG <sig fpr> <date> <ts> <expire> <ver> <rsv> <pk algo> <hash algo> <class> <primary fpr>
func validSignatureBy(status []byte, fingerprint string) bool {
	for _, line := range strings.Split(string(status), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] != "[GNUPG:]" || fields[1] != "VALIDSIG" {
			continue
		}
		if strings.EqualFold(fields[2], fingerprint) {
			return true
		}
		if len(fields) >= 12 && strings.EqualFold(fields[11], fingerprint) {
			return true
		}
	}
	return false
}

func runGPG(ctx context.Context, gpg, home string, args ...string) ([]byte, error) {
	argv := append([]string{"--homedir", home, "--batch", "--no-tty"}, args...)
	return exec.CommandContext(ctx, gpg, argv...).CombinedOutput()
}

// stopAgent shuts down any gpg-agent started for home so it does not outlive
// the trust store.
func (a *Authenticator) stopAgent(home string) {
	gpgconf, err := a.lookPath(gpgconfTool)
	if err != nil {
		return
	}
	if out, err := exec.Command(gpgconf, "--homedir", home, "--kill", "all").CombinedOutput(); err != nil {
		a.logger.Debug("stop gpg-agent", "error", err, "output", strings.TrimSpace(string(out)))
	}
}

// verifyOpenPGP checks the signature in-process against the store's key.
func (a *Authenticator) verifyOpenPGP(store *trustStore, binaryPath, signaturePath string) (bool, error) {
	key, err := os.ReadFile(store.keyPath())
	if err != nil {
		return false, fmt.Errorf("read trust store key: %w", err)
	}
	keyring, err := readKeyRing(key)
	if err != nil {
		return false, err
	}

	var trusted openpgp.EntityList
	for _, e := range keyring {
		if fingerprintOf(e) == a.fingerprint {
			trusted = append(trusted, e)
		}
	}
	if len(trusted) == 0 {
		return false, fmt.Errorf("release key does not match pinned fingerprint %s", a.fingerprint)
	}

	sig, err := os.ReadFile(signaturePath)
	if err != nil {
		return false, fmt.Errorf("open signature: %w", err)
	}

	binaryFile, err := os.Open(binaryPath)
	if err != nil {
		return false, fmt.Errorf("open binary: %w", err)
	}
	defer binaryFile.Close()

	if bytes.HasPrefix(bytes.TrimSpace(sig), []byte("-----BEGIN")) {
		_, err = openpgp.CheckArmoredDetachedSignature(trusted, binaryFile, bytes.NewReader(sig), nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(trusted, binaryFile, bytes.NewReader(sig), nil)
	}
	if err != nil {
		a.logger.Debug("signature rejected", "binary", binaryPath, "error", err)
		return false, nil
	}

	return true, nil
}

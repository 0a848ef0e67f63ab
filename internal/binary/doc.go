// Package binary downloads, authenticates, and caches Bazel binaries.
//
// # Security Model
//
// A binary becomes visible in the cache only by an atomic rename of a staging
// file that has already passed authentication:
//   - Downloaded into <final>.<uuid>.staging next to its destination
//   - Release builds are checked against their detached .sig signature
//   - Failed or interrupted acquisitions leave no file at the final path
//
// Commit builds are not signed and are cached without authentication. When a
// SHA256 digest is configured, every binary must match it as well.
//
// # Verification Strategy
//
// The release key is pinned by fingerprint. RemoteKey fetches it on first use
// and caches it only when the fingerprint matches.
//
// Every verification builds a private trust store in a fresh temporary
// directory holding the pinned key alone and an ownertrust record for its
// fingerprint. The store is removed when verification returns.
//
//  1. gpg: the external gpg tool is run with --homedir pointing at the store,
//     and its VALIDSIG status must name the pinned key. When gpg is not
//     installed the binary is accepted with a warning.
//  2. openpgp: the signature is checked in-process with ProtonMail's go-crypto,
//     and the key must carry the pinned fingerprint.
//  3. auto: gpg when it is on PATH, openpgp otherwise.
//
// # Usage
//
//	auth, err := binary.NewAuthenticator(binary.AuthenticatorConfig{
//	    Mode: binary.ModeAuto,
//	    Source: &binary.RemoteKey{
//	        Path:      filepath.Join(home, "keys", binary.ReleaseKeyFileName),
//	        Transport: transport,
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//
//	mgr, err := binary.NewManager(binary.Config{
//	    Home:          home,
//	    Target:        target,
//	    Transport:     transport,
//	    Authenticator: auth,
//	})
//	if err != nil {
//	    return err
//	}
//
//	path, err := mgr.Acquire(ctx, resolved)
package binary
